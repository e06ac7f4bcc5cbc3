package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/revsmoke/scanplan-precision/internal/config"
	"github.com/revsmoke/scanplan-precision/internal/sensors"
)

// RunProducer reads motion samples from the IMU (or the synthetic source
// when IMU_MOCK is set) and publishes them as JSON on the motion samples
// topic at the configured interval.
func RunProducer() error {
	log.Println("starting precision motion producer")

	cfg := config.Get()

	var src sensors.Source
	if cfg.IMUMock {
		log.Println("using mock motion source")
		src = sensors.NewMockSource()
	} else {
		var err error
		src, err = sensors.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin)
		if err != nil {
			log.Printf("IMU init failed: %v", err)
			return err
		}
		log.Printf("IMU initialized on %s (CS pin %s)", cfg.IMUSPIDevice, cfg.IMUCSPin)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	ticker := time.NewTicker(cfg.SampleInterval())
	defer ticker.Stop()

	var published int
	for range ticker.C {
		sample, err := src.Next()
		if err != nil {
			log.Printf("motion source error: %v", err)
			continue
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("sample marshal error: %v", err)
			continue
		}

		if token := client.Publish(cfg.TopicMotionSamples, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (samples): %v", token.Error())
			continue
		}

		published++
		if published%600 == 0 {
			log.Printf("published %d samples, latest accel=(%.3f, %.3f, %.3f) m/s²",
				published,
				sample.UserAcceleration.X, sample.UserAcceleration.Y, sample.UserAcceleration.Z)
		}
	}
	return nil
}
