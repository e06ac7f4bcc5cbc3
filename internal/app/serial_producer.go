package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/revsmoke/scanplan-precision/internal/config"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// RunSerialProducer reads newline-delimited JSON motion samples from a
// serial-attached sensor head and republishes them on the motion samples
// topic. This is the ingest path for external trackers that speak the
// sample format directly.
func RunSerialProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer + "-serial")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("serial producer connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("serial read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}

		var sample motion.Sample
		if err := json.Unmarshal([]byte(line), &sample); err != nil {
			// partial lines are common right after opening the port
			continue
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("sample marshal error: %v", err)
			continue
		}

		token := client.Publish(cfg.TopicMotionSamples, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("serial producer publish error: %v", token.Error())
		}
	}
}
