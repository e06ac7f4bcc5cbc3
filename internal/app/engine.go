package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/revsmoke/scanplan-precision/internal/calibration"
	"github.com/revsmoke/scanplan-precision/internal/config"
	"github.com/revsmoke/scanplan-precision/internal/engine"
	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// RunEngine hosts the measurement engine as an MQTT service: it ingests
// motion samples, serves measure and calibration requests, and publishes
// motion state transitions and rolling metrics.
func RunEngine() error {
	log.Println("starting precision measurement engine")

	cfg := config.Get()

	eng := engine.New(engineConfig(cfg), nil)
	if err := eng.Start(); err != nil {
		return err
	}
	defer eng.Stop()

	// Restore the most recent persisted calibration, if any.
	if data, ok := calibration.LoadLatest(cfg.CalibrationDir); ok {
		eng.Calibration().Restore(data)
		log.Printf("restored calibration %s from %s (quality %.2f)",
			data.ID, data.Timestamp.Format(time.RFC3339), data.Quality)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDEngine)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("engine connected to MQTT broker at %s", cfg.MQTTBroker)

	var stateMu sync.Mutex
	lastState := motion.StateUnknown

	// Motion samples feed the history; state transitions are published
	// retained so late subscribers see the current state immediately.
	sampleToken := client.Subscribe(cfg.TopicMotionSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var sample motion.Sample
		if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
			log.Printf("engine: sample unmarshal error: %v", err)
			return
		}

		state := eng.IngestSample(sample)

		stateMu.Lock()
		changed := state != lastState
		lastState = state
		stateMu.Unlock()

		if !changed {
			return
		}

		payload, err := json.Marshal(StateMessage{
			State:     state,
			Magnitude: sample.Magnitude(cfg.AngularWeight),
			Timestamp: sample.Timestamp,
		})
		if err != nil {
			log.Printf("engine: state marshal error: %v", err)
			return
		}
		client.Publish(cfg.TopicMotionState, 0, true, payload)
		log.Printf("motion state -> %s", state)
	})
	sampleToken.Wait()
	if sampleToken.Error() != nil {
		return sampleToken.Error()
	}
	log.Printf("engine: subscribed to %s", cfg.TopicMotionSamples)

	// Measure requests.
	measureToken := client.Subscribe(cfg.TopicMeasureRequest, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var req MeasureRequest
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			publishError(client, cfg.TopicMeasurements, "", fmt.Errorf("bad request: %w", err))
			return
		}

		result, err := dispatchMeasure(eng, req)
		if err != nil {
			publishError(client, cfg.TopicMeasurements, req.Kind, err)
			return
		}

		payload, err := json.Marshal(result)
		if err != nil {
			log.Printf("engine: measurement marshal error: %v", err)
			return
		}
		if token := client.Publish(cfg.TopicMeasurements, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("engine: measurement publish error: %v", token.Error())
			return
		}
		log.Printf("measured %s: raw=%.4f compensated=%.4f tier=%s valid=%t",
			req.Kind, result.Raw.Value, result.Compensated.Value,
			result.Assessment.Tier, result.Validation.IsValid)
	})
	measureToken.Wait()
	if measureToken.Error() != nil {
		return measureToken.Error()
	}
	log.Printf("engine: subscribed to %s", cfg.TopicMeasureRequest)

	// Calibration requests. Any payload triggers a calibration pass over
	// the current motion history.
	calToken := client.Subscribe(cfg.TopicCalibrationRequest, 0, func(_ mqtt.Client, _ mqtt.Message) {
		data, err := eng.Calibrate()
		if err != nil {
			log.Printf("engine: calibration failed: %v", err)
			payload, _ := json.Marshal(ErrorMessage{Error: err.Error()})
			client.Publish(cfg.TopicCalibrationResult, 0, false, payload)
			return
		}

		if path, err := calibration.WriteFile(cfg.CalibrationDir, data); err != nil {
			log.Printf("engine: calibration write error: %v", err)
		} else {
			log.Printf("calibration saved to %s", path)
		}

		payload, err := json.Marshal(data)
		if err != nil {
			log.Printf("engine: calibration marshal error: %v", err)
			return
		}
		client.Publish(cfg.TopicCalibrationResult, 0, true, payload)
		log.Printf("calibration complete: quality=%.2f valid=%t", data.Quality, data.Valid)
	})
	calToken.Wait()
	if calToken.Error() != nil {
		return calToken.Error()
	}
	log.Printf("engine: subscribed to %s", cfg.TopicCalibrationRequest)

	// Periodic metrics publishing, retained for dashboards.
	metricsInterval := time.Second / time.Duration(cfg.ValidationFrequencyHz)
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			m := eng.Metrics()
			payload, err := json.Marshal(m)
			if err != nil {
				log.Printf("engine: metrics marshal error: %v", err)
				continue
			}
			client.Publish(cfg.TopicMetrics, 0, true, payload)

			if eng.NeedsRecalibration() {
				log.Printf("recalibration needed (rolling precision %.2f)", m.RollingPrecision)
			}

		case <-sigCh:
			log.Println("engine: shutting down")
			return nil
		}
	}
}

// dispatchMeasure maps a request onto the engine operation for its kind.
func dispatchMeasure(eng *engine.Engine, req MeasureRequest) (measure.CompensatedMeasurement, error) {
	at := req.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	switch req.Kind {
	case measure.KindDistance:
		if len(req.Points) != 2 {
			return measure.CompensatedMeasurement{}, fmt.Errorf("distance requires exactly 2 points, got %d", len(req.Points))
		}
		return eng.MeasureDistance(req.Points[0], req.Points[1], at)

	case measure.KindAngle:
		if len(req.Points) != 3 {
			return measure.CompensatedMeasurement{}, fmt.Errorf("angle requires exactly 3 points (vertex first), got %d", len(req.Points))
		}
		return eng.MeasureAngle(req.Points[0], req.Points[1], req.Points[2], at)

	case measure.KindArea:
		return eng.MeasureArea(req.Points, at)

	case measure.KindVolume:
		return eng.MeasureVolume(req.Points, at)

	default:
		return measure.CompensatedMeasurement{}, fmt.Errorf("unknown measurement kind %q", req.Kind)
	}
}

func publishError(client mqtt.Client, topic string, kind measure.Kind, err error) {
	log.Printf("engine: measure request failed: %v", err)
	payload, merr := json.Marshal(ErrorMessage{Error: err.Error(), Kind: kind})
	if merr != nil {
		return
	}
	client.Publish(topic, 0, false, payload)
}
