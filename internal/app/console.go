package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/revsmoke/scanplan-precision/internal/calibration"
	"github.com/revsmoke/scanplan-precision/internal/config"
	"github.com/revsmoke/scanplan-precision/internal/engine"
	"github.com/revsmoke/scanplan-precision/internal/measure"
)

// RunConsole subscribes to the engine's output topics and pretty-prints
// them. Handy for watching a scan session from a terminal.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	stateToken := client.Subscribe(cfg.TopicMotionState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s StateMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: state unmarshal error: %v", err)
			return
		}
		fmt.Printf("[STATE] %-12s magnitude=%.4f\n", s.State, s.Magnitude)
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMotionState)

	measToken := client.Subscribe(cfg.TopicMeasurements, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m measure.CompensatedMeasurement
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: measurement unmarshal error: %v", err)
			return
		}
		if m.Raw.Kind == "" {
			var e ErrorMessage
			if json.Unmarshal(msg.Payload(), &e) == nil && e.Error != "" {
				fmt.Printf("[FAIL ] %s: %s\n", e.Kind, e.Error)
			}
			return
		}

		verdict := "VALID"
		if !m.Validation.IsValid {
			verdict = "REJECTED"
		}
		fmt.Printf(
			"[MEAS ] %-8s raw=%9.4f comp=%9.4f (±%.4fm, %s) precision=%.2f quality=%.2f state=%s %s\n",
			m.Raw.Kind, m.Raw.Value, m.Compensated.Value,
			m.Assessment.EstimatedError, m.Assessment.Tier,
			m.Validation.PrecisionScore, m.Validation.QualityScore,
			m.MotionState, verdict,
		)
		for _, issue := range m.Validation.Errors {
			fmt.Printf("        error   (%s): %s\n", issue.Validator, issue.Message)
		}
		for _, issue := range m.Validation.Warnings {
			fmt.Printf("        warning (%s): %s\n", issue.Validator, issue.Message)
		}
	})
	measToken.Wait()
	if measToken.Error() != nil {
		return measToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMeasurements)

	metricsToken := client.Subscribe(cfg.TopicMetrics, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m engine.Metrics
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: metrics unmarshal error: %v", err)
			return
		}
		if m.Validations == 0 {
			return
		}
		fmt.Printf(
			"[STATS] n=%d precision=%.3f confidence=%.3f quality=%.3f pass=%.0f%%\n",
			m.Validations, m.RollingPrecision, m.MeanConfidence, m.MeanQuality, m.PassRate*100,
		)
	})
	metricsToken.Wait()
	if metricsToken.Error() != nil {
		return metricsToken.Error()
	}

	calToken := client.Subscribe(cfg.TopicCalibrationResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var d calibration.Data
		if err := json.Unmarshal(msg.Payload(), &d); err != nil {
			log.Printf("console: calibration unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[CALIB] id=%s quality=%.2f valid=%t offset=(%.4f, %.4f, %.4f)\n",
			d.ID, d.Quality, d.Valid, d.Offset.X, d.Offset.Y, d.Offset.Z,
		)
	})
	calToken.Wait()
	if calToken.Error() != nil {
		return calToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCalibrationResult)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
