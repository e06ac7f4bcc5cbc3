package app

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/revsmoke/scanplan-precision/internal/config"
	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/storage"
)

// RunRecorder persists every published measurement into SQLite. One
// recorder run is one session; the session row carries the broker address
// as its source.
func RunRecorder() error {
	cfg := config.Get()

	store := storage.NewStore(cfg.RecorderDBPath)
	defer store.Close()

	ctx := context.Background()
	sessionID, err := store.CreateSession(ctx, cfg.MQTTBroker)
	if err != nil {
		return err
	}
	log.Printf("recorder: session %d opened in %s", sessionID, cfg.RecorderDBPath)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDRecorder)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("recorder: connected to MQTT broker at %s", cfg.MQTTBroker)

	var stored int
	token := client.Subscribe(cfg.TopicMeasurements, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m measure.CompensatedMeasurement
		if err := json.Unmarshal(msg.Payload(), &m); err != nil || m.Raw.Kind == "" {
			// error messages share the topic; skip them
			return
		}

		if err := store.StoreMeasurement(ctx, sessionID, m); err != nil {
			log.Printf("recorder: store error: %v", err)
			return
		}
		stored++
		if stored%50 == 0 {
			log.Printf("recorder: %d measurements stored", stored)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("recorder: subscribed to %s", cfg.TopicMeasurements)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("recorder: shutting down after %d measurements", stored)
	client.Disconnect(250)
	return nil
}
