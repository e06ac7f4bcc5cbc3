package main

import (
	"flag"
	"log"

	"github.com/revsmoke/scanplan-precision/internal/app"
	"github.com/revsmoke/scanplan-precision/internal/config"
)

func main() {
	configPath := flag.String("config", "./precision_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting scanplan-precision measurement recorder (MQTT → SQLite)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunRecorder(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
