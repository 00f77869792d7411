package main

import (
	"flag"
	"log"
	"os"

	"InsiderScan/internal/di"
	"InsiderScan/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s window_days=%d min_actors=%d min_notional=%.0f",
		cfg.Environment, cfg.Scan.WindowDays, cfg.Scan.MinActors, cfg.Scan.MinNotional)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
