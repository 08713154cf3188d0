package main

import (
	"context"
	"flag"
	"log"
	"os"

	"StockSignal/internal/di"
	"StockSignal/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	once := flag.Bool("once", false, "analyse the watchlist once and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s watchlist=%v source=%s", cfg.Environment, cfg.Watchlist, cfg.MarketData.Source)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	if *once {
		report := app.RunOnce(context.Background())
		if len(report.Signals) == 0 {
			cleanup()
			os.Exit(1)
		}
		return
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
