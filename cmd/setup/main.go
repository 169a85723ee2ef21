package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/config"
	"github.com/hydromon/pump-gateway/pkg/postgres"
)

// Bootstraps the backend: creates the tables and seeds the default thresholds
// plus the configuration access secret. Safe to re-run; existing values are
// never overwritten.
func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.Info("Setting up backend schema for the pump gateway")

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := postgres.NewClient(ctx, &cfg.Postgres)
	if err != nil {
		logrus.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer client.Close()

	if err := client.EnsureSchema(ctx); err != nil {
		logrus.Fatalf("Failed to create schema: %v", err)
	}

	secret := os.Getenv("PUMP_GATEWAY_SETUP_SECRET")
	if secret == "" {
		secret = "trocar-me"
		logrus.Warn("PUMP_GATEWAY_SETUP_SECRET not set, seeding the default secret")
	}

	if err := client.SeedDefaults(ctx, config.DefaultThresholds(), secret); err != nil {
		logrus.Fatalf("Failed to seed configuration defaults: %v", err)
	}

	logrus.Info("Backend setup complete")
}
