package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hydromon/pump-gateway/pkg/api"
	"github.com/hydromon/pump-gateway/pkg/config"
	"github.com/hydromon/pump-gateway/pkg/livestate"
	"github.com/hydromon/pump-gateway/pkg/models"
	"github.com/hydromon/pump-gateway/pkg/postgres"
	"github.com/hydromon/pump-gateway/pkg/services"
	"github.com/hydromon/pump-gateway/pkg/state"
)

// @title Pump Telemetry Gateway API
// @version 1.0
// @description Ingestion and alert-state API for pump asset monitoring
// @BasePath /api

func main() {
	// Configure Log Level from Environment Variable
	logLevelStr := os.Getenv("LOG_LEVEL")
	switch strings.ToLower(logLevelStr) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
	logrus.Infof("Log level set to: %s", logrus.GetLevel().String())

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	devices := make([]models.Device, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		devices = append(devices, models.Device{ID: d.ID, Name: d.Name, Site: d.Site})
	}

	ctx := context.Background()

	// Connect to the durable backend. The gateway stays up without it: ingestion
	// and evaluation degrade to in-memory state and writes are dropped.
	var store postgres.Store
	pgClient, err := postgres.NewClient(ctx, &cfg.Postgres)
	if err != nil {
		logrus.Warnf("Running without durable backend: %v", err)
	} else {
		if err := pgClient.EnsureSchema(ctx); err != nil {
			logrus.Warnf("Failed to ensure backend schema: %v", err)
		}
		store = pgClient
		defer pgClient.Close()
	}

	// Optional live-state mirror
	var mirror *livestate.Mirror
	if cfg.Redis.Addr != "" {
		mirror, err = livestate.NewMirror(ctx, &cfg.Redis)
		if err != nil {
			logrus.Warnf("Running without live-state mirror: %v", err)
			mirror = nil
		} else {
			defer mirror.Close()
		}
	}

	// Initialize state and services
	stateStore := state.NewDeviceStateStore(devices, cfg.Monitor.HistoryLimit)
	ingestService := services.NewIngestService(stateStore, store, mirror)
	alertService := services.NewAlertService(stateStore, store,
		time.Duration(cfg.Monitor.OfflineAfterSeconds)*time.Second)
	thresholdService := services.NewThresholdService(store, config.DefaultThresholds())

	monitor := services.NewMonitor(stateStore, store, alertService, thresholdService,
		time.Duration(cfg.Monitor.PollIntervalSeconds)*time.Second)
	if err := monitor.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start monitor: %v", err)
	}
	logrus.Infof("Monitoring %d devices", len(devices))

	// Set up the Echo server
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// API routes
	apiHandler := api.NewAPIHandler(ingestService, alertService, thresholdService, stateStore, store)
	apiHandler.SetupRoutes(e)

	// Prometheus metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Swagger documentation
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler()))

	// Create HTTP server
	// Use PORT environment variable if available, otherwise use config
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Starting server on port %s", port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Stop the poll loop first so no evaluation runs against a closing store
	monitor.Shutdown()

	// Create a deadline for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Shutdown the server
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}
