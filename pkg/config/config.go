package config

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/hydromon/pump-gateway/pkg/models"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Devices  []DeviceConfig `mapstructure:"devices"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	AllowedOrigins  string `mapstructure:"allowedOrigins"`
	ShutdownTimeout int    `mapstructure:"shutdownTimeout"`
}

// PostgresConfig holds the connection settings for the hosted Postgres backend
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	MaxConns int32  `mapstructure:"maxConns"`
}

// RedisConfig holds the live-state mirror settings. An empty address disables
// the mirror entirely.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MonitorConfig holds the polling and liveness parameters
type MonitorConfig struct {
	PollIntervalSeconds int `mapstructure:"pollIntervalSeconds"`
	OfflineAfterSeconds int `mapstructure:"offlineAfterSeconds"`
	HistoryLimit        int `mapstructure:"historyLimit"`
}

// DeviceConfig describes one configured pump asset
type DeviceConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Site string `mapstructure:"site"`
}

// DefaultThresholds returns the limits seeded into the configuration table when
// none are stored yet.
func DefaultThresholds() models.ThresholdConfig {
	return models.ThresholdConfig{
		MaxBearingTemp:  70.0,
		MaxOilTemp:      65.0,
		MaxVibrationRMS: 2.8,
		MaxPressure:     10.0,
		MinPressure:     2.0,
	}
}

// LoadConfig loads the application configuration from file or environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// Set default values
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.allowedOrigins", "*")
	viper.SetDefault("server.shutdownTimeout", 10)
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.user", "pump_gateway")
	viper.SetDefault("postgres.password", "")
	viper.SetDefault("postgres.database", "pump_monitor")
	viper.SetDefault("postgres.maxConns", 10)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("monitor.pollIntervalSeconds", 3)
	viper.SetDefault("monitor.offlineAfterSeconds", 60)
	viper.SetDefault("monitor.historyLimit", 500)

	// Allow environment variables to override config file
	viper.SetEnvPrefix("PUMP_GATEWAY")
	viper.AutomaticEnv()

	// If config file is provided, read it
	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Warnf("Error reading config file: %v", err)
		}
	}

	// Unmarshal config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The deployed site runs three pumps; used when no device set is configured
	if len(config.Devices) == 0 {
		config.Devices = []DeviceConfig{
			{ID: "jacutinga_b01", Name: "Bomba 01", Site: "Jacutinga"},
			{ID: "jacutinga_b02", Name: "Bomba 02", Site: "Jacutinga"},
			{ID: "jacutinga_b03", Name: "Bomba 03", Site: "Jacutinga"},
		}
	}

	return &config, nil
}
