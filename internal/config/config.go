package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Pricing  PricingConfig
	Surge    SurgeConfig
	Dispatch DispatchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds JWT verification configuration.
type AuthConfig struct {
	Secret string
}

// KafkaConfig holds the audit event stream configuration.
// An empty broker list disables Kafka and audit records go to the log.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PricingConfig parameterizes the fare calculator. It is injected at
// call time, never read from a package-level default.
type PricingConfig struct {
	BaseFare              float64
	PerKmRate             float64
	PerMinuteRate         float64
	MinimumFare           float64
	DriverCommissionPct   float64
	PlatformCommissionPct float64
	BaseSurgeMultiplier   float64
	Currency              string
}

// SurgeConfig holds surge estimation parameters.
type SurgeConfig struct {
	RadiusKm float64
}

// DispatchConfig holds assignment coordinator parameters.
type DispatchConfig struct {
	RideLockTTL    time.Duration
	NotifyDrivers  int
	NotifyRadiusKm float64
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "motodispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "moto-dispatch"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Kafka: KafkaConfig{
			Brokers: getSliceEnv("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_AUDIT_TOPIC", "dispatch.audit"),
		},
		Pricing: PricingConfig{
			BaseFare:              getFloatEnv("PRICING_BASE_FARE", 5000),
			PerKmRate:             getFloatEnv("PRICING_PER_KM_RATE", 2000),
			PerMinuteRate:         getFloatEnv("PRICING_PER_MINUTE_RATE", 100),
			MinimumFare:           getFloatEnv("PRICING_MINIMUM_FARE", 7000),
			DriverCommissionPct:   getFloatEnv("PRICING_DRIVER_COMMISSION_PCT", 85),
			PlatformCommissionPct: getFloatEnv("PRICING_PLATFORM_COMMISSION_PCT", 15),
			BaseSurgeMultiplier:   getFloatEnv("PRICING_BASE_SURGE_MULTIPLIER", 1.0),
			Currency:              getEnv("PRICING_CURRENCY", "GNF"),
		},
		Surge: SurgeConfig{
			RadiusKm: getFloatEnv("SURGE_RADIUS_KM", 5.0),
		},
		Dispatch: DispatchConfig{
			RideLockTTL:    getDurationEnv("DISPATCH_RIDE_LOCK_TTL", 30*time.Second),
			NotifyDrivers:  getIntEnv("DISPATCH_NOTIFY_DRIVERS", 5),
			NotifyRadiusKm: getFloatEnv("DISPATCH_NOTIFY_RADIUS_KM", 5.0),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
