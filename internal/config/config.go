package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Document storage configuration
	Storage StorageConfig

	// Booking event publishing
	Events EventsConfig

	// Scheduled maintenance jobs
	Maintenance MaintenanceConfig

	// Guest detail normalization
	Guests GuestConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	AutoMigrate bool
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	BinaryParameters   bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	Issuer            string
	AccessTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// StorageConfig holds identity document storage configuration
type StorageConfig struct {
	Directory           string
	MaxUploadMB         int
	AllowedContentTypes []string
}

// EventsConfig holds RabbitMQ configuration. Publishing is disabled when URL is empty.
type EventsConfig struct {
	RabbitMQURL string
	Exchange    string
}

// MaintenanceConfig holds cron schedules for background housekeeping
type MaintenanceConfig struct {
	Enabled            bool
	DocumentSweepCron  string
	DocumentSweepGrace time.Duration
	AuditCleanupCron   string
	AuditRetention     time.Duration
}

// GuestConfig holds guest contact settings
type GuestConfig struct {
	PhoneCountryCode string // applied to local numbers with a leading 0, e.g. "94"
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRequestLog bool
	EnableAuditLog   bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			AutoMigrate: getEnvAsBool("AUTO_MIGRATE", true),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			BinaryParameters:   getEnvAsBool("DATABASE_BINARY_PARAMETERS", false),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			Issuer:            getEnv("JWT_ISSUER", "hotel-admin-console"),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Storage: StorageConfig{
			Directory:           getEnv("DOCUMENT_STORAGE_DIR", "./data/documents"),
			MaxUploadMB:         getEnvAsInt("DOCUMENT_MAX_UPLOAD_MB", 10),
			AllowedContentTypes: getEnvAsSlice("DOCUMENT_ALLOWED_CONTENT_TYPES", []string{"image/jpeg", "image/png", "application/pdf"}),
		},
		Events: EventsConfig{
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Exchange:    getEnv("RABBITMQ_EXCHANGE", "hotel.bookings"),
		},
		Maintenance: MaintenanceConfig{
			Enabled:            getEnvAsBool("MAINTENANCE_ENABLED", true),
			DocumentSweepCron:  getEnv("DOCUMENT_SWEEP_SCHEDULE", "0 30 3 * * *"),
			DocumentSweepGrace: getEnvAsDuration("DOCUMENT_SWEEP_GRACE", 24*time.Hour),
			AuditCleanupCron:   getEnv("AUDIT_CLEANUP_SCHEDULE", "0 0 4 * * 0"),
			AuditRetention:     getEnvAsDuration("AUDIT_RETENTION", 365*24*time.Hour),
		},
		Guests: GuestConfig{
			PhoneCountryCode: getEnv("GUEST_PHONE_COUNTRY_CODE", ""),
		},
		Security: SecurityConfig{
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			EnableAuditLog:   getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Storage.Directory == "" {
		return fmt.Errorf("DOCUMENT_STORAGE_DIR is required")
	}

	if c.Storage.MaxUploadMB <= 0 {
		return fmt.Errorf("DOCUMENT_MAX_UPLOAD_MB must be positive")
	}

	if c.Events.RabbitMQURL != "" && c.Events.Exchange == "" {
		return fmt.Errorf("RABBITMQ_EXCHANGE is required when RABBITMQ_URL is set")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
