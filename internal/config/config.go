// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	StaticDir     string        `mapstructure:"STATIC_DIR"`
	CORSOrigins   []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSource          string        `mapstructure:"DB_SOURCE"`

	// Logging Configuration
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`

	// Auth Configuration
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL     time.Duration `mapstructure:"JWT_ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTokenTTL    time.Duration `mapstructure:"JWT_REFRESH_TOKEN_TTL_HOURS"`
	PermissionCacheTTL time.Duration `mapstructure:"PERMISSION_CACHE_TTL_MINUTES"`

	// Redis Configuration (optional; in-memory fallbacks are used when unset)
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Application Specific Configuration
	AppTimezone                string `mapstructure:"APP_TIMEZONE"`
	DefaultAppointmentDuration int    `mapstructure:"DEFAULT_APPOINTMENT_DURATION_MINUTES"`

	// Seed Configuration
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	// Cron Jobs
	AppointmentSweepJobSchedule string `mapstructure:"APPOINTMENT_SWEEP_JOB_SCHEDULE"`

	// Elasticsearch Configuration (optional; search endpoints degrade when unset)
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 120)
	v.SetDefault("STATIC_DIR", "./static")
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "clinic_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL_HOURS", 168)
	v.SetDefault("PERMISSION_CACHE_TTL_MINUTES", 5)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("APP_TIMEZONE", "America/Lima")
	v.SetDefault("DEFAULT_APPOINTMENT_DURATION_MINUTES", 60)

	v.SetDefault("ADMIN_EMAIL", "admin@clinic.local")
	v.SetDefault("ADMIN_PASSWORD", "")

	v.SetDefault("APPOINTMENT_SWEEP_JOB_SCHEDULE", "0 2 * * *")

	// Elasticsearch is opt-in: an empty URL disables indexing and search.
	v.SetDefault("ELASTICSEARCH_URL", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.AccessTokenTTL = time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL_MINUTES")) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL_HOURS")) * time.Hour
	cfg.PermissionCacheTTL = time.Duration(v.GetInt("PERMISSION_CACHE_TTL_MINUTES")) * time.Minute

	// Comma-separated env var support for list values.
	if origins := v.GetString("CORS_ALLOWED_ORIGINS"); strings.Contains(origins, ",") {
		parts := strings.Split(origins, ",")
		cfg.CORSOrigins = cfg.CORSOrigins[:0]
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	// Construct the GORM DSN from individual DB_* params unless DB_SOURCE overrides it.
	if strings.TrimSpace(cfg.DBSource) == "" {
		cfg.DBSource = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimezone)
	}

	// Basic validation for critical configs
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("FATAL: JWT_SECRET is not set. A signing secret is required in release mode")
		}
		cfg.JWTSecret = "dev-only-insecure-secret"
	}
	if _, err := time.LoadLocation(cfg.AppTimezone); err != nil {
		return nil, fmt.Errorf("FATAL: APP_TIMEZONE %q is not a valid IANA timezone: %w", cfg.AppTimezone, err)
	}
	if cfg.DefaultAppointmentDuration <= 0 {
		return nil, fmt.Errorf("FATAL: DEFAULT_APPOINTMENT_DURATION_MINUTES must be positive, got %d", cfg.DefaultAppointmentDuration)
	}

	return &cfg, nil
}

// Location resolves the configured application timezone. Load validates the
// name, so resolution failures here fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
