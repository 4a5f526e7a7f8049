package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Places      PlacesConfig
	Refresh     RefreshConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PlacesConfig holds Google Places API configuration
type PlacesConfig struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

// RefreshConfig controls city data refresh behaviour
type RefreshConfig struct {
	FreshnessWindow  time.Duration
	InterCityDelay   time.Duration
	ScheduleInterval time.Duration
	ListingCacheTTL  time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// placeholderKeys are values shipped in example env files that must never reach the provider.
var placeholderKeys = []string{
	"your-api-key",
	"your_api_key",
	"your-google-places-api-key",
	"changeme",
	"xxx",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "lawyer_hours"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Places: PlacesConfig{
			APIKey:     getEnv("GOOGLE_PLACES_API_KEY", ""),
			BaseURL:    getEnv("GOOGLE_PLACES_BASE_URL", "https://places.googleapis.com/v1"),
			MaxResults: getEnvAsInt("GOOGLE_PLACES_MAX_RESULTS", 20),
			Timeout:    getEnvAsDuration("GOOGLE_PLACES_TIMEOUT", 15*time.Second),
		},
		Refresh: RefreshConfig{
			FreshnessWindow:  getEnvAsDuration("REFRESH_FRESHNESS_WINDOW", 6*time.Hour),
			InterCityDelay:   getEnvAsDuration("REFRESH_INTER_CITY_DELAY", 200*time.Millisecond),
			ScheduleInterval: getEnvAsDuration("REFRESH_SCHEDULE_INTERVAL", 24*time.Hour),
			ListingCacheTTL:  getEnvAsDuration("LISTING_CACHE_TTL", 10*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "lawyer-hours"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// LoadWithDotEnv reads the given env files (missing files are ignored) before loading.
// Variables already present in the environment win over file values.
func LoadWithDotEnv(files ...string) (*Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return Load()
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate reports whether the Places API key is usable.
func (c *PlacesConfig) Validate() error {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return fmt.Errorf("GOOGLE_PLACES_API_KEY is not set")
	}
	lowered := strings.ToLower(key)
	for _, placeholder := range placeholderKeys {
		if lowered == placeholder {
			return fmt.Errorf("GOOGLE_PLACES_API_KEY is still a placeholder value")
		}
	}
	if len(key) < 20 {
		return fmt.Errorf("GOOGLE_PLACES_API_KEY looks malformed (too short)")
	}
	return nil
}

// KeyPrefix returns a redacted form of the API key safe for logs and responses.
func (c *PlacesConfig) KeyPrefix() string {
	if len(c.APIKey) <= 8 {
		return "..."
	}
	return c.APIKey[:8] + "..."
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
