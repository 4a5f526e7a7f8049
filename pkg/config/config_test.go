package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PlacesConfig(t *testing.T) {
	t.Setenv("GOOGLE_PLACES_API_KEY", "AIzaSyTestKey1234567890abcdef")
	t.Setenv("GOOGLE_PLACES_MAX_RESULTS", "10")
	t.Setenv("GOOGLE_PLACES_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AIzaSyTestKey1234567890abcdef", cfg.Places.APIKey)
	assert.Equal(t, 10, cfg.Places.MaxResults)
	assert.Equal(t, 3*time.Second, cfg.Places.Timeout)
	assert.NoError(t, cfg.Places.Validate())
	assert.Equal(t, "AIzaSyTe...", cfg.Places.KeyPrefix())
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("GOOGLE_PLACES_API_KEY")
	os.Unsetenv("REFRESH_FRESHNESS_WINDOW")
	os.Unsetenv("REFRESH_INTER_CITY_DELAY")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "https://places.googleapis.com/v1", cfg.Places.BaseURL)
	assert.Equal(t, 20, cfg.Places.MaxResults)
	assert.Equal(t, 6*time.Hour, cfg.Refresh.FreshnessWindow)
	assert.Equal(t, 200*time.Millisecond, cfg.Refresh.InterCityDelay)
	assert.Equal(t, "lawyer_hours", cfg.Database.Database)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REFRESH_FRESHNESS_WINDOW", "six hours")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, cfg.Refresh.FreshnessWindow)
}

func TestPlacesConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "empty", key: "", wantErr: true},
		{name: "whitespace", key: "   ", wantErr: true},
		{name: "placeholder", key: "your-api-key", wantErr: true},
		{name: "placeholder upper case", key: "CHANGEME", wantErr: true},
		{name: "too short", key: "abc123", wantErr: true},
		{name: "valid", key: "AIzaSyValidLookingKey_0123456789", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := PlacesConfig{APIKey: tt.key}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadWithDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_NAME=from_dotenv\nREDIS_PORT=6380\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DB_NAME")
		os.Unsetenv("REDIS_PORT")
	})

	cfg, err := LoadWithDotEnv(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)

	assert.Equal(t, "from_dotenv", cfg.Database.Database)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "localhost:6380", cfg.Redis.RedisAddr())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://lawyerhours.com, https://admin.lawyerhours.com,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://lawyerhours.com", "https://admin.lawyerhours.com"}, cfg.Server.AllowedOrigins)
}
