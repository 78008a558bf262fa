package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := "DB_SOURCE=postgres://u:p@db:5432/tracker?sslmode=disable\n" +
		"SERVER_ADDRESS=:9090\n" +
		"GEOCODER_TIMEOUT=5s\n" +
		"OPENCAGE_KEY=secret\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/tracker?sslmode=disable", cfg.DBSource)
	assert.Equal(t, cfg.DBSource, cfg.DevicesDBSource)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, 5*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, "secret", cfg.OpenCageKey)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.NominatimURL)
	assert.Equal(t, "phone-tracker-app", cfg.GeocoderUserAgent)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "demo", cfg.OpenCageKey)
	assert.Equal(t, time.Duration(0), cfg.GeocoderTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("SERVER_ADDRESS=:9090\n"), 0o600))
	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("DEVICES_DB_SOURCE", "postgres://devices")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ServerAddress)
	assert.Equal(t, "postgres://devices", cfg.DevicesDBSource)
}
