package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Equal(t, 0.5, cfg.Classifier.MinConfidence)
	assert.Equal(t, 0.10, cfg.Conflict.PriceThreshold)
	assert.Equal(t, 0.8, cfg.Conflict.NameSimilarityThreshold)
	assert.Equal(t, "EUR", cfg.Ingestion.DefaultCurrency)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
database:
  driver: postgres
  postgres:
    dsn: postgres://localhost/import
conflict:
  price_threshold: 0.25
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/import", cfg.DatabaseDSN())
	assert.Equal(t, 0.25, cfg.Conflict.PriceThreshold)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.8, cfg.Conflict.NameSimilarityThreshold)
	assert.Equal(t, 0.5, cfg.Classifier.MinConfidence)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/test.db")
	t.Setenv("CLASSIFIER_MIN_CONFIDENCE", "0.7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 0.7, cfg.Classifier.MinConfidence)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"bad blob driver", func(c *Config) { c.Blob.Driver = "s3" }},
		{"confidence out of range", func(c *Config) { c.Classifier.MinConfidence = 1.5 }},
		{"zero price threshold", func(c *Config) { c.Conflict.PriceThreshold = 0 }},
		{"similarity out of range", func(c *Config) { c.Conflict.NameSimilarityThreshold = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
