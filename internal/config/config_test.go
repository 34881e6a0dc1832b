package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("SEED_DATA", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, "data", cfg.DataDir)
	assert.False(t, cfg.SeedData)
	assert.Equal(t, "Devengados_IGV", cfg.GoogleSheetWorksheet)
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("STORE_BACKEND", "POSTGRES")
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DSN")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	_, err := Load()
	assert.Error(t, err)
}

func TestSeedFlag(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SEED_DATA", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.SeedData)

	t.Setenv("SEED_DATA", "maybe")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.SeedData)
}

func TestValidateOptionalIntegrations(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateDocumentAI())
	assert.Error(t, cfg.ValidateSheets())

	cfg.GoogleCloudProject = "p"
	cfg.DocumentAIProcessorID = "x"
	cfg.GoogleSheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"
	assert.NoError(t, cfg.ValidateDocumentAI())
	assert.NoError(t, cfg.ValidateSheets())
}
