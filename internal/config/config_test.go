package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	for _, k := range []string{"GO_PORT", "DEV_MODE", "DATABASE_URL", "UNIVERSE_SIZE", "QUALITY_THRESHOLD"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "./data/fear_greed.db", cfg.DatabaseURL)
	assert.Equal(t, 76, cfg.UniverseSize)
	assert.InDelta(t, 0.30, cfg.QualityThreshold, 0.0001)
}

func TestLoadReadsOverridesFromEnv(t *testing.T) {
	t.Setenv("GO_PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("DATABASE_URL", "/tmp/custom.db")
	t.Setenv("UNIVERSE_SIZE", "50")
	t.Setenv("QUALITY_THRESHOLD", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "/tmp/custom.db", cfg.DatabaseURL)
	assert.Equal(t, 50, cfg.UniverseSize)
	assert.InDelta(t, 0.5, cfg.QualityThreshold, 0.0001)
}

func TestValidateRejectsEmptyDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: ""}
	assert.Error(t, cfg.Validate())

	cfg.DatabaseURL = "/tmp/x.db"
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvAsIntFallsBackOnUnparseable(t *testing.T) {
	t.Setenv("BAD_INT", "not-a-number")
	assert.Equal(t, 42, getEnvAsInt("BAD_INT", 42))
}

func TestGetEnvAsBoolFallsBackOnUnparseable(t *testing.T) {
	t.Setenv("BAD_BOOL", "not-a-bool")
	assert.Equal(t, true, getEnvAsBool("BAD_BOOL", true))
}
