package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("INTERNAL_API_TOKEN", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Empty(t, c.DBDSN)
	assert.Equal(t, "gemini-2.5-pro", c.GeminiModel)
	assert.Equal(t, "0.1", c.CvarThreshold.String())
	assert.Equal(t, 0.85, c.ConfidenceThreshold)
	assert.Equal(t, time.Minute, c.AnalysisInterval)
	assert.Equal(t, "AAL", c.AnalysisAsset)
	assert.Equal(t, "usr_001", c.SeedUserID)
	assert.Equal(t, "100000", c.SeedCapital.String())
	assert.Equal(t, "5000", c.SeedProfit.String())
	assert.Equal(t, 3, c.BusPartitions)
	assert.Equal(t, 256, c.BusBuffer)
	assert.Equal(t, 64, c.DispatchQueueSize)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("INTERNAL_API_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_ADDR")
	assert.Contains(t, err.Error(), "INTERNAL_API_TOKEN")
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CVAR_THRESHOLD", "0.25")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("ANALYSIS_INTERVAL", "5s")
	t.Setenv("BUS_PARTITIONS", "6")
	t.Setenv("SEED_USER_ID", "usr_042")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.25", c.CvarThreshold.String())
	assert.Equal(t, 0.5, c.ConfidenceThreshold)
	assert.Equal(t, 5*time.Second, c.AnalysisInterval)
	assert.Equal(t, 6, c.BusPartitions)
	assert.Equal(t, "usr_042", c.SeedUserID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad cvar threshold", "CVAR_THRESHOLD", "lots"},
		{"confidence above one", "CONFIDENCE_THRESHOLD", "1.5"},
		{"bad interval", "ANALYSIS_INTERVAL", "soon"},
		{"zero partitions", "BUS_PARTITIONS", "0"},
		{"bad seed capital", "SEED_CAPITAL", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
