package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int64(1000), cfg.TickMS)
	assert.Equal(t, int64(10), cfg.SlotCount)
	assert.Equal(t, 4, cfg.ExecutorWorkers)
	assert.Equal(t, 256, cfg.ExecutorBuffer)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
tick_ms = 50
slot_count = 20
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(50), cfg.TickMS)
	assert.Equal(t, int64(20), cfg.SlotCount)
	// Left unspecified, so defaults carry through.
	assert.Equal(t, 4, cfg.ExecutorWorkers)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}
