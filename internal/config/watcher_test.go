package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatchConfigReloadsOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "pacer.yaml")

	require.NoError(t, os.WriteFile(configFile, []byte("scenario: checkout\ntps: 100\n"), 0o600))

	w, err := WatchConfig(configFile, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, uint32(100), w.Current().TPS)

	reloaded := make(chan *RunConfig, 1)
	w.OnChange(func(cfg *RunConfig) { reloaded <- cfg })

	require.NoError(t, os.WriteFile(configFile, []byte("scenario: checkout\ntps: 9000\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, uint32(9000), cfg.TPS)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	assert.Equal(t, uint32(9000), w.Current().TPS)
}

func TestWatchConfigFailsOnMissingFile(t *testing.T) {
	_, err := WatchConfig("nonexistent.yaml", zap.NewNop())
	assert.Error(t, err)
}
