package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrintWorkerConfig(t *testing.T) {
	t.Setenv("PRINTWORKER_SPOOL_DIR", "/var/spool/qr")
	t.Setenv("PRINTWORKER_BREAKER_TIMEOUT", "10s")

	cfg, err := LoadPrintWorkerConfig()
	require.NoError(t, err)

	assert.Equal(t, "/var/spool/qr", cfg.SpoolDir)
	assert.Equal(t, "qr.print", cfg.Channel)
	assert.Equal(t, 8081, cfg.HealthPort)
	assert.Equal(t, 10*time.Second, cfg.ToBrokerConfig().BreakerTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.ToBrokerConfig().URL)
}

func TestLoadPrintWorkerConfig_RequiresSpoolDir(t *testing.T) {
	t.Setenv("PRINTWORKER_SPOOL_DIR", "")
	require.NoError(t, os.Unsetenv("PRINTWORKER_SPOOL_DIR"))

	_, err := LoadPrintWorkerConfig()
	assert.Error(t, err)
}
