package config_test

import (
	"os"
	"testing"

	"github.com/benediktms/chesstty/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "chesstty.db", cfg.DBPath)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, 18, cfg.AnalysisDepth)
	assert.Equal(t, 1, cfg.ReviewWorkerCount)
	assert.Equal(t, 64, cfg.ReviewQueueSize)
	assert.Equal(t, 100, cfg.BroadcastCapacity)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	os.Clearenv()
	t.Setenv("ADDR", ":9999")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("CHESSTTY_DATA_DIR", "/tmp/legacy")
	t.Setenv("ANALYSIS_DEPTH", "10")
	t.Setenv("REVIEW_WORKER_COUNT", "3")

	cfg := config.Load()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "/tmp/legacy", cfg.DataDir)
	assert.Equal(t, 10, cfg.AnalysisDepth)
	assert.Equal(t, 3, cfg.ReviewWorkerCount)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	os.Clearenv()
	t.Setenv("ANALYSIS_DEPTH", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 18, cfg.AnalysisDepth)
}
