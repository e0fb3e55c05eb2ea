package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 150, cfg.PDFDPI)
	assert.Equal(t, 2000, cfg.MaxImageDimension)
	assert.Equal(t, 2, cfg.PDFWorkers)
	assert.Equal(t, "mixed", cfg.DefaultLanguage)
	assert.Equal(t, 5, cfg.ApprovalThreshold)
	assert.True(t, cfg.Fuzzy())
	assert.Equal(t, 120*time.Second, cfg.PageTimeout())
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout())
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pdf_dpi: 200\npdf_workers: 3\nqueue_backend: asynq\n"), 0o600))

	t.Setenv("PDF_DPI", "300")
	t.Setenv("PARALLEL_PDF_PROCESSING", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.PDFDPI)
	assert.Equal(t, 3, cfg.PDFWorkers)
	assert.Equal(t, "asynq", cfg.QueueBackend)
	assert.False(t, cfg.Parallel())
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "8")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkerConcurrency)
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"dpi", func(c *Config) { c.PDFDPI = 10 }},
		{"workers", func(c *Config) { c.PDFWorkers = 0 }},
		{"language", func(c *Config) { c.DefaultLanguage = "fr" }},
		{"cutoff", func(c *Config) { c.FuzzyCutoff = 120 }},
		{"weights", func(c *Config) { c.WeightConfidence = 0.9 }},
		{"backend", func(c *Config) { c.QueueBackend = "kafka" }},
		{"concurrency", func(c *Config) { c.WorkerConcurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
