/**
 * Configuration for the OCR worker
 *
 * Values come from an optional YAML file overridden by environment variables.
 * Environment names are the upper-case form of the YAML keys (PDF_DPI -> pdf_dpi).
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL     string `koanf:"redis_url"`
	QueueName    string `koanf:"queue_name"`
	QueueBackend string `koanf:"queue_backend"`

	// PostgreSQL configuration; empty keeps vocabulary and history in memory
	DatabaseURL string `koanf:"database_url"`

	// Qdrant document index; empty disables indexing
	QdrantURL        string `koanf:"qdrant_url"`
	QdrantCollection string `koanf:"qdrant_collection"`

	// Worker configuration
	WorkerConcurrency int    `koanf:"worker_concurrency"`
	MaxFileSize       int64  `koanf:"max_file_size"`
	ProcessingTimeout int    `koanf:"processing_timeout"` // milliseconds
	MetricsAddr       string `koanf:"metrics_addr"`

	// External binaries
	TesseractPath string `koanf:"tesseract_path"`
	PdftoppmPath  string `koanf:"pdftoppm_path"`
	TempDir       string `koanf:"temp_dir"`

	// Recognition
	PDFDPI                int    `koanf:"pdf_dpi"`
	MaxImageDimension     int    `koanf:"max_image_dimension"`
	PDFWorkers            int    `koanf:"pdf_workers"`
	ParallelPDFProcessing *bool  `koanf:"parallel_pdf_processing"`
	PageTimeoutSeconds    int    `koanf:"page_timeout_seconds"`
	DefaultLanguage       string `koanf:"default_language"`
	DefaultEngine         string `koanf:"default_engine"`
	DefaultEnhance        bool   `koanf:"default_enhance"`
	DeskewEnabled         bool   `koanf:"deskew_enabled"`

	// Correction and learning
	FuzzyEnabled      *bool   `koanf:"fuzzy_enabled"`
	FuzzyCutoff       float64 `koanf:"fuzzy_cutoff"`
	ApprovalThreshold int     `koanf:"approval_threshold"`

	// Quality score weights
	WeightConfidence float64 `koanf:"weight_confidence"`
	WeightDictionary float64 `koanf:"weight_dictionary"`
	WeightCorrection float64 `koanf:"weight_correction"`

	// Logging
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

// Load reads the YAML file at path (if it exists) and then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379"
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "ocr:jobs"
	}
	if cfg.QueueBackend == "" {
		cfg.QueueBackend = "redis"
	}
	if cfg.QdrantCollection == "" {
		cfg.QdrantCollection = "ocr_documents"
	}
	if cfg.WorkerConcurrency == 0 {
		cfg.WorkerConcurrency = 4
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 50 * 1024 * 1024 // 50MB
	}
	if cfg.ProcessingTimeout == 0 {
		cfg.ProcessingTimeout = 300000 // 5 minutes
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9102"
	}
	if cfg.TesseractPath == "" {
		cfg.TesseractPath = "tesseract"
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = "pdftoppm"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.PDFDPI == 0 {
		cfg.PDFDPI = 150
	}
	if cfg.MaxImageDimension == 0 {
		cfg.MaxImageDimension = 2000
	}
	if cfg.PDFWorkers == 0 {
		cfg.PDFWorkers = 2
	}
	if cfg.ParallelPDFProcessing == nil {
		// parallel page recognition is off by default inside containers
		parallel := !inContainer()
		cfg.ParallelPDFProcessing = &parallel
	}
	if cfg.PageTimeoutSeconds == 0 {
		cfg.PageTimeoutSeconds = 120
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "mixed"
	}
	if cfg.DefaultEngine == "" {
		cfg.DefaultEngine = "auto"
	}
	if cfg.FuzzyEnabled == nil {
		enabled := true
		cfg.FuzzyEnabled = &enabled
	}
	if cfg.FuzzyCutoff == 0 {
		cfg.FuzzyCutoff = 65
	}
	if cfg.ApprovalThreshold == 0 {
		cfg.ApprovalThreshold = 5
	}
	if cfg.WeightConfidence == 0 && cfg.WeightDictionary == 0 && cfg.WeightCorrection == 0 {
		cfg.WeightConfidence = 0.40
		cfg.WeightDictionary = 0.30
		cfg.WeightCorrection = 0.30
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
}

func inContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return strings.EqualFold(os.Getenv("DOCKER_CONTAINER"), "true")
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.QueueBackend != "redis" && c.QueueBackend != "asynq" {
		return fmt.Errorf("QUEUE_BACKEND must be redis or asynq, got %q", c.QueueBackend)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxFileSize < 1024 || c.MaxFileSize > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_FILE_SIZE must be between 1KB and 1GB, got %d", c.MaxFileSize)
	}

	if c.PDFDPI < 50 || c.PDFDPI > 600 {
		return fmt.Errorf("PDF_DPI must be between 50 and 600, got %d", c.PDFDPI)
	}

	if c.MaxImageDimension < 256 || c.MaxImageDimension > 20000 {
		return fmt.Errorf("MAX_IMAGE_DIMENSION must be between 256 and 20000, got %d", c.MaxImageDimension)
	}

	if c.PDFWorkers < 1 || c.PDFWorkers > 64 {
		return fmt.Errorf("PDF_WORKERS must be between 1 and 64, got %d", c.PDFWorkers)
	}

	if c.PageTimeoutSeconds < 1 {
		return fmt.Errorf("PAGE_TIMEOUT_SECONDS must be positive, got %d", c.PageTimeoutSeconds)
	}

	switch c.DefaultLanguage {
	case "id", "en", "mixed":
	default:
		return fmt.Errorf("DEFAULT_LANGUAGE must be id, en or mixed, got %q", c.DefaultLanguage)
	}

	if c.FuzzyCutoff <= 0 || c.FuzzyCutoff > 100 {
		return fmt.Errorf("FUZZY_CUTOFF must be in (0, 100], got %v", c.FuzzyCutoff)
	}

	if c.ApprovalThreshold < 1 {
		return fmt.Errorf("APPROVAL_THRESHOLD must be at least 1, got %d", c.ApprovalThreshold)
	}

	if c.WeightConfidence < 0 || c.WeightDictionary < 0 || c.WeightCorrection < 0 {
		return fmt.Errorf("quality score weights must not be negative")
	}

	sum := c.WeightConfidence + c.WeightDictionary + c.WeightCorrection
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("quality score weights must sum to 1, got %.3f", sum)
	}

	return nil
}

// Parallel reports whether multi-page documents are recognized concurrently.
func (c *Config) Parallel() bool {
	return c.ParallelPDFProcessing != nil && *c.ParallelPDFProcessing
}

// Fuzzy reports whether dictionary fuzzy matching is enabled.
func (c *Config) Fuzzy() bool {
	return c.FuzzyEnabled == nil || *c.FuzzyEnabled
}

// PageTimeout is the wall-clock bound for one page recognition.
func (c *Config) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSeconds) * time.Second
}

// JobTimeout is the bound for a whole queued job.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.ProcessingTimeout) * time.Millisecond
}
