package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port string

	// Limits
	MaxUploadBytes int64

	// Concurrency
	MaxConcurrentRequests int64
	MaxOCRConcurrent      int64
	MaxPageWorkers        int // per-document page extraction workers cap

	// Server timeouts
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Request timeouts
	ExtractTimeout time.Duration

	// OCR engine
	OCRTimeout      time.Duration
	OCRLanguage     string
	TesseractBinary string
	TessdataDir     string
	HeicConverter   string

	// Persistence
	DatabasePath string
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and environment variables. Each layer overrides the
// previous one.
func Load() Config {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: config file %s ignored: %v\n", path, err)
		}
	}

	cfg.applyEnv()
	return cfg
}

func defaults() Config {
	return Config{
		Port: "8080",

		MaxUploadBytes: 25 << 20,

		MaxConcurrentRequests: 15,
		MaxOCRConcurrent:      3,
		MaxPageWorkers:        8,

		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,

		ExtractTimeout: 120 * time.Second,

		OCRTimeout:      30 * time.Second,
		OCRLanguage:     "eng",
		TesseractBinary: "tesseract",
		TessdataDir:     "",
		HeicConverter:   "magick",

		DatabasePath: "documents.db",
	}
}

// fileConfig mirrors Config for the YAML overlay; pointers distinguish
// "absent" from zero, and durations are Go duration strings.
type fileConfig struct {
	Port *string `yaml:"port"`

	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`

	MaxConcurrentRequests *int64 `yaml:"max_concurrent_requests"`
	MaxOCRConcurrent      *int64 `yaml:"max_ocr_concurrent"`
	MaxPageWorkers        *int   `yaml:"max_page_workers"`

	ReadHeaderTimeout *string `yaml:"read_header_timeout"`
	ReadTimeout       *string `yaml:"read_timeout"`
	WriteTimeout      *string `yaml:"write_timeout"`
	IdleTimeout       *string `yaml:"idle_timeout"`

	ExtractTimeout *string `yaml:"extract_timeout"`

	OCRTimeout      *string `yaml:"ocr_timeout"`
	OCRLanguage     *string `yaml:"ocr_language"`
	TesseractBinary *string `yaml:"tesseract_binary"`
	TessdataDir     *string `yaml:"tessdata_dir"`
	HeicConverter   *string `yaml:"heic_converter"`

	DatabasePath *string `yaml:"database_path"`
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return err
	}

	setStr := func(dst *string, src *string) {
		if src != nil && strings.TrimSpace(*src) != "" {
			*dst = strings.TrimSpace(*src)
		}
	}
	setInt64 := func(dst *int64, src *int64) {
		if src != nil && *src > 0 {
			*dst = *src
		}
	}
	setDur := func(dst *time.Duration, src *string) {
		if src == nil {
			return
		}
		if d, err := time.ParseDuration(strings.TrimSpace(*src)); err == nil && d > 0 {
			*dst = d
		}
	}

	setStr(&c.Port, fc.Port)
	setInt64(&c.MaxUploadBytes, fc.MaxUploadBytes)
	setInt64(&c.MaxConcurrentRequests, fc.MaxConcurrentRequests)
	setInt64(&c.MaxOCRConcurrent, fc.MaxOCRConcurrent)
	if fc.MaxPageWorkers != nil && *fc.MaxPageWorkers > 0 {
		c.MaxPageWorkers = *fc.MaxPageWorkers
	}
	setDur(&c.ReadHeaderTimeout, fc.ReadHeaderTimeout)
	setDur(&c.ReadTimeout, fc.ReadTimeout)
	setDur(&c.WriteTimeout, fc.WriteTimeout)
	setDur(&c.IdleTimeout, fc.IdleTimeout)
	setDur(&c.ExtractTimeout, fc.ExtractTimeout)
	setDur(&c.OCRTimeout, fc.OCRTimeout)
	setStr(&c.OCRLanguage, fc.OCRLanguage)
	setStr(&c.TesseractBinary, fc.TesseractBinary)
	if fc.TessdataDir != nil {
		c.TessdataDir = strings.TrimSpace(*fc.TessdataDir)
	}
	setStr(&c.HeicConverter, fc.HeicConverter)
	setStr(&c.DatabasePath, fc.DatabasePath)

	return nil
}

func (c *Config) applyEnv() {
	c.Port = envStr("PORT", c.Port)

	c.MaxUploadBytes = int64(envInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))

	c.MaxConcurrentRequests = int64(envInt("MAX_CONCURRENT_REQUESTS", int(c.MaxConcurrentRequests)))
	c.MaxOCRConcurrent = int64(envInt("MAX_OCR_CONCURRENT", int(c.MaxOCRConcurrent)))
	c.MaxPageWorkers = envInt("MAX_PAGE_WORKERS", c.MaxPageWorkers)

	c.ReadHeaderTimeout = envDur("READ_HEADER_TIMEOUT", c.ReadHeaderTimeout)
	c.ReadTimeout = envDur("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = envDur("WRITE_TIMEOUT", c.WriteTimeout)
	c.IdleTimeout = envDur("IDLE_TIMEOUT", c.IdleTimeout)

	c.ExtractTimeout = envDur("EXTRACT_TIMEOUT", c.ExtractTimeout)

	c.OCRTimeout = envDur("OCR_TIMEOUT", c.OCRTimeout)
	c.OCRLanguage = envStr("OCR_LANGUAGE", c.OCRLanguage)
	c.TesseractBinary = envStr("TESSERACT_BINARY", c.TesseractBinary)
	c.TessdataDir = envStr("TESSDATA_PREFIX", c.TessdataDir)
	c.HeicConverter = envStr("HEIC_CONVERTER", c.HeicConverter)

	c.DatabasePath = envStr("DATABASE_PATH", c.DatabasePath)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		return fmt.Errorf("OCR_LANGUAGE must not be empty")
	}
	return nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
