package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	OCR     OCRConfig
	Extract ExtractConfig
	Batch   BatchConfig
	Server  ServerConfig
	Export  ExportConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string // "tesseract" | "vision"
	Tesseract     string
	TesseractLang string
	PSM           int
	OEM           int
	TessdataDir   string
	MinWidth      int
	EnableHEIC    bool
}

// ExtractConfig holds field-extraction configuration
type ExtractConfig struct {
	NameFallback string // "miss" | "empty"
}

// BatchConfig holds batch orchestration configuration
type BatchConfig struct {
	Workers int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr       string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// ExportConfig holds spreadsheet export configuration
type ExportConfig struct {
	StatusSheet bool
}

const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"

	NameFallbackMiss  = "miss"
	NameFallbackEmpty = "empty"

	DefaultMaxUploadBytes int64 = 64 << 20
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Engine:        strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng+chi_sim"),
			PSM:           getEnvAsInt("TESSERACT_PSM", 6),
			OEM:           getEnvAsInt("TESSERACT_OEM", 0),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			MinWidth:      getEnvAsInt("OCR_MIN_WIDTH", 1200),
			EnableHEIC:    getEnvAsBool("OCR_ENABLE_HEIC", false),
		},
		Extract: ExtractConfig{
			NameFallback: strings.ToLower(getEnv("NAME_FALLBACK", NameFallbackMiss)),
		},
		Batch: BatchConfig{
			Workers: getEnvAsInt("BATCH_WORKERS", 1),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 10*time.Minute),
		},
		Export: ExportConfig{
			StatusSheet: getEnvAsBool("EXPORT_STATUS_SHEET", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	return new(Checks).
		OneOf("OCR_ENGINE", c.OCR.Engine, EngineTesseract, EngineVision).
		NotBlank("TESSERACT_LANG", c.OCR.TesseractLang).
		Positive("OCR_MIN_WIDTH", int64(c.OCR.MinWidth)).
		OneOf("NAME_FALLBACK", c.Extract.NameFallback, NameFallbackMiss, NameFallbackEmpty).
		Positive("BATCH_WORKERS", int64(c.Batch.Workers)).
		Positive("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes).
		Err(CodeConfig)
}
