package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config carries all service settings, loaded from environment
// variables with defaults suitable for local runs.
type Config struct {
	Port              int
	OutputDirectory   string // root for session artifact directories
	LogDirectory      string
	DatabasePath      string
	ToolsetPath       string // YAML label table; empty uses the built-in set
	ModelPath         string
	ModelConfigPath   string
	DefaultConfidence float64
	DefaultIoU        float64
	MaxArchiveSize    int64 // bytes
	MaxBatchImages    int
	DetectorPoolSize  int
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:              getEnvAsInt("PORT", 8080),
		OutputDirectory:   getEnv("OUTPUT_DIR", filepath.Join(".", "results")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(".", "toolcheck.db")),
		ToolsetPath:       getEnv("TOOLSET_PATH", ""),
		ModelPath:         getEnv("MODEL_PATH", filepath.Join(".", "weights", "toolkit.onnx")),
		ModelConfigPath:   getEnv("MODEL_CONFIG_PATH", ""),
		DefaultConfidence: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.25),
		DefaultIoU:        getEnvAsFloat("IOU_THRESHOLD", 0.45),
		MaxArchiveSize:    getEnvAsInt64("MAX_ARCHIVE_SIZE", 100*1024*1024),
		MaxBatchImages:    getEnvAsInt("MAX_BATCH_IMAGES", 100),
		DetectorPoolSize:  getEnvAsInt("DETECTOR_POOL", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
