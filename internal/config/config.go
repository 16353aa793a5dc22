// Package config provides configuration management for the job scanner
// pipeline. It loads settings from environment variables and .env files,
// and the source list from sources.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/job-scanner/internal/types"
)

// Config holds all pipeline configuration
type Config struct {
	Paths   PathsConfig
	Quota   QuotaConfig
	HTTP    HTTPConfig
	Logging LoggingConfig
}

// PathsConfig holds input/output file locations
type PathsConfig struct {
	DataDir     string
	SourcesFile string
	JobsFile    string
	MetaFile    string
	HistoryFile string
}

// QuotaConfig holds the daily invocation quota and history retention
type QuotaConfig struct {
	DailyRunLimit int
	RetentionDays int
}

// HTTPConfig holds outbound request settings
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Paths: PathsConfig{
			DataDir:     dataDir,
			SourcesFile: getEnv("SOURCES_FILE", filepath.Join(dataDir, "sources.json")),
			JobsFile:    getEnv("JOBS_FILE", filepath.Join(dataDir, "jobs.json")),
			MetaFile:    getEnv("META_FILE", filepath.Join(dataDir, "meta.json")),
			HistoryFile: getEnv("RUN_HISTORY_FILE", filepath.Join(dataDir, "run-history.json")),
		},
		Quota: QuotaConfig{
			DailyRunLimit: getEnvAsInt("DAILY_RUN_LIMIT", 5),
			RetentionDays: getEnvAsInt("RUN_RETENTION_DAYS", 30),
		},
		HTTP: HTTPConfig{
			Timeout:   getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
			UserAgent: getEnv("HTTP_USER_AGENT", "job-scanner/1.0"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// LoadSources reads and parses the sources.json file. The source list is
// read-only input; a missing or malformed file is a configuration error,
// not a cold-start condition.
func LoadSources(path string) (*types.SourceList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file %s: %w", path, err)
	}

	var list types.SourceList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	if err := validateSources(&list); err != nil {
		return nil, err
	}

	return &list, nil
}

func validateSources(list *types.SourceList) error {
	seen := make(map[string]bool, len(list.Sources))
	for i, src := range list.Sources {
		if src.ID == "" {
			return fmt.Errorf("source at index %d has no id", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
		if src.Type == "" {
			return fmt.Errorf("source %q has no type", src.ID)
		}
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
