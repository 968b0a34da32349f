package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	ExtractAPIBaseURL string
	ExtractAPIToken   string
	ExtractRateRPS    int
	ExtractTimeoutMs  int

	SearchLimit      int
	ResolverDebounce int // milliseconds
	RecordingMaxSec  int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "salebook.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		ExtractAPIBaseURL: getEnv("EXTRACT_API_BASE_URL", "https://extract.salebook.local/api/v1"),
		ExtractAPIToken:   getEnv("EXTRACT_API_TOKEN", ""),
		ExtractRateRPS:    getEnvInt("EXTRACT_RATE_LIMIT_RPS", 2),
		ExtractTimeoutMs:  getEnvInt("EXTRACT_TIMEOUT_MS", 60000),

		SearchLimit:      getEnvInt("SEARCH_LIMIT", 10),
		ResolverDebounce: getEnvInt("RESOLVER_DEBOUNCE_MS", 300),
		RecordingMaxSec:  getEnvInt("RECORDING_MAX_SEC", 90),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
