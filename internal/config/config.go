package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultParamPrefix = "/plateful"

// Config holds the process settings read at startup.
type Config struct {
	StateTable         string
	ParamPrefix        string
	ServiceAccountFile string
	MaxMessageLength   int
	MaxTranscriptItems int
	LogLevel           string
}

// Load reads configuration from lookup. requireTable is false for surfaces
// that keep sessions in memory.
func Load(lookup func(string) (string, bool), requireTable bool) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		StateTable:         get("STATE_TABLE"),
		ParamPrefix:        get("PARAM_PREFIX"),
		ServiceAccountFile: get("SERVICE_ACCOUNT_FILE"),
		MaxMessageLength:   intOr(get("MAX_MESSAGE_LENGTH"), 500),
		MaxTranscriptItems: intOr(get("MAX_TRANSCRIPT_ITEMS"), 50),
		LogLevel:           get("LOG_LEVEL"),
	}
	if _, ok := lookup("SERVICE_ACCOUNT_FILE"); !ok {
		cfg.ServiceAccountFile = "service_account.json"
	}

	if requireTable && cfg.StateTable == "" {
		return Config{}, errors.New("config: STATE_TABLE is required")
	}
	// In-memory surfaces read secrets from env, which ignores the prefix.
	if cfg.ParamPrefix == "" && !requireTable {
		cfg.ParamPrefix = defaultParamPrefix
	}
	if cfg.ParamPrefix == "" {
		return Config{}, errors.New("config: PARAM_PREFIX is required")
	}
	return cfg, nil
}

func intOr(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// LoadDotenvIfPresent loads each existing file into the environment.
// Missing files are skipped; variables already set are not overridden.
func LoadDotenvIfPresent(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: stat dotenv file %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load dotenv file %s: %w", path, err)
		}
	}
	return nil
}
