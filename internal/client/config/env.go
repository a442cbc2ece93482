package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvAPIBase         = "TASKDESK_API_BASE"
	EnvStatePath       = "TASKDESK_STATE"
	EnvPageSize        = "TASKDESK_PAGE_SIZE"
	EnvTimeout         = "TASKDESK_TIMEOUT"
	EnvLogLevel        = "TASKDESK_LOG_LEVEL"
	EnvVaultPassphrase = "TASKDESK_VAULT_PASSPHRASE"
)

// parseEnv loads envFile (a missing file is fine) and overlays TASKDESK_*
// variables onto cfg.
func parseEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv(EnvAPIBase); ok && v != "" {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv(EnvStatePath); ok && v != "" {
		cfg.StatePath = v
	}
	if v, ok := os.LookupEnv(EnvPageSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		cfg.PageSize = n
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvVaultPassphrase); ok {
		cfg.VaultPassphrase = v
	}
	return nil
}
