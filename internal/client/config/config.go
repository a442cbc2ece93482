package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/dmitrijs2005/taskdesk/internal/filex"
	"github.com/spf13/pflag"
)

const (
	DefaultAPIBase        = "http://localhost:5000/api"
	DefaultPageSize       = 10
	DefaultRequestTimeout = 15 * time.Second
	MaxPageSize           = 100
)

// Config holds runtime settings for the taskdesk CLI.
type Config struct {
	APIBaseURL      string
	StatePath       string
	PageSize        int
	RequestTimeout  time.Duration
	LogLevel        string
	LogFormat       string
	VaultPassphrase string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = DefaultAPIBase
	c.StatePath = filepath.Join(filex.DefaultStateDir(), "taskdesk.db")
	c.PageSize = DefaultPageSize
	c.RequestTimeout = DefaultRequestTimeout
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Sources names the optional inputs layered over the defaults.
type Sources struct {
	ConfigFile string
	EnvFile    string
	Flags      *pflag.FlagSet
}

// Load builds a Config from defaults, then the file, env and flags in
// Sources. The result is validated.
func Load(src Sources) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if src.ConfigFile != "" {
		if err := parseFile(cfg, src.ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, src.EnvFile); err != nil {
		return nil, err
	}
	if src.Flags != nil {
		if err := applyFlags(cfg, src.Flags); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the client relies on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api base %q must be an absolute http(s) URL", common.ErrValidation, c.APIBaseURL)
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size %d out of range [1,%d]", common.ErrValidation, c.PageSize, MaxPageSize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", common.ErrValidation)
	}
	if c.StatePath == "" {
		return errors.New("state path is empty")
	}
	return nil
}
