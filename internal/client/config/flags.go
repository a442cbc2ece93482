package config

import (
	"github.com/spf13/pflag"
)

const (
	FlagConfig    = "config"
	FlagEnvFile   = "env-file"
	FlagAPI       = "api"
	FlagState     = "state"
	FlagPageSize  = "page-size"
	FlagTimeout   = "timeout"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// RegisterFlags declares every configuration flag on fs. Defaults shown in
// help come from a default Config; only flags the user actually sets are
// applied by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to config file (.json, .jsonc, .yaml, .toml)")
	fs.String(FlagEnvFile, ".env", "path to .env file")
	fs.StringP(FlagAPI, "a", d.APIBaseURL, "base URL of the task API")
	fs.String(FlagState, d.StatePath, "path to the local state database")
	fs.Int(FlagPageSize, d.PageSize, "tasks per page")
	fs.Duration(FlagTimeout, d.RequestTimeout, "per-request timeout")
	fs.String(FlagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(FlagLogFormat, d.LogFormat, "log format (text, json)")
}

// SourcesFromFlags reads the config/env file locations from fs.
func SourcesFromFlags(fs *pflag.FlagSet) Sources {
	src := Sources{Flags: fs}
	src.ConfigFile, _ = fs.GetString(FlagConfig)
	src.EnvFile, _ = fs.GetString(FlagEnvFile)
	return src
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagAPI) {
		if cfg.APIBaseURL, err = fs.GetString(FlagAPI); err != nil {
			return err
		}
	}
	if fs.Changed(FlagState) {
		if cfg.StatePath, err = fs.GetString(FlagState); err != nil {
			return err
		}
	}
	if fs.Changed(FlagPageSize) {
		if cfg.PageSize, err = fs.GetInt(FlagPageSize); err != nil {
			return err
		}
	}
	if fs.Changed(FlagTimeout) {
		if cfg.RequestTimeout, err = fs.GetDuration(FlagTimeout); err != nil {
			return err
		}
	}
	if fs.Changed(FlagLogLevel) {
		if cfg.LogLevel, err = fs.GetString(FlagLogLevel); err != nil {
			return err
		}
	}
	if fs.Changed(FlagLogFormat) {
		if cfg.LogFormat, err = fs.GetString(FlagLogFormat); err != nil {
			return err
		}
	}
	return nil
}
