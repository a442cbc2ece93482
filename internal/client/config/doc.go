// Package config loads runtime configuration for the taskdesk CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c/--config. The format follows the
//     extension: .json and .jsonc (comments and trailing commas allowed),
//     .yaml/.yml, .toml.
//  3. Optional .env file (never overrides variables already set), then the
//     TASKDESK_* environment variables.
//  4. Command-line flags, which override everything else.
//
// # File schema
//
//	{
//	  "api_base": "https://tasks.example.com/api",
//	  "state_path": "/home/me/.config/taskdesk/taskdesk.db",
//	  "page_size": 10,
//	  "request_timeout": "15s",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// The vault passphrase is read from TASKDESK_VAULT_PASSPHRASE only; it is
// never accepted from a file or a flag.
package config
