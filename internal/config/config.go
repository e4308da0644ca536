// Package config loads the jirify configuration document. The file
// layout mirrors the artifact layout: <base>/.config/config.json,
// <base>/.config/nicknames.json, <base>/.cache/, <base>/.data/data.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Services selectable via the "service" field.
const (
	ServiceClockify = "clockify"
	ServiceToggl    = "toggl"
)

// Flush directive values.
const (
	FlushNone    = "none"
	FlushService = "service"
	FlushJira    = "jira"
	FlushAll     = "all"
)

// Config holds the parsed configuration document.
type Config struct {
	Service string `json:"service"` // clockify (default) or toggl

	Toggl struct {
		Token     string `json:"token"`
		Workspace int64  `json:"workspace"`
		BaseURL   string `json:"base_url"` // default: https://api.track.toggl.com
	} `json:"toggl"`

	Clockify struct {
		Token     string `json:"token"`
		Workspace string `json:"workspace"`
		UserID    string `json:"user_id"`
		BaseURL   string `json:"base_url"` // default: https://api.clockify.me
	} `json:"clockify"`

	Jira struct {
		Token      string `json:"token"`
		Email      string `json:"email"`
		Endpoint   string `json:"endpoint"`
		ProjectKey string `json:"project_key"`
	} `json:"jira"`

	Timezone         string `json:"timezone"`
	RoundUp          bool   `json:"round_up"`
	SendDescriptions bool   `json:"send_descriptions"`
	Flush            string `json:"flush"` // service | jira | all | none

	MySQLDSN string `json:"mysql_dsn"` // optional worklog audit sink

	// baseDir anchors the cache/data/nickname artifacts; derived from
	// the config file location.
	baseDir string
}

// DefaultPath returns the config path: $JIRIFY_CONFIG or
// ./.config/config.json.
func DefaultPath() string {
	if p := os.Getenv("JIRIFY_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(".config", "config.json")
}

// Load reads and validates the configuration document at path. A
// missing file is fatal to the caller; no sync can proceed without it.
func Load(path string) (Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(filepath.Dir(path))

	if cfg.Service == "" {
		cfg.Service = ServiceClockify
	}
	if cfg.Flush == "" {
		cfg.Flush = FlushNone
	}

	switch cfg.Service {
	case ServiceToggl:
		if cfg.Toggl.Token == "" {
			return cfg, errors.New("config: toggl.token is required")
		}
		if cfg.Toggl.Workspace == 0 {
			return cfg, errors.New("config: toggl.workspace is required")
		}
	case ServiceClockify:
		if cfg.Clockify.Token == "" {
			return cfg, errors.New("config: clockify.token is required")
		}
		if cfg.Clockify.Workspace == "" {
			return cfg, errors.New("config: clockify.workspace is required")
		}
		if cfg.Clockify.UserID == "" {
			return cfg, errors.New("config: clockify.user_id is required")
		}
	default:
		return cfg, fmt.Errorf("config: unknown service %q", cfg.Service)
	}

	if cfg.Jira.Token == "" || cfg.Jira.Email == "" {
		return cfg, errors.New("config: jira.token and jira.email are required")
	}
	if cfg.Jira.Endpoint == "" {
		return cfg, errors.New("config: jira.endpoint is required")
	}
	if cfg.Jira.ProjectKey == "" {
		return cfg, errors.New("config: jira.project_key is required")
	}

	switch cfg.Flush {
	case FlushNone, FlushService, FlushJira, FlushAll:
	default:
		return cfg, fmt.Errorf("config: unknown flush directive %q", cfg.Flush)
	}

	return cfg, nil
}

// CacheDir is where the TTL'd cache stores live.
func (c Config) CacheDir() string { return filepath.Join(c.baseDir, ".cache") }

// DataFile is the cursor document path.
func (c Config) DataFile() string { return filepath.Join(c.baseDir, ".data", "data.json") }

// NicknamesFile is the optional manual mapping override document.
func (c Config) NicknamesFile() string { return filepath.Join(c.baseDir, ".config", "nicknames.json") }
