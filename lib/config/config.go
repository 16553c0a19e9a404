// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Nova.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures file and directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Service configures the daemon's socket API.
	Service ServiceConfig `yaml:"service"`

	// Sync configures fetch behavior and first-boot interval seeds.
	Sync SyncConfig `yaml:"sync"`

	// Tracker configures the ticket tracker used by onboarding.
	Tracker TrackerConfig `yaml:"tracker"`

	// Sources lists the remote feeds to poll. Locally-owned sources
	// (manual, milestone) have no feed and must not appear here.
	Sources []SourceConfig `yaml:"sources"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
// Sources cannot be overridden; the feed list is the same everywhere.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Service *ServiceConfig `yaml:"service,omitempty"`
	Sync    *SyncConfig    `yaml:"sync,omitempty"`
	Tracker *TrackerConfig `yaml:"tracker,omitempty"`
}

// PathsConfig configures file and directory locations.
type PathsConfig struct {
	// Data is the base directory for Nova state.
	Data string `yaml:"data"`

	// TaskDB is the SQLite file holding the task store.
	TaskDB string `yaml:"task_db"`

	// OnboardingDB is the SQLite file holding the onboarding run ledger.
	OnboardingDB string `yaml:"onboarding_db"`

	// SettingsFile is the JSON file holding runtime-mutable settings.
	SettingsFile string `yaml:"settings_file"`

	// MatrixFile is the JSONC capability matrix for onboarding.
	MatrixFile string `yaml:"matrix_file"`

	// VaultFile is the sealed credentials bundle.
	VaultFile string `yaml:"vault_file"`

	// VaultIdentity is the age identity file the daemon opens the
	// vault with. Generated by `nova vault keygen`.
	VaultIdentity string `yaml:"vault_identity"`
}

// ServiceConfig configures the daemon's socket API.
type ServiceConfig struct {
	// SocketPath is the Unix socket the daemon listens on and the
	// CLI connects to.
	SocketPath string `yaml:"socket_path"`

	// RequireVault refuses daemon startup when the vault file is
	// missing, instead of falling back to environment variables for
	// credentials.
	// Default: false (development), true (production)
	RequireVault bool `yaml:"require_vault"`
}

// SyncConfig configures fetch behavior. Durations are strings in
// time.ParseDuration syntax ("30s", "15m").
type SyncConfig struct {
	// DefaultInterval seeds the default poll interval when the
	// settings file does not exist yet. Runtime changes go through
	// lib/settings and win over this value.
	// Default: 15m
	DefaultInterval string `yaml:"default_interval"`

	// FetchTimeout bounds each HTTP request to a feed or the tracker.
	// Default: 30s
	FetchTimeout string `yaml:"fetch_timeout"`
}

// TrackerConfig configures the ticket tracker used by onboarding.
// An empty BaseURL disables onboarding; aggregation is unaffected.
type TrackerConfig struct {
	// BaseURL is the tracker API root, for example
	// https://tracker.example.com/api.
	BaseURL string `yaml:"base_url"`

	// Project is the tracker project onboarding tickets are created in.
	Project string `yaml:"project"`

	// IssueType is the tracker issue type for onboarding tickets.
	// Default: Task
	IssueType string `yaml:"issue_type"`
}

// SourceConfig configures one remote feed.
type SourceConfig struct {
	// Name must match one of the remotely-synced source names
	// (issue-tracker, planner, todo, calendar, email, spreadsheet-board).
	Name string `yaml:"name"`

	// URL is the feed endpoint returning the item list.
	URL string `yaml:"url"`

	// LinkTemplate is an optional deep-link template with an "{id}"
	// placeholder, e.g. "https://tracker.example.com/browse/{id}".
	// When set, tasks from this source that arrive without a link of
	// their own get one synthesized from the template.
	LinkTemplate string `yaml:"link_template,omitempty"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultData := filepath.Join(homeDir, ".local", "share", "nova")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Data:          defaultData,
			TaskDB:        filepath.Join(defaultData, "tasks.db"),
			OnboardingDB:  filepath.Join(defaultData, "onboarding.db"),
			SettingsFile:  filepath.Join(defaultData, "settings.json"),
			MatrixFile:    filepath.Join(defaultData, "onboarding-matrix.jsonc"),
			VaultFile:     filepath.Join(defaultData, "credentials.age"),
			VaultIdentity: filepath.Join(defaultData, "vault-identity.txt"),
		},
		Service: ServiceConfig{
			SocketPath:   filepath.Join(defaultData, "nova.sock"),
			RequireVault: false,
		},
		Sync: SyncConfig{
			DefaultInterval: "15m",
			FetchTimeout:    "30s",
		},
		Tracker: TrackerConfig{
			IssueType: "Task",
		},
	}
}

// Load loads configuration from the NOVA_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if NOVA_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("NOVA_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("NOVA_CONFIG environment variable not set; " +
			"set it to the path of your nova.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: credentials come from the sealed vault.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Service: &ServiceConfig{
					RequireVault: true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Data != "" {
			c.Paths.Data = overrides.Paths.Data
		}
		if overrides.Paths.TaskDB != "" {
			c.Paths.TaskDB = overrides.Paths.TaskDB
		}
		if overrides.Paths.OnboardingDB != "" {
			c.Paths.OnboardingDB = overrides.Paths.OnboardingDB
		}
		if overrides.Paths.SettingsFile != "" {
			c.Paths.SettingsFile = overrides.Paths.SettingsFile
		}
		if overrides.Paths.MatrixFile != "" {
			c.Paths.MatrixFile = overrides.Paths.MatrixFile
		}
		if overrides.Paths.VaultFile != "" {
			c.Paths.VaultFile = overrides.Paths.VaultFile
		}
		if overrides.Paths.VaultIdentity != "" {
			c.Paths.VaultIdentity = overrides.Paths.VaultIdentity
		}
	}

	if overrides.Service != nil {
		if overrides.Service.SocketPath != "" {
			c.Service.SocketPath = overrides.Service.SocketPath
		}
		// RequireVault is a bool, so we always apply it from overrides.
		c.Service.RequireVault = overrides.Service.RequireVault
	}

	if overrides.Sync != nil {
		if overrides.Sync.DefaultInterval != "" {
			c.Sync.DefaultInterval = overrides.Sync.DefaultInterval
		}
		if overrides.Sync.FetchTimeout != "" {
			c.Sync.FetchTimeout = overrides.Sync.FetchTimeout
		}
	}

	if overrides.Tracker != nil {
		if overrides.Tracker.BaseURL != "" {
			c.Tracker.BaseURL = overrides.Tracker.BaseURL
		}
		if overrides.Tracker.Project != "" {
			c.Tracker.Project = overrides.Tracker.Project
		}
		if overrides.Tracker.IssueType != "" {
			c.Tracker.IssueType = overrides.Tracker.IssueType
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"NOVA_DATA": c.Paths.Data,
		"HOME":      os.Getenv("HOME"),
	}

	c.Paths.Data = expandVars(c.Paths.Data, vars)
	vars["NOVA_DATA"] = c.Paths.Data // Update for dependent paths.

	c.Paths.TaskDB = expandVars(c.Paths.TaskDB, vars)
	c.Paths.OnboardingDB = expandVars(c.Paths.OnboardingDB, vars)
	c.Paths.SettingsFile = expandVars(c.Paths.SettingsFile, vars)
	c.Paths.MatrixFile = expandVars(c.Paths.MatrixFile, vars)
	c.Paths.VaultFile = expandVars(c.Paths.VaultFile, vars)
	c.Paths.VaultIdentity = expandVars(c.Paths.VaultIdentity, vars)
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Data == "" {
		errs = append(errs, fmt.Errorf("paths.data is required"))
	}

	if c.Service.SocketPath == "" {
		errs = append(errs, fmt.Errorf("service.socket_path is required"))
	}

	if _, err := time.ParseDuration(c.Sync.DefaultInterval); err != nil {
		errs = append(errs, fmt.Errorf("sync.default_interval: %w", err))
	}
	if _, err := time.ParseDuration(c.Sync.FetchTimeout); err != nil {
		errs = append(errs, fmt.Errorf("sync.fetch_timeout: %w", err))
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		name := task.Source(src.Name)
		if !name.Valid() {
			errs = append(errs, fmt.Errorf("sources[%d]: unknown source %q", i, src.Name))
		} else if name.LocallyOwned() {
			errs = append(errs, fmt.Errorf("sources[%d]: %s is locally owned and has no feed", i, src.Name))
		}
		if seen[src.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate source %q", i, src.Name))
		}
		seen[src.Name] = true
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: url is required", i))
		}
	}

	if c.Tracker.BaseURL != "" && c.Tracker.Project == "" {
		errs = append(errs, fmt.Errorf("tracker.project is required when tracker.base_url is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DefaultSyncInterval returns the parsed sync.default_interval.
// Unparseable values return zero; Validate rejects such configs.
func (c *Config) DefaultSyncInterval() time.Duration {
	d, _ := time.ParseDuration(c.Sync.DefaultInterval)
	return d
}

// FetchTimeout returns the parsed sync.fetch_timeout.
// Unparseable values return zero; Validate rejects such configs.
func (c *Config) FetchTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Sync.FetchTimeout)
	return d
}

// OnboardingEnabled reports whether a tracker is configured.
func (c *Config) OnboardingEnabled() bool {
	return c.Tracker.BaseURL != ""
}

// EnsurePaths creates the data directories if they don't exist.
// Input files (matrix, vault) are the operator's to provide; only
// their locations under the data directory are covered.
func (c *Config) EnsurePaths() error {
	dirs := []string{
		c.Paths.Data,
		filepath.Dir(c.Paths.TaskDB),
		filepath.Dir(c.Paths.OnboardingDB),
		filepath.Dir(c.Paths.SettingsFile),
		filepath.Dir(c.Service.SocketPath),
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	return nil
}
