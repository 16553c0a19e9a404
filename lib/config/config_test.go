// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Paths.Data == "" {
		t.Fatal("expected a default data directory")
	}

	// Derived paths live under the data directory.
	if cfg.Paths.TaskDB != filepath.Join(cfg.Paths.Data, "tasks.db") {
		t.Errorf("expected task_db under data dir, got %s", cfg.Paths.TaskDB)
	}
	if cfg.Paths.OnboardingDB != filepath.Join(cfg.Paths.Data, "onboarding.db") {
		t.Errorf("expected onboarding_db under data dir, got %s", cfg.Paths.OnboardingDB)
	}
	if cfg.Paths.VaultIdentity != filepath.Join(cfg.Paths.Data, "vault-identity.txt") {
		t.Errorf("expected vault_identity under data dir, got %s", cfg.Paths.VaultIdentity)
	}
	if cfg.Service.SocketPath != filepath.Join(cfg.Paths.Data, "nova.sock") {
		t.Errorf("expected socket under data dir, got %s", cfg.Service.SocketPath)
	}

	if cfg.Service.RequireVault {
		t.Error("expected require_vault=false for development")
	}

	if cfg.Sync.DefaultInterval != "15m" {
		t.Errorf("expected default_interval=15m, got %s", cfg.Sync.DefaultInterval)
	}
	if cfg.Sync.FetchTimeout != "30s" {
		t.Errorf("expected fetch_timeout=30s, got %s", cfg.Sync.FetchTimeout)
	}

	if cfg.Tracker.IssueType != "Task" {
		t.Errorf("expected issue_type=Task, got %s", cfg.Tracker.IssueType)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad_RequiresNovaConfig(t *testing.T) {
	// Save and restore NOVA_CONFIG.
	origConfig := os.Getenv("NOVA_CONFIG")
	defer os.Setenv("NOVA_CONFIG", origConfig)

	// Unset NOVA_CONFIG - Load() should fail.
	os.Unsetenv("NOVA_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when NOVA_CONFIG not set, got nil")
	}

	expectedMsg := "NOVA_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithNovaConfig(t *testing.T) {
	// Save and restore NOVA_CONFIG.
	origConfig := os.Getenv("NOVA_CONFIG")
	defer os.Setenv("NOVA_CONFIG", origConfig)

	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nova.yaml")

	configContent := `
environment: staging
paths:
  data: /test/nova
service:
  socket_path: /test/nova.sock
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Set NOVA_CONFIG and load.
	os.Setenv("NOVA_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Data != "/test/nova" {
		t.Errorf("expected data=/test/nova, got %s", cfg.Paths.Data)
	}
}

func TestLoadFile(t *testing.T) {
	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nova.yaml")

	configContent := `
environment: staging

paths:
  data: /custom/nova
  matrix_file: /etc/nova/matrix.jsonc

service:
  socket_path: /custom/nova.sock
  require_vault: true

sync:
  default_interval: 5m

tracker:
  base_url: https://tracker.example.com/api
  project: OB
  issue_type: Story

sources:
  - name: planner
    url: https://planner.example.com/api/items
  - name: todo
    url: https://todo.example.com/api/lists
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Data != "/custom/nova" {
		t.Errorf("expected data=/custom/nova, got %s", cfg.Paths.Data)
	}

	if cfg.Paths.MatrixFile != "/etc/nova/matrix.jsonc" {
		t.Errorf("expected matrix_file=/etc/nova/matrix.jsonc, got %s", cfg.Paths.MatrixFile)
	}

	if cfg.Service.SocketPath != "/custom/nova.sock" {
		t.Errorf("expected socket_path=/custom/nova.sock, got %s", cfg.Service.SocketPath)
	}

	if !cfg.Service.RequireVault {
		t.Error("expected require_vault=true")
	}

	if cfg.Sync.DefaultInterval != "5m" {
		t.Errorf("expected default_interval=5m, got %s", cfg.Sync.DefaultInterval)
	}

	// Unset values keep their defaults.
	if cfg.Sync.FetchTimeout != "30s" {
		t.Errorf("expected fetch_timeout=30s, got %s", cfg.Sync.FetchTimeout)
	}

	if cfg.Tracker.BaseURL != "https://tracker.example.com/api" {
		t.Errorf("expected tracker base_url, got %s", cfg.Tracker.BaseURL)
	}
	if cfg.Tracker.Project != "OB" {
		t.Errorf("expected project=OB, got %s", cfg.Tracker.Project)
	}
	if cfg.Tracker.IssueType != "Story" {
		t.Errorf("expected issue_type=Story, got %s", cfg.Tracker.IssueType)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "planner" || cfg.Sources[0].URL != "https://planner.example.com/api/items" {
		t.Errorf("unexpected first source: %+v", cfg.Sources[0])
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("config should validate, got %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nova.yaml")

	configContent := `
environment: production

paths:
  data: /default/nova

sync:
  default_interval: 15m

tracker:
  base_url: https://tracker.example.com/api
  project: OB

production:
  paths:
    data: /srv/nova
  service:
    socket_path: /run/nova/nova.sock
    require_vault: true
  sync:
    default_interval: 30m
  tracker:
    project: PROD
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Production overrides should be applied.
	if cfg.Paths.Data != "/srv/nova" {
		t.Errorf("expected data=/srv/nova, got %s", cfg.Paths.Data)
	}

	if cfg.Service.SocketPath != "/run/nova/nova.sock" {
		t.Errorf("expected socket_path=/run/nova/nova.sock, got %s", cfg.Service.SocketPath)
	}

	if !cfg.Service.RequireVault {
		t.Error("expected require_vault=true from production override")
	}

	if cfg.Sync.DefaultInterval != "30m" {
		t.Errorf("expected default_interval=30m, got %s", cfg.Sync.DefaultInterval)
	}

	if cfg.Tracker.Project != "PROD" {
		t.Errorf("expected project=PROD, got %s", cfg.Tracker.Project)
	}
}

func TestProductionDefaultsRequireVault(t *testing.T) {
	// A production config without an explicit production section still
	// gets the stricter defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nova.yaml")

	configContent := `
environment: production
paths:
  data: /srv/nova
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !cfg.Service.RequireVault {
		t.Error("expected require_vault=true for production without overrides")
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// Verify that environment variables do NOT override config file values.
	// The config file is the single source of truth for deterministic configuration.

	// Save and restore env vars.
	origData := os.Getenv("NOVA_DATA")
	origSocket := os.Getenv("NOVA_SOCKET")
	origEnv := os.Getenv("NOVA_ENVIRONMENT")
	defer func() {
		os.Setenv("NOVA_DATA", origData)
		os.Setenv("NOVA_SOCKET", origSocket)
		os.Setenv("NOVA_ENVIRONMENT", origEnv)
	}()

	// Set env vars that should be ignored.
	os.Setenv("NOVA_DATA", "/env/nova")
	os.Setenv("NOVA_SOCKET", "/env/nova.sock")
	os.Setenv("NOVA_ENVIRONMENT", "staging")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nova.yaml")

	configContent := `
environment: development
paths:
  data: /file/nova
service:
  socket_path: /file/nova.sock
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// File values should be used, NOT env vars.
	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s (env vars should not override)", cfg.Environment)
	}

	if cfg.Paths.Data != "/file/nova" {
		t.Errorf("expected data=/file/nova from file, got %s (env vars should not override)", cfg.Paths.Data)
	}

	if cfg.Service.SocketPath != "/file/nova.sock" {
		t.Errorf("expected socket_path=/file/nova.sock from file, got %s (env vars should not override)", cfg.Service.SocketPath)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/nova",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/nova",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestVariableExpansionInPaths(t *testing.T) {
	// ${NOVA_DATA} in dependent paths expands to the configured data
	// directory, not the environment.
	origData := os.Getenv("NOVA_DATA")
	defer os.Setenv("NOVA_DATA", origData)
	os.Setenv("NOVA_DATA", "/env/should-not-win")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nova.yaml")

	configContent := `
paths:
  data: /opt/nova
  task_db: ${NOVA_DATA}/db/tasks.db
service:
  socket_path: ${NOVA_DATA}/nova.sock
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.TaskDB != "/opt/nova/db/tasks.db" {
		t.Errorf("expected task_db=/opt/nova/db/tasks.db, got %s", cfg.Paths.TaskDB)
	}

	if cfg.Service.SocketPath != "/opt/nova/nova.sock" {
		t.Errorf("expected socket_path=/opt/nova/nova.sock, got %s", cfg.Service.SocketPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "empty data path",
			modify: func(c *Config) {
				c.Paths.Data = ""
			},
			wantErr: true,
		},
		{
			name: "empty socket path",
			modify: func(c *Config) {
				c.Service.SocketPath = ""
			},
			wantErr: true,
		},
		{
			name: "unparseable default interval",
			modify: func(c *Config) {
				c.Sync.DefaultInterval = "often"
			},
			wantErr: true,
		},
		{
			name: "unparseable fetch timeout",
			modify: func(c *Config) {
				c.Sync.FetchTimeout = ""
			},
			wantErr: true,
		},
		{
			name: "valid source",
			modify: func(c *Config) {
				c.Sources = []SourceConfig{{Name: "planner", URL: "https://p.example.com/items"}}
			},
			wantErr: false,
		},
		{
			name: "unknown source",
			modify: func(c *Config) {
				c.Sources = []SourceConfig{{Name: "carrier-pigeon", URL: "https://p.example.com"}}
			},
			wantErr: true,
		},
		{
			name: "locally owned source",
			modify: func(c *Config) {
				c.Sources = []SourceConfig{{Name: "manual", URL: "https://p.example.com"}}
			},
			wantErr: true,
		},
		{
			name: "duplicate source",
			modify: func(c *Config) {
				c.Sources = []SourceConfig{
					{Name: "planner", URL: "https://a.example.com"},
					{Name: "planner", URL: "https://b.example.com"},
				}
			},
			wantErr: true,
		},
		{
			name: "source missing url",
			modify: func(c *Config) {
				c.Sources = []SourceConfig{{Name: "planner"}}
			},
			wantErr: true,
		},
		{
			name: "tracker url without project",
			modify: func(c *Config) {
				c.Tracker.BaseURL = "https://tracker.example.com/api"
				c.Tracker.Project = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	cfg.Sync.DefaultInterval = "5m"
	cfg.Sync.FetchTimeout = "10s"

	if got := cfg.DefaultSyncInterval(); got != 5*time.Minute {
		t.Errorf("DefaultSyncInterval() = %v, want 5m", got)
	}
	if got := cfg.FetchTimeout(); got != 10*time.Second {
		t.Errorf("FetchTimeout() = %v, want 10s", got)
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Data = filepath.Join(tmpDir, "nova")
	cfg.Paths.TaskDB = filepath.Join(cfg.Paths.Data, "db", "tasks.db")
	cfg.Paths.OnboardingDB = filepath.Join(cfg.Paths.Data, "db", "onboarding.db")
	cfg.Paths.SettingsFile = filepath.Join(cfg.Paths.Data, "settings.json")
	cfg.Service.SocketPath = filepath.Join(cfg.Paths.Data, "run", "nova.sock")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	// Verify directories were created.
	for _, path := range []string{
		cfg.Paths.Data,
		filepath.Join(cfg.Paths.Data, "db"),
		filepath.Join(cfg.Paths.Data, "run"),
	} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
