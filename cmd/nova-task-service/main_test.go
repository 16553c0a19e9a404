// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Wardy-uk/NOVA-sub001/lib/config"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
	"github.com/Wardy-uk/NOVA-sub001/lib/vault"
)

// --- credential resolution tests ---

func TestCredentialsVaultTakesPrecedence(t *testing.T) {
	bundle := vault.NewBundle()
	bundle.Set("todo", "vault-token")
	creds := &credentials{bundle: bundle, envAllowed: true}

	t.Setenv("NOVA_TOKEN_TODO", "env-token")
	t.Setenv("NOVA_TOKEN_CALENDAR", "calendar-env-token")

	if got := creds.Token("todo"); got != "vault-token" {
		t.Errorf("Token(todo) = %q, want the vault value", got)
	}
	// Names the vault does not hold fall back to the environment.
	if got := creds.Token("calendar"); got != "calendar-env-token" {
		t.Errorf("Token(calendar) = %q, want the env value", got)
	}
	if got := creds.Token("email"); got != "" {
		t.Errorf("Token(email) = %q, want empty", got)
	}
}

func TestCredentialsEnvFallbackDisabled(t *testing.T) {
	creds := &credentials{bundle: vault.NewBundle(), envAllowed: false}
	t.Setenv("NOVA_TOKEN_TODO", "env-token")

	if got := creds.Token("todo"); got != "" {
		t.Errorf("Token(todo) = %q, want empty with the fallback disabled", got)
	}
}

func TestOpenCredentialsWithoutVaultFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.VaultFile = filepath.Join(t.TempDir(), "credentials.age")

	creds, err := openCredentials(cfg, testLogger())
	if err != nil {
		t.Fatalf("openCredentials: %v", err)
	}
	if creds.bundle != nil {
		t.Error("bundle should be nil without a vault file")
	}
	if !creds.envAllowed {
		t.Error("env fallback should be allowed without require_vault")
	}
}

func TestOpenCredentialsRequireVaultRefusesStartup(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.VaultFile = filepath.Join(t.TempDir(), "credentials.age")
	cfg.Service.RequireVault = true

	_, err := openCredentials(cfg, testLogger())
	if err == nil || !strings.Contains(err.Error(), "require_vault") {
		t.Fatalf("err = %v, want a require_vault refusal", err)
	}
}

// --- configuration tests ---

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nova.yaml")
	if err := os.WriteFile(path, []byte("environment: staging\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Environment != config.Staging {
		t.Errorf("environment = %q, want staging", cfg.Environment)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nova.yaml")
	if err := os.WriteFile(path, []byte("environment: mars\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	_, err := loadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("err = %v, want a validation failure", err)
	}
}

func TestLoadConfigWithoutPathNeedsEnvVar(t *testing.T) {
	t.Setenv("NOVA_CONFIG", "")

	_, err := loadConfig("")
	if err == nil || !strings.Contains(err.Error(), "NOVA_CONFIG") {
		t.Fatalf("err = %v, want a NOVA_CONFIG hint", err)
	}
}

func TestLinkTemplatesCollectsConfiguredOnes(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{
		{Name: "todo", URL: "https://todo.example.com/items", LinkTemplate: "https://todo.example.com/item/{id}"},
		{Name: "calendar", URL: "https://calendar.example.com/events"},
	}

	templates := linkTemplates(cfg)
	if len(templates) != 1 {
		t.Fatalf("templates = %d entries, want 1", len(templates))
	}
	if templates[task.SourceTodo] != "https://todo.example.com/item/{id}" {
		t.Errorf("todo template = %q", templates[task.SourceTodo])
	}
}

// --- settings bootstrap tests ---

func TestOpenSettingsSeedsDefaultOnFirstBoot(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.SettingsFile = filepath.Join(t.TempDir(), "settings.json")
	cfg.Sync.DefaultInterval = "45m"

	prefs, err := openSettings(cfg, testLogger())
	if err != nil {
		t.Fatalf("openSettings: %v", err)
	}
	if got := prefs.Snapshot().DefaultIntervalMinutes; got != 45 {
		t.Errorf("seeded interval = %d, want 45", got)
	}

	// The settings file owns the value from then on; later config
	// changes do not overwrite it.
	cfg.Sync.DefaultInterval = "20m"
	prefs, err = openSettings(cfg, testLogger())
	if err != nil {
		t.Fatalf("reopening settings: %v", err)
	}
	if got := prefs.Snapshot().DefaultIntervalMinutes; got != 45 {
		t.Errorf("interval after reopen = %d, want 45", got)
	}
}

// --- feed wiring tests ---

func TestBuildFeedClientsOnePerSource(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{
		{Name: "todo", URL: "https://todo.example.com/items"},
		{Name: "calendar", URL: "https://calendar.example.com/events"},
	}
	creds := &credentials{envAllowed: true}

	clients, err := buildFeedClients(cfg, creds, testLogger())
	if err != nil {
		t.Fatalf("buildFeedClients: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("clients = %d, want 2", len(clients))
	}
	if clients[0].Source() != task.SourceTodo || clients[1].Source() != task.SourceCalendar {
		t.Errorf("client sources = %s/%s", clients[0].Source(), clients[1].Source())
	}
}

func TestBuildFeedClientsRejectsBadSource(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{{Name: "todo"}}
	creds := &credentials{envAllowed: true}

	_, err := buildFeedClients(cfg, creds, testLogger())
	if err == nil || !strings.Contains(err.Error(), "URL is required") {
		t.Fatalf("err = %v, want a URL complaint", err)
	}
}
