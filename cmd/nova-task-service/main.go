// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wardy-uk/NOVA-sub001/lib/aggregator"
	"github.com/Wardy-uk/NOVA-sub001/lib/clock"
	"github.com/Wardy-uk/NOVA-sub001/lib/config"
	"github.com/Wardy-uk/NOVA-sub001/lib/normalize"
	"github.com/Wardy-uk/NOVA-sub001/lib/onboarding"
	"github.com/Wardy-uk/NOVA-sub001/lib/process"
	"github.com/Wardy-uk/NOVA-sub001/lib/service"
	"github.com/Wardy-uk/NOVA-sub001/lib/settings"
	"github.com/Wardy-uk/NOVA-sub001/lib/source"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
	"github.com/Wardy-uk/NOVA-sub001/lib/taskstore"
	"github.com/Wardy-uk/NOVA-sub001/lib/tracker"
	"github.com/Wardy-uk/NOVA-sub001/lib/vault"
	"github.com/Wardy-uk/NOVA-sub001/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to nova.yaml (defaults to $NOVA_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("nova-task-service %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("preparing data directories: %w", err)
	}
	logger.Info("configuration loaded",
		"environment", cfg.Environment,
		"data", cfg.Paths.Data,
	)

	clk := clock.Real()

	credentials, err := openCredentials(cfg, logger)
	if err != nil {
		return err
	}

	store, err := taskstore.Open(taskstore.Config{
		Path:   cfg.Paths.TaskDB,
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening task store: %w", err)
	}
	defer store.Close()

	// Calendar and email rows are per-session views. Drop leftovers
	// from the previous run; the first sync cycle repopulates them.
	removed, err := store.DeleteTransient(ctx)
	if err != nil {
		return fmt.Errorf("clearing transient tasks: %w", err)
	}
	if removed > 0 {
		logger.Info("transient tasks cleared", "count", removed)
	}

	prefs, err := openSettings(cfg, logger)
	if err != nil {
		return err
	}

	clients, err := buildFeedClients(cfg, credentials, logger)
	if err != nil {
		return err
	}

	agg, err := aggregator.New(aggregator.Config{
		Store:    store,
		Registry: normalize.NewRegistry(linkTemplates(cfg)),
		Settings: prefs,
		Clients:  clients,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("building aggregator: %w", err)
	}

	hub := &taskHub{
		config:     cfg,
		store:      store,
		settings:   prefs,
		aggregator: agg,
		clock:      clk,
		startedAt:  clk.Now(),
		logger:     logger,
	}

	if cfg.OnboardingEnabled() {
		matrixProvider, ledger, orchestrator, err := openOnboarding(cfg, credentials, clk, logger)
		if err != nil {
			return err
		}
		defer ledger.Close()
		hub.matrix = matrixProvider
		hub.ledger = ledger
		hub.orchestrator = orchestrator
	} else {
		logger.Info("onboarding disabled", "reason", "tracker.base_url not configured")
	}

	// Start the socket server in a goroutine.
	socketServer := service.NewSocketServer(cfg.Service.SocketPath, logger)
	hub.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	// Start the sync loop in a goroutine. Run performs the initial
	// sweep across all sources and then polls each on its own timer.
	aggregatorDone := make(chan error, 1)
	go func() {
		aggregatorDone <- agg.Run(ctx)
	}()

	logger.Info("task service running",
		"socket", cfg.Service.SocketPath,
		"sources", len(clients),
		"onboarding", hub.orchestrator != nil,
	)

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for the socket server to drain active connections and the
	// source timers to finish any cycle in flight.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	<-aggregatorDone

	return nil
}

// loadConfig loads and validates the configuration, from the given
// path when set, otherwise from the NOVA_CONFIG environment variable.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// credentials resolves feed and tracker tokens. The sealed vault is
// authoritative; a name it does not hold falls back to the
// NOVA_TOKEN_<NAME> environment variable unless service.require_vault
// disables the fallback.
type credentials struct {
	bundle     *vault.Bundle
	envAllowed bool
}

// openCredentials opens the vault at paths.vault_file if one exists.
// service.require_vault turns a missing vault into a startup error.
func openCredentials(cfg *config.Config, logger *slog.Logger) (*credentials, error) {
	_, err := os.Stat(cfg.Paths.VaultFile)
	switch {
	case err == nil:
		bundle, err := vault.OpenWithIdentityFile(cfg.Paths.VaultFile, cfg.Paths.VaultIdentity)
		if err != nil {
			return nil, fmt.Errorf("opening credential vault: %w", err)
		}
		logger.Info("credential vault open",
			"path", cfg.Paths.VaultFile,
			"credentials", len(bundle.Names()),
		)
		return &credentials{bundle: bundle, envAllowed: !cfg.Service.RequireVault}, nil

	case os.IsNotExist(err):
		if cfg.Service.RequireVault {
			return nil, fmt.Errorf("service.require_vault is set but no vault exists at %s; seal one with `nova vault seal`", cfg.Paths.VaultFile)
		}
		logger.Info("no credential vault; tokens come from NOVA_TOKEN_* variables",
			"path", cfg.Paths.VaultFile,
		)
		return &credentials{envAllowed: true}, nil

	default:
		return nil, fmt.Errorf("checking vault %s: %w", cfg.Paths.VaultFile, err)
	}
}

// Token returns the credential for name, or "" when neither the vault
// nor the environment has one.
func (c *credentials) Token(name string) string {
	if c.bundle != nil {
		if token := c.bundle.Token(name); token != "" {
			return token
		}
	}
	if !c.envAllowed {
		return ""
	}
	return os.Getenv(vault.EnvVar(name))
}

// openSettings opens the persisted sync preferences. On first boot the
// config file's sync.default_interval seeds the settings file; from
// then on the settings file owns the value and config changes do not
// overwrite it.
func openSettings(cfg *config.Config, logger *slog.Logger) (*settings.Store, error) {
	_, statErr := os.Stat(cfg.Paths.SettingsFile)
	firstBoot := os.IsNotExist(statErr)

	prefs, err := settings.Open(cfg.Paths.SettingsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}
	if firstBoot {
		if err := prefs.SetDefaultInterval(cfg.DefaultSyncInterval()); err != nil {
			return nil, fmt.Errorf("seeding settings: %w", err)
		}
		logger.Info("settings file created",
			"path", cfg.Paths.SettingsFile,
			"default_interval", cfg.DefaultSyncInterval(),
		)
	}
	return prefs, nil
}

// buildFeedClients constructs one HTTP feed client per configured
// source.
func buildFeedClients(cfg *config.Config, creds *credentials, logger *slog.Logger) ([]aggregator.Client, error) {
	clients := make([]aggregator.Client, 0, len(cfg.Sources))
	for _, sourceConfig := range cfg.Sources {
		client, err := source.NewFeedClient(source.Config{
			Source:  task.Source(sourceConfig.Name),
			URL:     sourceConfig.URL,
			Token:   creds.Token(sourceConfig.Name),
			Timeout: cfg.FetchTimeout(),
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sourceConfig.Name, err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// linkTemplates collects the configured deep-link templates, used to
// synthesize source URLs for items that arrive without one.
func linkTemplates(cfg *config.Config) map[task.Source]string {
	templates := make(map[task.Source]string)
	for _, sourceConfig := range cfg.Sources {
		if sourceConfig.LinkTemplate != "" {
			templates[task.Source(sourceConfig.Name)] = sourceConfig.LinkTemplate
		}
	}
	return templates
}

// openOnboarding wires the capability matrix, run ledger, and tracker
// client into an orchestrator. The matrix must parse and validate at
// startup; later reloads that fail keep the last good copy.
func openOnboarding(cfg *config.Config, creds *credentials, clk clock.Clock, logger *slog.Logger) (*onboarding.MatrixProvider, *onboarding.Ledger, *onboarding.Orchestrator, error) {
	matrixProvider, err := onboarding.OpenMatrix(cfg.Paths.MatrixFile, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading capability matrix: %w", err)
	}

	token := creds.Token(vault.TrackerName)
	if token == "" {
		return nil, nil, nil, fmt.Errorf("tracker credential missing: seal %q into the vault or set %s", vault.TrackerName, vault.EnvVar(vault.TrackerName))
	}

	trackerClient, err := tracker.NewHTTPClient(tracker.Config{
		BaseURL: cfg.Tracker.BaseURL,
		Token:   token,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building tracker client: %w", err)
	}

	ledger, err := onboarding.OpenLedger(onboarding.LedgerConfig{
		Path:   cfg.Paths.OnboardingDB,
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening run ledger: %w", err)
	}

	orchestrator, err := onboarding.NewOrchestrator(onboarding.OrchestratorConfig{
		Tracker:   trackerClient,
		Matrix:    matrixProvider,
		Ledger:    ledger,
		Project:   cfg.Tracker.Project,
		IssueType: cfg.Tracker.IssueType,
		Logger:    logger,
	})
	if err != nil {
		ledger.Close()
		return nil, nil, nil, fmt.Errorf("building orchestrator: %w", err)
	}

	return matrixProvider, ledger, orchestrator, nil
}

// taskHub is the core service state shared by all socket handlers.
type taskHub struct {
	config     *config.Config
	store      *taskstore.Store
	settings   *settings.Store
	aggregator *aggregator.Aggregator
	clock      clock.Clock
	startedAt  time.Time

	// Onboarding collaborators, all nil when no tracker is
	// configured. Onboarding actions stay registered and return a
	// clear error instead.
	matrix       *onboarding.MatrixProvider
	ledger       *onboarding.Ledger
	orchestrator *onboarding.Orchestrator

	logger *slog.Logger
}
