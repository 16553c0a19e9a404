// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/lib/config"
	"github.com/Wardy-uk/NOVA-sub001/lib/service"
)

// ConfigFlag binds --config and loads the configuration on demand.
// Commands that only need configured paths (the vault group) embed
// this directly; commands that talk to the daemon embed [Connection],
// which includes it.
type ConfigFlag struct {
	ConfigPath string
}

// AddFlags registers the --config flag.
func (c *ConfigFlag) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigPath, "config", "", "path to nova.yaml (defaults to $NOVA_CONFIG)")
}

// Load resolves and loads the configuration: the --config value, then
// the NOVA_CONFIG environment variable, then built-in defaults. The
// default fallback means read-only commands work against a
// default-configured daemon without any setup.
func (c *ConfigFlag) Load() (*config.Config, error) {
	if c.ConfigPath != "" {
		return config.LoadFile(c.ConfigPath)
	}
	if os.Getenv("NOVA_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// Connection manages how commands reach the daemon. The socket path
// resolves from --socket, then the NOVA_SOCKET environment variable,
// then the config file's service.socket_path.
type Connection struct {
	ConfigFlag
	Socket string
}

// AddFlags registers connection flags.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	c.ConfigFlag.AddFlags(flagSet)
	flagSet.StringVar(&c.Socket, "socket", "", "daemon socket path (overrides config)")
}

// SocketPath resolves the socket path without connecting.
func (c *Connection) SocketPath() (string, error) {
	if c.Socket != "" {
		return c.Socket, nil
	}
	if env := os.Getenv("NOVA_SOCKET"); env != "" {
		return env, nil
	}
	cfg, err := c.Load()
	if err != nil {
		return "", err
	}
	return cfg.Service.SocketPath, nil
}

// Connect creates a service client for the resolved socket path.
func (c *Connection) Connect() (*service.ServiceClient, error) {
	path, err := c.SocketPath()
	if err != nil {
		return nil, err
	}
	return service.NewServiceClient(path), nil
}

// CallContext returns a context with a reasonable timeout for daemon
// calls that answer from memory or SQLite. Commands that wait on
// upstream HTTP work (sync runs, onboarding runs) set their own
// longer bounds.
func CallContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
