// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the Nova
// daemon and CLI.
//
// Configuration is loaded from a single file specified by either the
// NOVA_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// credentials must come from the sealed vault rather than the process
// environment.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${NOVA_DATA}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Configuration is operator-owned and read once at startup. The
// runtime-mutable knobs (per-source enablement, poll intervals) live
// in lib/settings instead; the sync section here only seeds a fresh
// settings file on first boot.
package config
