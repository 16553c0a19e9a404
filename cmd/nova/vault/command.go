// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
)

// Command returns the "vault" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "vault",
		Summary: "Manage the sealed credentials bundle",
		Description: `Manage the age-encrypted bundle the daemon reads upstream API
tokens from. The usual flow is keygen once, then seal whenever a
token changes:

    nova vault keygen
    NOVA_TOKEN_TRACKER=... NOVA_TOKEN_ISSUE_TRACKER=... \
        nova vault seal --from-env

The daemon opens the bundle with its identity file at startup.
Tokens never cross the control socket and are never printed.`,
		Subcommands: []*cli.Command{
			keygenCommand(),
			sealCommand(),
			showCommand(),
		},
	}
}
