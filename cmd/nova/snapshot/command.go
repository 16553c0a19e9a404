// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
)

// Command returns the "snapshot" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Export and import task store snapshots",
		Description: `Export the daemon's task store to a compressed snapshot file, or
merge a snapshot back in. The daemon reads and writes the file
itself, so paths are resolved against the caller's directory and
sent absolute.

Importing updates existing rows by ID and inserts new ones; rows
absent from the snapshot are left alone.`,
		Subcommands: []*cli.Command{
			exportCommand(),
			importCommand(),
		},
	}
}
