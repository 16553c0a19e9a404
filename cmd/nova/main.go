// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/commands"
	"github.com/Wardy-uk/NOVA-sub001/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like "sync all")
		// return an ExitError with the desired exit code. Don't print
		// a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
