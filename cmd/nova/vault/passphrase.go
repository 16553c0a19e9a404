// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/Wardy-uk/NOVA-sub001/lib/secret"
)

// readPassphrase obtains the vault passphrase. If stdin is not a
// terminal (piped input) it reads one line without prompting; on a
// terminal it prompts with echo disabled, asking twice when confirm
// is set. The caller must Close the returned buffer.
func readPassphrase(confirm bool) (*secret.Buffer, error) {
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return secret.ReadFromPath("-")
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("passphrase is empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(stdinFd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			secret.Zero(first)
			return nil, fmt.Errorf("reading passphrase confirmation: %w", err)
		}

		match := len(first) == len(second)
		if match {
			for index := range first {
				if first[index] != second[index] {
					match = false
					break
				}
			}
		}
		secret.Zero(second)

		if !match {
			secret.Zero(first)
			return nil, fmt.Errorf("passphrases do not match")
		}
	}

	// NewFromBytes copies into locked memory and zeros first.
	buffer, err := secret.NewFromBytes(first)
	if err != nil {
		secret.Zero(first)
		return nil, err
	}
	return buffer, nil
}
