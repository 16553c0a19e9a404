// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Wardy-uk/NOVA-sub001/cmd/nova/cli"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
	"github.com/Wardy-uk/NOVA-sub001/lib/vault"
)

type keygenParams struct {
	cli.ConfigFlag
	cli.JSONOutput

	Output string `flag:"output,o" desc:"identity file path (default from config)"`
}

// keygenResult is the machine-readable keygen outcome. The secret key
// stays in the file.
type keygenResult struct {
	Path      string `json:"path"`
	PublicKey string `json:"public_key"`
}

func keygenCommand() *cli.Command {
	var params keygenParams

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate the daemon's vault identity",
		Description: `Generate a new age identity for opening the credentials bundle and
write it with owner-only permissions. Refuses to overwrite an
existing identity: replacing one orphans every bundle sealed to it.`,
		Usage: "nova vault keygen [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("keygen", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.Load()
			if err != nil {
				return err
			}
			path := params.Output
			if path == "" {
				path = cfg.Paths.VaultIdentity
			}

			publicKey, err := vault.GenerateIdentity(path)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(keygenResult{Path: path, PublicKey: publicKey}); done {
				return err
			}
			fmt.Printf("identity written to %s\n", path)
			fmt.Printf("public key: %s\n", publicKey)
			return nil
		},
	}
}

type sealParams struct {
	cli.ConfigFlag

	Vault      string   `flag:"vault" desc:"sealed bundle path (default from config)"`
	Identity   string   `flag:"identity" desc:"identity file whose public key to seal to (default from config)"`
	Recipients []string `flag:"recipient,r" desc:"age public key to seal to instead of the identity file (repeatable)"`
	Passphrase bool     `flag:"passphrase" desc:"seal with a passphrase instead of public keys"`
	FromEnv    bool     `flag:"from-env" desc:"collect tokens from NOVA_TOKEN_* variables"`
	Tokens     []string `flag:"token" desc:"name=value credential to include (repeatable)"`
}

func sealCommand() *cli.Command {
	var params sealParams

	return &cli.Command{
		Name:    "seal",
		Summary: "Seal API tokens into the credentials bundle",
		Description: `Build a credentials bundle from NOVA_TOKEN_* variables and --token
pairs and seal it. By default the bundle is sealed to the public key
of the configured identity file, which is what the daemon opens it
with; --recipient and --passphrase seal copies other parties can
open instead.

Sealing replaces the whole bundle, so pass every credential each
time. Credential names are the synced source names plus "tracker".`,
		Usage: "nova vault seal [flags]",
		Examples: []cli.Example{
			{
				Description: "Seal every NOVA_TOKEN_* variable for the daemon",
				Command:     "nova vault seal --from-env",
			},
			{
				Description: "Rotate the tracker token, keeping env values for the rest",
				Command:     "nova vault seal --from-env --token tracker=glpat-abc123",
			},
			{
				Description: "Seal an offline copy a passphrase can open",
				Command:     "nova vault seal --from-env --vault ./backup.age --passphrase",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("seal", &params)
		},
		Run: func(args []string) error {
			if !params.FromEnv && len(params.Tokens) == 0 {
				return fmt.Errorf("nothing to seal: pass --from-env and/or --token name=value")
			}
			if params.Passphrase && len(params.Recipients) > 0 {
				return fmt.Errorf("--passphrase and --recipient are mutually exclusive")
			}

			bundle := vault.NewBundle()
			if params.FromEnv {
				if collectEnvTokens(bundle) == 0 {
					return fmt.Errorf("--from-env found no NOVA_TOKEN_* variables set")
				}
			}
			for _, argument := range params.Tokens {
				name, value, err := parseToken(argument)
				if err != nil {
					return err
				}
				bundle.Set(name, value)
			}
			if err := bundle.Validate(); err != nil {
				return err
			}

			cfg, err := params.Load()
			if err != nil {
				return err
			}
			vaultPath := params.Vault
			if vaultPath == "" {
				vaultPath = cfg.Paths.VaultFile
			}

			switch {
			case params.Passphrase:
				passphrase, err := readPassphrase(true)
				if err != nil {
					return err
				}
				defer passphrase.Close()
				if err := vault.SealWithPassphrase(vaultPath, bundle, passphrase); err != nil {
					return err
				}

			case len(params.Recipients) > 0:
				if err := vault.SealToRecipients(vaultPath, bundle, params.Recipients); err != nil {
					return err
				}

			default:
				identityPath := params.Identity
				if identityPath == "" {
					identityPath = cfg.Paths.VaultIdentity
				}
				recipient, err := vault.RecipientFromIdentityFile(identityPath)
				if err != nil {
					return fmt.Errorf("%w\n\nrun 'nova vault keygen' first, or pass --recipient or --passphrase", err)
				}
				if err := vault.SealToRecipients(vaultPath, bundle, []string{recipient}); err != nil {
					return err
				}
			}

			names := bundle.Names()
			fmt.Printf("sealed %d %s to %s (%s)\n",
				len(names), credentialNoun(len(names)), vaultPath, strings.Join(names, ", "))
			return nil
		},
	}
}

type showParams struct {
	cli.ConfigFlag
	cli.JSONOutput

	Vault      string `flag:"vault" desc:"sealed bundle path (default from config)"`
	Identity   string `flag:"identity" desc:"identity file to open with (default from config)"`
	Passphrase bool   `flag:"passphrase" desc:"open with a passphrase instead of the identity file"`
}

// showResult lists what a bundle holds. Tokens are deliberately
// absent.
type showResult struct {
	Path        string   `json:"path"`
	Credentials []string `json:"credentials"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "List the credential names a bundle holds",
		Usage:   "nova vault show [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			cfg, err := params.Load()
			if err != nil {
				return err
			}
			vaultPath := params.Vault
			if vaultPath == "" {
				vaultPath = cfg.Paths.VaultFile
			}

			var bundle *vault.Bundle
			if params.Passphrase {
				passphrase, err := readPassphrase(false)
				if err != nil {
					return err
				}
				defer passphrase.Close()
				bundle, err = vault.OpenWithPassphrase(vaultPath, passphrase)
				if err != nil {
					return err
				}
			} else {
				identityPath := params.Identity
				if identityPath == "" {
					identityPath = cfg.Paths.VaultIdentity
				}
				bundle, err = vault.OpenWithIdentityFile(vaultPath, identityPath)
				if err != nil {
					return err
				}
			}

			names := bundle.Names()
			if done, err := params.EmitJSON(showResult{Path: vaultPath, Credentials: names}); done {
				return err
			}

			fmt.Printf("vault %s holds %d %s:\n", vaultPath, len(names), credentialNoun(len(names)))
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}

// collectEnvTokens fills bundle from the NOVA_TOKEN_* variables for
// every known credential name, returning how many were set.
func collectEnvTokens(bundle *vault.Bundle) int {
	count := 0
	for _, name := range credentialNames() {
		if token := os.Getenv(vault.EnvVar(name)); token != "" {
			bundle.Set(name, token)
			count++
		}
	}
	return count
}

// credentialNames is every name the vault accepts: one per source
// plus the tracker.
func credentialNames() []string {
	names := make([]string, 0, len(task.Sources())+1)
	for _, source := range task.Sources() {
		names = append(names, string(source))
	}
	return append(names, vault.TrackerName)
}

// parseToken splits a --token argument into credential name and value.
func parseToken(argument string) (string, string, error) {
	name, value, ok := strings.Cut(argument, "=")
	if !ok || name == "" || value == "" {
		return "", "", fmt.Errorf("--token wants name=value, got %q", argument)
	}
	return name, value, nil
}

func credentialNoun(count int) string {
	if count == 1 {
		return "credential"
	}
	return "credentials"
}
