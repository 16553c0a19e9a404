// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/Wardy-uk/NOVA-sub001/lib/secret"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// CurrentVersion is the bundle format version this package writes.
const CurrentVersion = 1

// TrackerName is the credential name for the issue tracker; all other
// names are task sources.
const TrackerName = "tracker"

// Bundle maps credential names to API tokens. Names are task source
// names plus TrackerName.
type Bundle struct {
	Version     int               `json:"version"`
	Credentials map[string]string `json:"credentials"`
}

// NewBundle returns an empty bundle at the current version.
func NewBundle() *Bundle {
	return &Bundle{
		Version:     CurrentVersion,
		Credentials: map[string]string{},
	}
}

// Token returns the API token for a source or tracker name, or ""
// when the bundle carries none.
func (b *Bundle) Token(name string) string {
	return b.Credentials[name]
}

// Set stores a token under name.
func (b *Bundle) Set(name, token string) {
	if b.Credentials == nil {
		b.Credentials = map[string]string{}
	}
	b.Credentials[name] = token
}

// EnvVar maps a credential name to the environment variable the
// daemon falls back to when the vault carries no token for it:
// "issue-tracker" becomes "NOVA_TOKEN_ISSUE_TRACKER".
func EnvVar(name string) string {
	return "NOVA_TOKEN_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Names returns the credential names in sorted order. Names are safe
// to log and display; tokens never leave the bundle this way.
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.Credentials))
	for name := range b.Credentials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the bundle: a known version, credential names that
// are task sources or TrackerName, and no empty tokens. A typo in a
// name would otherwise sit silently in the vault while the source it
// was meant for runs unauthenticated.
func (b *Bundle) Validate() error {
	if b.Version != CurrentVersion {
		return fmt.Errorf("vault: unsupported bundle version %d (want %d)", b.Version, CurrentVersion)
	}
	for _, name := range b.Names() {
		if name != TrackerName && !task.Source(name).Valid() {
			return fmt.Errorf("vault: unknown credential name %q: not a task source or %q", name, TrackerName)
		}
		if b.Credentials[name] == "" {
			return fmt.Errorf("vault: empty token for %q", name)
		}
	}
	return nil
}

// GenerateIdentity creates a new age x25519 identity, writes it to
// path in age-keygen's file format with owner-only permissions, and
// returns the public key for sealing. It refuses to overwrite an
// existing file: replacing an identity orphans every vault sealed to
// it.
func GenerateIdentity(path string) (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("vault: generating identity: %w", err)
	}
	publicKey := identity.Recipient().String()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("vault: creating identity directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("vault: creating identity file: %w", err)
	}

	content := fmt.Sprintf("# created: %s\n# public key: %s\n%s\n",
		time.Now().UTC().Format(time.RFC3339), publicKey, identity.String())
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("vault: writing identity file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("vault: closing identity file: %w", err)
	}
	return publicKey, nil
}

// RecipientFromIdentityFile reads the age identity file at path and
// returns the public key of its first x25519 identity, so a bundle
// can be sealed to the identity that will open it.
func RecipientFromIdentityFile(path string) (string, error) {
	identityData, err := secret.ReadFromPath(path)
	if err != nil {
		return "", fmt.Errorf("vault: reading identity file %s: %w", path, err)
	}
	defer identityData.Close()

	identities, err := age.ParseIdentities(bytes.NewReader(identityData.Bytes()))
	if err != nil {
		return "", fmt.Errorf("vault: parsing identity file %s: %w", path, err)
	}
	for _, identity := range identities {
		if x25519, ok := identity.(*age.X25519Identity); ok {
			return x25519.Recipient().String(), nil
		}
	}
	return "", fmt.Errorf("vault: no x25519 identity in %s", path)
}

// SealToRecipients validates the bundle, encrypts it to one or more
// age public keys, and writes it to path.
func SealToRecipients(path string, bundle *Bundle, recipientKeys []string) error {
	if len(recipientKeys) == 0 {
		return fmt.Errorf("vault: at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return fmt.Errorf("vault: parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return seal(path, bundle, recipients)
}

// SealWithPassphrase validates the bundle and encrypts it with an
// scrypt passphrase instead of a keypair. The passphrase buffer is
// borrowed, not closed.
func SealWithPassphrase(path string, bundle *Bundle, passphrase *secret.Buffer) error {
	recipient, err := age.NewScryptRecipient(passphrase.String())
	if err != nil {
		return fmt.Errorf("vault: preparing passphrase recipient: %w", err)
	}
	return seal(path, bundle, []age.Recipient{recipient})
}

func seal(path string, bundle *Bundle, recipients []age.Recipient) error {
	if err := bundle.Validate(); err != nil {
		return err
	}
	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("vault: encoding bundle: %w", err)
	}
	defer secret.Zero(plaintext)

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return fmt.Errorf("vault: creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return fmt.Errorf("vault: encrypting bundle: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("vault: finalizing encryption: %w", err)
	}

	// Write-then-rename: a sealing failure must not clobber the
	// previous vault.
	temporaryPath := path + ".tmp"
	if err := os.WriteFile(temporaryPath, ciphertext.Bytes(), 0600); err != nil {
		return fmt.Errorf("vault: writing sealed bundle: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("vault: renaming into place: %w", err)
	}
	return nil
}

// OpenWithIdentityFile decrypts the sealed bundle at path using the
// age identity file at identityPath, as written by GenerateIdentity or
// age-keygen.
func OpenWithIdentityFile(path, identityPath string) (*Bundle, error) {
	identityData, err := secret.ReadFromPath(identityPath)
	if err != nil {
		return nil, fmt.Errorf("vault: reading identity file %s: %w", identityPath, err)
	}
	defer identityData.Close()

	identities, err := age.ParseIdentities(bytes.NewReader(identityData.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("vault: parsing identity file %s: %w", identityPath, err)
	}
	return open(path, identities)
}

// OpenWithPassphrase decrypts a passphrase-sealed bundle. The
// passphrase buffer is borrowed, not closed.
func OpenWithPassphrase(path string, passphrase *secret.Buffer) (*Bundle, error) {
	identity, err := age.NewScryptIdentity(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("vault: preparing passphrase identity: %w", err)
	}
	return open(path, []age.Identity{identity})
}

func open(path string, identities []age.Identity) (*Bundle, error) {
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vault: reading sealed bundle: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("vault: decrypting bundle: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("vault: reading decrypted bundle: %w", err)
	}

	// Move the plaintext into locked memory and decode from there.
	// The decoded token strings are heap values handed to HTTP
	// clients; the locked buffer is the copy that gets zeroed.
	protected, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("vault: protecting decrypted bundle: %w", err)
	}
	defer protected.Close()

	var bundle Bundle
	if err := json.Unmarshal(protected.Bytes(), &bundle); err != nil {
		return nil, fmt.Errorf("vault: decoding bundle: %w", err)
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// ValidateRecipient checks that key parses as an age x25519 public
// key, so a typoed recipient fails before anything is sealed to it.
func ValidateRecipient(key string) error {
	if _, err := age.ParseX25519Recipient(key); err != nil {
		return fmt.Errorf("vault: invalid recipient key: %w", err)
	}
	return nil
}
