// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package vault_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Wardy-uk/NOVA-sub001/lib/secret"
	"github.com/Wardy-uk/NOVA-sub001/lib/vault"
)

func testBundle() *vault.Bundle {
	bundle := vault.NewBundle()
	bundle.Set("planner", "planner-token-1")
	bundle.Set("email", "email-token-2")
	bundle.Set(vault.TrackerName, "tracker-token-3")
	return bundle
}

func TestBundleTokenAndNames(t *testing.T) {
	bundle := testBundle()

	if got := bundle.Token("planner"); got != "planner-token-1" {
		t.Errorf("Token(planner) = %q", got)
	}
	if got := bundle.Token("todo"); got != "" {
		t.Errorf("Token(todo) = %q, want empty", got)
	}

	want := []string{"email", "planner", "tracker"}
	if got := bundle.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestEnvVarMapsCredentialNames(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"tracker", "NOVA_TOKEN_TRACKER"},
		{"issue-tracker", "NOVA_TOKEN_ISSUE_TRACKER"},
		{"spreadsheet-board", "NOVA_TOKEN_SPREADSHEET_BOARD"},
	}
	for _, tc := range cases {
		if got := vault.EnvVar(tc.name); got != tc.want {
			t.Errorf("EnvVar(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestBundleValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*vault.Bundle)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(b *vault.Bundle) {},
		},
		{
			name:    "unknown name",
			modify:  func(b *vault.Bundle) { b.Set("planer", "tok") },
			wantErr: "unknown credential name",
		},
		{
			name:    "empty token",
			modify:  func(b *vault.Bundle) { b.Set("todo", "") },
			wantErr: "empty token",
		},
		{
			name:    "wrong version",
			modify:  func(b *vault.Bundle) { b.Version = 7 },
			wantErr: "unsupported bundle version",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bundle := testBundle()
			test.modify(bundle)
			err := bundle.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Validate() = %v, want %q", err, test.wantErr)
			}
		})
	}
}

func TestGenerateIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "vault-identity.txt")

	publicKey, err := vault.GenerateIdentity(path)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if !strings.HasPrefix(publicKey, "age1") {
		t.Errorf("public key = %q, want age1 prefix", publicKey)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("identity file mode = %o, want 0600", perm)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(content), "# public key: "+publicKey) {
		t.Error("identity file missing public key comment")
	}
	if !strings.Contains(string(content), "AGE-SECRET-KEY-1") {
		t.Error("identity file missing secret key line")
	}
}

func TestGenerateIdentityRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault-identity.txt")
	if _, err := vault.GenerateIdentity(path); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if _, err := vault.GenerateIdentity(path); err == nil {
		t.Fatal("GenerateIdentity overwrote an existing identity")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(before) != string(after) {
		t.Error("existing identity file was modified")
	}
}

func TestRecipientFromIdentityFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault-identity.txt")
	publicKey, err := vault.GenerateIdentity(path)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	recipient, err := vault.RecipientFromIdentityFile(path)
	if err != nil {
		t.Fatalf("RecipientFromIdentityFile: %v", err)
	}
	if recipient != publicKey {
		t.Errorf("recipient = %q, want %q", recipient, publicKey)
	}
}

func TestRecipientFromIdentityFileMissing(t *testing.T) {
	_, err := vault.RecipientFromIdentityFile(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing identity file")
	}
}

func TestSealOpenWithIdentity(t *testing.T) {
	dir := t.TempDir()
	identityPath := filepath.Join(dir, "identity.txt")
	vaultPath := filepath.Join(dir, "credentials.age")

	publicKey, err := vault.GenerateIdentity(identityPath)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	if err := vault.SealToRecipients(vaultPath, testBundle(), []string{publicKey}); err != nil {
		t.Fatalf("SealToRecipients: %v", err)
	}

	info, err := os.Stat(vaultPath)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("vault file mode = %o, want 0600", perm)
	}

	opened, err := vault.OpenWithIdentityFile(vaultPath, identityPath)
	if err != nil {
		t.Fatalf("OpenWithIdentityFile: %v", err)
	}
	if !reflect.DeepEqual(opened.Credentials, testBundle().Credentials) {
		t.Errorf("opened credentials = %v, want %v", opened.Credentials, testBundle().Credentials)
	}
}

func TestSealToMultipleRecipients(t *testing.T) {
	dir := t.TempDir()
	daemonIdentity := filepath.Join(dir, "daemon.txt")
	escrowIdentity := filepath.Join(dir, "escrow.txt")
	vaultPath := filepath.Join(dir, "credentials.age")

	daemonKey, err := vault.GenerateIdentity(daemonIdentity)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	escrowKey, err := vault.GenerateIdentity(escrowIdentity)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	if err := vault.SealToRecipients(vaultPath, testBundle(), []string{daemonKey, escrowKey}); err != nil {
		t.Fatalf("SealToRecipients: %v", err)
	}

	// Both identities open the same vault independently.
	for _, identityPath := range []string{daemonIdentity, escrowIdentity} {
		opened, err := vault.OpenWithIdentityFile(vaultPath, identityPath)
		if err != nil {
			t.Fatalf("OpenWithIdentityFile(%s): %v", filepath.Base(identityPath), err)
		}
		if opened.Token("planner") != "planner-token-1" {
			t.Errorf("opened via %s: wrong planner token", filepath.Base(identityPath))
		}
	}
}

func TestSealOpenWithPassphrase(t *testing.T) {
	vaultPath := filepath.Join(t.TempDir(), "credentials.age")

	passphrase, err := secret.NewFromBytes([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer passphrase.Close()

	if err := vault.SealWithPassphrase(vaultPath, testBundle(), passphrase); err != nil {
		t.Fatalf("SealWithPassphrase: %v", err)
	}

	opened, err := vault.OpenWithPassphrase(vaultPath, passphrase)
	if err != nil {
		t.Fatalf("OpenWithPassphrase: %v", err)
	}
	if opened.Token(vault.TrackerName) != "tracker-token-3" {
		t.Error("tracker token lost across seal and open")
	}
}

func TestOpenWrongIdentity(t *testing.T) {
	dir := t.TempDir()
	rightIdentity := filepath.Join(dir, "right.txt")
	wrongIdentity := filepath.Join(dir, "wrong.txt")
	vaultPath := filepath.Join(dir, "credentials.age")

	rightKey, err := vault.GenerateIdentity(rightIdentity)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if _, err := vault.GenerateIdentity(wrongIdentity); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	if err := vault.SealToRecipients(vaultPath, testBundle(), []string{rightKey}); err != nil {
		t.Fatalf("SealToRecipients: %v", err)
	}

	if _, err := vault.OpenWithIdentityFile(vaultPath, wrongIdentity); err == nil {
		t.Error("vault opened with an identity it was not sealed to")
	}
}

func TestOpenCorruptedVault(t *testing.T) {
	dir := t.TempDir()
	identityPath := filepath.Join(dir, "identity.txt")
	vaultPath := filepath.Join(dir, "credentials.age")

	publicKey, err := vault.GenerateIdentity(identityPath)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := vault.SealToRecipients(vaultPath, testBundle(), []string{publicKey}); err != nil {
		t.Fatalf("SealToRecipients: %v", err)
	}

	data, err := os.ReadFile(vaultPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(vaultPath, data, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := vault.OpenWithIdentityFile(vaultPath, identityPath); err == nil {
		t.Error("corrupted vault opened without error")
	}
}

func TestOpenMissingVault(t *testing.T) {
	dir := t.TempDir()
	identityPath := filepath.Join(dir, "identity.txt")
	if _, err := vault.GenerateIdentity(identityPath); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	_, err := vault.OpenWithIdentityFile(filepath.Join(dir, "absent.age"), identityPath)
	if err == nil || !strings.Contains(err.Error(), "reading sealed bundle") {
		t.Errorf("OpenWithIdentityFile error = %v, want read failure", err)
	}
}

func TestSealRejectsInvalidBundle(t *testing.T) {
	dir := t.TempDir()
	identityPath := filepath.Join(dir, "identity.txt")
	vaultPath := filepath.Join(dir, "credentials.age")

	publicKey, err := vault.GenerateIdentity(identityPath)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	bundle := testBundle()
	bundle.Set("carrier-pigeon", "tok")
	if err := vault.SealToRecipients(vaultPath, bundle, []string{publicKey}); err == nil {
		t.Fatal("sealed a bundle with an unknown credential name")
	}
	if _, err := os.Stat(vaultPath); !os.IsNotExist(err) {
		t.Error("rejected seal still wrote a vault file")
	}
}

func TestSealRejectsBadRecipient(t *testing.T) {
	vaultPath := filepath.Join(t.TempDir(), "credentials.age")

	err := vault.SealToRecipients(vaultPath, testBundle(), []string{"not-an-age-key"})
	if err == nil || !strings.Contains(err.Error(), "parsing recipient key") {
		t.Errorf("SealToRecipients error = %v, want recipient parse failure", err)
	}

	if err := vault.SealToRecipients(vaultPath, testBundle(), nil); err == nil {
		t.Error("SealToRecipients accepted an empty recipient list")
	}
}

func TestValidateRecipient(t *testing.T) {
	identityPath := filepath.Join(t.TempDir(), "identity.txt")
	publicKey, err := vault.GenerateIdentity(identityPath)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	if err := vault.ValidateRecipient(publicKey); err != nil {
		t.Errorf("ValidateRecipient(%q) = %v", publicKey, err)
	}
	if err := vault.ValidateRecipient("age1garbage"); err == nil {
		t.Error("ValidateRecipient accepted a malformed key")
	}
}
