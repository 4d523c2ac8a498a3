package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "backup.db")
	enc := filepath.Join(dir, "backup.db.enc")
	out := filepath.Join(dir, "restored.db")

	payload := []byte("not really a database, but good enough for a round trip")
	if err := os.WriteFile(src, payload, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(src, enc, "correct horse battery staple"); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	encrypted, err := os.ReadFile(enc)
	if err != nil {
		t.Fatalf("read encrypted: %v", err)
	}
	if string(encrypted[:len(encryptedFileHeader)]) != encryptedFileHeader {
		t.Error("encrypted file missing header")
	}

	if err := DecryptFile(enc, out, "correct horse battery staple"); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}
	restored, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(restored) != string(payload) {
		t.Errorf("restored content differs: %q", restored)
	}
}

func TestDecryptWrongPassphraseFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "backup.db")
	enc := filepath.Join(dir, "backup.db.enc")

	if err := os.WriteFile(src, []byte("secret"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := EncryptFile(src, enc, "right"); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "wrong"); err == nil {
		t.Fatal("expected decryption to fail with wrong passphrase")
	}
}

func TestDecryptRejectsUnrecognizedFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	if err := os.WriteFile(src, []byte("plain old file"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := DecryptFile(src, filepath.Join(dir, "out.db"), "pw"); err == nil {
		t.Fatal("expected an error for a file without the header")
	}
}
