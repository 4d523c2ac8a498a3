package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

// encryptedFileHeader identifies an encrypted backup file.
const encryptedFileHeader = "DRAWSIMENC1"

// Argon2id parameters, per RFC 9106 recommendations.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32 // AES-256
	saltLength    = 32
)

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// EncryptFile encrypts the file at src with a passphrase-derived AES-256-GCM
// key and writes header || salt || nonce || ciphertext to dst.
func EncryptFile(src, dst, passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(encryptedFileHeader)+len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, encryptedFileHeader...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)

	if err := os.WriteFile(dst, out, 0o600); err != nil {
		return fmt.Errorf("write encrypted file: %w", err)
	}
	return nil
}

// DecryptFile reverses EncryptFile. A wrong passphrase fails the GCM
// authentication check rather than producing garbage output.
func DecryptFile(src, dst, passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read encrypted file: %w", err)
	}

	if !bytes.HasPrefix(data, []byte(encryptedFileHeader)) {
		return fmt.Errorf("not an encrypted backup file")
	}
	data = data[len(encryptedFileHeader):]

	if len(data) < saltLength {
		return fmt.Errorf("encrypted file truncated")
	}
	salt, data := data[:saltLength], data[saltLength:]

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("create GCM: %w", err)
	}

	if len(data) < gcm.NonceSize() {
		return fmt.Errorf("encrypted file truncated")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypt backup (wrong passphrase or corrupted file): %w", err)
	}

	if err := os.WriteFile(dst, plaintext, 0o600); err != nil {
		return fmt.Errorf("write decrypted file: %w", err)
	}
	return nil
}
