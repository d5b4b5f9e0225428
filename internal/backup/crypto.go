package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"os"
)

// encryptFile seals src into dest with AES-256-GCM. The random nonce is
// prepended to the ciphertext. The key must be exactly 32 bytes.
func encryptFile(src, dest string, key []byte) error {
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	if err := os.WriteFile(dest, sealed, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// decryptFile opens a file sealed by encryptFile. A wrong key or tampered
// ciphertext fails authentication.
func decryptFile(src, dest string, key []byte) error {
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	sealed, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	if len(sealed) < gcm.NonceSize() {
		return fmt.Errorf("ciphertext in %s is truncated", src)
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypting %s: %w", src, err)
	}
	if err := os.WriteFile(dest, plaintext, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
