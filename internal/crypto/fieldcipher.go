// Package crypto implements the field cipher used for sensitive scalar
// columns (phone numbers, project coordinates). One static key, sourced from
// deployment configuration; rotating it means re-encrypting every row out of
// band, which this package does not attempt.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
)

// FieldCipher encrypts and decrypts individual column values with
// AES-256-GCM. A fresh nonce is prepended to each ciphertext.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher derives a 256-bit key from the configured secret. The
// secret is free-form deployment configuration, so it is hashed rather than
// used directly.
func NewFieldCipher(secret string) (*FieldCipher, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt returns nonce||ciphertext for the plaintext, or nil for empty
// input. Empty values never round-trip through the cipher.
func (c *FieldCipher) Encrypt(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt reverses Encrypt. Malformed or foreign ciphertext yields nil, not
// an error: callers treat nil as "value unavailable" and must not fail the
// surrounding request over it.
func (c *FieldCipher) Decrypt(ciphertext []byte) *string {
	if len(ciphertext) == 0 {
		return nil
	}
	ns := c.aead.NonceSize()
	if len(ciphertext) < ns {
		return nil
	}
	plain, err := c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], nil)
	if err != nil {
		return nil
	}
	out := string(plain)
	return &out
}
