// Package crypto provides the encryption and hashing collaborators used by
// the settings store and service.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/storeadmin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Cipher = (*AESGCM)(nil)

// ErrCiphertextTooShort is returned when a decoded value cannot contain a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// AESGCM encrypts values with AES-256-GCM. The encoded form is base64 of
// nonce (12 bytes) || ciphertext || tag.
type AESGCM struct {
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewAESGCM creates an AESGCM cipher. key must be 32 bytes, or nil to disable
// encryption (Encrypt and Decrypt then return ErrEncryptionKeyNotSet).
func NewAESGCM(key []byte) (*AESGCM, error) {
	if key != nil && len(key) != 32 {
		return nil, fmt.Errorf("aes-256 key must be 32 bytes, got %d", len(key))
	}
	return &AESGCM{key: key}, nil
}

// Enabled reports whether a key is configured.
func (c *AESGCM) Enabled() bool {
	return c.key != nil
}

// Encrypt seals plaintext and returns the base64 encoding.
func (c *AESGCM) Encrypt(plaintext string) (string, error) {
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *AESGCM) Decrypt(encoded string) (string, error) {
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (c *AESGCM) aead() (cipher.AEAD, error) {
	if c.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
