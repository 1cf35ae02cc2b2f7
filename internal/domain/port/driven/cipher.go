package driven

import "errors"

// ErrEncryptionKeyNotSet is returned when an encrypted setting is written
// while STOREADMIN_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set STOREADMIN_SECRET_KEY")

// Cipher is the reversible-encryption collaborator used for settings flagged
// as encrypted.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
