package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/storeadmin/internal/domain/port/driven"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestAESGCM_RoundTrip(t *testing.T) {
	c, err := NewAESGCM(testKey())
	require.NoError(t, err)

	sealed, err := c.Encrypt("sk_test_example_api_key")
	require.NoError(t, err)
	assert.NotEqual(t, "sk_test_example_api_key", sealed)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_example_api_key", plain)
}

func TestAESGCM_NonceIsRandom(t *testing.T) {
	c, err := NewAESGCM(testKey())
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAESGCM_WrongKeyFails(t *testing.T) {
	c1, err := NewAESGCM(testKey())
	require.NoError(t, err)
	c2, err := NewAESGCM(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	sealed, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	assert.Error(t, err)
}

func TestAESGCM_DecryptGarbage(t *testing.T) {
	c, err := NewAESGCM(testKey())
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!!")
	assert.Error(t, err)

	_, err = c.Decrypt("YWJj") // "abc", shorter than a nonce
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestAESGCM_NoKey(t *testing.T) {
	c, err := NewAESGCM(nil)
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	_, err = c.Encrypt("x")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = c.Decrypt("x")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestNewAESGCM_BadKeyLength(t *testing.T) {
	_, err := NewAESGCM([]byte("short"))
	assert.Error(t, err)
}
