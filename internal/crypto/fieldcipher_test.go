package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldCipherRoundTrip(t *testing.T) {
	c, err := NewFieldCipher("deployment-secret")
	require.NoError(t, err)

	ct, err := c.Encrypt("+33 6 12 34 56 78")
	require.NoError(t, err)
	require.NotEmpty(t, ct)
	assert.NotContains(t, string(ct), "12 34")

	pt := c.Decrypt(ct)
	require.NotNil(t, pt)
	assert.Equal(t, "+33 6 12 34 56 78", *pt)
}

func TestFieldCipherEmptyPlaintext(t *testing.T) {
	c, err := NewFieldCipher("deployment-secret")
	require.NoError(t, err)

	ct, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Nil(t, ct, "empty values never round-trip through the cipher")
	assert.Nil(t, c.Decrypt(nil))
}

func TestFieldCipherFreshNonce(t *testing.T) {
	c, err := NewFieldCipher("deployment-secret")
	require.NoError(t, err)

	a, err := c.Encrypt("48.8566")
	require.NoError(t, err)
	b, err := c.Encrypt("48.8566")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "same plaintext must not produce the same ciphertext")
}

func TestFieldCipherWrongKey(t *testing.T) {
	c1, err := NewFieldCipher("secret-one")
	require.NoError(t, err)
	c2, err := NewFieldCipher("secret-two")
	require.NoError(t, err)

	ct, err := c1.Encrypt("2.3522")
	require.NoError(t, err)

	assert.Nil(t, c2.Decrypt(ct), "foreign ciphertext decrypts to nil, not garbage")
}

func TestFieldCipherMalformedCiphertext(t *testing.T) {
	c, err := NewFieldCipher("deployment-secret")
	require.NoError(t, err)

	assert.Nil(t, c.Decrypt([]byte{0x01, 0x02}))
	assert.Nil(t, c.Decrypt([]byte("definitely not a valid ciphertext")))
}

func TestFieldCipherTamperDetected(t *testing.T) {
	c, err := NewFieldCipher("deployment-secret")
	require.NoError(t, err)

	ct, err := c.Encrypt("45.7640")
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xff

	assert.Nil(t, c.Decrypt(ct))
}
