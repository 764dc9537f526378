package wallet

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionFixture(t *testing.T) {
	ciphertext, err := EncryptWithNonce("hello", "my-password", 9999999)
	require.NoError(t, err)
	assert.Equal(t, "9999999:dYcX59XzlgaRJP82ogwUIb5zvxzX", ciphertext)

	decrypted, err := DecryptWithNonce("dYcX59XzlgaRJP82ogwUIb5zvxzX", "my-password", 9999999)
	require.NoError(t, err)
	assert.Equal(t, "hello", decrypted)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	for _, plaintext := range []string{"", "hello", `{"key":"material"}`, "\x00\x01\xff binary-ish"} {
		envelope, err := EncryptWithNonce(plaintext, "pw", 42)
		require.NoError(t, err)
		decrypted, err := Decrypt(envelope, "pw")
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEnvelopeTamperEvidence(t *testing.T) {
	envelope, err := EncryptWithNonce("hello", "pw", 1234)
	require.NoError(t, err)

	// Wrong password.
	_, err = Decrypt(envelope, "other")
	assert.Error(t, err)

	// A changed nonce changes the IV.
	_, err = DecryptWithNonce("dYcX59XzlgaRJP82ogwUIb5zvxzX", "my-password", 9999998)
	assert.Error(t, err)

	// Flipping any ciphertext byte must fail authentication.
	raw, err := base64.StdEncoding.DecodeString("dYcX59XzlgaRJP82ogwUIb5zvxzX")
	require.NoError(t, err)
	for i := range raw {
		tampered := append([]byte(nil), raw...)
		tampered[i] ^= 0x01
		_, err := DecryptWithNonce(base64.StdEncoding.EncodeToString(tampered), "my-password", 9999999)
		assert.Error(t, err, "byte %d", i)
	}
}

func TestMalformedEnvelope(t *testing.T) {
	for _, envelope := range []string{"", "no-colon", "notanumber:AAAA", "123:!!!not-base64!!!"} {
		_, err := Decrypt(envelope, "pw")
		assert.Error(t, err, "envelope %q", envelope)
	}
}
