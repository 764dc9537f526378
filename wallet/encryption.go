package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// The at-rest envelope: AES-256-GCM under SHA-256(password), with the AEAD
// nonce derived from a caller-visible u64 so the envelope string
// "<nonce>:<base64(ciphertext)>" is self-contained.

var ErrMalformedEnvelope = errors.New("malformed encryption envelope")

func keyFromPassword(password string) []byte {
	key := sha256.Sum256([]byte(password))
	return key[:]
}

func ivFromNonce(nonce uint64) []byte {
	iv := make([]byte, 12)
	binary.BigEndian.PutUint64(iv[4:], nonce)
	return iv
}

// Encrypt seals plaintext with a nonce of the current time in milliseconds.
func Encrypt(plaintext, password string) (string, error) {
	return EncryptWithNonce(plaintext, password, uint64(time.Now().UnixMilli()))
}

func EncryptWithNonce(plaintext, password string, nonce uint64) (string, error) {
	aead, err := newAEAD(password)
	if err != nil {
		return "", errors.Wrap(err, "encryption failure")
	}
	sealed := aead.Seal(nil, ivFromNonce(nonce), []byte(plaintext), nil)
	return fmt.Sprintf("%d:%s", nonce, base64.StdEncoding.EncodeToString(sealed)), nil
}

// Decrypt opens an envelope produced by Encrypt. The envelope string carries
// its own nonce.
func Decrypt(envelope, password string) (string, error) {
	nonceStr, ciphertext, found := strings.Cut(envelope, ":")
	if !found {
		return "", ErrMalformedEnvelope
	}
	nonce, err := strconv.ParseUint(nonceStr, 10, 64)
	if err != nil {
		return "", errors.Wrap(ErrMalformedEnvelope, err.Error())
	}
	return DecryptWithNonce(ciphertext, password, nonce)
}

func DecryptWithNonce(ciphertext, password string, nonce uint64) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(ErrMalformedEnvelope, err.Error())
	}
	aead, err := newAEAD(password)
	if err != nil {
		return "", errors.Wrap(err, "decryption failure")
	}
	opened, err := aead.Open(nil, ivFromNonce(nonce), raw, nil)
	if err != nil {
		return "", errors.Wrap(err, "decryption failure")
	}
	return string(opened), nil
}

func newAEAD(password string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(keyFromPassword(password))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
