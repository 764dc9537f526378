package thresholdsig

import (
	"crypto/sha512"
	"math/big"

	"github.com/agl/ed25519/edwards25519"

	"github.com/binance-chain/tss-lib/crypto"
)

func encodedBytesToBigInt(s *[32]byte) *big.Int {
	sCopy := new([32]byte)
	copy(sCopy[:], s[:])
	reverse(sCopy)
	return new(big.Int).SetBytes(sCopy[:])
}

func bigIntToEncodedBytes(a *big.Int) *[32]byte {
	s := new([32]byte)
	if a == nil {
		return s
	}
	// a can be longer than 32 bytes; callers keep scalars reduced.
	s = copyBytes(a.Bytes())
	reverse(s)
	return s
}

func copyBytes(aB []byte) *[32]byte {
	s := new([32]byte)
	if len(aB) > 32 {
		aB = aB[len(aB)-32:]
	}
	copy(s[32-len(aB):], aB)
	return s
}

// ecPointToEncodedBytes compresses a point to the 32-byte ed25519 wire form:
// little-endian y with the sign of x in the top bit.
func ecPointToEncodedBytes(x, y *big.Int) *[32]byte {
	s := bigIntToEncodedBytes(y)
	if x.Bit(0) == 1 {
		s[31] |= 0x80
	} else {
		s[31] &^= 0x80
	}
	return s
}

func reverse(s *[32]byte) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// PointBytes renders a point in its compressed 32-byte form, the
// representation used for persisted public keys and signature R values.
func PointBytes(p *crypto.ECPoint) []byte {
	enc := ecPointToEncodedBytes(p.X(), p.Y())
	return enc[:]
}

// ScalarBytes renders a scalar in the 32-byte little-endian wire form.
func ScalarBytes(k *big.Int) []byte {
	enc := bigIntToEncodedBytes(k)
	return enc[:]
}

// challenge computes the ed25519 challenge scalar
// SHA-512(enc(R) || enc(A) || M) reduced into the group order.
func challenge(R, pubkey *crypto.ECPoint, message []byte) *big.Int {
	h := sha512.New()
	h.Write(ecPointToEncodedBytes(R.X(), R.Y())[:])
	h.Write(ecPointToEncodedBytes(pubkey.X(), pubkey.Y())[:])
	h.Write(message)
	var digest [64]byte
	h.Sum(digest[:0])

	var reduced [32]byte
	edwards25519.ScReduce(&reduced, &digest)
	return encodedBytesToBigInt(&reduced)
}
