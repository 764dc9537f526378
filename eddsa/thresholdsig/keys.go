package thresholdsig

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"math/big"

	"github.com/agl/ed25519/edwards25519"
	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/common"
	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/crypto/commitments"
	"github.com/binance-chain/tss-lib/crypto/vss"
	"github.com/binance-chain/tss-lib/tss"
)

// Params carries the threshold configuration: any Threshold+1 of ShareCount
// parties can sign.
type Params struct {
	Threshold  int
	ShareCount int
}

// Keypair is a party's long-term ed25519-style keypair: the reduced secret
// scalar, the public point, and the hashing prefix nonces are derived from.
type Keypair struct {
	PublicKey          *crypto.ECPoint `json:"public_key"`
	ExpandedPrivateKey *big.Int        `json:"expanded_private_key"`
	Prefix             *big.Int        `json:"prefix"`
}

// Keys is the keygen-phase secret of one party.
type Keys struct {
	Keypair    *Keypair `json:"keypair"`
	PartyIndex uint16   `json:"party_i"`
}

// SharedKeys is the output of the VSS combine step: the aggregated public
// key and this party's combined secret share.
type SharedKeys struct {
	Y  *crypto.ECPoint `json:"y"`
	XI *big.Int        `json:"x_i"`
}

// NewKeys creates a fresh party keypair by the usual ed25519 seed expansion:
// SHA-512 of a random seed, clamped low half as the secret scalar, high half
// as the nonce prefix.
func NewKeys(partyIndex uint16) (*Keys, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, errors.Wrap(err, "sample keypair seed")
	}
	h := sha512.Sum512(seed)
	var scalarBytes [32]byte
	copy(scalarBytes[:], h[:32])
	scalarBytes[0] &= 248
	scalarBytes[31] &= 127
	scalarBytes[31] |= 64

	n := tss.Edwards().Params().N
	secret := new(big.Int).Mod(encodedBytesToBigInt(&scalarBytes), n)
	return &Keys{
		Keypair: &Keypair{
			PublicKey:          crypto.ScalarBaseMult(tss.Edwards(), secret),
			ExpandedPrivateKey: secret,
			Prefix:             new(big.Int).SetBytes(h[32:]),
		},
		PartyIndex: partyIndex,
	}, nil
}

// Phase1Broadcast commits to the party's public point. The commitment is
// broadcast first-class; the blind opens it in the next round.
func (k *Keys) Phase1Broadcast() (com *big.Int, blind *big.Int) {
	cmt := commitments.NewHashCommitment(k.Keypair.PublicKey.X(), k.Keypair.PublicKey.Y())
	return cmt.C, cmt.D[0]
}

// Phase1VerifyComPhase2Distribute opens every party's commitment against its
// announced public point, then secret-shares our own scalar to the given
// parties. The share at index i belongs to party parties[i].
func (k *Keys) Phase1VerifyComPhase2Distribute(params Params, blinds []*big.Int, points []*crypto.ECPoint, coms []*big.Int, parties []uint16) (vss.Vs, vss.Shares, error) {
	return verifyComsAndDistribute(params, k.Keypair.ExpandedPrivateKey, blinds, points, coms, parties)
}

// Phase2VerifyVSSConstructKeypair verifies every received share against its
// VSS scheme and the sender's announced point, and combines them into this
// party's share of the joint secret.
func (k *Keys) Phase2VerifyVSSConstructKeypair(params Params, points []*crypto.ECPoint, shares []*vss.Share, schemes []vss.Vs) (*SharedKeys, error) {
	return verifySharesAndCombine(params, points, shares, schemes)
}

func verifyComsAndDistribute(params Params, secret *big.Int, blinds []*big.Int, points []*crypto.ECPoint, coms []*big.Int, parties []uint16) (vss.Vs, vss.Shares, error) {
	if len(blinds) != len(points) || len(points) != len(coms) {
		return nil, nil, errors.New("commitment, blind and point lists must have equal length")
	}
	for j := range coms {
		cmt := commitments.HashCommitDecommit{
			C: coms[j],
			D: commitments.HashDeCommitment{blinds[j], points[j].X(), points[j].Y()},
		}
		ok, coords := cmt.DeCommit()
		if !ok || len(coords) != 2 {
			return nil, nil, errors.Wrapf(ErrBadCommitment, "party %d", j+1)
		}
		if coords[0].Cmp(points[j].X()) != 0 || coords[1].Cmp(points[j].Y()) != 0 {
			return nil, nil, errors.Wrapf(ErrBadCommitment, "party %d opened a different point", j+1)
		}
	}
	indexes := make([]*big.Int, len(parties))
	for i, p := range parties {
		indexes[i] = big.NewInt(int64(p))
	}
	scheme, shares, err := vss.Create(tss.Edwards(), params.Threshold, secret, indexes)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create vss scheme")
	}
	return scheme, shares, nil
}

func verifySharesAndCombine(params Params, points []*crypto.ECPoint, shares []*vss.Share, schemes []vss.Vs) (*SharedKeys, error) {
	if len(points) != len(shares) || len(shares) != len(schemes) {
		return nil, errors.New("point, share and scheme lists must have equal length")
	}
	ec := tss.Edwards()
	modN := common.ModInt(ec.Params().N)
	xi := big.NewInt(0)
	var agg *crypto.ECPoint
	for j := range shares {
		if !shares[j].Verify(ec, params.Threshold, schemes[j]) {
			return nil, errors.Wrapf(ErrBadVSSShare, "party %d", j+1)
		}
		if !schemes[j][0].Equals(points[j]) {
			return nil, errors.Wrapf(ErrBadVSSShare, "party %d shared a different secret than committed", j+1)
		}
		xi = modN.Add(xi, shares[j].Share)
		if agg == nil {
			agg = points[j]
			continue
		}
		sum, err := agg.Add(points[j])
		if err != nil {
			return nil, errors.Wrap(err, "aggregate public points")
		}
		agg = sum
	}
	return &SharedKeys{Y: agg, XI: xi}, nil
}

// deriveNonceScalar hashes the keypair prefix, the message, the party index,
// the slot ordinal and a fresh random block into a scalar. The ordinal keeps
// slots distinct within one batch; the randomness keeps batches distinct
// from each other — the ordinal restarts at 0 on every refresh, so without
// it two batches over the same key would derive the same nonces.
func deriveNonceScalar(keys *Keys, message []byte, ordinal uint16) (*big.Int, error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, errors.Wrap(err, "sample nonce randomness")
	}
	var idx [4]byte
	binary.BigEndian.PutUint16(idx[0:2], keys.PartyIndex)
	binary.BigEndian.PutUint16(idx[2:4], ordinal)

	h := sha512.New()
	h.Write(keys.Keypair.Prefix.Bytes())
	h.Write(message)
	h.Write(idx[:])
	h.Write(random)
	var digest [64]byte
	h.Sum(digest[:0])

	var reduced [32]byte
	edwards25519.ScReduce(&reduced, &digest)
	return encodedBytesToBigInt(&reduced), nil
}
