package thresholdsig

import (
	"math/big"

	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/crypto/commitments"
	"github.com/binance-chain/tss-lib/crypto/vss"
	"github.com/binance-chain/tss-lib/tss"
)

// EphemeralKey is one party's single-use nonce keypair for one slot of a
// batch. The secret scalar never leaves this struct.
type EphemeralKey struct {
	RI *crypto.ECPoint
	ri *big.Int
}

// EphemeralSharedKeys is the combined nonce of one slot: the aggregated
// nonce point and this party's combined nonce share.
type EphemeralSharedKeys struct {
	R  *crypto.ECPoint `json:"r"`
	RI *big.Int        `json:"r_i"`
}

// NewEphemeralKey derives slot ordinal's nonce key from the long-term
// keypair and the (possibly empty) message context.
func NewEphemeralKey(keys *Keys, message []byte, ordinal uint16) (*EphemeralKey, error) {
	r, err := deriveNonceScalar(keys, message, ordinal)
	if err != nil {
		return nil, err
	}
	return &EphemeralKey{
		RI: crypto.ScalarBaseMult(tss.Edwards(), r),
		ri: r,
	}, nil
}

// Phase1Broadcast commits to the nonce point, exactly like the keygen phase
// commits to the public key.
func (e *EphemeralKey) Phase1Broadcast() (com *big.Int, blind *big.Int) {
	cmt := commitments.NewHashCommitment(e.RI.X(), e.RI.Y())
	return cmt.C, cmt.D[0]
}

func (e *EphemeralKey) Phase1VerifyComPhase2Distribute(params Params, blinds []*big.Int, points []*crypto.ECPoint, coms []*big.Int, parties []uint16) (vss.Vs, vss.Shares, error) {
	return verifyComsAndDistribute(params, e.ri, blinds, points, coms, parties)
}

func (e *EphemeralKey) Phase2VerifyVSSConstructKeypair(params Params, points []*crypto.ECPoint, shares []*vss.Share, schemes []vss.Vs) (*EphemeralSharedKeys, error) {
	combined, err := verifySharesAndCombine(params, points, shares, schemes)
	if err != nil {
		return nil, err
	}
	return &EphemeralSharedKeys{R: combined.Y, RI: combined.XI}, nil
}
