package thresholdsig

import (
	"math/big"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/common"
	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/crypto/vss"
	"github.com/binance-chain/tss-lib/tss"
)

var (
	ErrBadCommitment            = errors.New("commitment verification failed")
	ErrBadVSSShare              = errors.New("vss share verification failed")
	ErrBadLocalSig              = errors.New("local signature share verification failed")
	ErrSignatureVerification    = errors.New("signature verification failed")
	ErrMismatchedChallenge      = errors.New("local signatures were computed for different challenges")
	ErrNotEnoughLocalSignatures = errors.New("not enough local signatures to combine")
)

// LocalSig is one party's additive share of the final s: gamma_i = r_i + e*x_i,
// where r_i and x_i are the party's combined nonce and key shares. E is the
// challenge it was computed against.
type LocalSig struct {
	GammaI *big.Int `json:"gamma_i"`
	E      *big.Int `json:"e"`
}

// Signature is a threshold ed25519 signature.
type Signature struct {
	R *crypto.ECPoint
	S *big.Int
}

// ComputeLocalSig produces this party's signature share over message using
// one combined nonce slot and the long-term combined key share.
func ComputeLocalSig(message []byte, nonce *EphemeralSharedKeys, key *SharedKeys) *LocalSig {
	modN := common.ModInt(tss.Edwards().Params().N)
	e := challenge(nonce.R, key.Y, message)
	return &LocalSig{
		GammaI: modN.Add(nonce.RI, modN.Mul(e, key.XI)),
		E:      e,
	}
}

// VerifyLocalSigs checks every gamma_i against the public VSS commitments:
// gamma_i * G must equal the nonce share commitment plus e times the key
// share commitment, both evaluated at the signer's index. indices are the
// signers' 1-based party indices, aligned with sigs.
func VerifyLocalSigs(sigs []*LocalSig, indices []uint16, keySchemes []vss.Vs, nonceSchemes []vss.Vs) error {
	if len(sigs) == 0 || len(sigs) != len(indices) {
		return ErrNotEnoughLocalSignatures
	}
	e := sigs[0].E
	for _, sig := range sigs[1:] {
		if sig.E.Cmp(e) != 0 {
			return ErrMismatchedChallenge
		}
	}
	ec := tss.Edwards()
	var result error
	for m, sig := range sigs {
		index := indices[m]
		nonceAtI, err := evalSchemesAt(nonceSchemes, index)
		if err != nil {
			return err
		}
		keyAtI, err := evalSchemesAt(keySchemes, index)
		if err != nil {
			return err
		}
		expected, err := nonceAtI.Add(keyAtI.ScalarMult(e))
		if err != nil {
			return errors.Wrap(err, "combine share commitments")
		}
		if !crypto.ScalarBaseMult(ec, sig.GammaI).Equals(expected) {
			result = multierror.Append(result, errors.Wrapf(ErrBadLocalSig, "party %d", index))
		}
	}
	return result
}

// Combine interpolates the t+1 signature shares at zero into the final s.
// The caller must have verified the shares first.
func Combine(sigs []*LocalSig, indices []uint16, aggNonce *crypto.ECPoint) (*Signature, error) {
	if len(sigs) < 2 || len(sigs) != len(indices) {
		return nil, ErrNotEnoughLocalSignatures
	}
	modN := common.ModInt(tss.Edwards().Params().N)
	s := big.NewInt(0)
	for m, sig := range sigs {
		s = modN.Add(s, modN.Mul(lagrangeCoefficient(indices, m), sig.GammaI))
	}
	return &Signature{R: aggNonce, S: s}, nil
}

// Verify checks s*G == R + e*A.
func (sig *Signature) Verify(message []byte, pubkey *crypto.ECPoint) error {
	ec := tss.Edwards()
	e := challenge(sig.R, pubkey, message)
	left := crypto.ScalarBaseMult(ec, sig.S)
	right, err := sig.R.Add(pubkey.ScalarMult(e))
	if err != nil {
		return errors.Wrap(err, "combine verification points")
	}
	if !left.Equals(right) {
		return ErrSignatureVerification
	}
	return nil
}

// evalSchemesAt evaluates the sum of all parties' VSS commitment polynomials
// at index: sum_j sum_m C_{j,m} * index^m.
func evalSchemesAt(schemes []vss.Vs, index uint16) (*crypto.ECPoint, error) {
	modN := common.ModInt(tss.Edwards().Params().N)
	x := big.NewInt(int64(index))
	var acc *crypto.ECPoint
	for _, vs := range schemes {
		point := vs[0]
		xPow := new(big.Int).Set(x)
		for m := 1; m < len(vs); m++ {
			term := vs[m].ScalarMult(xPow)
			sum, err := point.Add(term)
			if err != nil {
				return nil, errors.Wrap(err, "evaluate vss commitments")
			}
			point = sum
			xPow = modN.Mul(xPow, x)
		}
		if acc == nil {
			acc = point
			continue
		}
		sum, err := acc.Add(point)
		if err != nil {
			return nil, errors.Wrap(err, "sum vss commitments")
		}
		acc = sum
	}
	return acc, nil
}

// lagrangeCoefficient computes lambda_m(0) over the signer indices.
func lagrangeCoefficient(indices []uint16, m int) *big.Int {
	modN := common.ModInt(tss.Edwards().Params().N)
	coef := big.NewInt(1)
	xm := big.NewInt(int64(indices[m]))
	for j, idx := range indices {
		if j == m {
			continue
		}
		xj := big.NewInt(int64(idx))
		coef = modN.Mul(coef, modN.Mul(xj, modN.ModInverse(new(big.Int).Sub(xj, xm))))
	}
	return coef
}
