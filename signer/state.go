package signer

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
	"github.com/keypuzzlewallet/tss/types"
)

// Signing errors. The first three leave the state untouched and the caller
// may retry with different inputs; the last two are terminal for the state.
var (
	ErrAlreadySigned               = errors.New("already signed")
	ErrNoOfflineForSubset          = errors.New("no offline data for the requested signer subset")
	ErrNonceOutOfRange             = errors.New("nonce index out of range")
	ErrWrongPartialVariant         = errors.New("wrong partial signature type")
	ErrSignatureVerificationFailed = errors.New("signature verification failed")
)

// EcdsaPartial is one party's additive share of the ECDSA s value.
type EcdsaPartial struct {
	SI *big.Int `json:"s_i"`
}

// Partial is the tagged partial-signature variant: exactly one field is set.
type Partial struct {
	Ecdsa *EcdsaPartial          `json:"ecdsa,omitempty"`
	Eddsa *thresholdsig.LocalSig `json:"eddsa,omitempty"`
}

// SignedPartial records who contributed a partial signature and when.
type SignedPartial struct {
	PartyID  uint16  `json:"party_id"`
	Part     Partial `json:"part"`
	SignedAt string  `json:"signed_at"`
}

// State accumulates partial signatures until t+1 parties have contributed;
// the (t+1)-th Sign call combines them and fills Signature.
type State struct {
	T            uint16                   `json:"t"`
	N            uint16                   `json:"n"`
	SigningParts []SignedPartial          `json:"signing_parts"`
	Signature    *types.SignatureRecidHex `json:"signature"`
}

func NewState(t, n uint16) *State {
	return &State{T: t, N: n}
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
