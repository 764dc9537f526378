package signer

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
	"github.com/keypuzzlewallet/tss/types"
)

// StateToBase64 renders a state in its wire form: each recorded part is the
// base64 of its variant's JSON document, and the scheme tag tells decoders
// which variant to expect.
func StateToBase64(scheme types.KeyScheme, state *State) (*types.SigningStateBase64, error) {
	parts := make([]types.SignedPartialSignatureBase64, 0, len(state.SigningParts))
	for _, part := range state.SigningParts {
		var payload interface{}
		switch {
		case part.Part.Ecdsa != nil:
			payload = part.Part.Ecdsa
		case part.Part.Eddsa != nil:
			payload = part.Part.Eddsa
		default:
			return nil, ErrWrongPartialVariant
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "serialize partial signature")
		}
		parts = append(parts, types.SignedPartialSignatureBase64{
			PartyId:    int(part.PartyID),
			PartBase64: base64.StdEncoding.EncodeToString(raw),
			SignedAt:   part.SignedAt,
		})
	}
	return &types.SigningStateBase64{
		T:                  int(state.T),
		N:                  int(state.N),
		KeyScheme:          scheme,
		Signature:          state.Signature,
		SigningPartsBase64: parts,
	}, nil
}

// StateFromBase64 parses the wire form back into a state.
func StateFromBase64(wire *types.SigningStateBase64) (*State, error) {
	state := &State{
		T:         uint16(wire.T),
		N:         uint16(wire.N),
		Signature: wire.Signature,
	}
	for _, part := range wire.SigningPartsBase64 {
		raw, err := base64.StdEncoding.DecodeString(part.PartBase64)
		if err != nil {
			return nil, errors.Wrap(err, "decode partial signature")
		}
		signed := SignedPartial{PartyID: uint16(part.PartyId), SignedAt: part.SignedAt}
		if wire.KeyScheme == types.KeySchemeECDSA {
			var partial EcdsaPartial
			if err := json.Unmarshal(raw, &partial); err != nil {
				return nil, errors.Wrap(err, "parse ECDSA partial signature")
			}
			signed.Part = Partial{Ecdsa: &partial}
		} else {
			var partial thresholdsig.LocalSig
			if err := json.Unmarshal(raw, &partial); err != nil {
				return nil, errors.Wrap(err, "parse EDDSA partial signature")
			}
			signed.Part = Partial{Eddsa: &partial}
		}
		state.SigningParts = append(state.SigningParts, signed)
	}
	return state, nil
}
