package signer

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
	"github.com/keypuzzlewallet/tss/types"
	"github.com/keypuzzlewallet/tss/wallet"
)

// SignEddsa contributes this party's partial signature over data using the
// precomputed nonce slot for the given nonce index. Nonce indices are global
// and single-use: the slot is found by nonce - nonce_start_index, and an
// index outside the current batch fails.
func SignEddsa(state *State, key *wallet.EddsaKeyData, data []byte, partyID uint16, nonce int) error {
	if len(state.SigningParts) > int(state.T) {
		return ErrAlreadySigned
	}
	nonceIndex := nonce - int(key.OfflineData.NonceStartIndex)
	if nonceIndex < 0 || nonceIndex >= len(key.OfflineData.CompletedOffline) {
		return errors.Wrapf(ErrNonceOutOfRange, "nonce %d out of range [%d,%d)",
			nonce, key.OfflineData.NonceStartIndex, int(key.OfflineData.NonceStartIndex)+len(key.OfflineData.CompletedOffline))
	}

	slot := key.OfflineData.CompletedOffline[nonceIndex]
	partial := thresholdsig.ComputeLocalSig(data, slot.CombinedNonceShare, key.LocalKey.CombinedShare)

	if len(state.SigningParts) > int(state.T)-1 {
		// The last contribution: combine in append order, ours last.
		for _, part := range state.SigningParts {
			if part.Part.Eddsa == nil {
				return ErrWrongPartialVariant
			}
		}
		state.SigningParts = append(state.SigningParts, SignedPartial{
			PartyID:  partyID,
			Part:     Partial{Eddsa: partial},
			SignedAt: timestamp(),
		})

		sigs := make([]*thresholdsig.LocalSig, len(state.SigningParts))
		indices := make([]uint16, len(state.SigningParts))
		for i, part := range state.SigningParts {
			sigs[i] = part.Part.Eddsa
			indices[i] = part.PartyID
		}
		if err := thresholdsig.VerifyLocalSigs(sigs, indices, key.LocalKey.VssSchemes, slot.NonceVssSchemes); err != nil {
			return errors.Wrap(err, "verify local sig failed")
		}
		sig, err := thresholdsig.Combine(sigs, indices, slot.AggNonce)
		if err != nil {
			return errors.Wrap(err, "combine local sigs")
		}
		state.Signature = &types.SignatureRecidHex{
			R:     hex.EncodeToString(thresholdsig.PointBytes(sig.R)),
			S:     hex.EncodeToString(thresholdsig.ScalarBytes(sig.S)),
			Recid: 0,
		}
		if err := sig.Verify(data, key.LocalKey.AggPubkey); err != nil {
			return errors.Wrap(ErrSignatureVerificationFailed, err.Error())
		}
		return nil
	}

	state.SigningParts = append(state.SigningParts, SignedPartial{
		PartyID:  partyID,
		Part:     Partial{Eddsa: partial},
		SignedAt: timestamp(),
	})
	return nil
}
