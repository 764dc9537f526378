package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/ecdsa/signing"
	"github.com/binance-chain/tss-lib/tss"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/gg20"
	"github.com/keypuzzlewallet/tss/types"
	"github.com/keypuzzlewallet/tss/wallet"
)

// SignEcdsa contributes this party's partial signature over data using the
// offline stage precomputed for exactly the signers subset. The (t+1)-th
// contribution combines all recorded partials, verifies the signature and
// fills state.Signature.
func SignEcdsa(state *State, key *wallet.EcdsaKeyData, data []byte, partyID uint16, signers []uint16) error {
	if len(state.SigningParts) > int(state.T) {
		return ErrAlreadySigned
	}
	stage, err := findOffline(key, signers)
	if err != nil {
		return err
	}

	tss.SetCurve(tss.S256())
	msgInt := new(big.Int).SetBytes(data)
	// Work on a copy: finalization clears the one-round data on its input,
	// and the wallet's copy must stay intact.
	sd := stage.CompletedOffline
	ourSI := signing.FinalizeGetOurSigShare(&sd, msgInt)

	if len(state.SigningParts) > int(state.T)-1 {
		otherSIs := make(map[*tss.PartyID]*big.Int, len(state.SigningParts))
		for _, part := range state.SigningParts {
			if part.Part.Ecdsa == nil {
				return ErrWrongPartialVariant
			}
			pid := tss.NewPartyID(fmt.Sprintf("%d", part.PartyID), fmt.Sprintf("party-%d", part.PartyID), big.NewInt(int64(part.PartyID)))
			otherSIs[pid] = part.Part.Ecdsa.SI
		}
		ourP := tss.NewPartyID(fmt.Sprintf("%d", partyID), fmt.Sprintf("party-%d", partyID), big.NewInt(int64(partyID)))
		pk := ecdsa.PublicKey{Curve: tss.S256(), X: key.LocalKey.ECDSAPub.X(), Y: key.LocalKey.ECDSAPub.Y()}

		state.SigningParts = append(state.SigningParts, SignedPartial{
			PartyID:  partyID,
			Part:     Partial{Ecdsa: &EcdsaPartial{SI: ourSI}},
			SignedAt: timestamp(),
		})

		final, _, terr := signing.FinalizeGetAndVerifyFinalSig(&sd, &pk, msgInt, ourP, ourSI, otherSIs)
		if terr != nil {
			return errors.Wrap(ErrSignatureVerificationFailed, terr.Error())
		}
		state.Signature = &types.SignatureRecidHex{
			R:     fmt.Sprintf("%064x", new(big.Int).SetBytes(final.Signature.R)),
			S:     fmt.Sprintf("%064x", new(big.Int).SetBytes(final.Signature.S)),
			Recid: int(final.Signature.SignatureRecovery[0]),
		}
		return nil
	}

	state.SigningParts = append(state.SigningParts, SignedPartial{
		PartyID:  partyID,
		Part:     Partial{Ecdsa: &EcdsaPartial{SI: ourSI}},
		SignedAt: timestamp(),
	})
	return nil
}

// findOffline locates the offline stage whose signer subset equals signers
// as a set.
func findOffline(key *wallet.EcdsaKeyData, signers []uint16) (*gg20.OfflineResult, error) {
	for i := range key.OfflineData {
		if common.SameMembers(key.OfflineData[i].Parties, signers) {
			return &key.OfflineData[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNoOfflineForSubset, "parties %v", signers)
}
