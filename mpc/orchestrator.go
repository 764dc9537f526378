package mpc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/common"
	eddsakeygen "github.com/keypuzzlewallet/tss/eddsa/keygen"
	eddsapresign "github.com/keypuzzlewallet/tss/eddsa/presign"
	"github.com/keypuzzlewallet/tss/gg20"
	"github.com/keypuzzlewallet/tss/rendezvous"
	"github.com/keypuzzlewallet/tss/wallet"
)

// KeygenAndOffline runs the whole keygen pipeline for one party:
//
//  1. ECDSA keygen in <room>-ecdsa, which issues the party index.
//  2. One ECDSA offline stage per (t+1)-subset of {1..n} containing us, each
//     in its own sorted-subset room.
//  3. EdDSA keygen in <room>-eddsa under the same party index.
//  4. The first EdDSA nonce batch, starting at index 0.
//
// Sub-protocols run sequentially; that keeps room naming and progress
// reporting simple.
func KeygenAndOffline(ctx context.Context, tr rendezvous.Transport, room string, t, n, maxNoncePerRefresh uint16, name string) (*wallet.KeygenResult, error) {
	partyID, ecdsaLocalKey, members, err := gg20.Keygen(ctx, tr, room, t, n, name)
	if err != nil {
		return nil, errors.Wrap(err, "ecdsa keygen")
	}

	subsets := common.SubsetsContaining(n, int(t)+1, partyID)
	common.Logger.Infof("ecdsa - party %d will pair with %v", partyID, subsets)

	status := rendezvous.NewStatusUpdater(tr, room)
	ecdsaOffline := make([]gg20.OfflineResult, 0, len(subsets))
	for done, parties := range subsets {
		completed, err := gg20.GenerateOffline(ctx, tr, rendezvous.PartiesRoom(room, parties), ecdsaLocalKey, partyID, parties)
		if err != nil {
			return nil, errors.Wrapf(err, "offline generation for parties %v", parties)
		}
		ecdsaOffline = append(ecdsaOffline, gg20.OfflineResult{Parties: parties, CompletedOffline: *completed})
		common.Logger.Infof("progress: %d%%", (done+1)*100/len(subsets))
		status.SetWindow(done+1, len(subsets), 0.2, 0.8)
		status.CompleteAction(ctx)
	}

	common.Logger.Infof("start eddsa keygen party %d", partyID)
	eddsaLocalKey, err := eddsakeygen.Run(ctx, tr, room, t, n, partyID)
	if err != nil {
		return nil, errors.Wrap(err, "eddsa keygen")
	}

	eddsaOffline, err := eddsapresign.GenerateDynamicNonces(ctx, tr, room, 0, maxNoncePerRefresh, eddsaLocalKey)
	if err != nil {
		return nil, errors.Wrap(err, "eddsa nonce generation")
	}

	return &wallet.KeygenResult{
		PartyID: partyID,
		Ecdsa: wallet.EcdsaKeyData{
			LocalKey:    *ecdsaLocalKey,
			OfflineData: ecdsaOffline,
			Algorithm:   wallet.AlgorithmGG20,
		},
		Eddsa: wallet.EddsaKeyData{
			LocalKey:    *eddsaLocalKey,
			OfflineData: *eddsaOffline,
			Algorithm:   wallet.AlgorithmTEd25519,
		},
		Members: members,
	}, nil
}
