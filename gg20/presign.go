package gg20

import (
	"context"

	"github.com/pkg/errors"

	tsscommon "github.com/binance-chain/tss-lib/common"
	"github.com/binance-chain/tss-lib/ecdsa/keygen"
	"github.com/binance-chain/tss-lib/ecdsa/signing"
	"github.com/binance-chain/tss-lib/tss"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/rendezvous"
)

const presignRounds = 8

// OfflineResult binds a completed offline stage to the sorted signer subset
// it was computed for.
type OfflineResult struct {
	Parties          []uint16                 `json:"parties"`
	CompletedOffline tsscommon.SignatureData `json:"completed_offline"`
}

// GenerateOffline runs the one-round-signing offline stage for the given
// sorted subset in the subset room's offline sub-room. The returned data
// signs exactly one message later, with that subset.
func GenerateOffline(ctx context.Context, tr rendezvous.Transport, room string, localKey *keygen.LocalPartySaveData, partyID uint16, parties []uint16) (*tsscommon.SignatureData, error) {
	common.Logger.Infof("start offline for party %d in group %v room %s", partyID, parties, room)
	sess, err := rendezvous.Join(ctx, tr, rendezvous.OfflineRoom(room), parties, &partyID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "join offline computation")
	}

	tss.SetCurve(tss.S256())
	sorted := PartyIDs(parties)
	self := -1
	for i, id := range parties {
		if id == partyID {
			self = i
		}
	}
	if self < 0 {
		return nil, errors.Errorf("party %d is not a member of %v", partyID, parties)
	}
	threshold := len(parties) - 1
	params := tss.NewParameters(tss.S256(), tss.NewPeerContext(sorted), sorted[self], len(parties), threshold)

	outCh := make(chan tss.Message, len(parties)*presignRounds*2)
	endCh := make(chan tsscommon.SignatureData, 1)
	key := keygen.BuildLocalSaveDataSubset(*localKey, sorted)
	// A nil message runs the signing party in one-round mode: it stops after
	// the offline rounds with the one-round data set.
	party := signing.NewLocalParty(nil, params, key, outCh, endCh)

	machine := newAdapter(party, sorted, parties, partyID, outCh, presignRounds, func() (interface{}, bool) {
		select {
		case data := <-endCh:
			return &data, true
		default:
			return nil, false
		}
	})

	out, err := engine.Run(ctx, machine, sess.Incoming, sess.Send)
	if err != nil {
		return nil, errors.Wrapf(err, "offline generation failed for parties %v", parties)
	}
	common.Logger.Infof("completed offline %d for parties %v", partyID, parties)
	return out.(*tsscommon.SignatureData), nil
}
