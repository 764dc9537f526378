package presign

import (
	"context"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/eddsa/keygen"
	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/rendezvous"
)

// OfflineResult is one generated nonce batch: slot i serves nonce
// NonceStartIndex+i, and NonceSize marks the end of the covered range.
type OfflineResult struct {
	Parties          []uint16  `json:"parties"`
	NonceStartIndex  uint16    `json:"nonce_start_index"`
	NonceSize        uint16    `json:"nonce_size"`
	CompletedOffline []Offline `json:"completed_offline"`
}

// GenerateOffline runs the batched nonce protocol in the given room's
// offline sub-room and returns the K completed slots.
func GenerateOffline(ctx context.Context, tr rendezvous.Transport, room string, keys *thresholdsig.Keys, partyID, t, n uint16, parties []uint16, noNonces uint16) ([]Offline, error) {
	common.Logger.Infof("start offline for party %d in group %v room %s", partyID, parties, room)
	sess, err := rendezvous.Join(ctx, tr, rendezvous.OfflineRoom(room), parties, &partyID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "join offline computation")
	}
	machine, err := NewOfflineGen(keys, sess.Index, t, n, noNonces, parties)
	if err != nil {
		return nil, err
	}
	out, err := engine.Run(ctx, machine, sess.Incoming, sess.Send)
	if err != nil {
		return nil, errors.Wrapf(err, "offline generation failed for parties %v", parties)
	}
	common.Logger.Infof("completed offline %d for parties %v", partyID, parties)
	return out.([]Offline), nil
}

// GenerateDynamicNonces produces the next contiguous batch of nonces for the
// key, starting at nonceStartIndex. Batches never overlap: the next refresh
// starts at NonceSize.
func GenerateDynamicNonces(ctx context.Context, tr rendezvous.Transport, room string, nonceStartIndex, maxNoncePerRefresh uint16, localKey *keygen.LocalKey) (*OfflineResult, error) {
	allParties := common.SeqUint16(1, localKey.N)
	batchRoom := rendezvous.NonceBatchRoom(room, nonceStartIndex, maxNoncePerRefresh)
	completed, err := GenerateOffline(ctx, tr, batchRoom, localKey.Keypair, localKey.PartyI, localKey.T, localKey.N, allParties, maxNoncePerRefresh)
	if err != nil {
		return nil, err
	}
	return &OfflineResult{
		Parties:          allParties,
		NonceStartIndex:  nonceStartIndex,
		NonceSize:        nonceStartIndex + maxNoncePerRefresh,
		CompletedOffline: completed,
	}, nil
}
