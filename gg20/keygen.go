package gg20

import (
	"context"

	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/ecdsa/keygen"
	"github.com/binance-chain/tss-lib/tss"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/rendezvous"
	"github.com/keypuzzlewallet/tss/types"
)

const keygenRounds = 4

// Keygen joins the room's ECDSA sub-room under the given signer name, runs
// the distributed key generation and returns the issued party index, the
// local key and the room's members list.
func Keygen(ctx context.Context, tr rendezvous.Transport, room string, t, n uint16, name string) (uint16, *keygen.LocalPartySaveData, []types.KeygenMember, error) {
	sess, err := rendezvous.Join(ctx, tr, rendezvous.EcdsaRoom(room), common.SeqUint16(1, n), nil, &name)
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "join computation")
	}

	tss.SetCurve(tss.S256())
	members := common.SeqUint16(1, n)
	sorted := PartyIDs(members)
	params := tss.NewParameters(tss.S256(), tss.NewPeerContext(sorted), sorted[sess.Index-1], int(n), int(t))

	outCh := make(chan tss.Message, int(n)*keygenRounds*2)
	endCh := make(chan keygen.LocalPartySaveData, 1)
	party := keygen.NewLocalParty(params, outCh, endCh)

	machine := newAdapter(party, sorted, members, sess.Index, outCh, keygenRounds, func() (interface{}, bool) {
		select {
		case save := <-endCh:
			return &save, true
		default:
			return nil, false
		}
	})

	out, err := engine.Run(ctx, machine, sess.Incoming, sess.Send)
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "protocol execution terminated with error")
	}

	progress, err := tr.Progress(ctx, rendezvous.EcdsaRoom(room))
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "fetch room members")
	}
	return sess.Index, out.(*keygen.LocalPartySaveData), progress.Members, nil
}
