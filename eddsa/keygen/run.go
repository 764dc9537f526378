package keygen

import (
	"context"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/rendezvous"
)

// Run joins the keygen room with our already-issued party index and drives
// the protocol to its local key.
func Run(ctx context.Context, tr rendezvous.Transport, room string, t, n, partyID uint16) (*LocalKey, error) {
	sess, err := rendezvous.Join(ctx, tr, rendezvous.EddsaRoom(room), common.SeqUint16(1, n), &partyID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "join computation")
	}
	machine, err := NewKeygen(sess.Index, t, n)
	if err != nil {
		return nil, err
	}
	out, err := engine.Run(ctx, machine, sess.Incoming, sess.Send)
	if err != nil {
		return nil, errors.Wrap(err, "protocol execution terminated with error")
	}
	return out.(*LocalKey), nil
}
