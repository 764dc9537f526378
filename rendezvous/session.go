package rendezvous

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/types"
)

// Session is one party's membership in a room: its issued index, the
// filtered stream of peers' round messages, and the outgoing send function.
type Session struct {
	Index    uint16
	Incoming <-chan engine.Msg
	send     func(engine.Msg) error
}

func (s *Session) Send(msg engine.Msg) error {
	return s.send(msg)
}

// Join obtains a party index for the room and wires the message channels.
// Incoming messages are decoded and filtered at this boundary: self-echoes
// and messages addressed to another party are dropped.
func Join(ctx context.Context, tr Transport, room string, parties []uint16, partyID *uint16, partyName *string) (*Session, error) {
	index, err := tr.IssueIndex(ctx, room, types.IssueIndexRequest{
		Parties:   parties,
		PartyId:   partyID,
		PartyName: partyName,
	})
	if err != nil {
		return nil, errors.Wrap(err, "issue an index")
	}

	raw, err := tr.Subscribe(ctx, room)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe")
	}

	incoming := make(chan engine.Msg)
	go func() {
		defer close(incoming)
		for payload := range raw {
			var msg engine.Msg
			if err := json.Unmarshal(payload, &msg); err != nil {
				common.Logger.Errorf("room %s: undecodable message, closing the session stream: %v", room, err)
				return
			}
			if msg.Sender == index {
				continue
			}
			if msg.Receiver != nil && *msg.Receiver != index {
				continue
			}
			select {
			case incoming <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	send := func(msg engine.Msg) error {
		payload, err := json.Marshal(&msg)
		if err != nil {
			return errors.Wrap(err, "serialize message")
		}
		return tr.Broadcast(ctx, room, payload)
	}

	return &Session{Index: index, Incoming: incoming, send: send}, nil
}
