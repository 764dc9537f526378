package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/common"
)

// Run pumps a state machine to completion: it flushes outbound messages
// through send, performs blocking transitions as soon as they are unblocked,
// and feeds incoming wire messages back into the machine. It returns the
// machine's terminal output.
//
// A closed incoming channel before the protocol finishes is a transport
// failure; cancellation of ctx abandons the session.
func Run(ctx context.Context, sm StateMachine, incoming <-chan Msg, send func(Msg) error) (interface{}, error) {
	for {
		for _, msg := range sm.PopMessages() {
			if err := send(msg); err != nil {
				return nil, errors.Wrap(err, "send outgoing message")
			}
		}
		if sm.IsFinished() {
			return sm.PickOutput()
		}
		if sm.WantsToProceed() {
			if err := sm.Proceed(); err != nil {
				return nil, err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-incoming:
			if !ok {
				return nil, errors.New("transport closed before the protocol finished")
			}
			if err := sm.HandleIncoming(msg); err != nil {
				common.Logger.Errorf("round %d: dropping session on incoming message: %v", sm.CurrentRound(), err)
				return nil, err
			}
		}
	}
}
