package gg20

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/tss"

	"github.com/keypuzzlewallet/tss/engine"
)

// wireMessage is the engine body of a GG20 wire message: the library's own
// serialized round message plus its routing flag.
type wireMessage struct {
	Wire        []byte `json:"wire"`
	IsBroadcast bool   `json:"is_broadcast"`
}

// PartyIDs builds the deterministic party set for the given 1-based member
// indices. Using the index itself as the sort key guarantees every member
// derives the identical ordering.
func PartyIDs(members []uint16) tss.SortedPartyIDs {
	unsorted := make(tss.UnSortedPartyIDs, 0, len(members))
	for _, id := range members {
		unsorted = append(unsorted, tss.NewPartyID(fmt.Sprintf("%d", id), fmt.Sprintf("party-%d", id), big.NewInt(int64(id))))
	}
	return tss.SortPartyIDs(unsorted)
}

// adapter drives a tss-lib LocalParty through the engine's StateMachine
// contract, so the same driver loop serves the GG20 protocols and the native
// EdDSA machines. The wrapped party buffers and orders its own rounds; the
// adapter translates messages and surfaces the terminal output.
type adapter struct {
	party   tss.Party
	sorted  tss.SortedPartyIDs
	members []uint16
	selfID  uint16

	outCh   chan tss.Message
	receive func() (interface{}, bool)

	queue   []engine.Msg
	started bool
	output  interface{}
	picked  bool
	rounds  uint16
	total   uint16
}

func newAdapter(party tss.Party, sorted tss.SortedPartyIDs, members []uint16, selfID uint16, outCh chan tss.Message, totalRounds uint16, receive func() (interface{}, bool)) *adapter {
	return &adapter{
		party:   party,
		sorted:  sorted,
		members: members,
		selfID:  selfID,
		outCh:   outCh,
		receive: receive,
		total:   totalRounds,
	}
}

func (a *adapter) HandleIncoming(msg engine.Msg) error {
	var wm wireMessage
	if err := json.Unmarshal(msg.Body, &wm); err != nil {
		return errors.Wrap(err, "decode wire message")
	}
	from := a.pid(msg.Sender)
	if from == nil {
		return engine.ErrInvalidSender
	}
	if _, err := a.party.UpdateFromBytes(wm.Wire, from, wm.IsBroadcast, false); err != nil {
		return errors.Wrapf(err, "update party from %d", msg.Sender)
	}
	a.drain()
	return nil
}

func (a *adapter) PopMessages() []engine.Msg {
	a.drain()
	out := a.queue
	a.queue = nil
	return out
}

func (a *adapter) WantsToProceed() bool {
	return !a.started
}

func (a *adapter) Proceed() error {
	if a.started {
		return nil
	}
	a.started = true
	if err := a.party.Start(); err != nil {
		return errors.Wrap(err, "start party")
	}
	a.drain()
	return nil
}

func (a *adapter) IsFinished() bool {
	a.drain()
	return a.output != nil && !a.picked
}

func (a *adapter) PickOutput() (interface{}, error) {
	if a.picked || a.output == nil {
		return nil, engine.ErrDoublePickOutput
	}
	a.picked = true
	return a.output, nil
}

func (a *adapter) CurrentRound() uint16 {
	if a.rounds > a.total {
		return a.total
	}
	return a.rounds
}

func (a *adapter) TotalRounds() uint16 {
	return a.total
}

func (a *adapter) RoundTimeout() time.Duration {
	return 0
}

// drain moves everything the party produced so far into the outbound queue
// and captures the terminal output when it appears.
func (a *adapter) drain() {
	for {
		select {
		case msg := <-a.outCh:
			a.enqueue(msg)
		default:
			if a.output == nil {
				if out, ok := a.receive(); ok {
					a.output = out
				}
			}
			return
		}
	}
}

func (a *adapter) enqueue(msg tss.Message) {
	bz, routing, err := msg.WireBytes()
	if err != nil {
		// WireBytes on a message the library itself built cannot fail with
		// well-formed rounds; treat it as a dropped message and let the
		// session time out upstream.
		return
	}
	body, err := json.Marshal(wireMessage{Wire: bz, IsBroadcast: msg.IsBroadcast()})
	if err != nil {
		return
	}
	a.rounds++
	if routing.To == nil {
		a.queue = append(a.queue, engine.Msg{Sender: a.selfID, Body: body})
		return
	}
	for _, dest := range routing.To {
		a.queue = append(a.queue, engine.Msg{
			Sender:   a.selfID,
			Receiver: engine.Receiver(a.members[dest.Index]),
			Body:     body,
		})
	}
}

func (a *adapter) pid(member uint16) *tss.PartyID {
	for i, id := range a.members {
		if id == member {
			return a.sorted[i]
		}
	}
	return nil
}
