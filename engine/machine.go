package engine

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// StateMachine is the round-driven protocol contract shared by all four
// sub-protocols (ECDSA/EdDSA keygen and offline). A machine is owned by a
// single driver; none of its methods are safe for concurrent use.
type StateMachine interface {
	// HandleIncoming routes a wire message to the store of its round.
	HandleIncoming(msg Msg) error
	// PopMessages drains the outbound queue, in production order.
	PopMessages() []Msg
	// WantsToProceed is true when the next transition is unblocked.
	WantsToProceed() bool
	// Proceed performs the blocking transition; it may advance several
	// rounds while follow-ups are cheap.
	Proceed() error
	CurrentRound() uint16
	TotalRounds() uint16
	IsFinished() bool
	// PickOutput yields the terminal output once; a second call fails.
	PickOutput() (interface{}, error)
	// RoundTimeout returns 0: this engine imposes no per-round deadline.
	RoundTimeout() time.Duration
}

// Round is one state of a linear protocol chain R0 -> R1 -> ... -> final.
// Proceed consumes the round's input (nil for the initial round), emits this
// round's outbound messages, and returns either the next round or the
// terminal output.
type Round interface {
	Number() uint16
	// Expensive rounds only run when the driver is willing to block.
	Expensive() bool
	Proceed(input []Msg, out *Outbox) (next Round, output interface{}, err error)
}

// Outbox collects the messages a round produces, wrapping each body with the
// round number its receivers will store it under.
type Outbox struct {
	round uint16
	queue *[]Msg
}

func (o *Outbox) Broadcast(sender uint16, body interface{}) error {
	return o.push(Msg{Sender: sender}, body)
}

func (o *Outbox) SendTo(sender, receiver uint16, body interface{}) error {
	return o.push(Msg{Sender: sender, Receiver: Receiver(receiver)}, body)
}

func (o *Outbox) push(m Msg, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal round message")
	}
	wrapped, err := json.Marshal(roundMsg{Round: o.round, Payload: payload})
	if err != nil {
		return errors.Wrap(err, "marshal round envelope")
	}
	m.Body = wrapped
	*o.queue = append(*o.queue, m)
	return nil
}

// Machine drives a protocol through its rounds: it buffers incoming messages
// per round, advances as soon as a round's inputs are complete, and cascades
// through cheap follow-up rounds. Any protocol error leaves the machine gone.
type Machine struct {
	current  Round
	stores   map[uint16]*Store
	queue    []Msg
	output   interface{}
	finished bool
	picked   bool
	gone     bool

	partyID uint16
	total   uint16
}

// NewMachine wires a first round to the stores of the rounds that expect
// peer input (keyed by round number). It advances through any cheap leading
// rounds immediately.
func NewMachine(partyID, totalRounds uint16, first Round, stores map[uint16]*Store) (*Machine, error) {
	m := &Machine{
		current: first,
		stores:  stores,
		partyID: partyID,
		total:   totalRounds,
	}
	if err := m.proceedRound(false); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Machine) HandleIncoming(msg Msg) error {
	var rm roundMsg
	if err := json.Unmarshal(msg.Body, &rm); err != nil {
		return errors.Wrap(err, "decode round envelope")
	}
	store, ok := m.stores[rm.Round]
	if !ok || store == nil {
		return &OutOfOrderError{CurrentRound: m.CurrentRound(), MsgRound: rm.Round}
	}
	if err := store.Push(Msg{Sender: msg.Sender, Receiver: msg.Receiver, Body: rm.Payload}); err != nil {
		if err == ErrStoreGone {
			return &OutOfOrderError{CurrentRound: m.CurrentRound(), MsgRound: rm.Round}
		}
		return err
	}
	return m.proceedRound(false)
}

func (m *Machine) PopMessages() []Msg {
	out := m.queue
	m.queue = nil
	return out
}

func (m *Machine) WantsToProceed() bool {
	if m.current == nil {
		return false
	}
	num := m.current.Number()
	if num == 0 {
		return true
	}
	store := m.stores[num]
	return store != nil && !store.WantsMore()
}

func (m *Machine) Proceed() error {
	return m.proceedRound(true)
}

// proceedRound advances the current round when its inputs are complete and
// either the transition is cheap or mayBlock allows the expensive work, then
// loops to pick up cheap follow-ups.
func (m *Machine) proceedRound(mayBlock bool) error {
	for {
		if m.current == nil {
			return nil
		}
		num := m.current.Number()
		var input []Msg
		if num > 0 {
			store := m.stores[num]
			if store == nil {
				m.gone = true
				m.current = nil
				return &ProceedError{Round: num, Err: ErrStoreGone}
			}
			if store.WantsMore() {
				return nil
			}
		}
		if m.current.Expensive() && !mayBlock {
			return nil
		}
		if num > 0 {
			msgs, err := m.stores[num].Finish()
			if err != nil {
				m.gone = true
				m.current = nil
				return &ProceedError{Round: num, Err: err}
			}
			delete(m.stores, num)
			input = msgs
		}
		out := &Outbox{round: num + 1, queue: &m.queue}
		next, output, err := m.current.Proceed(input, out)
		if err != nil {
			m.gone = true
			m.current = nil
			return &ProceedError{Round: num, Err: err}
		}
		if next == nil {
			m.current = nil
			m.output = output
			m.finished = true
			return nil
		}
		m.current = next
	}
}

func (m *Machine) CurrentRound() uint16 {
	if m.current != nil {
		return m.current.Number()
	}
	return m.total + 1
}

func (m *Machine) TotalRounds() uint16 {
	return m.total
}

func (m *Machine) IsFinished() bool {
	return m.finished && !m.picked
}

func (m *Machine) PickOutput() (interface{}, error) {
	if m.picked || m.gone {
		return nil, ErrDoublePickOutput
	}
	if !m.finished {
		return nil, errors.New("protocol is not finished")
	}
	m.picked = true
	out := m.output
	m.output = nil
	return out, nil
}

func (m *Machine) RoundTimeout() time.Duration {
	return 0
}

// PartyID returns the 1-based index this machine acts as.
func (m *Machine) PartyID() uint16 {
	return m.partyID
}
