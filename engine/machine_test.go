package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A toy two-round protocol: every party broadcasts a value, then outputs the
// sum of all values.

type sumRound0 struct {
	partyI, n uint16
	value     int
}

func (r *sumRound0) Number() uint16  { return 0 }
func (r *sumRound0) Expensive() bool { return true }

func (r *sumRound0) Proceed(_ []Msg, out *Outbox) (Round, interface{}, error) {
	if err := out.Broadcast(r.partyI, r.value); err != nil {
		return nil, nil, err
	}
	return &sumRound1{sumRound0: *r}, nil, nil
}

type sumRound1 struct {
	sumRound0
}

func (r *sumRound1) Number() uint16  { return 1 }
func (r *sumRound1) Expensive() bool { return false }

func (r *sumRound1) Proceed(input []Msg, _ *Outbox) (Round, interface{}, error) {
	sum := r.value
	for _, msg := range input {
		var v int
		if err := json.Unmarshal(msg.Body, &v); err != nil {
			return nil, nil, err
		}
		sum += v
	}
	return nil, sum, nil
}

func newSumMachine(t *testing.T, partyI, n uint16, value int) *Machine {
	stores := map[uint16]*Store{1: NewBroadcastStore(partyI, n)}
	m, err := NewMachine(partyI, 1, &sumRound0{partyI: partyI, n: n, value: value}, stores)
	require.NoError(t, err)
	return m
}

func TestMachineRunsToCompletion(t *testing.T) {
	const n = 3
	machines := make(map[uint16]*Machine, n)
	for i := uint16(1); i <= n; i++ {
		machines[i] = newSumMachine(t, i, n, int(i)*10)
	}

	// Initial round is expensive: nothing happens until Proceed.
	for _, m := range machines {
		assert.True(t, m.WantsToProceed())
		assert.Empty(t, m.PopMessages())
		require.NoError(t, m.Proceed())
	}

	// Deliver all broadcasts; round 1 is cheap, so handling the last
	// message cascades straight to the output.
	for i, m := range machines {
		for _, msg := range m.PopMessages() {
			for j, peer := range machines {
				if j == i {
					continue
				}
				require.NoError(t, peer.HandleIncoming(msg))
			}
		}
	}

	for i, m := range machines {
		require.True(t, m.IsFinished(), "party %d", i)
		out, err := m.PickOutput()
		require.NoError(t, err)
		assert.Equal(t, 60, out.(int))

		_, err = m.PickOutput()
		assert.Equal(t, ErrDoublePickOutput, err)
		assert.False(t, m.IsFinished())
	}
}

func TestMachineRejectsOutOfOrder(t *testing.T) {
	m := newSumMachine(t, 1, 3, 1)

	body, err := json.Marshal(roundMsg{Round: 9, Payload: json.RawMessage(`1`)})
	require.NoError(t, err)
	err = m.HandleIncoming(Msg{Sender: 2, Body: body})
	var oo *OutOfOrderError
	require.ErrorAs(t, err, &oo)
	assert.Equal(t, uint16(9), oo.MsgRound)
}

func TestMachineProceedErrorIsTerminal(t *testing.T) {
	m := newSumMachine(t, 1, 2, 1)
	require.NoError(t, m.Proceed())

	// Garbage that does not decode as an int poisons round 1.
	body, err := json.Marshal(roundMsg{Round: 1, Payload: json.RawMessage(`"nope"`)})
	require.NoError(t, err)
	err = m.HandleIncoming(Msg{Sender: 2, Body: body})
	var pe *ProceedError
	require.ErrorAs(t, err, &pe)
	assert.True(t, IsCritical(err))

	_, err = m.PickOutput()
	assert.Equal(t, ErrDoublePickOutput, err)
}
