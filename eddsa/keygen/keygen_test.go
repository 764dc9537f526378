package keygen

import (
	"testing"

	"github.com/ipfs/go-log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/test"
)

func setUp(level string) {
	if err := log.SetLogLevel("tss", level); err != nil {
		panic(err)
	}
}

// runLocalKeygen drives an n-party keygen without a transport and returns
// each party's local key.
func runLocalKeygen(t *testing.T, threshold, n uint16) map[uint16]*LocalKey {
	machines := make(map[uint16]engine.StateMachine, n)
	for i := uint16(1); i <= n; i++ {
		m, err := NewKeygen(i, threshold, n)
		require.NoError(t, err)
		machines[i] = m
	}
	outputs, err := test.RunLocalParties(machines)
	require.NoError(t, err)

	keys := make(map[uint16]*LocalKey, n)
	for i, out := range outputs {
		keys[i] = out.(*LocalKey)
	}
	return keys
}

func TestKeygenE2E(t *testing.T) {
	setUp("info")
	for _, tc := range []struct{ t, n uint16 }{{1, 2}, {1, 3}, {2, 4}} {
		keys := runLocalKeygen(t, tc.t, tc.n)

		reference := keys[1]
		require.NotNil(t, reference.AggPubkey)
		for i := uint16(1); i <= tc.n; i++ {
			key := keys[i]
			assert.Equal(t, i, key.PartyI)
			assert.Equal(t, tc.t, key.T)
			assert.Equal(t, tc.n, key.N)
			// Every party derives the identical aggregated public key.
			assert.True(t, key.AggPubkey.Equals(reference.AggPubkey), "party %d agg pubkey", i)
			require.Len(t, key.PubkeysList, int(tc.n))
			require.Len(t, key.VssSchemes, int(tc.n))
		}
	}
}

func TestKeygenParamValidation(t *testing.T) {
	_, err := NewKeygen(1, 1, 1)
	assert.Equal(t, ErrTooFewParties, err)

	_, err = NewKeygen(1, 0, 3)
	assert.Equal(t, ErrInvalidThreshold, err)
	_, err = NewKeygen(1, 3, 3)
	assert.Equal(t, ErrInvalidThreshold, err)

	_, err = NewKeygen(0, 1, 3)
	assert.Equal(t, ErrInvalidPartyIndex, err)
	_, err = NewKeygen(4, 1, 3)
	assert.Equal(t, ErrInvalidPartyIndex, err)
}
