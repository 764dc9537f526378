package rendezvous

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keypuzzlewallet/tss/types"
)

func TestMemoryRelayIssuesUniqueIndices(t *testing.T) {
	relay := NewMemoryRelay()
	ctx := context.Background()
	parties := []uint16{1, 2, 3}

	seen := make(map[uint16]bool)
	for _, name := range []string{"A", "B", "C"} {
		conn := relay.Connect()
		name := name
		idx, err := conn.IssueIndex(ctx, "room-ecdsa", types.IssueIndexRequest{Parties: parties, PartyName: &name})
		require.NoError(t, err)
		assert.False(t, seen[idx], "index %d issued twice", idx)
		assert.GreaterOrEqual(t, idx, uint16(1))
		assert.LessOrEqual(t, idx, uint16(3))
		seen[idx] = true
	}

	// A fourth name cannot fit the room.
	name := "D"
	_, err := relay.Connect().IssueIndex(ctx, "room-ecdsa", types.IssueIndexRequest{Parties: parties, PartyName: &name})
	assert.Error(t, err)

	// Rejoining by name returns the original index.
	nameA := "A"
	idx, err := relay.Connect().IssueIndex(ctx, "room-ecdsa", types.IssueIndexRequest{Parties: parties, PartyName: &nameA})
	require.NoError(t, err)
	assert.Equal(t, uint16(1), idx)

	// All parties see the identical members list.
	progress, err := relay.Connect().Progress(ctx, "room-ecdsa")
	require.NoError(t, err)
	assert.Len(t, progress.Members, 3)
}

func TestMemoryRelayHonorsPreferredID(t *testing.T) {
	relay := NewMemoryRelay()
	ctx := context.Background()
	two := uint16(2)

	idx, err := relay.Connect().IssueIndex(ctx, "room", types.IssueIndexRequest{Parties: []uint16{1, 2, 3}, PartyId: &two})
	require.NoError(t, err)
	assert.Equal(t, uint16(2), idx)

	nine := uint16(9)
	_, err = relay.Connect().IssueIndex(ctx, "room", types.IssueIndexRequest{Parties: []uint16{1, 2, 3}, PartyId: &nine})
	assert.Error(t, err)
}

func TestMemoryRelayBroadcastSkipsSender(t *testing.T) {
	relay := NewMemoryRelay()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice, bob := relay.Connect(), relay.Connect()
	aliceCh, err := alice.Subscribe(ctx, "room")
	require.NoError(t, err)
	bobCh, err := bob.Subscribe(ctx, "room")
	require.NoError(t, err)

	require.NoError(t, alice.Broadcast(ctx, "room", []byte("one")))
	require.NoError(t, alice.Broadcast(ctx, "room", []byte("two")))

	// Bob receives both, in FIFO order.
	assert.Equal(t, "one", string(<-bobCh))
	assert.Equal(t, "two", string(<-bobCh))

	// Alice never sees her own broadcasts.
	select {
	case msg := <-aliceCh:
		t.Fatalf("sender received its own broadcast: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
