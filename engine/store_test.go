package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgFrom(sender uint16, receiver *uint16) Msg {
	return Msg{Sender: sender, Receiver: receiver, Body: json.RawMessage(`{}`)}
}

func TestBroadcastStoreCollects(t *testing.T) {
	store := NewBroadcastStore(2, 3)
	assert.True(t, store.WantsMore())

	require.NoError(t, store.Push(msgFrom(3, nil)))
	assert.True(t, store.WantsMore())
	require.NoError(t, store.Push(msgFrom(1, nil)))
	assert.False(t, store.WantsMore())

	msgs, err := store.Finish()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Sender order, lowest first, regardless of arrival order.
	assert.Equal(t, uint16(1), msgs[0].Sender)
	assert.Equal(t, uint16(3), msgs[1].Sender)

	_, err = store.Finish()
	assert.Equal(t, ErrStoreGone, err)
}

func TestBroadcastStoreRejects(t *testing.T) {
	store := NewBroadcastStore(2, 3)

	assert.Equal(t, ErrInvalidSender, store.Push(msgFrom(2, nil)), "own message")
	assert.Equal(t, ErrInvalidSender, store.Push(msgFrom(0, nil)))
	assert.Equal(t, ErrInvalidSender, store.Push(msgFrom(4, nil)))

	require.NoError(t, store.Push(msgFrom(1, nil)))
	assert.Equal(t, ErrDuplicateSender, store.Push(msgFrom(1, nil)))

	_, err := store.Finish()
	assert.Equal(t, ErrWantsMoreMessages, err)
}

func TestP2PStoreChecksReceiver(t *testing.T) {
	store := NewP2PStore(2, 3)

	assert.Equal(t, ErrUnexpectedReceiver, store.Push(msgFrom(1, nil)), "broadcast into p2p store")
	assert.Equal(t, ErrUnexpectedReceiver, store.Push(msgFrom(1, Receiver(3))), "addressed to a peer")

	require.NoError(t, store.Push(msgFrom(1, Receiver(2))))
	require.NoError(t, store.Push(msgFrom(3, Receiver(2))))
	assert.False(t, store.WantsMore())

	msgs, err := store.Finish()
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
