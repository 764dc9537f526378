package engine

import (
	"encoding/json"
)

// Msg is the envelope every round message travels in. Receiver nil means
// broadcast; otherwise the message is addressed to that party only.
type Msg struct {
	Sender   uint16          `json:"sender"`
	Receiver *uint16         `json:"receiver"`
	Body     json.RawMessage `json:"body"`
}

func (m Msg) IsBroadcast() bool {
	return m.Receiver == nil
}

// roundMsg tags a round body with the round it belongs to so the receiving
// machine can route it to the right store.
type roundMsg struct {
	Round   uint16          `json:"round"`
	Payload json.RawMessage `json:"payload"`
}

// Receiver returns a pointer suitable for Msg.Receiver.
func Receiver(i uint16) *uint16 {
	return &i
}
