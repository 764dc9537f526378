package engine

import (
	"sort"
)

// Store buffers the round messages a party expects from its peers. A
// broadcast store wants exactly one message from each of the other n-1
// parties; a p2p store additionally requires each message to be addressed to
// the owning party. The owner's own round message never passes through a
// store.
type Store struct {
	ourID   uint16
	parties uint16
	p2p     bool
	msgs    map[uint16]Msg
	gone    bool
}

func NewBroadcastStore(ourID, parties uint16) *Store {
	return &Store{ourID: ourID, parties: parties, msgs: make(map[uint16]Msg, parties-1)}
}

func NewP2PStore(ourID, parties uint16) *Store {
	return &Store{ourID: ourID, parties: parties, p2p: true, msgs: make(map[uint16]Msg, parties-1)}
}

// Push accepts one peer message. The sender must be a peer in [1,n] other
// than us and must not have contributed yet; p2p messages must be addressed
// to us.
func (s *Store) Push(m Msg) error {
	if s.gone {
		return ErrStoreGone
	}
	if m.Sender == s.ourID || m.Sender == 0 || m.Sender > s.parties {
		return ErrInvalidSender
	}
	if s.p2p && (m.Receiver == nil || *m.Receiver != s.ourID) {
		return ErrUnexpectedReceiver
	}
	if _, ok := s.msgs[m.Sender]; ok {
		return ErrDuplicateSender
	}
	s.msgs[m.Sender] = m
	return nil
}

// WantsMore is true until every expected sender has contributed.
func (s *Store) WantsMore() bool {
	return !s.gone && len(s.msgs) < int(s.parties)-1
}

// Finish consumes the store and yields the collected messages ordered by
// ascending sender index. A second call returns ErrStoreGone.
func (s *Store) Finish() ([]Msg, error) {
	if s.gone {
		return nil, ErrStoreGone
	}
	if s.WantsMore() {
		return nil, ErrWantsMoreMessages
	}
	s.gone = true
	out := make([]Msg, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sender < out[j].Sender })
	return out, nil
}
