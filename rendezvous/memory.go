package rendezvous

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/types"
)

// MemoryRelay is a process-local implementation of the transport contract,
// used by tests and single-process simulation. Each party obtains its own
// connection with Connect; a connection never sees its own broadcasts.
type MemoryRelay struct {
	mu    sync.Mutex
	rooms map[string]*memoryRoom
}

type memoryRoom struct {
	nextIndex   uint16
	indexByName map[string]uint16
	taken       map[uint16]bool
	members     []types.KeygenMember
	progress    int
	history     []memoryEvent
	subscribers map[*MemoryConn][]chan []byte
}

// memoryEvent remembers who broadcast a payload so late subscribers can be
// replayed everything except their own messages, the way the real relay
// replays a room's backlog on subscribe.
type memoryEvent struct {
	from    *MemoryConn
	payload []byte
}

// MemoryConn is one party's connection to the relay.
type MemoryConn struct {
	relay *MemoryRelay
}

var _ Transport = (*MemoryConn)(nil)

func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{rooms: make(map[string]*memoryRoom)}
}

func (r *MemoryRelay) Connect() *MemoryConn {
	return &MemoryConn{relay: r}
}

func (r *MemoryRelay) room(name string) *memoryRoom {
	if room, ok := r.rooms[name]; ok {
		return room
	}
	room := &memoryRoom{
		nextIndex:   1,
		indexByName: make(map[string]uint16),
		taken:       make(map[uint16]bool),
		subscribers: make(map[*MemoryConn][]chan []byte),
	}
	r.rooms[name] = room
	return room
}

func (c *MemoryConn) IssueIndex(_ context.Context, roomName string, req types.IssueIndexRequest) (uint16, error) {
	c.relay.mu.Lock()
	defer c.relay.mu.Unlock()
	room := c.relay.room(roomName)

	if req.PartyId != nil {
		// Rejoin with a fixed index: honor it or fail.
		if *req.PartyId == 0 || !containsParty(req.Parties, *req.PartyId) {
			return 0, errors.Errorf("room %s: party id %d is not a member of %v", roomName, *req.PartyId, req.Parties)
		}
		return *req.PartyId, nil
	}
	if req.PartyName != nil {
		if idx, ok := room.indexByName[*req.PartyName]; ok {
			return idx, nil
		}
		if int(room.nextIndex) > len(req.Parties) {
			return 0, errors.Errorf("room %s: all %d indices are taken", roomName, len(req.Parties))
		}
		idx := room.nextIndex
		room.nextIndex++
		room.indexByName[*req.PartyName] = idx
		room.taken[idx] = true
		room.members = append(room.members, types.KeygenMember{PartyName: *req.PartyName, PartyId: int(idx)})
		return idx, nil
	}
	return 0, errors.Errorf("room %s: issue index needs a party id or a party name", roomName)
}

func containsParty(parties []uint16, id uint16) bool {
	for _, p := range parties {
		if p == id {
			return true
		}
	}
	return false
}

func (c *MemoryConn) Broadcast(_ context.Context, roomName string, payload []byte) error {
	body := append([]byte(nil), payload...)

	c.relay.mu.Lock()
	room := c.relay.room(roomName)
	room.history = append(room.history, memoryEvent{from: c, payload: body})
	var targets []chan []byte
	for conn, chans := range room.subscribers {
		if conn == c {
			continue
		}
		targets = append(targets, chans...)
	}
	c.relay.mu.Unlock()

	for _, ch := range targets {
		ch <- body
	}
	return nil
}

func (c *MemoryConn) Subscribe(ctx context.Context, roomName string) (<-chan []byte, error) {
	c.relay.mu.Lock()
	room := c.relay.room(roomName)
	// Generous buffering keeps Broadcast non-blocking across goroutine
	// scheduling; protocol rounds bound the real queue depth.
	in := make(chan []byte, len(room.history)+1024)
	for _, event := range room.history {
		if event.from == c {
			continue
		}
		in <- event.payload
	}
	room.subscribers[c] = append(room.subscribers[c], in)
	c.relay.mu.Unlock()

	out := make(chan []byte)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-in:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *MemoryConn) Progress(_ context.Context, roomName string) (*types.KeygenProgress, error) {
	c.relay.mu.Lock()
	defer c.relay.mu.Unlock()
	room := c.relay.room(roomName)
	members := append([]types.KeygenMember(nil), room.members...)
	return &types.KeygenProgress{Progress: room.progress, Members: members}, nil
}

func (c *MemoryConn) PostStatus(_ context.Context, roomName string, percent int) error {
	c.relay.mu.Lock()
	defer c.relay.mu.Unlock()
	c.relay.room(roomName).progress = percent
	return nil
}
