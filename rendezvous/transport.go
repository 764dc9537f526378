package rendezvous

import (
	"context"
	"fmt"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/types"
)

// Transport is what the protocol core requires of a rendezvous relay. Every
// operation is scoped to a room; rooms of different sub-protocols never
// share messages.
//
// Guarantees a conforming implementation must give:
//   - IssueIndex returns the same (index -> identity) mapping to every
//     participant of a room. A preferred id is honored or the call fails.
//   - Broadcast delivers the payload to every other subscriber of the room
//     exactly once, FIFO per sender.
//   - Subscribe yields payloads produced by other parties until ctx is
//     canceled; a party's own broadcasts are not redelivered to it.
type Transport interface {
	IssueIndex(ctx context.Context, room string, req types.IssueIndexRequest) (uint16, error)
	Broadcast(ctx context.Context, room string, payload []byte) error
	Subscribe(ctx context.Context, room string) (<-chan []byte, error)
	Progress(ctx context.Context, room string) (*types.KeygenProgress, error)
	PostStatus(ctx context.Context, room string, percent int) error
}

// Room naming. Each sub-protocol gets a disjoint room; the subset room is
// derived from the sorted member list so every member of the subset names
// the same room.

func EcdsaRoom(room string) string {
	return room + "-ecdsa"
}

func EddsaRoom(room string) string {
	return room + "-eddsa"
}

func OfflineRoom(room string) string {
	return room + "-offline"
}

// PartiesRoom names the per-subset room for the ECDSA offline stage. parties
// must already be sorted ascending.
func PartiesRoom(room string, parties []uint16) string {
	return fmt.Sprintf("%s-parties-%s", room, common.JoinUint16(parties, "_"))
}

// NonceBatchRoom names the room of one EdDSA nonce batch. The start/size tag
// keeps consecutive refreshes apart.
func NonceBatchRoom(room string, nonceStartIndex, nonceSize uint16) string {
	return fmt.Sprintf("%s-eddsa-offline-%d_%d", room, nonceStartIndex, nonceSize)
}
