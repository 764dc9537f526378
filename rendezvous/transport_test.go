package rendezvous

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomNaming(t *testing.T) {
	assert.Equal(t, "w1-ecdsa", EcdsaRoom("w1"))
	assert.Equal(t, "w1-eddsa", EddsaRoom("w1"))
	assert.Equal(t, "w1-parties-1_3-offline", OfflineRoom(PartiesRoom("w1", []uint16{1, 3})))
	assert.Equal(t, "w1-eddsa-offline-10_5", NonceBatchRoom("w1", 10, 5))
}
