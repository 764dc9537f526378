package signer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
	"github.com/keypuzzlewallet/tss/types"
)

func TestEcdsaStateWireRoundTrip(t *testing.T) {
	state := NewState(1, 3)
	state.SigningParts = append(state.SigningParts, SignedPartial{
		PartyID:  2,
		Part:     Partial{Ecdsa: &EcdsaPartial{SI: big.NewInt(123456789)}},
		SignedAt: "2024-01-02T03:04:05.006Z",
	})

	wire, err := StateToBase64(types.KeySchemeECDSA, state)
	require.NoError(t, err)
	assert.Equal(t, types.KeySchemeECDSA, wire.KeyScheme)
	assert.Equal(t, 1, wire.T)
	assert.Equal(t, 3, wire.N)
	require.Len(t, wire.SigningPartsBase64, 1)

	decoded, err := StateFromBase64(wire)
	require.NoError(t, err)
	require.Len(t, decoded.SigningParts, 1)
	assert.Equal(t, uint16(2), decoded.SigningParts[0].PartyID)
	assert.Equal(t, "2024-01-02T03:04:05.006Z", decoded.SigningParts[0].SignedAt)
	require.NotNil(t, decoded.SigningParts[0].Part.Ecdsa)
	assert.Equal(t, 0, decoded.SigningParts[0].Part.Ecdsa.SI.Cmp(big.NewInt(123456789)))
	assert.Nil(t, decoded.SigningParts[0].Part.Eddsa)
}

func TestEddsaStateWireRoundTrip(t *testing.T) {
	state := NewState(2, 5)
	state.Signature = &types.SignatureRecidHex{R: "aa", S: "bb", Recid: 0}
	state.SigningParts = append(state.SigningParts, SignedPartial{
		PartyID:  4,
		Part:     Partial{Eddsa: &thresholdsig.LocalSig{GammaI: big.NewInt(7), E: big.NewInt(9)}},
		SignedAt: "2024-01-02T03:04:05.006Z",
	})

	wire, err := StateToBase64(types.KeySchemeEDDSA, state)
	require.NoError(t, err)

	decoded, err := StateFromBase64(wire)
	require.NoError(t, err)
	require.NotNil(t, decoded.Signature)
	assert.Equal(t, "aa", decoded.Signature.R)
	require.Len(t, decoded.SigningParts, 1)
	require.NotNil(t, decoded.SigningParts[0].Part.Eddsa)
	assert.Equal(t, 0, decoded.SigningParts[0].Part.Eddsa.GammaI.Cmp(big.NewInt(7)))
}

func TestWireRejectsEmptyVariant(t *testing.T) {
	state := NewState(1, 3)
	state.SigningParts = append(state.SigningParts, SignedPartial{PartyID: 1})
	_, err := StateToBase64(types.KeySchemeECDSA, state)
	assert.Equal(t, ErrWrongPartialVariant, err)
}
