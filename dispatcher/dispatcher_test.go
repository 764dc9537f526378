package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keypuzzlewallet/tss/common"
	eddsakeygen "github.com/keypuzzlewallet/tss/eddsa/keygen"
	eddsapresign "github.com/keypuzzlewallet/tss/eddsa/presign"
	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/test"
	"github.com/keypuzzlewallet/tss/types"
	"github.com/keypuzzlewallet/tss/wallet"
)

// buildEncryptedEddsaWallets produces per-party encrypted EdDSA bundles the
// way the keygen job would persist them.
func buildEncryptedEddsaWallets(t *testing.T, threshold, n, noNonces uint16, password string) map[uint16]types.EncryptedLocalKey {
	kgMachines := make(map[uint16]engine.StateMachine, n)
	for i := uint16(1); i <= n; i++ {
		m, err := eddsakeygen.NewKeygen(i, threshold, n)
		require.NoError(t, err)
		kgMachines[i] = m
	}
	kgOut, err := test.RunLocalParties(kgMachines)
	require.NoError(t, err)

	parties := common.SeqUint16(1, n)
	psMachines := make(map[uint16]engine.StateMachine, n)
	for i := uint16(1); i <= n; i++ {
		key := kgOut[i].(*eddsakeygen.LocalKey)
		m, err := eddsapresign.NewOfflineGen(key.Keypair, i, threshold, n, noNonces, parties)
		require.NoError(t, err)
		psMachines[i] = m
	}
	psOut, err := test.RunLocalParties(psMachines)
	require.NoError(t, err)

	bundles := make(map[uint16]types.EncryptedLocalKey, n)
	for i := uint16(1); i <= n; i++ {
		localKey := kgOut[i].(*eddsakeygen.LocalKey)
		offline := &eddsapresign.OfflineResult{
			Parties:          parties,
			NonceStartIndex:  0,
			NonceSize:        noNonces,
			CompletedOffline: psOut[i].([]eddsapresign.Offline),
		}
		bundle, err := wallet.EncryptEddsa(localKey, offline, password, wallet.AlgorithmTEd25519)
		require.NoError(t, err)
		assert.Equal(t, types.KeySchemeEDDSA, bundle.KeyScheme)
		assert.NotEmpty(t, bundle.EncryptedLocalKey.Pubkey)
		bundles[i] = bundle.EncryptedLocalKey
	}
	return bundles
}

func TestSignJobEddsa(t *testing.T) {
	const threshold, n = uint16(1), uint16(3)
	const password = "correct horse"
	bundles := buildEncryptedEddsaWallets(t, threshold, n, 2, password)
	message := "bd82be05afedc3f399efde5cda2e590c69b6478bf888dc38c961b12105485333"

	state, err := Sign(&types.SigningRequest{
		KeyScheme:         types.KeySchemeEDDSA,
		StateBase64:       types.SigningStateBase64{T: int(threshold), N: int(n), KeyScheme: types.KeySchemeEDDSA},
		EncryptedLocalKey: bundles[1],
		Password:          password,
		HexData:           message,
		PartyId:           1,
		Nonce:             0,
	})
	require.NoError(t, err)
	require.Len(t, state.SigningPartsBase64, 1)
	assert.Nil(t, state.Signature)

	// The second signer completes and verifies the signature.
	state, err = Sign(&types.SigningRequest{
		KeyScheme:         types.KeySchemeEDDSA,
		StateBase64:       *state,
		EncryptedLocalKey: bundles[2],
		Password:          password,
		HexData:           message,
		PartyId:           2,
		Nonce:             0,
	})
	require.NoError(t, err)
	require.NotNil(t, state.Signature)
	assert.Equal(t, 0, state.Signature.Recid)
	assert.Len(t, state.SigningPartsBase64, 2)

	// Wrong password never reaches the signer.
	_, err = Sign(&types.SigningRequest{
		KeyScheme:         types.KeySchemeEDDSA,
		StateBase64:       types.SigningStateBase64{T: int(threshold), N: int(n), KeyScheme: types.KeySchemeEDDSA},
		EncryptedLocalKey: bundles[1],
		Password:          "wrong",
		HexData:           message,
		PartyId:           1,
		Nonce:             0,
	})
	assert.Error(t, err)
}
