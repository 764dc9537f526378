package mpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ipfs/go-log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	eddsakeygen "github.com/keypuzzlewallet/tss/eddsa/keygen"
	eddsapresign "github.com/keypuzzlewallet/tss/eddsa/presign"
	"github.com/keypuzzlewallet/tss/rendezvous"
	"github.com/keypuzzlewallet/tss/signer"
	"github.com/keypuzzlewallet/tss/wallet"
)

func setUp(level string) {
	if err := log.SetLogLevel("tss", level); err != nil {
		panic(err)
	}
}

// Three parties run EdDSA keygen and a nonce batch through the in-memory
// relay concurrently, then two of them sign.
func TestEddsaPipelineOverRelay(t *testing.T) {
	setUp("info")
	const threshold, n, noNonces = uint16(1), uint16(3), uint16(2)
	relay := rendezvous.NewMemoryRelay()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var mu sync.Mutex
	wallets := make(map[uint16]*wallet.EddsaKeyData, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := uint16(1); i <= n; i++ {
		partyID := i
		g.Go(func() error {
			tr := relay.Connect()
			localKey, err := eddsakeygen.Run(gctx, tr, "w1", threshold, n, partyID)
			if err != nil {
				return fmt.Errorf("party %d keygen: %w", partyID, err)
			}
			offline, err := eddsapresign.GenerateDynamicNonces(gctx, tr, "w1", 0, noNonces, localKey)
			if err != nil {
				return fmt.Errorf("party %d nonces: %w", partyID, err)
			}
			mu.Lock()
			wallets[partyID] = &wallet.EddsaKeyData{
				LocalKey:    *localKey,
				OfflineData: *offline,
				Algorithm:   wallet.AlgorithmTEd25519,
			}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, wallets, int(n))

	// Public key agreement across all parties.
	reference := wallets[1].LocalKey.AggPubkey
	for i := uint16(1); i <= n; i++ {
		assert.True(t, wallets[i].LocalKey.AggPubkey.Equals(reference), "party %d", i)
		assert.Equal(t, uint16(0), wallets[i].OfflineData.NonceStartIndex)
		assert.Equal(t, noNonces, wallets[i].OfflineData.NonceSize)
		assert.Len(t, wallets[i].OfflineData.CompletedOffline, int(noNonces))
	}

	// Parties {1,2} sign; the signature verifies under each party's view of
	// the public key inside SignEddsa itself.
	message, err := hex.DecodeString("bd82be05afedc3f399efde5cda2e590c69b6478bf888dc38c961b12105485333")
	require.NoError(t, err)
	state := signer.NewState(threshold, n)
	require.NoError(t, signer.SignEddsa(state, wallets[1], message, 1, 0))
	require.NoError(t, signer.SignEddsa(state, wallets[2], message, 2, 0))
	require.NotNil(t, state.Signature)
	assert.Equal(t, 0, state.Signature.Recid)
}

// Consecutive nonce refreshes cover disjoint index ranges.
func TestNonceRefreshRangesAreDisjoint(t *testing.T) {
	setUp("error")
	const threshold, n = uint16(1), uint16(2)
	relay := rendezvous.NewMemoryRelay()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	runBatch := func(start, size uint16, keys map[uint16]*eddsakeygen.LocalKey) map[uint16]*eddsapresign.OfflineResult {
		var mu sync.Mutex
		out := make(map[uint16]*eddsapresign.OfflineResult, n)
		g, gctx := errgroup.WithContext(ctx)
		for i := uint16(1); i <= n; i++ {
			partyID := i
			g.Go(func() error {
				offline, err := eddsapresign.GenerateDynamicNonces(gctx, relay.Connect(), "w2", start, size, keys[partyID])
				if err != nil {
					return err
				}
				mu.Lock()
				out[partyID] = offline
				mu.Unlock()
				return nil
			})
		}
		require.NoError(t, g.Wait())
		return out
	}

	keys := make(map[uint16]*eddsakeygen.LocalKey, n)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i := uint16(1); i <= n; i++ {
		partyID := i
		g.Go(func() error {
			key, err := eddsakeygen.Run(gctx, relay.Connect(), "w2", threshold, n, partyID)
			if err != nil {
				return err
			}
			mu.Lock()
			keys[partyID] = key
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	first := runBatch(0, 3, keys)
	second := runBatch(first[1].NonceSize, 2, keys)

	assert.Equal(t, uint16(0), first[1].NonceStartIndex)
	assert.Equal(t, uint16(3), first[1].NonceSize)
	assert.Equal(t, uint16(3), second[1].NonceStartIndex)
	assert.Equal(t, uint16(5), second[1].NonceSize)
}

// The full pipeline, ECDSA included, exercises real distributed key
// generation and takes minutes; it only runs without -short.
func TestKeygenAndOfflinePipelineE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping the full keygen pipeline in short mode")
	}
	setUp("info")
	const threshold, n = uint16(1), uint16(3)
	relay := rendezvous.NewMemoryRelay()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var mu sync.Mutex
	results := make(map[uint16]*wallet.KeygenResult, n)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range []string{"A", "B", "C"} {
		name := name
		g.Go(func() error {
			result, err := KeygenAndOffline(gctx, relay.Connect(), "w3", threshold, n, 2, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			results[result.PartyID] = result
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, results, int(n))

	// One offline stage per (t+1)-subset containing the party: C(n-1, t).
	for id, result := range results {
		assert.Len(t, result.Ecdsa.OfflineData, 2, "party %d", id)
		assert.Equal(t, wallet.AlgorithmGG20, result.Ecdsa.Algorithm)
		assert.Equal(t, wallet.AlgorithmTEd25519, result.Eddsa.Algorithm)
		assert.Len(t, result.Members, int(n))
	}

	// Parties {1,2} produce a verifying ECDSA signature.
	message, err := hex.DecodeString("bd82be05afedc3f399efde5cda2e590c69b6478bf888dc38c961b12105485333")
	require.NoError(t, err)
	state := signer.NewState(threshold, n)
	require.NoError(t, signer.SignEcdsa(state, &results[1].Ecdsa, message, 1, []uint16{1, 2}))
	require.NoError(t, signer.SignEcdsa(state, &results[2].Ecdsa, message, 2, []uint16{1, 2}))
	require.NotNil(t, state.Signature)

	err = signer.SignEcdsa(state, &results[3].Ecdsa, message, 3, []uint16{1, 3})
	assert.Equal(t, signer.ErrAlreadySigned, err)
}
