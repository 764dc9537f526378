package keygen

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/crypto/vss"

	"github.com/keypuzzlewallet/tss/common"
	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
	"github.com/keypuzzlewallet/tss/engine"
)

type round0 struct {
	partyI, t, n uint16
}

func (r *round0) Number() uint16  { return 0 }
func (r *round0) Expensive() bool { return true }

func (r *round0) Proceed(_ []engine.Msg, out *engine.Outbox) (engine.Round, interface{}, error) {
	keys, err := thresholdsig.NewKeys(r.partyI)
	if err != nil {
		return nil, nil, err
	}
	com, blind := keys.Phase1Broadcast()
	msg := round1Broadcast{Commitment: com, Blind: blind, PublicKey: thresholdsig.NewWirePoint(keys.Keypair.PublicKey)}
	if err := out.Broadcast(r.partyI, msg); err != nil {
		return nil, nil, err
	}
	common.Logger.Debugf("eddsa keygen: party %d broadcast its commitment", r.partyI)
	return &round1{round0: *r, keys: keys, ownMsg: msg}, nil, nil
}

type round1 struct {
	round0
	keys   *thresholdsig.Keys
	ownMsg round1Broadcast
}

func (r *round1) Number() uint16  { return 1 }
func (r *round1) Expensive() bool { return false }

func (r *round1) Proceed(input []engine.Msg, out *engine.Outbox) (engine.Round, interface{}, error) {
	broadcasts, err := collectRound1(input, r.ownMsg, r.partyI, r.n)
	if err != nil {
		return nil, nil, err
	}

	pubkeys := make([]*crypto.ECPoint, r.n)
	blinds := make([]*big.Int, r.n)
	coms := make([]*big.Int, r.n)
	for j, msg := range broadcasts {
		point, err := msg.PublicKey.Point()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "party %d public key", j+1)
		}
		pubkeys[j] = point
		blinds[j] = msg.Blind
		coms[j] = msg.Commitment
	}

	params := thresholdsig.Params{Threshold: int(r.t), ShareCount: int(r.n)}
	parties := common.SeqUint16(1, r.n)
	scheme, shares, err := r.keys.Phase1VerifyComPhase2Distribute(params, blinds, pubkeys, coms, parties)
	if err != nil {
		return nil, nil, err
	}

	aggPubkey := pubkeys[0]
	for _, pk := range pubkeys[1:] {
		sum, err := aggPubkey.Add(pk)
		if err != nil {
			return nil, nil, errors.Wrap(err, "aggregate public keys")
		}
		aggPubkey = sum
	}

	wireScheme := thresholdsig.WireScheme(scheme)
	for j := uint16(1); j <= r.n; j++ {
		if j == r.partyI {
			continue
		}
		msg := round2P2P{VssScheme: wireScheme, OwnShare: shares[j-1].Share}
		if err := out.SendTo(r.partyI, j, msg); err != nil {
			return nil, nil, err
		}
	}
	common.Logger.Debugf("eddsa keygen: party %d distributed its vss shares", r.partyI)

	return &round2{
		round0:    r.round0,
		keys:      r.keys,
		ownMsg:    round2P2P{VssScheme: wireScheme, OwnShare: shares[r.partyI-1].Share},
		aggPubkey: aggPubkey,
		pubkeys:   pubkeys,
	}, nil, nil
}

type round2 struct {
	round0
	keys      *thresholdsig.Keys
	ownMsg    round2P2P
	aggPubkey *crypto.ECPoint
	pubkeys   []*crypto.ECPoint
}

func (r *round2) Number() uint16  { return 2 }
func (r *round2) Expensive() bool { return true }

func (r *round2) Proceed(input []engine.Msg, _ *engine.Outbox) (engine.Round, interface{}, error) {
	schemes := make([]vss.Vs, r.n)
	shares := make([]*vss.Share, r.n)
	next := 0
	for j := uint16(1); j <= r.n; j++ {
		var msg round2P2P
		if j == r.partyI {
			msg = r.ownMsg
		} else {
			if err := json.Unmarshal(input[next].Body, &msg); err != nil {
				return nil, nil, errors.Wrapf(err, "decode round 2 message from party %d", input[next].Sender)
			}
			next++
		}
		scheme, err := thresholdsig.SchemeFromWire(msg.VssScheme)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "party %d vss scheme", j)
		}
		schemes[j-1] = scheme
		shares[j-1] = &vss.Share{Threshold: int(r.t), ID: big.NewInt(int64(r.partyI)), Share: msg.OwnShare}
	}

	params := thresholdsig.Params{Threshold: int(r.t), ShareCount: int(r.n)}
	combined, err := r.keys.Phase2VerifyVSSConstructKeypair(params, r.pubkeys, shares, schemes)
	if err != nil {
		return nil, nil, err
	}
	common.Logger.Debugf("eddsa keygen: party %d combined its key share", r.partyI)

	return nil, &LocalKey{
		CombinedShare: combined,
		VssSchemes:    schemes,
		AggPubkey:     r.aggPubkey,
		PubkeysList:   r.pubkeys,
		Keypair:       r.keys,
		PartyI:        r.partyI,
		T:             r.t,
		N:             r.n,
	}, nil
}

// collectRound1 lines up the n round-1 broadcasts in party order, slotting
// our own message in at our index.
func collectRound1(input []engine.Msg, own round1Broadcast, partyI, n uint16) ([]round1Broadcast, error) {
	out := make([]round1Broadcast, n)
	next := 0
	for j := uint16(1); j <= n; j++ {
		if j == partyI {
			out[j-1] = own
			continue
		}
		var msg round1Broadcast
		if err := json.Unmarshal(input[next].Body, &msg); err != nil {
			return nil, errors.Wrapf(err, "decode round 1 message from party %d", input[next].Sender)
		}
		out[j-1] = msg
		next++
	}
	return out, nil
}
