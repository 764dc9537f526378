package presign

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
	noNonces     uint16
	parties      []uint16
	keys         *thresholdsig.Keys
}

func (r *round0) Number() uint16  { return 0 }
func (r *round0) Expensive() bool { return true }

func (r *round0) Proceed(_ []engine.Msg, out *engine.Outbox) (engine.Round, interface{}, error) {
	roundMsg := make([]round1Broadcast, r.noNonces)
	nonceKeys := make([]*thresholdsig.EphemeralKey, r.noNonces)
	for k := uint16(0); k < r.noNonces; k++ {
		nonceKey, err := thresholdsig.NewEphemeralKey(r.keys, nil, k)
		if err != nil {
			return nil, nil, err
		}
		com, blind := nonceKey.Phase1Broadcast()
		nonceKeys[k] = nonceKey
		roundMsg[k] = round1Broadcast{Commitment: com, Blind: blind, R: thresholdsig.NewWirePoint(nonceKey.RI)}
	}
	if err := out.Broadcast(r.partyI, roundMsg); err != nil {
		return nil, nil, err
	}
	common.Logger.Debugf("eddsa offline: party %d broadcast %d nonce commitments", r.partyI, r.noNonces)
	return &round1{round0: *r, nonceKeys: nonceKeys, ownMsg: roundMsg}, nil, nil
}

type round1 struct {
	round0
	nonceKeys []*thresholdsig.EphemeralKey
	ownMsg    []round1Broadcast
}

func (r *round1) Number() uint16  { return 1 }
func (r *round1) Expensive() bool { return false }

func (r *round1) Proceed(input []engine.Msg, out *engine.Outbox) (engine.Round, interface{}, error) {
	// Line up the K-vectors of all n parties in party order.
	vectors := make([][]round1Broadcast, r.n)
	next := 0
	for j := uint16(1); j <= r.n; j++ {
		if j == r.partyI {
			vectors[j-1] = r.ownMsg
			continue
		}
		var vec []round1Broadcast
		if err := json.Unmarshal(input[next].Body, &vec); err != nil {
			return nil, nil, errors.Wrapf(err, "decode round 1 vector from party %d", input[next].Sender)
		}
		if len(vec) != int(r.noNonces) {
			return nil, nil, errors.Errorf("party %d sent %d nonce slots, expected %d", input[next].Sender, len(vec), r.noNonces)
		}
		vectors[j-1] = vec
		next++
	}

	params := thresholdsig.Params{Threshold: int(r.t), ShareCount: int(r.n)}
	aggNonces := make([]*crypto.ECPoint, r.noNonces)
	rs := make([][]*crypto.ECPoint, r.noNonces)
	schemes := make([]vss.Vs, r.noNonces)
	shares := make([]vss.Shares, r.noNonces)
	ownMsg := make([]round2P2P, r.noNonces)
	for k := uint16(0); k < r.noNonces; k++ {
		points := make([]*crypto.ECPoint, r.n)
		blinds := make([]*big.Int, r.n)
		coms := make([]*big.Int, r.n)
		for j := range vectors {
			slot := vectors[j][k]
			point, err := slot.R.Point()
			if err != nil {
				return nil, nil, errors.Wrapf(err, "party %d nonce point, slot %d", j+1, k)
			}
			points[j] = point
			blinds[j] = slot.Blind
			coms[j] = slot.Commitment
		}
		agg := points[0]
		for _, p := range points[1:] {
			sum, err := agg.Add(p)
			if err != nil {
				return nil, nil, errors.Wrap(err, "aggregate nonce points")
			}
			agg = sum
		}
		scheme, slotShares, err := r.nonceKeys[k].Phase1VerifyComPhase2Distribute(params, blinds, points, coms, r.parties)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "nonce slot %d", k)
		}
		aggNonces[k] = agg
		rs[k] = points
		schemes[k] = scheme
		shares[k] = slotShares
		ownMsg[k] = round2P2P{NonceVssScheme: thresholdsig.WireScheme(scheme), NonceOwnShare: slotShares[r.partyI-1].Share}
	}

	// One grouped p2p message per peer, carrying the peer's K shares.
	for j := uint16(1); j <= r.n; j++ {
		if j == r.partyI {
			continue
		}
		grouped := make([]round2P2P, r.noNonces)
		for k := uint16(0); k < r.noNonces; k++ {
			grouped[k] = round2P2P{NonceVssScheme: thresholdsig.WireScheme(schemes[k]), NonceOwnShare: shares[k][j-1].Share}
		}
		if err := out.SendTo(r.partyI, j, grouped); err != nil {
			return nil, nil, err
		}
	}
	common.Logger.Debugf("eddsa offline: party %d distributed nonce shares for %d slots", r.partyI, r.noNonces)

	return &round2{
		round0:    r.round0,
		nonceKeys: r.nonceKeys,
		ownMsg:    ownMsg,
		aggNonces: aggNonces,
		rs:        rs,
	}, nil, nil
}

type round2 struct {
	round0
	nonceKeys []*thresholdsig.EphemeralKey
	ownMsg    []round2P2P
	aggNonces []*crypto.ECPoint
	rs        [][]*crypto.ECPoint
}

func (r *round2) Number() uint16  { return 2 }
func (r *round2) Expensive() bool { return true }

func (r *round2) Proceed(input []engine.Msg, _ *engine.Outbox) (engine.Round, interface{}, error) {
	vectors := make([][]round2P2P, r.n)
	next := 0
	for j := uint16(1); j <= r.n; j++ {
		if j == r.partyI {
			vectors[j-1] = r.ownMsg
			continue
		}
		var vec []round2P2P
		if err := json.Unmarshal(input[next].Body, &vec); err != nil {
			return nil, nil, errors.Wrapf(err, "decode round 2 vector from party %d", input[next].Sender)
		}
		if len(vec) != int(r.noNonces) {
			return nil, nil, errors.Errorf("party %d sent %d nonce slots, expected %d", input[next].Sender, len(vec), r.noNonces)
		}
		vectors[j-1] = vec
		next++
	}

	params := thresholdsig.Params{Threshold: int(r.t), ShareCount: int(r.n)}
	result := make([]Offline, r.noNonces)
	for k := uint16(0); k < r.noNonces; k++ {
		schemes := make([]vss.Vs, r.n)
		shares := make([]*vss.Share, r.n)
		for j := range vectors {
			slot := vectors[j][k]
			scheme, err := thresholdsig.SchemeFromWire(slot.NonceVssScheme)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "party %d nonce vss scheme, slot %d", j+1, k)
			}
			schemes[j] = scheme
			shares[j] = &vss.Share{Threshold: int(r.t), ID: big.NewInt(int64(r.partyI)), Share: slot.NonceOwnShare}
		}
		combined, err := r.nonceKeys[k].Phase2VerifyVSSConstructKeypair(params, r.rs[k], shares, schemes)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "nonce slot %d", k)
		}
		result[k] = Offline{
			NonceVssSchemes:    schemes,
			CombinedNonceShare: combined,
			AggNonce:           r.aggNonces[k],
		}
	}
	common.Logger.Debugf("eddsa offline: party %d combined %d nonce shares", r.partyI, r.noNonces)
	return nil, result, nil
}
