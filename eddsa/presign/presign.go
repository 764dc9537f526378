package presign

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/crypto/vss"

	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
	"github.com/keypuzzlewallet/tss/engine"
)

var (
	ErrTooFewParties     = errors.New("at least 2 parties are required for offline")
	ErrTooFewNonces      = errors.New("at least 1 nonce is required for offline")
	ErrInvalidThreshold  = errors.New("threshold is not in range [1; n-1]")
	ErrInvalidPartyIndex = errors.New("party index is not in range [1; n]")
)

// Offline is one precomputed nonce slot, ready for a single signature.
type Offline struct {
	NonceVssSchemes    []vss.Vs                          `json:"nonce_vss_schemes"`
	CombinedNonceShare *thresholdsig.EphemeralSharedKeys `json:"combined_nonce_share"`
	AggNonce           *crypto.ECPoint                   `json:"agg_nonce"`
}

// round1Broadcast is one slot's opening: commitment, blind and nonce point.
// The wire message of round 1 is the K-vector of these.
type round1Broadcast struct {
	Commitment *big.Int                `json:"commitment"`
	Blind      *big.Int                `json:"blind"`
	R          *thresholdsig.WirePoint `json:"r"`
}

// round2P2P is one slot's VSS hand-off; the wire message of round 2 groups
// the K-vector addressed to one peer.
type round2P2P struct {
	NonceVssScheme []*thresholdsig.WirePoint `json:"nonce_vss_scheme"`
	NonceOwnShare  *big.Int                  `json:"nonce_own_share"`
}

// NewOfflineGen builds the batched nonce generation machine: the keygen's
// three-round shape replicated noNonces times in parallel, exchanging
// vectors instead of sequential protocol instances.
func NewOfflineGen(keys *thresholdsig.Keys, i, t, n, noNonces uint16, parties []uint16) (*engine.Machine, error) {
	if n < 2 {
		return nil, ErrTooFewParties
	}
	if noNonces < 1 {
		return nil, ErrTooFewNonces
	}
	if t == 0 || t >= n {
		return nil, ErrInvalidThreshold
	}
	if i == 0 || i > n {
		return nil, ErrInvalidPartyIndex
	}
	stores := map[uint16]*engine.Store{
		1: engine.NewBroadcastStore(i, n),
		2: engine.NewP2PStore(i, n),
	}
	first := &round0{partyI: i, t: t, n: n, noNonces: noNonces, parties: parties, keys: keys}
	return engine.NewMachine(i, 2, first, stores)
}
