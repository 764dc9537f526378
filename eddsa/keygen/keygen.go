package keygen

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/crypto/vss"

	"github.com/keypuzzlewallet/tss/engine"
	"github.com/keypuzzlewallet/tss/eddsa/thresholdsig"
)

var (
	ErrTooFewParties     = errors.New("at least 2 parties are required for keygen")
	ErrInvalidThreshold  = errors.New("threshold is not in range [1; n-1]")
	ErrInvalidPartyIndex = errors.New("party index is not in range [1; n]")
)

// LocalKey is the terminal output of the EdDSA keygen: this party's combined
// share plus everything needed to verify and combine signatures later.
type LocalKey struct {
	CombinedShare *thresholdsig.SharedKeys `json:"combined_share"`
	VssSchemes    []vss.Vs                 `json:"vss_schemes"`
	AggPubkey     *crypto.ECPoint          `json:"agg_pubkey"`
	PubkeysList   []*crypto.ECPoint        `json:"pubkeys_list"`
	Keypair       *thresholdsig.Keys       `json:"keypair"`
	PartyI        uint16                   `json:"party_i"`
	T             uint16                   `json:"t"`
	N             uint16                   `json:"n"`
}

// round1Broadcast opens the keygen: a commitment to the party's public
// point, the blind that opens it, and the point itself.
type round1Broadcast struct {
	Commitment *big.Int                `json:"commitment"`
	Blind      *big.Int                `json:"blind"`
	PublicKey  *thresholdsig.WirePoint `json:"public_key"`
}

// round2P2P carries one party's VSS scheme and the receiver's secret share
// of its scalar.
type round2P2P struct {
	VssScheme []*thresholdsig.WirePoint `json:"vss_scheme"`
	OwnShare  *big.Int                  `json:"own_share"`
}

// NewKeygen builds the three-round keygen machine for party i of n with
// threshold t. Rounds: broadcast commitment; open + aggregate + distribute
// VSS shares; verify + combine.
func NewKeygen(i, t, n uint16) (*engine.Machine, error) {
	if n < 2 {
		return nil, ErrTooFewParties
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
	return engine.NewMachine(i, 2, &round0{partyI: i, t: t, n: n}, stores)
}
