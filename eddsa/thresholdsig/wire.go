package thresholdsig

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/crypto"
	"github.com/binance-chain/tss-lib/crypto/vss"
	"github.com/binance-chain/tss-lib/tss"
)

// WirePoint is the transport form of a curve point. Wire messages carry raw
// coordinates and are bound to the edwards curve explicitly on decode, so
// decoding never depends on process-global curve state.
type WirePoint struct {
	X *big.Int `json:"x"`
	Y *big.Int `json:"y"`
}

func NewWirePoint(p *crypto.ECPoint) *WirePoint {
	return &WirePoint{X: p.X(), Y: p.Y()}
}

func (w *WirePoint) Point() (*crypto.ECPoint, error) {
	if w == nil || w.X == nil || w.Y == nil {
		return nil, errors.New("wire point is missing coordinates")
	}
	point, err := crypto.NewECPoint(tss.Edwards(), w.X, w.Y)
	if err != nil {
		return nil, errors.Wrap(err, "wire point is not on the edwards curve")
	}
	return point, nil
}

// WireScheme converts a VSS commitment vector to its transport form.
func WireScheme(vs vss.Vs) []*WirePoint {
	out := make([]*WirePoint, len(vs))
	for i, p := range vs {
		out[i] = NewWirePoint(p)
	}
	return out
}

// SchemeFromWire rebuilds a VSS commitment vector, validating every point.
func SchemeFromWire(ws []*WirePoint) (vss.Vs, error) {
	out := make(vss.Vs, len(ws))
	for i, w := range ws {
		point, err := w.Point()
		if err != nil {
			return nil, err
		}
		out[i] = point
	}
	return out, nil
}
