package dispatcher

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/keypuzzlewallet/tss/eddsa/presign"
	"github.com/keypuzzlewallet/tss/mpc"
	"github.com/keypuzzlewallet/tss/rendezvous"
	"github.com/keypuzzlewallet/tss/signer"
	"github.com/keypuzzlewallet/tss/types"
	"github.com/keypuzzlewallet/tss/wallet"
)

// One-shot jobs: each takes a JSON-decoded request, runs to completion and
// returns a JSON-encodable response. Secret material exists in cleartext
// only inside the job.

// Keygen runs the full keygen pipeline and returns the encrypted bundle.
func Keygen(ctx context.Context, req *types.KeygenRequest) (*types.EncryptedKeygenResult, error) {
	tr, err := rendezvous.NewHTTPTransport(req.Address, req.RequestId, req.Token)
	if err != nil {
		return nil, err
	}
	result, err := mpc.KeygenAndOffline(ctx, tr, req.Room, uint16(req.T), uint16(req.N), wallet.MaxNoncePerRefresh, req.SignerName)
	if err != nil {
		return nil, err
	}
	return wallet.EncryptKeygenResult(result, req.Password)
}

// GenerateNonces refreshes the EdDSA nonce window: it decrypts the local
// key, runs the batched nonce protocol for the requested range and returns
// the re-encrypted bundle.
func GenerateNonces(ctx context.Context, req *types.GenerateNoncesRequest) (*types.EncryptedKeygenWithScheme, error) {
	tr, err := rendezvous.NewHTTPTransport(req.Address, req.RequestId, req.Token)
	if err != nil {
		return nil, err
	}
	keyData, err := wallet.DecryptEddsa(&req.EncryptedLocalKey, req.Password)
	if err != nil {
		return nil, err
	}
	offline, err := presign.GenerateDynamicNonces(ctx, tr, req.Room, uint16(req.NonceStartIndex), uint16(req.NonceSize), &keyData.LocalKey)
	if err != nil {
		return nil, err
	}
	return wallet.EncryptEddsa(&keyData.LocalKey, offline, req.Password, keyData.Algorithm)
}

// Sign applies one party's partial signature to a signing state and returns
// the updated wire form.
func Sign(req *types.SigningRequest) (*types.SigningStateBase64, error) {
	state, err := signer.StateFromBase64(&req.StateBase64)
	if err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(req.HexData)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex data")
	}
	if req.KeyScheme == types.KeySchemeECDSA {
		keyData, err := wallet.DecryptEcdsa(&req.EncryptedLocalKey, req.Password)
		if err != nil {
			return nil, err
		}
		if err := signer.SignEcdsa(state, keyData, data, uint16(req.PartyId), req.Signers); err != nil {
			return nil, err
		}
	} else {
		keyData, err := wallet.DecryptEddsa(&req.EncryptedLocalKey, req.Password)
		if err != nil {
			return nil, err
		}
		if err := signer.SignEddsa(state, keyData, data, uint16(req.PartyId), req.Nonce); err != nil {
			return nil, err
		}
	}
	return signer.StateToBase64(req.KeyScheme, state)
}
