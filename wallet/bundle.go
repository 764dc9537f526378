package wallet

import (
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/btcec"
	"github.com/decred/dcrd/dcrec/edwards/v2"
	"github.com/pkg/errors"

	"github.com/binance-chain/tss-lib/ecdsa/keygen"
	"github.com/binance-chain/tss-lib/tss"

	eddsakeygen "github.com/keypuzzlewallet/tss/eddsa/keygen"
	"github.com/keypuzzlewallet/tss/eddsa/presign"
	"github.com/keypuzzlewallet/tss/gg20"
	"github.com/keypuzzlewallet/tss/types"
)

const (
	AlgorithmGG20     = "gg20"
	AlgorithmTEd25519 = "t_ed25519"

	// MaxNoncePerRefresh is the size of one EdDSA nonce batch: how many
	// signatures a wallet can make before the next refresh.
	MaxNoncePerRefresh = 10
)

// EcdsaKeyData is a wallet's ECDSA material: the long-term local key plus
// one completed offline stage per precomputed signer subset.
type EcdsaKeyData struct {
	LocalKey    keygen.LocalPartySaveData `json:"local_key"`
	OfflineData []gg20.OfflineResult      `json:"offline_data"`
	Algorithm   string                    `json:"algorithm"`
}

// EddsaKeyData is a wallet's EdDSA material: the local key plus the current
// nonce batch.
type EddsaKeyData struct {
	LocalKey    eddsakeygen.LocalKey  `json:"local_key"`
	OfflineData presign.OfflineResult `json:"offline_data"`
	Algorithm   string                `json:"algorithm"`
}

// KeygenResult is the full output of the keygen pipeline, before encryption.
type KeygenResult struct {
	PartyID uint16               `json:"party_id"`
	Ecdsa   EcdsaKeyData         `json:"ecdsa"`
	Eddsa   EddsaKeyData         `json:"eddsa"`
	Members []types.KeygenMember `json:"members"`
}

// EncryptKeygenResult seals both schemes' key material for persistence. The
// cleartext never leaves the process in any other form.
func EncryptKeygenResult(result *KeygenResult, password string) (*types.EncryptedKeygenResult, error) {
	ecdsaBundle, err := encryptEcdsa(&result.Ecdsa, password)
	if err != nil {
		return nil, err
	}
	eddsaBundle, err := EncryptEddsa(&result.Eddsa.LocalKey, &result.Eddsa.OfflineData, password, result.Eddsa.Algorithm)
	if err != nil {
		return nil, err
	}
	return &types.EncryptedKeygenResult{
		PartyId:                   int(result.PartyID),
		EncryptedKeygenWithScheme: []types.EncryptedKeygenWithScheme{*ecdsaBundle, *eddsaBundle},
		Members:                   result.Members,
	}, nil
}

func encryptEcdsa(data *EcdsaKeyData, password string) (*types.EncryptedKeygenWithScheme, error) {
	pub := (&btcec.PublicKey{Curve: tss.S256(), X: data.LocalKey.ECDSAPub.X(), Y: data.LocalKey.ECDSAPub.Y()}).SerializeCompressed()
	encryptedKey, err := encryptJSON(&data.LocalKey, password)
	if err != nil {
		return nil, errors.Wrap(err, "encrypt ECDSA local key")
	}
	encryptedNonce, err := encryptJSON(data.OfflineData, password)
	if err != nil {
		return nil, errors.Wrap(err, "encrypt ECDSA offline data")
	}
	return &types.EncryptedKeygenWithScheme{
		KeyScheme:       types.KeySchemeECDSA,
		NonceStartIndex: 0,
		NonceSize:       1,
		EncryptedLocalKey: types.EncryptedLocalKey{
			Algorithm:      data.Algorithm,
			Pubkey:         hex.EncodeToString(pub),
			EncryptedKey:   encryptedKey,
			EncryptedNonce: encryptedNonce,
		},
	}, nil
}

// EncryptEddsa seals an EdDSA local key with a nonce batch; it is also used
// standalone after a nonce refresh.
func EncryptEddsa(localKey *eddsakeygen.LocalKey, offline *presign.OfflineResult, password, algorithm string) (*types.EncryptedKeygenWithScheme, error) {
	pub := edwards.PublicKey{Curve: tss.Edwards(), X: localKey.AggPubkey.X(), Y: localKey.AggPubkey.Y()}
	encryptedKey, err := encryptJSON(localKey, password)
	if err != nil {
		return nil, errors.Wrap(err, "encrypt EDDSA local key")
	}
	encryptedNonce, err := encryptJSON(offline, password)
	if err != nil {
		return nil, errors.Wrap(err, "encrypt EDDSA nonce data")
	}
	return &types.EncryptedKeygenWithScheme{
		KeyScheme:       types.KeySchemeEDDSA,
		NonceStartIndex: int(offline.NonceStartIndex),
		NonceSize:       int(offline.NonceSize),
		EncryptedLocalKey: types.EncryptedLocalKey{
			Algorithm:      algorithm,
			Pubkey:         hex.EncodeToString(pub.Serialize()),
			EncryptedKey:   encryptedKey,
			EncryptedNonce: encryptedNonce,
		},
	}, nil
}

// DecryptEcdsa opens a persisted ECDSA bundle. Curve pointers are restored
// after decoding; the JSON form does not carry them.
func DecryptEcdsa(localKey *types.EncryptedLocalKey, password string) (*EcdsaKeyData, error) {
	tss.SetCurve(tss.S256())
	data := EcdsaKeyData{Algorithm: localKey.Algorithm}
	if err := decryptJSON(localKey.EncryptedKey, password, &data.LocalKey, "failed decrypt ECDSA localKey"); err != nil {
		return nil, err
	}
	if err := decryptJSON(localKey.EncryptedNonce, password, &data.OfflineData, "failed decrypt ECDSA Nonce"); err != nil {
		return nil, err
	}
	for _, point := range data.LocalKey.BigXj {
		point.SetCurve(tss.S256())
	}
	data.LocalKey.ECDSAPub.SetCurve(tss.S256())
	return &data, nil
}

// DecryptEddsa opens a persisted EdDSA bundle.
func DecryptEddsa(localKey *types.EncryptedLocalKey, password string) (*EddsaKeyData, error) {
	tss.SetCurve(tss.Edwards())
	data := EddsaKeyData{Algorithm: localKey.Algorithm}
	if err := decryptJSON(localKey.EncryptedKey, password, &data.LocalKey, "failed decrypt EDDSA localKey"); err != nil {
		return nil, err
	}
	if err := decryptJSON(localKey.EncryptedNonce, password, &data.OfflineData, "failed decrypt EDDSA Nonce"); err != nil {
		return nil, err
	}
	return &data, nil
}

func encryptJSON(v interface{}, password string) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Encrypt(string(payload), password)
}

func decryptJSON(envelope, password string, out interface{}, context string) error {
	plaintext, err := Decrypt(envelope, password)
	if err != nil {
		return errors.Wrap(err, context)
	}
	if err := json.Unmarshal([]byte(plaintext), out); err != nil {
		return errors.Wrap(err, context)
	}
	return nil
}
