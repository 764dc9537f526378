package types

// KeyScheme tags which signature scheme a payload belongs to.
type KeyScheme string

const (
	KeySchemeECDSA KeyScheme = "ECDSA"
	KeySchemeEDDSA KeyScheme = "EDDSA"
)

// KeygenMember is one row of the identity-to-index mapping the rendezvous
// room agrees on during keygen.
type KeygenMember struct {
	PartyName string `json:"partyName"`
	PartyId   int    `json:"partyId"`
}

// KeygenProgress is the room status document: progress percentage plus the
// members list.
type KeygenProgress struct {
	Progress int            `json:"progress"`
	Members  []KeygenMember `json:"members"`
}

// EncryptedLocalKey is the at-rest form of one scheme's key material. Both
// payloads are encryption envelopes of JSON documents.
type EncryptedLocalKey struct {
	Algorithm      string `json:"algorithm"`
	Pubkey         string `json:"pubkey"`
	EncryptedKey   string `json:"encryptedKey"`
	EncryptedNonce string `json:"encryptedNonce"`
}

// EncryptedKeygenWithScheme pairs an encrypted local key with its scheme and
// the nonce window the encrypted offline data covers.
type EncryptedKeygenWithScheme struct {
	KeyScheme         KeyScheme         `json:"keyScheme"`
	NonceStartIndex   int               `json:"nonceStartIndex"`
	NonceSize         int               `json:"nonceSize"`
	EncryptedLocalKey EncryptedLocalKey `json:"encryptedLocalKey"`
}

// EncryptedKeygenResult is the persisted keygen bundle: one entry per scheme
// plus the members list.
type EncryptedKeygenResult struct {
	PartyId                   int                         `json:"partyId"`
	EncryptedKeygenWithScheme []EncryptedKeygenWithScheme `json:"encryptedKeygenWithScheme"`
	Members                   []KeygenMember              `json:"members"`
}

// SignatureRecidHex is a final signature in hex form. Recid is meaningful
// for ECDSA only and 0 for EdDSA.
type SignatureRecidHex struct {
	R     string `json:"r"`
	S     string `json:"s"`
	Recid int    `json:"recid"`
}

// SignedPartialSignatureBase64 is one recorded partial signature on the
// wire: the serialized part is base64 of its JSON form.
type SignedPartialSignatureBase64 struct {
	PartyId    int    `json:"partyId"`
	PartBase64 string `json:"partBase64"`
	SignedAt   string `json:"signedAt"`
}

// SigningStateBase64 is the wire form of a signing state. KeyScheme tells
// the decoder which partial-signature variant to parse.
type SigningStateBase64 struct {
	T                  int                            `json:"t"`
	N                  int                            `json:"n"`
	KeyScheme          KeyScheme                      `json:"keyScheme"`
	Signature          *SignatureRecidHex             `json:"signature"`
	SigningPartsBase64 []SignedPartialSignatureBase64 `json:"signingPartsBase64"`
}

// IssueIndexRequest asks the rendezvous room for this party's index. Exactly
// one of PartyId (rejoin) and PartyName (fresh keygen) is set.
type IssueIndexRequest struct {
	Parties   []uint16 `json:"parties"`
	PartyId   *uint16  `json:"party_id"`
	PartyName *string  `json:"party_name"`
}

// KeygenRequest is the one-shot keygen job input.
type KeygenRequest struct {
	RequestId  string `json:"requestId"`
	Token      string `json:"token"`
	T          int    `json:"t"`
	N          int    `json:"n"`
	Address    string `json:"address"`
	Room       string `json:"room"`
	SignerName string `json:"signerName"`
	Password   string `json:"password"`
}

// GenerateNoncesRequest is the one-shot nonce refresh job input.
type GenerateNoncesRequest struct {
	RequestId         string            `json:"requestId"`
	Token             string            `json:"token"`
	Address           string            `json:"address"`
	Room              string            `json:"room"`
	NonceStartIndex   int               `json:"nonceStartIndex"`
	NonceSize         int               `json:"nonceSize"`
	EncryptedLocalKey EncryptedLocalKey `json:"encryptedLocalKey"`
	Password          string            `json:"password"`
}

// SigningRequest is the one-shot signing job input. Signers is used for
// ECDSA, Nonce for EdDSA.
type SigningRequest struct {
	KeyScheme         KeyScheme          `json:"keyScheme"`
	StateBase64       SigningStateBase64 `json:"stateBase64"`
	EncryptedLocalKey EncryptedLocalKey  `json:"encryptedLocalKey"`
	Password          string             `json:"password"`
	HexData           string             `json:"hexData"`
	PartyId           int                `json:"partyId"`
	Signers           []uint16           `json:"signers"`
	Nonce             int                `json:"nonce"`
}
