package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// PubKeyHash binds a rollup public key to a base-chain account.
type PubKeyHash [PubKeyHashBytes]byte

// ParsePubKeyHash decodes a 0x-prefixed 20 byte hex string.
func ParsePubKeyHash(s string) (PubKeyHash, error) {
	var h PubKeyHash
	if err := decodeFixedHex(s, h[:]); err != nil {
		return h, errors.Wrap(err, "invalid pubkey hash")
	}
	return h, nil
}

func (h PubKeyHash) IsZero() bool {
	return h == PubKeyHash{}
}

func (h PubKeyHash) String() string {
	return hexutil.Encode(h[:])
}

func (h PubKeyHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *PubKeyHash) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, h[:])
}

// TxHash is the SHA-256 digest of a transaction's canonical bytes.
type TxHash [32]byte

// ParseTxHash decodes a 0x-prefixed 32 byte hex string.
func ParseTxHash(s string) (TxHash, error) {
	var h TxHash
	if err := decodeFixedHex(s, h[:]); err != nil {
		return h, errors.Wrap(err, "invalid tx hash")
	}
	return h, nil
}

func (h TxHash) IsZero() bool {
	return h == TxHash{}
}

func (h TxHash) String() string {
	return hexutil.Encode(h[:])
}

func (h TxHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *TxHash) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, h[:])
}

// Rollup signature sizes.
const (
	PackedPubKeyBytes    = 32
	PackedSignatureBytes = 64
)

// ZkSignature is a rollup-native signature together with the signing public key.
type ZkSignature struct {
	PubKey    [PackedPubKeyBytes]byte
	Signature [PackedSignatureBytes]byte
}

// IsZero reports whether no signature has been attached.
func (s ZkSignature) IsZero() bool {
	return s == ZkSignature{}
}

type zkSignatureJSON struct {
	PubKey    string `json:"pubKey"`
	Signature string `json:"signature"`
}

func (s ZkSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal(zkSignatureJSON{
		PubKey:    hexutil.Encode(s.PubKey[:]),
		Signature: hexutil.Encode(s.Signature[:]),
	})
}

func (s *ZkSignature) UnmarshalJSON(data []byte) error {
	var raw zkSignatureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "invalid signature json")
	}
	if err := decodeFixedHex(raw.PubKey, s.PubKey[:]); err != nil {
		return errors.Wrap(err, "invalid signature pubkey")
	}
	if err := decodeFixedHex(raw.Signature, s.Signature[:]); err != nil {
		return errors.Wrap(err, "invalid signature bytes")
	}
	return nil
}

func decodeFixedHex(s string, out []byte) error {
	raw, err := hexutil.Decode(normalizeHex(s))
	if err != nil {
		return err //nolint:wrapcheck
	}
	if len(raw) != len(out) {
		return errors.Errorf("expected %d bytes, got %d", len(out), len(raw))
	}
	copy(out, raw)
	return nil
}

func unmarshalFixedHex(data []byte, out []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "expected hex string")
	}
	return decodeFixedHex(s, out)
}
