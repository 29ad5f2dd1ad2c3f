// Package tx models rollup transactions and their canonical byte encoding.
package tx

import (
	"crypto/sha256"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
)

// Type is the leading byte of a transaction's canonical encoding.
type Type uint8

const (
	TypeWithdraw         Type = 0x03
	TypeTransfer         Type = 0x04
	TypeChangePubKey     Type = 0x06
	TypeForcedExit       Type = 0x07
	TypeOrderMatching    Type = 0x08
	TypeContractMatching Type = 0x09
	TypeLiquidation      Type = 0x0a
	TypeAutoDeleveraging Type = 0x0b
	TypeUpdateGlobalVar  Type = 0x0c
	TypeFunding          Type = 0x0d
)

// Message type bytes of the signed order intents embedded in matching transactions.
const (
	orderMsgType    = 0xff
	contractMsgType = 0xfe
)

var typeNames = map[Type]string{ //nolint:gochecknoglobals
	TypeWithdraw:         "Withdraw",
	TypeTransfer:         "Transfer",
	TypeChangePubKey:     "ChangePubKey",
	TypeForcedExit:       "ForcedExit",
	TypeOrderMatching:    "OrderMatching",
	TypeContractMatching: "ContractMatching",
	TypeLiquidation:      "Liquidation",
	TypeAutoDeleveraging: "AutoDeleveraging",
	TypeUpdateGlobalVar:  "UpdateGlobalVar",
	TypeFunding:          "Funding",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseType resolves a wire name such as "Transfer".
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown transaction type %q", name)
}

// AuthPolicy says whether a transaction kind carries a base-chain proof.
type AuthPolicy int

const (
	AuthNone AuthPolicy = iota
	AuthOptional
	AuthRequired
)

func (t Type) AuthPolicy() AuthPolicy {
	switch t {
	case TypeChangePubKey:
		return AuthRequired
	case TypeTransfer, TypeWithdraw, TypeForcedExit, TypeOrderMatching:
		return AuthOptional
	default:
		return AuthNone
	}
}

// Tx is implemented by every transaction kind.
type Tx interface {
	Type() Type
	// Validate reports the first out-of-range field as a *types.ValidationError.
	Validate() error
	// Encode returns the canonical bytes the rollup signature covers.
	Encode() ([]byte, error)
	RollupSignature() types.ZkSignature
	SetRollupSignature(sig types.ZkSignature)
	// Clone returns a deep copy.
	Clone() Tx
}

// Hash is the SHA-256 of the canonical encoding.
func Hash(t Tx) (types.TxHash, error) {
	b, err := t.Encode()
	if err != nil {
		return types.TxHash{}, err
	}
	return HashBytes(b), nil
}

// HashBytes hashes already encoded transaction bytes.
func HashBytes(b []byte) types.TxHash {
	return sha256.Sum256(b)
}

// MarshalTx produces the operator's JSON form: the transaction fields plus a "type" tag.
func MarshalTx(t Tx) ([]byte, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s", t.Type())
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, errors.Wrap(err, "failed to reshape transaction json")
	}
	fields["type"], _ = json.Marshal(t.Type().String())

	return json.Marshal(fields) //nolint:wrapcheck
}

// UnmarshalTx decodes a tagged transaction and validates it.
func UnmarshalTx(data []byte) (Tx, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, "failed to read transaction type")
	}

	typ, err := ParseType(head.Type)
	if err != nil {
		return nil, err
	}

	t := newEmpty(typ)
	if err := json.Unmarshal(data, t); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", typ)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func newEmpty(t Type) Tx {
	switch t {
	case TypeWithdraw:
		return &Withdraw{}
	case TypeTransfer:
		return &Transfer{}
	case TypeChangePubKey:
		return &ChangePubKey{}
	case TypeForcedExit:
		return &ForcedExit{}
	case TypeOrderMatching:
		return &OrderMatching{}
	case TypeContractMatching:
		return &ContractMatching{}
	case TypeLiquidation:
		return &Liquidation{}
	case TypeAutoDeleveraging:
		return &AutoDeleveraging{}
	case TypeUpdateGlobalVar:
		return &UpdateGlobalVar{}
	case TypeFunding:
		return &Funding{}
	default:
		panic("unreachable transaction type")
	}
}

func cloneBig(b types.BigUint) types.BigUint {
	return types.NewBigUint(&b.Int)
}

func bigOf(b *types.BigUint) *big.Int {
	return &b.Int
}
