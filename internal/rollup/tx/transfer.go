package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
)

const transferBytes = 1 + 4 + 1 + types.AddressBytes + 1 + 2 + 5 + 2 + 4 + 4

// Transfer moves funds between rollup accounts.
type Transfer struct {
	AccountID        types.AccountID    `json:"accountId"`
	FromSubAccountID types.SubAccountID `json:"fromSubAccountId"`
	To               types.Address      `json:"to"`
	ToSubAccountID   types.SubAccountID `json:"toSubAccountId"`
	Token            types.TokenID      `json:"token"`
	Amount           types.BigUint      `json:"amount"`
	Fee              types.BigUint      `json:"fee"`
	Nonce            types.Nonce        `json:"nonce"`
	Signature        types.ZkSignature  `json:"signature"`
	Timestamp        types.TimeStamp    `json:"ts"`
}

type TransferBuilder struct {
	AccountID        types.AccountID
	FromSubAccountID types.SubAccountID
	ToAddress        types.Address
	ToSubAccountID   types.SubAccountID
	Token            types.TokenID
	Amount           *big.Int
	Fee              *big.Int
	Nonce            types.Nonce
	Timestamp        types.TimeStamp
}

func NewTransfer(b TransferBuilder) (*Transfer, error) {
	t := &Transfer{
		AccountID:        b.AccountID,
		FromSubAccountID: b.FromSubAccountID,
		To:               b.ToAddress,
		ToSubAccountID:   b.ToSubAccountID,
		Token:            b.Token,
		Amount:           types.NewBigUint(b.Amount),
		Fee:              types.NewBigUint(b.Fee),
		Nonce:            b.Nonce,
		Timestamp:        b.Timestamp,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transfer) Type() Type { return TypeTransfer }

func (t *Transfer) Validate() error {
	v := &validator{}
	return v.account("accountId", t.AccountID).
		subAccount("fromSubAccountId", t.FromSubAccountID).
		address("to", t.To).
		subAccount("toSubAccountId", t.ToSubAccountID).
		token("token", t.Token).
		packableAmount("amount", bigOf(&t.Amount)).
		nonZero("amount", bigOf(&t.Amount)).
		packableFee("fee", bigOf(&t.Fee)).
		nonce("nonce", t.Nonce).
		result()
}

func (t *Transfer) Encode() ([]byte, error) {
	return newEncoder(transferBytes).
		u8(uint8(TypeTransfer)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.FromSubAccountID)).
		raw(t.To[:]).
		u8(uint8(t.ToSubAccountID)).
		u16(uint16(t.Token)).
		packedAmount("amount", bigOf(&t.Amount)).
		packedFee("fee", bigOf(&t.Fee)).
		u32(uint32(t.Nonce)).
		u32(uint32(t.Timestamp)).
		result()
}

func (t *Transfer) RollupSignature() types.ZkSignature { return t.Signature }

func (t *Transfer) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *Transfer) Clone() Tx {
	c := *t
	c.Amount = cloneBig(t.Amount)
	c.Fee = cloneBig(t.Fee)
	return &c
}
