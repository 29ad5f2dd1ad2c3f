package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
)

const withdrawBytes = 1 + 1 + 4 + 1 + types.AddressBytes + 2 + 2 + types.BalanceBytes + 2 + 4 + 1 + 2 + 4

// Withdraw moves funds from the rollup to a base-chain address.
type Withdraw struct {
	ToChainID        types.ChainID      `json:"toChainId"`
	AccountID        types.AccountID    `json:"accountId"`
	SubAccountID     types.SubAccountID `json:"subAccountId"`
	To               types.Address      `json:"to"`
	L2SourceToken    types.TokenID      `json:"l2SourceToken"`
	L1TargetToken    types.TokenID      `json:"l1TargetToken"`
	Amount           types.BigUint      `json:"amount"`
	Fee              types.BigUint      `json:"fee"`
	Nonce            types.Nonce        `json:"nonce"`
	Signature        types.ZkSignature  `json:"signature"`
	WithdrawToL1     Flag               `json:"withdrawToL1"`
	WithdrawFeeRatio uint16             `json:"withdrawFeeRatio"`
	Timestamp        types.TimeStamp    `json:"ts"`
}

type WithdrawBuilder struct {
	AccountID        types.AccountID
	SubAccountID     types.SubAccountID
	ToChainID        types.ChainID
	ToAddress        types.Address
	L2SourceToken    types.TokenID
	L1TargetToken    types.TokenID
	Amount           *big.Int
	Fee              *big.Int
	Nonce            types.Nonce
	WithdrawToL1     bool
	WithdrawFeeRatio uint16
	Timestamp        types.TimeStamp
}

func NewWithdraw(b WithdrawBuilder) (*Withdraw, error) {
	t := &Withdraw{
		ToChainID:        b.ToChainID,
		AccountID:        b.AccountID,
		SubAccountID:     b.SubAccountID,
		To:               b.ToAddress,
		L2SourceToken:    b.L2SourceToken,
		L1TargetToken:    b.L1TargetToken,
		Amount:           types.NewBigUint(b.Amount),
		Fee:              types.NewBigUint(b.Fee),
		Nonce:            b.Nonce,
		WithdrawToL1:     Flag(b.WithdrawToL1),
		WithdrawFeeRatio: b.WithdrawFeeRatio,
		Timestamp:        b.Timestamp,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Withdraw) Type() Type { return TypeWithdraw }

func (t *Withdraw) Validate() error {
	v := &validator{}
	return v.chain("toChainId", t.ToChainID).
		account("accountId", t.AccountID).
		subAccount("subAccountId", t.SubAccountID).
		address("to", t.To).
		token("l2SourceToken", t.L2SourceToken).
		token("l1TargetToken", t.L1TargetToken).
		unpackable("amount", bigOf(&t.Amount)).
		nonZero("amount", bigOf(&t.Amount)).
		packableFee("fee", bigOf(&t.Fee)).
		nonce("nonce", t.Nonce).
		withdrawFeeRatio("withdrawFeeRatio", t.WithdrawFeeRatio).
		result()
}

func (t *Withdraw) Encode() ([]byte, error) {
	return newEncoder(withdrawBytes).
		u8(uint8(TypeWithdraw)).
		u8(uint8(t.ToChainID)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.SubAccountID)).
		raw(t.To[:]).
		u16(uint16(t.L2SourceToken)).
		u16(uint16(t.L1TargetToken)).
		uint("amount", bigOf(&t.Amount), types.BalanceBytes).
		packedFee("fee", bigOf(&t.Fee)).
		u32(uint32(t.Nonce)).
		flag(bool(t.WithdrawToL1)).
		u16(t.WithdrawFeeRatio).
		u32(uint32(t.Timestamp)).
		result()
}

func (t *Withdraw) RollupSignature() types.ZkSignature { return t.Signature }

func (t *Withdraw) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *Withdraw) Clone() Tx {
	c := *t
	c.Amount = cloneBig(t.Amount)
	c.Fee = cloneBig(t.Fee)
	return &c
}
