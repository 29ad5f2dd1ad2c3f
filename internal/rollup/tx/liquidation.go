package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
)

const liquidationBytes = 1 + 4 + 1 + 4 + types.FrBytes + 4 + 2 + 2

// Liquidation takes over an undercollateralized account's positions.
type Liquidation struct {
	AccountID            types.AccountID    `json:"accountId"`
	SubAccountID         types.SubAccountID `json:"subAccountId"`
	SubAccountNonce      types.Nonce        `json:"subAccountNonce"`
	OraclePrices         OraclePrices       `json:"oraclePrices"`
	LiquidationAccountID types.AccountID    `json:"liquidationAccountId"`
	Fee                  types.BigUint      `json:"fee"`
	FeeToken             types.TokenID      `json:"feeToken"`
	Signature            types.ZkSignature  `json:"signature"`
}

type LiquidationBuilder struct {
	AccountID            types.AccountID
	SubAccountID         types.SubAccountID
	SubAccountNonce      types.Nonce
	OraclePrices         *OraclePrices
	LiquidationAccountID types.AccountID
	Fee                  *big.Int
	FeeToken             types.TokenID
}

func NewLiquidation(b LiquidationBuilder) (*Liquidation, error) {
	prices := DefaultOraclePrices()
	if b.OraclePrices != nil {
		prices = b.OraclePrices.clone()
	}

	t := &Liquidation{
		AccountID:            b.AccountID,
		SubAccountID:         b.SubAccountID,
		SubAccountNonce:      b.SubAccountNonce,
		OraclePrices:         prices,
		LiquidationAccountID: b.LiquidationAccountID,
		Fee:                  types.NewBigUint(b.Fee),
		FeeToken:             b.FeeToken,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Liquidation) Type() Type { return TypeLiquidation }

func (t *Liquidation) Validate() error {
	v := &validator{}
	return v.account("accountId", t.AccountID).
		subAccount("subAccountId", t.SubAccountID).
		nonce("subAccountNonce", t.SubAccountNonce).
		nested("oraclePrices", t.OraclePrices.validate()).
		account("liquidationAccountId", t.LiquidationAccountID).
		packableFee("fee", bigOf(&t.Fee)).
		token("feeToken", t.FeeToken).
		result()
}

func (t *Liquidation) Encode() ([]byte, error) {
	prices, err := t.OraclePrices.Hash()
	if err != nil {
		return nil, err
	}

	return newEncoder(liquidationBytes).
		u8(uint8(TypeLiquidation)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.SubAccountID)).
		u32(uint32(t.SubAccountNonce)).
		raw(prices).
		u32(uint32(t.LiquidationAccountID)).
		u16(uint16(t.FeeToken)).
		packedFee("fee", bigOf(&t.Fee)).
		result()
}

func (t *Liquidation) RollupSignature() types.ZkSignature { return t.Signature }

func (t *Liquidation) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *Liquidation) Clone() Tx {
	c := *t
	c.OraclePrices = t.OraclePrices.clone()
	c.Fee = cloneBig(t.Fee)
	return &c
}
