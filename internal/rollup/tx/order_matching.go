package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/rollup/zkhash"
)

const orderMatchingBytes = 1 + 4 + 1 + types.FrBytes + 2 + 2 + 2*types.BalanceBytes

// OrderMatching settles a maker and a taker spot order.
type OrderMatching struct {
	AccountID         types.AccountID    `json:"accountId"`
	SubAccountID      types.SubAccountID `json:"subAccountId"`
	Taker             Order              `json:"taker"`
	Maker             Order              `json:"maker"`
	OraclePrices      OraclePrices       `json:"oraclePrices"`
	Fee               types.BigUint      `json:"fee"`
	FeeToken          types.TokenID      `json:"feeToken"`
	ExpectBaseAmount  types.BigUint      `json:"expectBaseAmount"`
	ExpectQuoteAmount types.BigUint      `json:"expectQuoteAmount"`
	Signature         types.ZkSignature  `json:"signature"`
}

type OrderMatchingBuilder struct {
	AccountID    types.AccountID
	SubAccountID types.SubAccountID
	Taker        *Order
	Maker        *Order
	// OraclePrices defaults to zero prices when nil.
	OraclePrices      *OraclePrices
	Fee               *big.Int
	FeeToken          types.TokenID
	ExpectBaseAmount  *big.Int
	ExpectQuoteAmount *big.Int
}

func NewOrderMatching(b OrderMatchingBuilder) (*OrderMatching, error) {
	if b.Taker == nil || b.Maker == nil {
		return nil, types.NewValidationError("orders", "maker and taker are required")
	}

	prices := DefaultOraclePrices()
	if b.OraclePrices != nil {
		prices = b.OraclePrices.clone()
	}

	t := &OrderMatching{
		AccountID:         b.AccountID,
		SubAccountID:      b.SubAccountID,
		Taker:             b.Taker.clone(),
		Maker:             b.Maker.clone(),
		OraclePrices:      prices,
		Fee:               types.NewBigUint(b.Fee),
		FeeToken:          b.FeeToken,
		ExpectBaseAmount:  types.NewBigUint(b.ExpectBaseAmount),
		ExpectQuoteAmount: types.NewBigUint(b.ExpectQuoteAmount),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *OrderMatching) Type() Type { return TypeOrderMatching }

func (t *OrderMatching) Validate() error {
	v := &validator{}
	v.account("accountId", t.AccountID).
		subAccount("subAccountId", t.SubAccountID).
		nested("maker", t.Maker.Validate()).
		nested("taker", t.Taker.Validate()).
		nested("oraclePrices", t.OraclePrices.validate()).
		packableFee("fee", bigOf(&t.Fee)).
		token("feeToken", t.FeeToken).
		unpackable("expectBaseAmount", bigOf(&t.ExpectBaseAmount)).
		unpackable("expectQuoteAmount", bigOf(&t.ExpectQuoteAmount))

	if t.Maker.Signature.IsZero() {
		v.fail("maker.signature", "order is not signed")
	}
	if t.Taker.Signature.IsZero() {
		v.fail("taker.signature", "order is not signed")
	}
	return v.result()
}

// OrdersHash commits to both orders and the oracle prices.
func (t *OrderMatching) OrdersHash() ([]byte, error) {
	maker, err := t.Maker.Encode()
	if err != nil {
		return nil, err
	}
	taker, err := t.Taker.Encode()
	if err != nil {
		return nil, err
	}
	prices, err := t.OraclePrices.Hash()
	if err != nil {
		return nil, err
	}

	orders := make([]byte, 0, types.OrdersBytes)
	orders = append(orders, maker...)
	orders = append(orders, taker...)
	orders = append(orders, prices...)
	return zkhash.HashOrders(resize(orders, types.OrdersBytes)), nil
}

func (t *OrderMatching) Encode() ([]byte, error) {
	orders, err := t.OrdersHash()
	if err != nil {
		return nil, err
	}

	return newEncoder(orderMatchingBytes).
		u8(uint8(TypeOrderMatching)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.SubAccountID)).
		raw(orders).
		u16(uint16(t.FeeToken)).
		packedFee("fee", bigOf(&t.Fee)).
		uint("expectBaseAmount", bigOf(&t.ExpectBaseAmount), types.BalanceBytes).
		uint("expectQuoteAmount", bigOf(&t.ExpectQuoteAmount), types.BalanceBytes).
		result()
}

func (t *OrderMatching) RollupSignature() types.ZkSignature { return t.Signature }

func (t *OrderMatching) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *OrderMatching) Clone() Tx {
	c := *t
	c.Taker = t.Taker.clone()
	c.Maker = t.Maker.clone()
	c.OraclePrices = t.OraclePrices.clone()
	c.Fee = cloneBig(t.Fee)
	c.ExpectBaseAmount = cloneBig(t.ExpectBaseAmount)
	c.ExpectQuoteAmount = cloneBig(t.ExpectQuoteAmount)
	return &c
}
