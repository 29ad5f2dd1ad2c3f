package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
)

const orderBytes = 1 + 4 + 1 + 2 + types.OrderNonceBytes + 2 + 2 + types.PriceBytes + 1 + 2 + 1 + 5

// Order is a spot trading intent signed by its owner and embedded in an OrderMatching.
type Order struct {
	AccountID    types.AccountID    `json:"accountId"`
	SubAccountID types.SubAccountID `json:"subAccountId"`
	SlotID       types.SlotID       `json:"slotId"`
	Nonce        types.Nonce        `json:"nonce"`
	BaseTokenID  types.TokenID      `json:"baseTokenId"`
	QuoteTokenID types.TokenID      `json:"quoteTokenId"`
	Amount       types.BigUint      `json:"amount"`
	Price        types.BigUint      `json:"price"`
	IsSell       Flag               `json:"isSell"`
	HasSubsidy   Flag               `json:"hasSubsidy"`
	// FeeRates holds the maker and taker rates, 100 = 1%.
	FeeRates  [2]uint8          `json:"feeRates"`
	Signature types.ZkSignature `json:"signature"`
}

type OrderBuilder struct {
	AccountID    types.AccountID
	SubAccountID types.SubAccountID
	SlotID       types.SlotID
	Nonce        types.Nonce
	BaseTokenID  types.TokenID
	QuoteTokenID types.TokenID
	Amount       *big.Int
	Price        *big.Int
	IsSell       bool
	HasSubsidy   bool
	MakerFeeRate uint8
	TakerFeeRate uint8
}

func NewOrder(b OrderBuilder) (*Order, error) {
	o := &Order{
		AccountID:    b.AccountID,
		SubAccountID: b.SubAccountID,
		SlotID:       b.SlotID,
		Nonce:        b.Nonce,
		BaseTokenID:  b.BaseTokenID,
		QuoteTokenID: b.QuoteTokenID,
		Amount:       types.NewBigUint(b.Amount),
		Price:        types.NewBigUint(b.Price),
		IsSell:       Flag(b.IsSell),
		HasSubsidy:   Flag(b.HasSubsidy),
		FeeRates:     [2]uint8{b.MakerFeeRate, b.TakerFeeRate},
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) Validate() error {
	v := &validator{}
	return v.account("accountId", o.AccountID).
		subAccount("subAccountId", o.SubAccountID).
		slot("slotId", o.SlotID).
		orderNonce("nonce", o.Nonce).
		token("baseTokenId", o.BaseTokenID).
		token("quoteTokenId", o.QuoteTokenID).
		packableAmount("amount", bigOf(&o.Amount)).
		price("price", bigOf(&o.Price)).
		result()
}

// Encode returns the bytes the order owner signs.
func (o *Order) Encode() ([]byte, error) {
	return newEncoder(orderBytes).
		u8(orderMsgType).
		u32(uint32(o.AccountID)).
		u8(uint8(o.SubAccountID)).
		u16(uint16(o.SlotID)).
		u24(uint32(o.Nonce)).
		u16(uint16(o.BaseTokenID)).
		u16(uint16(o.QuoteTokenID)).
		uint("price", bigOf(&o.Price), types.PriceBytes).
		flag(bool(o.IsSell)).
		raw(o.FeeRates[:]).
		flag(bool(o.HasSubsidy)).
		packedAmount("amount", bigOf(&o.Amount)).
		result()
}

func (o *Order) clone() Order {
	c := *o
	c.Amount = cloneBig(o.Amount)
	c.Price = cloneBig(o.Price)
	return c
}
