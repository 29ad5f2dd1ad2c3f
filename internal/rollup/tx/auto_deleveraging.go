package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
)

const autoDeleveragingBytes = 1 + 4 + 1 + 4 + types.FrBytes + 4 + 1 + 5 + types.PriceBytes + 2 + 2

// AutoDeleveraging closes part of a counterparty position when the insurance fund cannot cover a loss.
type AutoDeleveraging struct {
	AccountID       types.AccountID    `json:"accountId"`
	SubAccountID    types.SubAccountID `json:"subAccountId"`
	SubAccountNonce types.Nonce        `json:"subAccountNonce"`
	OraclePrices    OraclePrices       `json:"oraclePrices"`
	AdlAccountID    types.AccountID    `json:"adlAccountId"`
	PairID          types.PairID       `json:"pairId"`
	AdlSize         types.BigUint      `json:"adlSize"`
	AdlPrice        types.BigUint      `json:"adlPrice"`
	Fee             types.BigUint      `json:"fee"`
	FeeToken        types.TokenID      `json:"feeToken"`
	Signature       types.ZkSignature  `json:"signature"`
}

type AutoDeleveragingBuilder struct {
	AccountID       types.AccountID
	SubAccountID    types.SubAccountID
	SubAccountNonce types.Nonce
	OraclePrices    *OraclePrices
	AdlAccountID    types.AccountID
	PairID          types.PairID
	AdlSize         *big.Int
	AdlPrice        *big.Int
	Fee             *big.Int
	FeeToken        types.TokenID
}

func NewAutoDeleveraging(b AutoDeleveragingBuilder) (*AutoDeleveraging, error) {
	prices := DefaultOraclePrices()
	if b.OraclePrices != nil {
		prices = b.OraclePrices.clone()
	}

	t := &AutoDeleveraging{
		AccountID:       b.AccountID,
		SubAccountID:    b.SubAccountID,
		SubAccountNonce: b.SubAccountNonce,
		OraclePrices:    prices,
		AdlAccountID:    b.AdlAccountID,
		PairID:          b.PairID,
		AdlSize:         types.NewBigUint(b.AdlSize),
		AdlPrice:        types.NewBigUint(b.AdlPrice),
		Fee:             types.NewBigUint(b.Fee),
		FeeToken:        b.FeeToken,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *AutoDeleveraging) Type() Type { return TypeAutoDeleveraging }

func (t *AutoDeleveraging) Validate() error {
	v := &validator{}
	return v.account("accountId", t.AccountID).
		subAccount("subAccountId", t.SubAccountID).
		nonce("subAccountNonce", t.SubAccountNonce).
		nested("oraclePrices", t.OraclePrices.validate()).
		account("adlAccountId", t.AdlAccountID).
		pair("pairId", t.PairID).
		unpackable("adlSize", bigOf(&t.AdlSize)).
		nonZero("adlSize", bigOf(&t.AdlSize)).
		price("adlPrice", bigOf(&t.AdlPrice)).
		packableFee("fee", bigOf(&t.Fee)).
		token("feeToken", t.FeeToken).
		result()
}

func (t *AutoDeleveraging) Encode() ([]byte, error) {
	prices, err := t.OraclePrices.Hash()
	if err != nil {
		return nil, err
	}

	return newEncoder(autoDeleveragingBytes).
		u8(uint8(TypeAutoDeleveraging)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.SubAccountID)).
		u32(uint32(t.SubAccountNonce)).
		raw(prices).
		u32(uint32(t.AdlAccountID)).
		u8(uint8(t.PairID)).
		packedAmount("adlSize", bigOf(&t.AdlSize)).
		uint("adlPrice", bigOf(&t.AdlPrice), types.PriceBytes).
		u16(uint16(t.FeeToken)).
		packedFee("fee", bigOf(&t.Fee)).
		result()
}

func (t *AutoDeleveraging) RollupSignature() types.ZkSignature { return t.Signature }

func (t *AutoDeleveraging) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *AutoDeleveraging) Clone() Tx {
	c := *t
	c.OraclePrices = t.OraclePrices.clone()
	c.AdlSize = cloneBig(t.AdlSize)
	c.AdlPrice = cloneBig(t.AdlPrice)
	c.Fee = cloneBig(t.Fee)
	return &c
}
