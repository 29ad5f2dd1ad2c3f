package tx

import (
	"fmt"
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/rollup/zkhash"
)

const (
	contractBytes         = 1 + 4 + 1 + 2 + types.OrderNonceBytes + 1 + 1 + 5 + types.PriceBytes + 2 + 1
	contractMatchingBytes = 1 + 4 + 1 + types.FrBytes + 2 + 2

	// MaxContractMakers keeps every maker plus the taker inside the fixed orders buffer.
	MaxContractMakers = types.OrdersBytes/contractBytes - 1
)

// Direction of a perpetual position.
type Direction uint8

const (
	Short Direction = 0
	Long  Direction = 1
)

// Contract is a perpetual trading intent signed by its owner.
type Contract struct {
	AccountID    types.AccountID    `json:"accountId"`
	SubAccountID types.SubAccountID `json:"subAccountId"`
	SlotID       types.SlotID       `json:"slotId"`
	Nonce        types.Nonce        `json:"nonce"`
	PairID       types.PairID       `json:"pairId"`
	Size         types.BigUint      `json:"size"`
	Price        types.BigUint      `json:"price"`
	Direction    Direction          `json:"direction"`
	FeeRates     [2]uint8           `json:"feeRates"`
	HasSubsidy   Flag               `json:"hasSubsidy"`
	Signature    types.ZkSignature  `json:"signature"`
}

type ContractBuilder struct {
	AccountID    types.AccountID
	SubAccountID types.SubAccountID
	SlotID       types.SlotID
	Nonce        types.Nonce
	PairID       types.PairID
	Size         *big.Int
	Price        *big.Int
	Direction    Direction
	MakerFeeRate uint8
	TakerFeeRate uint8
	HasSubsidy   bool
}

func NewContract(b ContractBuilder) (*Contract, error) {
	c := &Contract{
		AccountID:    b.AccountID,
		SubAccountID: b.SubAccountID,
		SlotID:       b.SlotID,
		Nonce:        b.Nonce,
		PairID:       b.PairID,
		Size:         types.NewBigUint(b.Size),
		Price:        types.NewBigUint(b.Price),
		Direction:    b.Direction,
		FeeRates:     [2]uint8{b.MakerFeeRate, b.TakerFeeRate},
		HasSubsidy:   Flag(b.HasSubsidy),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Contract) Validate() error {
	v := &validator{}
	v.account("accountId", c.AccountID).
		subAccount("subAccountId", c.SubAccountID).
		slot("slotId", c.SlotID).
		orderNonce("nonce", c.Nonce).
		pair("pairId", c.PairID).
		packableAmount("size", bigOf(&c.Size)).
		price("price", bigOf(&c.Price))
	if c.Direction > Long {
		v.fail("direction", "direction must be 0 or 1")
	}
	return v.result()
}

// Encode returns the bytes the contract owner signs.
func (c *Contract) Encode() ([]byte, error) {
	return newEncoder(contractBytes).
		u8(contractMsgType).
		u32(uint32(c.AccountID)).
		u8(uint8(c.SubAccountID)).
		u16(uint16(c.SlotID)).
		u24(uint32(c.Nonce)).
		u8(uint8(c.PairID)).
		u8(uint8(c.Direction)).
		packedAmount("size", bigOf(&c.Size)).
		uint("price", bigOf(&c.Price), types.PriceBytes).
		raw(c.FeeRates[:]).
		flag(bool(c.HasSubsidy)).
		result()
}

func (c *Contract) clone() Contract {
	out := *c
	out.Size = cloneBig(c.Size)
	out.Price = cloneBig(c.Price)
	return out
}

// ContractMatching settles a taker against one or more perpetual makers.
type ContractMatching struct {
	AccountID    types.AccountID    `json:"accountId"`
	SubAccountID types.SubAccountID `json:"subAccountId"`
	Taker        Contract           `json:"taker"`
	Maker        []Contract         `json:"maker"`
	Fee          types.BigUint      `json:"fee"`
	FeeToken     types.TokenID      `json:"feeToken"`
	Signature    types.ZkSignature  `json:"signature"`
}

type ContractMatchingBuilder struct {
	AccountID    types.AccountID
	SubAccountID types.SubAccountID
	Taker        *Contract
	Maker        []*Contract
	Fee          *big.Int
	FeeToken     types.TokenID
}

func NewContractMatching(b ContractMatchingBuilder) (*ContractMatching, error) {
	if b.Taker == nil {
		return nil, types.NewValidationError("taker", "taker is required")
	}

	t := &ContractMatching{
		AccountID:    b.AccountID,
		SubAccountID: b.SubAccountID,
		Taker:        b.Taker.clone(),
		Maker:        make([]Contract, 0, len(b.Maker)),
		Fee:          types.NewBigUint(b.Fee),
		FeeToken:     b.FeeToken,
	}
	for i, m := range b.Maker {
		if m == nil {
			return nil, types.NewValidationError(fmt.Sprintf("maker[%d]", i), "maker is nil")
		}
		t.Maker = append(t.Maker, m.clone())
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ContractMatching) Type() Type { return TypeContractMatching }

func (t *ContractMatching) Validate() error {
	v := &validator{}
	v.account("accountId", t.AccountID).
		subAccount("subAccountId", t.SubAccountID).
		nested("taker", t.Taker.Validate()).
		packableFee("fee", bigOf(&t.Fee)).
		token("feeToken", t.FeeToken)

	switch {
	case len(t.Maker) == 0:
		v.fail("maker", "at least one maker is required")
	case len(t.Maker) > MaxContractMakers:
		v.fail("maker", "at most %d makers fit in one matching", MaxContractMakers)
	}
	for i := range t.Maker {
		v.nested(fmt.Sprintf("maker[%d]", i), t.Maker[i].Validate())
	}
	return v.result()
}

// ContractsHash commits to every maker followed by the taker.
func (t *ContractMatching) ContractsHash() ([]byte, error) {
	if len(t.Maker) > MaxContractMakers {
		return nil, types.NewValidationError("maker", "at most %d makers fit in one matching", MaxContractMakers)
	}

	orders := make([]byte, 0, types.OrdersBytes)
	for i := range t.Maker {
		b, err := t.Maker[i].Encode()
		if err != nil {
			return nil, err
		}
		orders = append(orders, b...)
	}
	taker, err := t.Taker.Encode()
	if err != nil {
		return nil, err
	}
	orders = append(orders, taker...)

	return zkhash.HashOrders(resize(orders, types.OrdersBytes)), nil
}

func (t *ContractMatching) Encode() ([]byte, error) {
	orders, err := t.ContractsHash()
	if err != nil {
		return nil, err
	}

	return newEncoder(contractMatchingBytes).
		u8(uint8(TypeContractMatching)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.SubAccountID)).
		raw(orders).
		u16(uint16(t.FeeToken)).
		packedFee("fee", bigOf(&t.Fee)).
		result()
}

func (t *ContractMatching) RollupSignature() types.ZkSignature { return t.Signature }

func (t *ContractMatching) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *ContractMatching) Clone() Tx {
	c := *t
	c.Taker = t.Taker.clone()
	c.Maker = make([]Contract, len(t.Maker))
	for i := range t.Maker {
		c.Maker[i] = t.Maker[i].clone()
	}
	c.Fee = cloneBig(t.Fee)
	return &c
}
