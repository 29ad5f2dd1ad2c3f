package tx

import (
	"fmt"
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/rollup/zkhash"
)

// Funding settles accrued funding for one or more accounts.
type Funding struct {
	AccountID         types.AccountID    `json:"accountId"`
	SubAccountID      types.SubAccountID `json:"subAccountId"`
	SubAccountNonce   types.Nonce        `json:"subAccountNonce"`
	FundingAccountIDs []types.AccountID  `json:"fundingAccountIds"`
	Fee               types.BigUint      `json:"fee"`
	FeeToken          types.TokenID      `json:"feeToken"`
	Signature         types.ZkSignature  `json:"signature"`
}

type FundingBuilder struct {
	AccountID         types.AccountID
	SubAccountID      types.SubAccountID
	SubAccountNonce   types.Nonce
	FundingAccountIDs []types.AccountID
	Fee               *big.Int
	FeeToken          types.TokenID
}

func NewFunding(b FundingBuilder) (*Funding, error) {
	t := &Funding{
		AccountID:         b.AccountID,
		SubAccountID:      b.SubAccountID,
		SubAccountNonce:   b.SubAccountNonce,
		FundingAccountIDs: append([]types.AccountID(nil), b.FundingAccountIDs...),
		Fee:               types.NewBigUint(b.Fee),
		FeeToken:          b.FeeToken,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Funding) Type() Type { return TypeFunding }

// IsBatch reports whether the funded accounts are committed to by hash.
func (t *Funding) IsBatch() bool {
	return len(t.FundingAccountIDs) > 1
}

func (t *Funding) Validate() error {
	v := &validator{}
	v.account("accountId", t.AccountID).
		subAccount("subAccountId", t.SubAccountID).
		nonce("subAccountNonce", t.SubAccountNonce).
		packableFee("fee", bigOf(&t.Fee)).
		token("feeToken", t.FeeToken)
	if len(t.FundingAccountIDs) == 0 {
		v.fail("fundingAccountIds", "at least one account is required")
	}
	for i, id := range t.FundingAccountIDs {
		v.account(fmt.Sprintf("fundingAccountIds[%d]", i), id)
	}
	return v.result()
}

func (t *Funding) accountsBytes() []byte {
	ids := newEncoder(4 * len(t.FundingAccountIDs))
	for _, id := range t.FundingAccountIDs {
		ids.u32(uint32(id))
	}
	// u32 writes cannot fail
	b, _ := ids.result()
	if t.IsBatch() {
		return zkhash.Sum31(b)
	}
	return b
}

func (t *Funding) Encode() ([]byte, error) {
	accounts := t.accountsBytes()

	return newEncoder(1+4+1+4+len(accounts)+2+2).
		u8(uint8(TypeFunding)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.SubAccountID)).
		u32(uint32(t.SubAccountNonce)).
		raw(accounts).
		u16(uint16(t.FeeToken)).
		packedFee("fee", bigOf(&t.Fee)).
		result()
}

func (t *Funding) RollupSignature() types.ZkSignature { return t.Signature }

func (t *Funding) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *Funding) Clone() Tx {
	c := *t
	c.FundingAccountIDs = append([]types.AccountID(nil), t.FundingAccountIDs...)
	c.Fee = cloneBig(t.Fee)
	return &c
}
