package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
)

const forcedExitBytes = 1 + 1 + 4 + 1 + types.AddressBytes + 1 + 2 + 2 + 4 + types.BalanceBytes + 1 + 4

// ForcedExit withdraws a target account's balance on its behalf.
type ForcedExit struct {
	ToChainID             types.ChainID      `json:"toChainId"`
	InitiatorAccountID    types.AccountID    `json:"initiatorAccountId"`
	InitiatorSubAccountID types.SubAccountID `json:"initiatorSubAccountId"`
	InitiatorNonce        types.Nonce        `json:"initiatorNonce"`
	Target                types.Address      `json:"target"`
	TargetSubAccountID    types.SubAccountID `json:"targetSubAccountId"`
	L2SourceToken         types.TokenID      `json:"l2SourceToken"`
	L1TargetToken         types.TokenID      `json:"l1TargetToken"`
	ExitAmount            types.BigUint      `json:"exitAmount"`
	WithdrawToL1          Flag               `json:"withdrawToL1"`
	Signature             types.ZkSignature  `json:"signature"`
	Timestamp             types.TimeStamp    `json:"ts"`
}

type ForcedExitBuilder struct {
	ToChainID             types.ChainID
	InitiatorAccountID    types.AccountID
	InitiatorSubAccountID types.SubAccountID
	InitiatorNonce        types.Nonce
	Target                types.Address
	TargetSubAccountID    types.SubAccountID
	L2SourceToken         types.TokenID
	L1TargetToken         types.TokenID
	ExitAmount            *big.Int
	WithdrawToL1          bool
	Timestamp             types.TimeStamp
}

func NewForcedExit(b ForcedExitBuilder) (*ForcedExit, error) {
	t := &ForcedExit{
		ToChainID:             b.ToChainID,
		InitiatorAccountID:    b.InitiatorAccountID,
		InitiatorSubAccountID: b.InitiatorSubAccountID,
		InitiatorNonce:        b.InitiatorNonce,
		Target:                b.Target,
		TargetSubAccountID:    b.TargetSubAccountID,
		L2SourceToken:         b.L2SourceToken,
		L1TargetToken:         b.L1TargetToken,
		ExitAmount:            types.NewBigUint(b.ExitAmount),
		WithdrawToL1:          Flag(b.WithdrawToL1),
		Timestamp:             b.Timestamp,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ForcedExit) Type() Type { return TypeForcedExit }

func (t *ForcedExit) Validate() error {
	v := &validator{}
	return v.chain("toChainId", t.ToChainID).
		account("initiatorAccountId", t.InitiatorAccountID).
		subAccount("initiatorSubAccountId", t.InitiatorSubAccountID).
		nonce("initiatorNonce", t.InitiatorNonce).
		address("target", t.Target).
		subAccount("targetSubAccountId", t.TargetSubAccountID).
		token("l2SourceToken", t.L2SourceToken).
		token("l1TargetToken", t.L1TargetToken).
		unpackable("exitAmount", bigOf(&t.ExitAmount)).
		result()
}

func (t *ForcedExit) Encode() ([]byte, error) {
	return newEncoder(forcedExitBytes).
		u8(uint8(TypeForcedExit)).
		u8(uint8(t.ToChainID)).
		u32(uint32(t.InitiatorAccountID)).
		u8(uint8(t.InitiatorSubAccountID)).
		raw(t.Target[:]).
		u8(uint8(t.TargetSubAccountID)).
		u16(uint16(t.L2SourceToken)).
		u16(uint16(t.L1TargetToken)).
		u32(uint32(t.InitiatorNonce)).
		uint("exitAmount", bigOf(&t.ExitAmount), types.BalanceBytes).
		flag(bool(t.WithdrawToL1)).
		u32(uint32(t.Timestamp)).
		result()
}

func (t *ForcedExit) RollupSignature() types.ZkSignature { return t.Signature }

func (t *ForcedExit) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *ForcedExit) Clone() Tx {
	c := *t
	c.ExitAmount = cloneBig(t.ExitAmount)
	return &c
}
