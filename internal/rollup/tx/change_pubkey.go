package tx

import (
	"math/big"

	"github/chapool/go-rollup/internal/rollup/types"
)

const changePubKeyBytes = 1 + 1 + 4 + 1 + types.PubKeyHashBytes + 2 + 2 + 4 + 4

// ChangePubKey binds a new rollup public key hash to an account.
type ChangePubKey struct {
	ChainID      types.ChainID        `json:"chainId"`
	AccountID    types.AccountID      `json:"accountId"`
	SubAccountID types.SubAccountID   `json:"subAccountId"`
	NewPkHash    types.PubKeyHash     `json:"newPkHash"`
	FeeToken     types.TokenID        `json:"feeToken"`
	Fee          types.BigUint        `json:"fee"`
	Nonce        types.Nonce          `json:"nonce"`
	Signature    types.ZkSignature    `json:"signature"`
	EthAuthData  ChangePubKeyAuthData `json:"ethAuthData"`
	Timestamp    types.TimeStamp      `json:"ts"`
}

type ChangePubKeyBuilder struct {
	ChainID      types.ChainID
	AccountID    types.AccountID
	SubAccountID types.SubAccountID
	NewPkHash    types.PubKeyHash
	FeeToken     types.TokenID
	Fee          *big.Int
	Nonce        types.Nonce
	// EthSignature, when set, selects EthECDSA authentication up front; otherwise Onchain.
	EthSignature []byte
	Timestamp    types.TimeStamp
}

func NewChangePubKey(b ChangePubKeyBuilder) (*ChangePubKey, error) {
	t := &ChangePubKey{
		ChainID:      b.ChainID,
		AccountID:    b.AccountID,
		SubAccountID: b.SubAccountID,
		NewPkHash:    b.NewPkHash,
		FeeToken:     b.FeeToken,
		Fee:          types.NewBigUint(b.Fee),
		Nonce:        b.Nonce,
		EthAuthData:  ChangePubKeyAuthData{Kind: AuthDataOnchain},
		Timestamp:    b.Timestamp,
	}
	if len(b.EthSignature) > 0 {
		t.EthAuthData = ChangePubKeyAuthData{Kind: AuthDataEthECDSA, EthSignature: append([]byte(nil), b.EthSignature...)}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ChangePubKey) Type() Type { return TypeChangePubKey }

func (t *ChangePubKey) Validate() error {
	v := &validator{}
	v.chain("chainId", t.ChainID).
		account("accountId", t.AccountID).
		subAccount("subAccountId", t.SubAccountID).
		token("feeToken", t.FeeToken).
		packableFee("fee", bigOf(&t.Fee)).
		nonce("nonce", t.Nonce)
	if t.NewPkHash.IsZero() {
		v.fail("newPkHash", "public key hash is zero")
	}
	return v.result()
}

func (t *ChangePubKey) Encode() ([]byte, error) {
	return newEncoder(changePubKeyBytes).
		u8(uint8(TypeChangePubKey)).
		u8(uint8(t.ChainID)).
		u32(uint32(t.AccountID)).
		u8(uint8(t.SubAccountID)).
		raw(t.NewPkHash[:]).
		u16(uint16(t.FeeToken)).
		packedFee("fee", bigOf(&t.Fee)).
		u32(uint32(t.Nonce)).
		u32(uint32(t.Timestamp)).
		result()
}

func (t *ChangePubKey) RollupSignature() types.ZkSignature { return t.Signature }

func (t *ChangePubKey) SetRollupSignature(sig types.ZkSignature) { t.Signature = sig }

func (t *ChangePubKey) Clone() Tx {
	c := *t
	c.Fee = cloneBig(t.Fee)
	c.EthAuthData = t.EthAuthData.clone()
	return &c
}
