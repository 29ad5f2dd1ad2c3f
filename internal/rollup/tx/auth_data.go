package tx

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github/chapool/go-rollup/internal/rollup/types"
)

// AuthDataKind names how a ChangePubKey proves control of the base-chain account.
type AuthDataKind string

const (
	AuthDataOnchain    AuthDataKind = "Onchain"
	AuthDataEthECDSA   AuthDataKind = "EthECDSA"
	AuthDataEthCreate2 AuthDataKind = "EthCreate2"
)

// Create2Data describes a counterfactual account deployed with CREATE2.
type Create2Data struct {
	CreatorAddress common.Address `json:"creatorAddress"`
	SaltArg        common.Hash    `json:"saltArg"`
	CodeHash       common.Hash    `json:"codeHash"`
}

// Salt binds the salt argument to the new public key hash.
func (d Create2Data) Salt(pkHash types.PubKeyHash) common.Hash {
	return crypto.Keccak256Hash(d.SaltArg.Bytes(), pkHash[:])
}

// Address is the account CREATE2 deploys for pkHash.
func (d Create2Data) Address(pkHash types.PubKeyHash) common.Address {
	salt := d.Salt(pkHash)
	digest := crypto.Keccak256([]byte{0xff}, d.CreatorAddress.Bytes(), salt.Bytes(), d.CodeHash.Bytes())
	return common.BytesToAddress(digest[12:])
}

// ChangePubKeyAuthData is attached to a ChangePubKey after base-chain authentication.
// It is not part of the canonical encoding.
type ChangePubKeyAuthData struct {
	Kind         AuthDataKind  `json:"type"`
	EthSignature hexutil.Bytes `json:"ethSignature,omitempty"`
	Create2      *Create2Data  `json:"data,omitempty"`
}

func (a ChangePubKeyAuthData) clone() ChangePubKeyAuthData {
	out := ChangePubKeyAuthData{Kind: a.Kind}
	if a.EthSignature != nil {
		out.EthSignature = append(hexutil.Bytes(nil), a.EthSignature...)
	}
	if a.Create2 != nil {
		c := *a.Create2
		out.Create2 = &c
	}
	return out
}

// Layer1SignatureKind tags a base-chain signature sent beside a transaction.
type Layer1SignatureKind string

const (
	EthereumSignature Layer1SignatureKind = "EthereumSignature"
	EIP1271Signature  Layer1SignatureKind = "EIP1271Signature"
	// StarkSignature carries pub_key||r||s.
	StarkSignature    Layer1SignatureKind = "StarkSignature"
)

// Layer1Signature is the optional base-chain proof submitted with a transaction.
type Layer1Signature struct {
	Kind      Layer1SignatureKind `json:"type"`
	Signature hexutil.Bytes       `json:"signature"`
}

// StarkSignatureBytes packs a Stark public key and its r||s signature into one payload.
func StarkSignatureBytes(pubKey, sig []byte) hexutil.Bytes {
	out := make(hexutil.Bytes, 0, len(pubKey)+len(sig))
	out = append(out, pubKey...)
	return append(out, sig...)
}

// StarkParts splits a StarkSignature payload into the public key and r||s.
func (s Layer1Signature) StarkParts() (pubKey, sig []byte, ok bool) {
	const pubKeyLen, sigLen = 32, 64
	if s.Kind != StarkSignature || len(s.Signature) != pubKeyLen+sigLen {
		return nil, nil, false
	}
	return s.Signature[:pubKeyLen], s.Signature[pubKeyLen:], true
}
