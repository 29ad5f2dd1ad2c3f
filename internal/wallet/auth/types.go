package auth

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

// Kind names an authentication backend.
type Kind string

const (
	KindLocal              Kind = "local"
	KindRemote             Kind = "remote"
	KindCreate2            Kind = "create2"
	KindOnchain            Kind = "onchain"
	KindAccountAbstraction Kind = "account-abstraction"
	KindStark              Kind = "stark"
)

// SignsMessages reports whether the backend produces a signature rather than pointing at
// state the base chain already holds.
func (k Kind) SignsMessages() bool {
	switch k {
	case KindOnchain, KindCreate2:
		return false
	default:
		return true
	}
}

// Backend proves control of a base-chain account
type Backend interface {
	Kind() Kind

	// Identity is the base-chain account this backend speaks for
	Identity(ctx context.Context) (common.Address, error)

	// Interactive reports whether SignMessage may wait on a human or a remote wallet
	Interactive() bool

	// SignMessage produces the proof for req. Errors are *types.AuthBackendError where classifiable.
	SignMessage(ctx context.Context, req *Request) (Proof, error)
}

// Request is what a backend is asked to authorize.
type Request struct {
	// Message is the EIP-191 text to sign when TypedData is nil.
	Message   []byte
	TypedData *apitypes.TypedData
	// NetworkID is the base-chain id the proof is for; zero skips the check.
	NetworkID uint64
	// Account is the expected base-chain account; zero skips the check.
	Account    common.Address
	PubKeyHash types.PubKeyHash
	Nonce      types.Nonce
}

// Digest is the 32 byte hash an ECDSA or EIP-1271 signer commits to.
func (r *Request) Digest() ([]byte, error) {
	if r.TypedData != nil {
		hash, _, err := apitypes.TypedDataAndHash(*r.TypedData)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash typed data")
		}
		return hash, nil
	}
	return accounts.TextHash(r.Message), nil
}

// ProofKind says which form of proof a backend produced.
type ProofKind string

const (
	ProofECDSA   ProofKind = "ecdsa"
	ProofEIP1271 ProofKind = "eip1271"
	ProofCreate2 ProofKind = "create2"
	ProofOnchain ProofKind = "onchain"
	ProofStark   ProofKind = "stark"
)

// Proof is the output of every backend.
type Proof struct {
	Kind      ProofKind
	Signature hexutil.Bytes
	// PubKey is set for Stark proofs, whose verifier needs the key beside the signature.
	PubKey    hexutil.Bytes
	Create2   *tx.Create2Data
}

// ChangePubKeyAuthData converts the proof into the form attached to a ChangePubKey.
func (p Proof) ChangePubKeyAuthData() tx.ChangePubKeyAuthData {
	switch p.Kind {
	case ProofECDSA, ProofEIP1271:
		return tx.ChangePubKeyAuthData{Kind: tx.AuthDataEthECDSA, EthSignature: append(hexutil.Bytes(nil), p.Signature...)}
	case ProofCreate2:
		data := *p.Create2
		return tx.ChangePubKeyAuthData{Kind: tx.AuthDataEthCreate2, Create2: &data}
	default:
		return tx.ChangePubKeyAuthData{Kind: tx.AuthDataOnchain}
	}
}

// Layer1Signature converts a signature proof into the form sent beside other transactions.
func (p Proof) Layer1Signature() (*tx.Layer1Signature, bool) {
	switch p.Kind {
	case ProofECDSA:
		return &tx.Layer1Signature{Kind: tx.EthereumSignature, Signature: append(hexutil.Bytes(nil), p.Signature...)}, true
	case ProofEIP1271:
		return &tx.Layer1Signature{Kind: tx.EIP1271Signature, Signature: append(hexutil.Bytes(nil), p.Signature...)}, true
	case ProofStark:
		if len(p.PubKey) != StarkPubKeyLen || len(p.Signature) != StarkSignatureLen {
			return nil, false
		}
		return &tx.Layer1Signature{Kind: tx.StarkSignature, Signature: tx.StarkSignatureBytes(p.PubKey, p.Signature)}, true
	default:
		return nil, false
	}
}

func authError(kind types.AuthErrorKind, backend Kind, err error) error {
	return types.NewAuthBackendError(kind, string(backend), err)
}

func checkAccount(backend Kind, expected common.Address, actual common.Address) error {
	if expected == (common.Address{}) || expected == actual {
		return nil
	}
	return authError(types.AuthContextMismatch, backend, &types.ProtocolMismatchError{
		What:     "account",
		Expected: expected.Hex(),
		Actual:   actual.Hex(),
	})
}
