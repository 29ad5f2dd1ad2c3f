package signer

import (
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

// SeedMessage is signed by the base-chain key to derive the rollup key deterministically.
const SeedMessage = "Sign this message to create a key to interact with zkLink's layer2 services.\n" +
	"NOTE: This application is powered by zkLink protocol.\n\n" +
	"Only sign this message for a trusted client!"

// Service signs rollup transactions with one rollup key
type Service interface {
	// PubKey is the packed 32 byte public key
	PubKey() [types.PackedPubKeyBytes]byte

	// PubKeyHash is the hash registered on the rollup by ChangePubKey
	PubKeyHash() types.PubKeyHash

	// Sign signs arbitrary bytes with the rollup key
	Sign(msg []byte) (*types.ZkSignature, error)

	// SignTx signs the canonical encoding of t and attaches the signature
	SignTx(t tx.Tx) (*types.ZkSignature, error)

	// SignOrder signs a spot order that will be embedded in an OrderMatching
	SignOrder(o *tx.Order) (*types.ZkSignature, error)

	// SignContract signs a perpetual contract that will be embedded in a ContractMatching
	SignContract(c *tx.Contract) (*types.ZkSignature, error)

	// Close zeroes the key material
	Close()
}
