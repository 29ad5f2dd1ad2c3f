package chainclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// EIP1271MagicValue is returned by isValidSignature when a contract account accepts a signature.
var EIP1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e} //nolint:gochecknoglobals

// Backend is the subset of ethclient.Client the client needs from one node.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Service answers the read-only base-chain queries used by authentication backends
type Service interface {
	ChainID(ctx context.Context) (*big.Int, error)

	// IsValidSignature asks a contract account whether sig is valid for hash (EIP-1271)
	IsValidSignature(ctx context.Context, account common.Address, hash common.Hash, sig []byte) (bool, error)

	// AuthFact reads the fact the main contract recorded for account at nonce; zero when absent
	AuthFact(ctx context.Context, mainContract common.Address, account common.Address, nonce uint32) (common.Hash, error)

	// Owner reads owner() from a smart contract account
	Owner(ctx context.Context, account common.Address) (common.Address, error)

	Close()
}
