package address

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultPath is the first BIP-44 Ethereum account.
const DefaultPath = "m/44'/60'/0'/0/0"

// Service derives base-chain keys and addresses from an HD seed
type Service interface {
	// DeriveAddress derives the base-chain address at path
	DeriveAddress(ctx context.Context, seed []byte, path string) (common.Address, error)

	// DerivePrivateKey derives the 32 byte private key at path
	// WARNING: Private key should be cleared after use
	DerivePrivateKey(ctx context.Context, seed []byte, path string) ([]byte, error)

	// BIP44Path formats the path of the given account index
	BIP44Path(addressIndex int) string
}
