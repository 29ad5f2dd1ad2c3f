package seed

import "github.com/pkg/errors"

// ErrSeedNotInitialized is returned when key material is requested before Initialize.
var ErrSeedNotInitialized = errors.New("seed not initialized")

// Manager holds one secret in memory and hands out copies of it
type Manager interface {
	// Initialize validates a BIP-39 mnemonic and stores the derived 64 byte seed
	Initialize(mnemonic string, password string) error

	// InitializeRaw stores a copy of raw key material (a private key or a derived seed)
	InitializeRaw(secret []byte) error

	// GetSeed returns a copy the caller must zero after use, or nil
	GetSeed() []byte

	IsInitialized() bool

	// Clear zeroes the secret
	Clear()
}
