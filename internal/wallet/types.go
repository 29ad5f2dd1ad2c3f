package wallet

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/seed"
	"github/chapool/go-rollup/internal/wallet/signer"
)

const minPasswordLength = 8

var (
	ErrPasswordTooShort = errors.Errorf("password must be at least %d characters", minPasswordLength)
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrVerificationFailed means the keystore decrypted but its mnemonic derives another account.
	ErrVerificationFailed = errors.New("derived address does not match the keystore verification address")
)

// Wallet is an unlocked key set: the HD seed, the base-chain account derived from it and the
// rollup signer derived from that account's signature.
type Wallet struct {
	Address common.Address
	Path    string
	// Backend signs base-chain messages with the derived key.
	Backend auth.Backend
	Signer  signer.Service

	keys seed.Manager
}

// Close zeroes every secret the wallet holds.
func (w *Wallet) Close() {
	if w.Signer != nil {
		w.Signer.Close()
	}
	if w.keys != nil {
		w.keys.Clear()
	}
}

// Config selects the derivation path and the base chain the rollup key is bound to
type Config struct {
	DerivationPath string
	NetworkID      uint64
}

// PromptFunc reads one secret from the user.
type PromptFunc func(prompt string) (string, error)
