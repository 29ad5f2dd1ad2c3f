package seed

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// manager implements seed management with thread-safe access
type manager struct {
	seed        []byte
	mu          sync.RWMutex
	initialized bool
}

// NewManager creates a new Manager
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

// NewManagerFromSecret returns an initialized Manager holding a copy of secret.
//
//nolint:ireturn
func NewManagerFromSecret(secret []byte) (Manager, error) {
	m := &manager{}
	if err := m.InitializeRaw(secret); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMnemonic generates a fresh 24 word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	const entropyBits = 256
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}
	defer zero(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to build mnemonic")
	}
	return mnemonic, nil
}

// Initialize converts the mnemonic to a seed: PBKDF2(mnemonic, "mnemonic"+password, 2048, 64, SHA512)
func (m *manager) Initialize(mnemonic string, password string) error {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, password)
	if err != nil {
		return errors.Wrap(err, "invalid mnemonic")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	m.seed = seed
	m.initialized = true

	return nil
}

func (m *manager) InitializeRaw(secret []byte) error {
	if len(secret) == 0 {
		return errors.New("empty secret")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	m.seed = append([]byte(nil), secret...)
	m.initialized = true

	return nil
}

// GetSeed gets the seed (returns a copy to prevent external modification)
func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized || m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.initialized
}

// Clear clears the seed from memory
func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
}

func (m *manager) clearLocked() {
	zero(m.seed)
	m.seed = nil
	m.initialized = false
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
