package wallet

import (
	"context"

	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/util"
	"github/chapool/go-rollup/internal/wallet/address"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/keystore"
	"github/chapool/go-rollup/internal/wallet/seed"
	"github/chapool/go-rollup/internal/wallet/signer"
)

// Service creates, imports and unlocks the wallet kept in the keystore
type Service interface {
	// Create generates a new mnemonic, stores it encrypted and returns it with the unlocked wallet
	Create(ctx context.Context, password string) (*Wallet, string, error)

	// Import stores an existing mnemonic encrypted under password
	Import(ctx context.Context, mnemonic string, password string) (*Wallet, error)

	// Unlock decrypts the keystore and derives the wallet
	Unlock(ctx context.Context, password string) (*Wallet, error)
}

type service struct {
	keystore  keystore.Service
	addresses address.Service
	config    Config
}

// NewService creates a wallet service on top of the keystore
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(keystoreService keystore.Service, addressService address.Service, config Config) Service {
	if config.DerivationPath == "" {
		config.DerivationPath = address.DefaultPath
	}

	return &service{
		keystore:  keystoreService,
		addresses: addressService,
		config:    config,
	}
}

func (s *service) Create(ctx context.Context, password string) (*Wallet, string, error) {
	mnemonic, err := seed.NewMnemonic()
	if err != nil {
		return nil, "", err
	}

	w, err := s.Import(ctx, mnemonic, password)
	if err != nil {
		return nil, "", err
	}
	return w, mnemonic, nil
}

func (s *service) Import(ctx context.Context, mnemonic string, password string) (*Wallet, error) {
	log := util.LogFromContext(ctx).With().Str("component", "wallet_init").Logger()

	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	w, err := s.open(ctx, mnemonic)
	if err != nil {
		return nil, err
	}

	if _, err := s.keystore.CreateKeystore(ctx, mnemonic, password, w.Address); err != nil {
		w.Close()
		return nil, errors.Wrap(err, "failed to create keystore")
	}

	log.Info().Str("address", w.Address.Hex()).Msg("Keystore created")

	return w, nil
}

func (s *service) Unlock(ctx context.Context, password string) (*Wallet, error) {
	log := util.LogFromContext(ctx).With().Str("component", "wallet_init").Logger()

	ks, err := s.keystore.GetKeystore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get keystore")
	}

	mnemonic, err := s.keystore.DecryptMnemonic(ctx, ks, password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt keystore (invalid password?)")
	}

	w, err := s.open(ctx, mnemonic)
	if err != nil {
		return nil, err
	}

	if expected, ok := ks.VerificationAddress(); ok && expected != w.Address {
		log.Error().Str("expected", expected.Hex()).Str("derived", w.Address.Hex()).Msg("Keystore verification failed")
		w.Close()
		return nil, ErrVerificationFailed
	}

	log.Info().Str("address", w.Address.Hex()).Msg("Wallet unlocked")

	return w, nil
}

// open derives the base-chain backend and the rollup signer from mnemonic. The BIP-39
// passphrase is always empty so the mnemonic restores in other wallets.
func (s *service) open(ctx context.Context, mnemonic string) (*Wallet, error) {
	keys := seed.NewManager()
	if err := keys.Initialize(mnemonic, ""); err != nil {
		return nil, errors.Wrap(err, "failed to initialize seed manager")
	}

	backend, err := auth.NewLocalBackendFromSeed(ctx, keys, s.addresses, s.config.DerivationPath)
	if err != nil {
		keys.Clear()
		return nil, err
	}

	identity, err := backend.Identity(ctx)
	if err != nil {
		keys.Clear()
		return nil, errors.Wrap(err, "failed to read base-chain identity")
	}

	rollupSigner, err := signer.NewFromBaseChain(ctx, backend, s.config.NetworkID)
	if err != nil {
		keys.Clear()
		return nil, errors.Wrap(err, "failed to derive rollup key")
	}

	return &Wallet{
		Address: identity,
		Path:    s.config.DerivationPath,
		Backend: backend,
		Signer:  rollupSigner,
		keys:    keys,
	}, nil
}

// ReadNewPassword prompts twice and enforces the minimum length.
func ReadNewPassword(prompt PromptFunc) (string, error) {
	password, err := prompt("Enter password for keystore (min 8 characters): ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	confirm, err := prompt("Confirm password: ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password confirmation")
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}

	return password, nil
}
