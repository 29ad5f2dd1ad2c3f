package keystore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/util"
)

// ErrKeystoreNotFound is returned when no keystore file exists at the configured path
var ErrKeystoreNotFound = errors.New("keystore not found")

// Service provides keystore encryption and decryption functionality
type Service interface {
	// CreateKeystore encrypts a mnemonic and writes it to the keystore file. address is the
	// base-chain account derived from the mnemonic, stored in clear for password verification.
	CreateKeystore(ctx context.Context, mnemonic string, password string, address common.Address) (*Keystore, error)

	// DecryptMnemonic decrypts mnemonic from keystore
	DecryptMnemonic(ctx context.Context, keystore *Keystore, password string) (string, error)

	// GetKeystore reads the keystore file
	GetKeystore(ctx context.Context) (*Keystore, error)

	// Exists checks if keystore exists
	Exists(ctx context.Context) (bool, error)
}

type service struct {
	path   string
	params ScryptParams
}

// NewService creates a keystore service backed by a single file at path
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(path string, params ScryptParams) (Service, error) {
	if path == "" {
		return nil, errors.New("keystore path is empty")
	}

	return &service{
		path:   path,
		params: params,
	}, nil
}

// CreateKeystore encrypts a mnemonic and writes it to the keystore file
func (s *service) CreateKeystore(ctx context.Context, mnemonic string, password string, address common.Address) (*Keystore, error) {
	log := util.LogFromContext(ctx)

	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check keystore existence")
	}
	if exists {
		return nil, errors.New("keystore already exists")
	}

	keystoreJSON, err := s.encryptMnemonic(mnemonic, password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}
	keystoreJSON.Address = hex.EncodeToString(address.Bytes())

	data, err := json.MarshalIndent(keystoreJSON, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore JSON")
	}

	//nolint:mnd // owner-only directory
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create keystore directory")
	}

	//nolint:mnd // owner-only file
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to write keystore")
		return nil, errors.Wrap(err, "failed to write keystore")
	}

	log.Info().Str("path", s.path).Str("id", keystoreJSON.ID).Str("address", address.Hex()).Msg("Created keystore")

	return &Keystore{Path: s.path, JSON: keystoreJSON}, nil
}

// DecryptMnemonic decrypts mnemonic from keystore
func (s *service) DecryptMnemonic(ctx context.Context, keystore *Keystore, password string) (string, error) {
	log := util.LogFromContext(ctx)

	if keystore == nil || keystore.JSON == nil {
		return "", errors.New("keystore is empty")
	}

	mnemonic, err := decryptMnemonic(keystore.JSON, password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decrypt mnemonic")
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return mnemonic, nil
}

// GetKeystore reads the keystore file
func (s *service) GetKeystore(_ context.Context) (*Keystore, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeystoreNotFound
		}
		return nil, errors.Wrap(err, "failed to read keystore")
	}

	var keystoreJSON KeystoreJSON
	if err := json.Unmarshal(data, &keystoreJSON); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}
	if keystoreJSON.Version != keystoreVersion {
		return nil, errors.Errorf("unsupported keystore version %d", keystoreJSON.Version)
	}

	return &Keystore{Path: s.path, JSON: &keystoreJSON}, nil
}

// Exists checks if keystore exists
func (s *service) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to stat keystore")
}
