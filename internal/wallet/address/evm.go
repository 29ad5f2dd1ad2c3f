package address

import (
	"context"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

// DeriveAddress derives an EVM address from seed and BIP44 path
func (s *service) DeriveAddress(ctx context.Context, seed []byte, path string) (common.Address, error) {
	privateKey, err := s.DerivePrivateKey(ctx, seed, path)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive private key")
	}
	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	ecdsaPrivateKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to convert to ECDSA private key")
	}

	return crypto.PubkeyToAddress(ecdsaPrivateKey.PublicKey), nil
}

// DerivePrivateKey derives a private key from seed and BIP44 path
// WARNING: Caller must clear the private key after use
func (s *service) DerivePrivateKey(_ context.Context, seed []byte, path string) ([]byte, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	derivedKey, err := deriveKeyFromPath(masterKey, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key from path")
	}

	return derivedKey.Key, nil
}

func deriveKeyFromPath(masterKey *bip32.Key, path string) (*bip32.Key, error) {
	indices, err := parseBIP44Path(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse BIP44 path")
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}

// parseBIP44Path parses a BIP44 path string into indices
// Example: "m/44'/60'/0'/0/0" -> [2147483692, 2147483708, 2147483648, 0, 0]
func parseBIP44Path(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, errors.Errorf("invalid BIP44 path: %s", path)
	}

	indices := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}

		hardened := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		parsed, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errors.Errorf("invalid path segment: %s", part)
		}

		index := uint32(parsed)
		if hardened {
			index += bip32.FirstHardenedChild
		}

		indices = append(indices, index)
	}

	return indices, nil
}
