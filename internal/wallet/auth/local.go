package auth

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/util"
	"github/chapool/go-rollup/internal/wallet/address"
	"github/chapool/go-rollup/internal/wallet/seed"
)

// localBackend signs with a key held in process memory.
type localBackend struct {
	keys      seed.Manager
	addresses address.Service
	// path is empty when keys holds the private key itself.
	path     string
	identity common.Address
}

// NewLocalBackend signs with a raw secp256k1 private key. The caller may zero privateKey afterwards.
//
//nolint:ireturn
func NewLocalBackend(privateKey []byte) (Backend, error) {
	ecdsaKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	keys, err := seed.NewManagerFromSecret(privateKey)
	if err != nil {
		return nil, err
	}

	return &localBackend{keys: keys, identity: crypto.PubkeyToAddress(ecdsaKey.PublicKey)}, nil
}

// NewLocalBackendFromSeed signs with the key derived at path from the seed held by keys.
//
//nolint:ireturn
func NewLocalBackendFromSeed(ctx context.Context, keys seed.Manager, addresses address.Service, path string) (Backend, error) {
	secret := keys.GetSeed()
	if secret == nil {
		return nil, seed.ErrSeedNotInitialized
	}
	defer util.ZeroBytes(secret)

	identity, err := addresses.DeriveAddress(ctx, secret, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive base-chain address")
	}

	return &localBackend{keys: keys, addresses: addresses, path: path, identity: identity}, nil
}

func (b *localBackend) Kind() Kind { return KindLocal }

func (b *localBackend) Identity(context.Context) (common.Address, error) {
	return b.identity, nil
}

func (b *localBackend) Interactive() bool { return false }

func (b *localBackend) SignMessage(ctx context.Context, req *Request) (Proof, error) {
	if err := checkAccount(KindLocal, req.Account, b.identity); err != nil {
		return Proof{}, err
	}

	digest, err := req.Digest()
	if err != nil {
		return Proof{}, err
	}

	privateKey, err := b.privateKey(ctx)
	if err != nil {
		return Proof{}, err
	}
	defer util.ZeroBytes(privateKey)

	ecdsaKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return Proof{}, errors.Wrap(err, "failed to convert private key to ECDSA")
	}

	sig, err := crypto.Sign(digest, ecdsaKey)
	if err != nil {
		return Proof{}, errors.Wrap(err, "failed to sign message")
	}
	sig[crypto.RecoveryIDOffset] += 27

	util.LogFromContext(ctx).Debug().Str("backend", string(KindLocal)).Str("account", b.identity.Hex()).Msg("Signed base-chain message")

	return Proof{Kind: ProofECDSA, Signature: sig}, nil
}

// privateKey returns a copy the caller zeroes.
func (b *localBackend) privateKey(ctx context.Context) ([]byte, error) {
	secret := b.keys.GetSeed()
	if secret == nil {
		return nil, seed.ErrSeedNotInitialized
	}
	if b.path == "" {
		return secret, nil
	}
	defer util.ZeroBytes(secret)

	key, err := b.addresses.DerivePrivateKey(ctx, secret, b.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}
	return key, nil
}
