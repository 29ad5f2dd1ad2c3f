package signer

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/rollup/zkhash"
	"github/chapool/go-rollup/internal/util"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/seed"
)

const keySeedBytes = 32

type service struct {
	// keys holds the 32 byte EdDSA key seed.
	keys   seed.Manager
	pubKey [types.PackedPubKeyBytes]byte
}

// NewFromSeed derives the rollup key from sha256(seed). The same seed always yields the same key.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewFromSeed(secret []byte) (Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty rollup key seed")
	}

	keySeed := sha256.Sum256(secret)
	defer util.ZeroBytes(keySeed[:])

	return newService(keySeed[:])
}

// NewFromBaseChain asks backend to sign SeedMessage and derives the rollup key from the signature.
//
//nolint:ireturn
func NewFromBaseChain(ctx context.Context, backend auth.Backend, networkID uint64) (Service, error) {
	proof, err := backend.SignMessage(ctx, &auth.Request{Message: []byte(SeedMessage), NetworkID: networkID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign rollup key seed message")
	}
	if len(proof.Signature) == 0 {
		return nil, errors.Errorf("%s backend cannot derive a rollup key", backend.Kind())
	}
	defer util.ZeroBytes(proof.Signature)

	return NewFromSeed(proof.Signature)
}

// NewRandom generates an independent rollup key.
//
//nolint:ireturn
func NewRandom() (Service, error) {
	keySeed := make([]byte, keySeedBytes)
	if _, err := rand.Read(keySeed); err != nil {
		return nil, errors.Wrap(err, "failed to read randomness")
	}
	defer util.ZeroBytes(keySeed)

	return newService(keySeed)
}

func newService(keySeed []byte) (*service, error) {
	keys, err := seed.NewManagerFromSecret(keySeed)
	if err != nil {
		return nil, err
	}

	s := &service{keys: keys}
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	defer zeroKey(key)

	copy(s.pubKey[:], key.PublicKey.Bytes())
	return s, nil
}

func (s *service) PubKey() [types.PackedPubKeyBytes]byte {
	return s.pubKey
}

func (s *service) PubKeyHash() types.PubKeyHash {
	return PubKeyHash(s.pubKey)
}

func (s *service) Sign(msg []byte) (*types.ZkSignature, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	defer zeroKey(key)

	sig, err := key.Sign(zkhash.Sum(msg), mimc.NewMiMC())
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}

	out := &types.ZkSignature{PubKey: s.pubKey}
	copy(out.Signature[:], sig)
	return out, nil
}

func (s *service) SignTx(t tx.Tx) (*types.ZkSignature, error) {
	sig, err := s.signEncoded(t.Validate, t.Encode, t.Type().String())
	if err != nil {
		return nil, err
	}
	t.SetRollupSignature(*sig)
	return sig, nil
}

func (s *service) SignOrder(o *tx.Order) (*types.ZkSignature, error) {
	sig, err := s.signEncoded(o.Validate, o.Encode, "order")
	if err != nil {
		return nil, err
	}
	o.Signature = *sig
	return sig, nil
}

func (s *service) SignContract(c *tx.Contract) (*types.ZkSignature, error) {
	sig, err := s.signEncoded(c.Validate, c.Encode, "contract")
	if err != nil {
		return nil, err
	}
	c.Signature = *sig
	return sig, nil
}

func (s *service) signEncoded(validate func() error, encode func() ([]byte, error), what string) (*types.ZkSignature, error) {
	if err := validate(); err != nil {
		return nil, err
	}
	msg, err := encode()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", what)
	}
	return s.Sign(msg)
}

func (s *service) Close() {
	s.keys.Clear()
}

// privateKey rebuilds the EdDSA key from the stored seed. The caller zeroes it with zeroKey.
func (s *service) privateKey() (*eddsa.PrivateKey, error) {
	keySeed := s.keys.GetSeed()
	if keySeed == nil {
		return nil, seed.ErrSeedNotInitialized
	}
	defer util.ZeroBytes(keySeed)

	key, err := eddsa.GenerateKey(bytes.NewReader(keySeed))
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive rollup key")
	}
	return key, nil
}

func zeroKey(key *eddsa.PrivateKey) {
	*key = eddsa.PrivateKey{}
}

// Verify checks sig over msg against the public key carried inside sig.
func Verify(sig *types.ZkSignature, msg []byte) bool {
	if sig == nil || sig.IsZero() {
		return false
	}

	var pub eddsa.PublicKey
	if _, err := pub.SetBytes(sig.PubKey[:]); err != nil {
		return false
	}

	ok, err := pub.Verify(sig.Signature[:], zkhash.Sum(msg), mimc.NewMiMC())
	return err == nil && ok
}

// VerifyTx checks the rollup signature attached to t against its current encoding.
func VerifyTx(t tx.Tx) bool {
	msg, err := t.Encode()
	if err != nil {
		return false
	}
	sig := t.RollupSignature()
	return Verify(&sig, msg)
}

// VerifyOrder checks the owner's signature embedded in an order.
func VerifyOrder(o *tx.Order) bool {
	msg, err := o.Encode()
	if err != nil {
		return false
	}
	return Verify(&o.Signature, msg)
}

// PubKeyHash is the low 20 bytes of the circuit hash of the packed public key.
func PubKeyHash(pubKey [types.PackedPubKeyBytes]byte) types.PubKeyHash {
	digest := zkhash.Sum(pubKey[:])

	var h types.PubKeyHash
	copy(h[:], digest[len(digest)-types.PubKeyHashBytes:])
	return h
}
