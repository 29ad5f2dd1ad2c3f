package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"math/big"
	"slices"
	"strconv"

	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
	pedersen "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

const (
	starkScalarLen = 32
	// StarkPubKeyLen is the compressed public key carried beside a Stark signature.
	StarkPubKeyLen = 32
	// StarkSignatureLen is r||s.
	StarkSignatureLen = 64
)

// StarkKeyReader reads the public key registered on a Stark contract account.
type StarkKeyReader interface {
	PublicKey(ctx context.Context, account common.Address) ([]byte, error)
}

// StarkConfig describes a Stark contract account.
type StarkConfig struct {
	Account common.Address
	// ChainID is the Stark chain the signature is bound to, e.g. SN_MAIN.
	ChainID   string
	NetworkID uint64
	// Keys, when set, confirms the signing key is the one registered on Account.
	Keys StarkKeyReader
}

type starkBackend struct {
	key *ecdsa.PrivateKey
	cfg StarkConfig
}

// NewStarkBackend signs with a Stark curve scalar. The caller may zero privateKey afterwards.
//
//nolint:ireturn
func NewStarkBackend(privateKey []byte, cfg StarkConfig) (Backend, error) {
	if cfg.Account == (common.Address{}) {
		return nil, errors.New("stark backend needs the account address")
	}
	if cfg.ChainID == "" {
		return nil, errors.New("stark backend needs the chain id")
	}

	key, err := StarkKeyFromScalar(privateKey)
	if err != nil {
		return nil, err
	}
	return &starkBackend{key: key, cfg: cfg}, nil
}

// GenerateStarkKey returns a fresh Stark curve scalar.
func GenerateStarkKey() ([]byte, error) {
	key, err := ecdsa.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate stark key")
	}
	raw := key.Bytes()
	defer util.ZeroBytes(raw)
	return append([]byte(nil), raw[StarkPubKeyLen:]...), nil
}

// StarkKeyFromScalar builds a signing key from a big-endian scalar.
func StarkKeyFromScalar(scalar []byte) (*ecdsa.PrivateKey, error) {
	if len(scalar) == 0 || len(scalar) > starkScalarLen {
		return nil, errors.Errorf("invalid stark key length %d", len(scalar))
	}

	s := new(big.Int).SetBytes(scalar)
	if s.Sign() == 0 || s.Cmp(fr.Modulus()) >= 0 {
		return nil, errors.New("stark key out of range")
	}

	var pub starkcurve.G1Affine
	pub.ScalarMultiplicationBase(s)
	pubBytes := pub.Bytes()

	buf := make([]byte, StarkPubKeyLen+starkScalarLen)
	defer util.ZeroBytes(buf)
	copy(buf, pubBytes[:])
	s.FillBytes(buf[StarkPubKeyLen:])

	key := new(ecdsa.PrivateKey)
	if _, err := key.SetBytes(buf); err != nil {
		return nil, errors.Wrap(err, "invalid stark key")
	}
	return key, nil
}

// StarkMessageHash folds the chain id and the request digest into one Pedersen hash.
func StarkMessageHash(chainID string, digest []byte) []byte {
	elems := make([]*fp.Element, 0, 1+(len(digest)+31)/32)
	elems = append(elems, new(fp.Element).SetBytes([]byte(chainID)))
	for chunk := range slices.Chunk(digest, 32) {
		elems = append(elems, new(fp.Element).SetBytes(chunk))
	}
	h := pedersen.PedersenArray(elems...)
	out := h.Bytes()
	return out[:]
}

// VerifyStark checks a r||s signature over hash against a compressed public key.
func VerifyStark(pubKey, sig, hash []byte) (bool, error) {
	var pk ecdsa.PublicKey
	if _, err := pk.SetBytes(pubKey); err != nil {
		return false, errors.Wrap(err, "invalid stark public key")
	}
	ok, err := pk.Verify(sig, hash, nil)
	if err != nil {
		return false, errors.Wrap(err, "invalid stark signature")
	}
	return ok, nil
}

func (b *starkBackend) Kind() Kind { return KindStark }

func (b *starkBackend) Identity(context.Context) (common.Address, error) {
	return b.cfg.Account, nil
}

func (b *starkBackend) Interactive() bool { return false }

func (b *starkBackend) PublicKey() []byte {
	return b.key.PublicKey.Bytes()
}

func (b *starkBackend) SignMessage(ctx context.Context, req *Request) (Proof, error) {
	if err := checkAccount(KindStark, req.Account, b.cfg.Account); err != nil {
		return Proof{}, err
	}
	if req.NetworkID != 0 && b.cfg.NetworkID != 0 && req.NetworkID != b.cfg.NetworkID {
		return Proof{}, authError(types.AuthContextMismatch, KindStark, &types.ProtocolMismatchError{
			What:     "network id",
			Expected: strconv.FormatUint(b.cfg.NetworkID, 10),
			Actual:   strconv.FormatUint(req.NetworkID, 10),
		})
	}

	pubKey := b.PublicKey()
	if b.cfg.Keys != nil {
		registered, err := b.cfg.Keys.PublicKey(ctx, b.cfg.Account)
		if err != nil {
			return Proof{}, errors.Wrap(err, "failed to read account public key")
		}
		if !bytes.Equal(registered, pubKey) {
			return Proof{}, authError(types.AuthContextMismatch, KindStark, &types.ProtocolMismatchError{
				What:     "stark public key",
				Expected: hexutil.Encode(registered),
				Actual:   hexutil.Encode(pubKey),
			})
		}
	}

	digest, err := req.Digest()
	if err != nil {
		return Proof{}, err
	}
	hash := StarkMessageHash(b.cfg.ChainID, digest)

	sig, err := b.key.Sign(hash, nil)
	if err != nil {
		return Proof{}, errors.Wrap(err, "failed to sign with stark key")
	}

	util.LogFromContext(ctx).Info().
		Str("backend", string(KindStark)).
		Str("account", b.cfg.Account.Hex()).
		Str("chain_id", b.cfg.ChainID).
		Msg("Stark signature produced")

	return Proof{Kind: ProofStark, Signature: sig, PubKey: pubKey}, nil
}
