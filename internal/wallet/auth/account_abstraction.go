package auth

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

// SignatureValidator checks contract-account signatures.
type SignatureValidator interface {
	IsValidSignature(ctx context.Context, account common.Address, hash common.Hash, sig []byte) (bool, error)
}

// OwnerReader reads the owner of a contract account.
type OwnerReader interface {
	Owner(ctx context.Context, account common.Address) (common.Address, error)
}

// AccountAbstractionConfig describes a smart-contract account signed for by an owner key.
type AccountAbstractionConfig struct {
	Account   common.Address
	NetworkID uint64
	// Validator, when set, confirms every signature with EIP-1271 isValidSignature.
	Validator SignatureValidator
	// Owners, when set, confirms the owner backend controls Account.
	Owners OwnerReader
}

type accountAbstractionBackend struct {
	owner Backend
	cfg   AccountAbstractionConfig
}

//nolint:ireturn
func NewAccountAbstractionBackend(owner Backend, cfg AccountAbstractionConfig) (Backend, error) {
	if owner == nil {
		return nil, errors.New("account abstraction needs an owner backend")
	}
	if cfg.Account == (common.Address{}) {
		return nil, errors.New("account abstraction needs the account address")
	}
	if cfg.NetworkID == 0 {
		return nil, errors.New("account abstraction needs the network id")
	}
	return &accountAbstractionBackend{owner: owner, cfg: cfg}, nil
}

func (b *accountAbstractionBackend) Kind() Kind { return KindAccountAbstraction }

func (b *accountAbstractionBackend) Identity(context.Context) (common.Address, error) {
	return b.cfg.Account, nil
}

func (b *accountAbstractionBackend) Interactive() bool { return true }

func (b *accountAbstractionBackend) SignMessage(ctx context.Context, req *Request) (Proof, error) {
	if err := checkAccount(KindAccountAbstraction, req.Account, b.cfg.Account); err != nil {
		return Proof{}, err
	}
	if req.NetworkID != 0 && req.NetworkID != b.cfg.NetworkID {
		return Proof{}, authError(types.AuthContextMismatch, KindAccountAbstraction, &types.ProtocolMismatchError{
			What:     "network id",
			Expected: strconv.FormatUint(b.cfg.NetworkID, 10),
			Actual:   strconv.FormatUint(req.NetworkID, 10),
		})
	}

	ownerAddress, err := b.owner.Identity(ctx)
	if err != nil {
		return Proof{}, err
	}

	if b.cfg.Owners != nil {
		onchainOwner, err := b.cfg.Owners.Owner(ctx, b.cfg.Account)
		if err != nil {
			return Proof{}, errors.Wrap(err, "failed to read account owner")
		}
		if err := checkAccount(KindAccountAbstraction, onchainOwner, ownerAddress); err != nil {
			return Proof{}, err
		}
	}

	ownerReq := *req
	ownerReq.Account = ownerAddress
	ownerReq.NetworkID = b.cfg.NetworkID

	proof, err := b.owner.SignMessage(ctx, &ownerReq)
	if err != nil {
		return Proof{}, err
	}

	if b.cfg.Validator != nil {
		digest, err := req.Digest()
		if err != nil {
			return Proof{}, err
		}

		valid, err := b.cfg.Validator.IsValidSignature(ctx, b.cfg.Account, common.BytesToHash(digest), proof.Signature)
		if err != nil {
			return Proof{}, errors.Wrap(err, "failed to validate contract signature")
		}
		if !valid {
			return Proof{}, authError(types.AuthContextMismatch, KindAccountAbstraction, errors.New("account rejected the owner signature"))
		}
	}

	util.LogFromContext(ctx).Info().
		Str("backend", string(KindAccountAbstraction)).
		Str("account", b.cfg.Account.Hex()).
		Str("owner", ownerAddress.Hex()).
		Msg("Contract account signature produced")

	return Proof{Kind: ProofEIP1271, Signature: proof.Signature}, nil
}
