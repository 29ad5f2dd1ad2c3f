package auth

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

// FactChecker reads authorization facts recorded by the main contract.
type FactChecker interface {
	AuthFact(ctx context.Context, mainContract common.Address, account common.Address, nonce uint32) (common.Hash, error)
}

// onchainBackend relies on a prior base-chain transaction that registered the pubkey hash.
type onchainBackend struct {
	account      common.Address
	facts        FactChecker
	mainContract common.Address
}

// NewOnchainBackend returns a backend producing an on-chain marker. When facts is nil the
// marker is returned without checking the contract.
//
//nolint:ireturn
func NewOnchainBackend(account common.Address, facts FactChecker, mainContract common.Address) Backend {
	return &onchainBackend{account: account, facts: facts, mainContract: mainContract}
}

func (b *onchainBackend) Kind() Kind { return KindOnchain }

func (b *onchainBackend) Identity(context.Context) (common.Address, error) {
	return b.account, nil
}

func (b *onchainBackend) Interactive() bool { return false }

func (b *onchainBackend) SignMessage(ctx context.Context, req *Request) (Proof, error) {
	if err := checkAccount(KindOnchain, req.Account, b.account); err != nil {
		return Proof{}, err
	}
	if b.facts == nil {
		return Proof{Kind: ProofOnchain}, nil
	}

	fact, err := b.facts.AuthFact(ctx, b.mainContract, b.account, uint32(req.Nonce))
	if err != nil {
		return Proof{}, errors.Wrap(err, "failed to read on-chain authorization")
	}

	expected := crypto.Keccak256Hash(req.PubKeyHash[:])
	if fact != expected {
		util.LogFromContext(ctx).Warn().
			Str("account", b.account.Hex()).
			Uint32("nonce", uint32(req.Nonce)).
			Msg("No matching on-chain authorization")
		return Proof{}, authError(types.AuthContextMismatch, KindOnchain, &types.ProtocolMismatchError{
			What:     "auth fact",
			Expected: expected.Hex(),
			Actual:   fact.Hex(),
		})
	}

	return Proof{Kind: ProofOnchain}, nil
}
