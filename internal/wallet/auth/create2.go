package auth

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

// create2Backend authenticates counterfactual accounts whose address commits to the new pubkey hash.
type create2Backend struct {
	data    tx.Create2Data
	account common.Address
}

//nolint:ireturn
func NewCreate2Backend(data tx.Create2Data, account common.Address) Backend {
	return &create2Backend{data: data, account: account}
}

func (b *create2Backend) Kind() Kind { return KindCreate2 }

func (b *create2Backend) Identity(context.Context) (common.Address, error) {
	return b.account, nil
}

func (b *create2Backend) Interactive() bool { return false }

func (b *create2Backend) SignMessage(_ context.Context, req *Request) (Proof, error) {
	if err := checkAccount(KindCreate2, req.Account, b.account); err != nil {
		return Proof{}, err
	}
	if req.PubKeyHash.IsZero() {
		return Proof{}, errors.New("create2 authentication needs the new pubkey hash")
	}

	derived := b.data.Address(req.PubKeyHash)
	if derived != b.account {
		return Proof{}, authError(types.AuthContextMismatch, KindCreate2, &types.ProtocolMismatchError{
			What:     "create2 address",
			Expected: b.account.Hex(),
			Actual:   derived.Hex(),
		})
	}

	data := b.data
	return Proof{Kind: ProofCreate2, Create2: &data}, nil
}
