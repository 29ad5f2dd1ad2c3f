package auth

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

// remoteBackend delegates signing to an external wallet over a Session.
type remoteBackend struct {
	session Session
	timeout time.Duration
}

// NewRemoteBackend wraps session. A zero timeout leaves the deadline to the caller's context.
//
//nolint:ireturn
func NewRemoteBackend(session Session, timeout time.Duration) Backend {
	return &remoteBackend{session: session, timeout: timeout}
}

func (b *remoteBackend) Kind() Kind { return KindRemote }

func (b *remoteBackend) Interactive() bool { return true }

func (b *remoteBackend) Identity(ctx context.Context) (common.Address, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	var accounts []common.Address
	if err := b.session.Call(ctx, &accounts, "eth_accounts"); err != nil {
		return common.Address{}, b.mapError(ctx, err)
	}
	if len(accounts) == 0 {
		return common.Address{}, authError(types.AuthSessionDisconnected, KindRemote, errors.New("wallet exposes no accounts"))
	}
	return accounts[0], nil
}

func (b *remoteBackend) SignMessage(ctx context.Context, req *Request) (Proof, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	logger := util.LogFromContext(ctx)

	if req.NetworkID != 0 {
		var chainID hexutil.Uint64
		if err := b.session.Call(ctx, &chainID, "eth_chainId"); err != nil {
			return Proof{}, b.mapError(ctx, err)
		}
		if uint64(chainID) != req.NetworkID {
			return Proof{}, authError(types.AuthContextMismatch, KindRemote, &types.ProtocolMismatchError{
				What:     "network id",
				Expected: strconv.FormatUint(req.NetworkID, 10),
				Actual:   strconv.FormatUint(uint64(chainID), 10),
			})
		}
	}

	from := req.Account
	if from == (common.Address{}) {
		identity, err := b.Identity(ctx)
		if err != nil {
			return Proof{}, err
		}
		from = identity
	}

	logger.Info().Str("backend", string(KindRemote)).Str("account", from.Hex()).Msg("Requesting signature from wallet")

	var sig hexutil.Bytes
	if req.TypedData != nil {
		typed, err := json.Marshal(req.TypedData)
		if err != nil {
			return Proof{}, errors.Wrap(err, "failed to marshal typed data")
		}
		if err := b.session.Call(ctx, &sig, "eth_signTypedData_v4", from, string(typed)); err != nil {
			return Proof{}, b.mapError(ctx, err)
		}
	} else {
		if err := b.session.Call(ctx, &sig, "personal_sign", hexutil.Bytes(req.Message), from); err != nil {
			return Proof{}, b.mapError(ctx, err)
		}
	}

	if err := verifySigner(req, sig, from); err != nil {
		return Proof{}, err
	}

	return Proof{Kind: ProofECDSA, Signature: sig}, nil
}

func (b *remoteBackend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// mapError classifies session failures into the auth error taxonomy.
func (b *remoteBackend) mapError(ctx context.Context, err error) error {
	var rpcErr *RPCError
	switch {
	case errors.As(err, &rpcErr) && (rpcErr.Code == CodeUserRejected || rpcErr.Code == CodeUnauthorized):
		return authError(types.AuthUserRejected, KindRemote, err)
	case errors.As(err, &rpcErr) && (rpcErr.Code == CodeDisconnected || rpcErr.Code == CodeChainDisconnected):
		return authError(types.AuthSessionDisconnected, KindRemote, err)
	case errors.Is(err, ErrSessionClosed):
		return authError(types.AuthSessionDisconnected, KindRemote, err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return authError(types.AuthTimeout, KindRemote, err)
	default:
		return errors.Wrap(err, "wallet request failed")
	}
}

// verifySigner recovers the signer of an ECDSA signature and compares it with the expected account.
func verifySigner(req *Request, sig []byte, expected common.Address) error {
	if len(sig) != crypto.SignatureLength {
		return authError(types.AuthContextMismatch, KindRemote, errors.Errorf("signature has %d bytes", len(sig)))
	}

	digest, err := req.Digest()
	if err != nil {
		return err
	}

	normalized := append([]byte(nil), sig...)
	if normalized[crypto.RecoveryIDOffset] >= 27 { //nolint:mnd
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return authError(types.AuthContextMismatch, KindRemote, errors.Wrap(err, "unrecoverable signature"))
	}

	return checkAccount(KindRemote, expected, crypto.PubkeyToAddress(*pub))
}
