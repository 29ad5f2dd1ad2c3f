package orchestrator_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/orchestrator"
	"github/chapool/go-rollup/internal/wallet/signer"
)

const (
	testTimestamp = types.TimeStamp(1693472232)
	baseChainID   = 1
)

var (
	mainContract = common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	recipient    = types.MustParseAddress("0xAFAFf3aD1a0425D792432D9eCD1c3e26Ef2C42E9")
)

func localBackend(t *testing.T) auth.Backend {
	t.Helper()

	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	backend, err := auth.NewLocalBackend(crypto.FromECDSA(key))
	require.NoError(t, err)
	return backend
}

func newSigner(t *testing.T, seed string) signer.Service {
	t.Helper()

	s, err := signer.NewFromSeed([]byte(seed))
	require.NoError(t, err)
	return s
}

func newTransfer(t *testing.T) *tx.Transfer {
	t.Helper()

	transfer, err := tx.NewTransfer(tx.TransferBuilder{
		AccountID: 10, FromSubAccountID: 1, ToAddress: recipient, ToSubAccountID: 1, Token: 18,
		Amount: big.NewInt(10000), Fee: big.NewInt(3), Nonce: 1, Timestamp: testTimestamp,
	})
	require.NoError(t, err)
	return transfer
}

func newOrder(t *testing.T, accountID types.AccountID, isSell bool) *tx.Order {
	t.Helper()

	order, err := tx.NewOrder(tx.OrderBuilder{
		AccountID: accountID, SubAccountID: 1, SlotID: 3, Nonce: 1, BaseTokenID: 18, QuoteTokenID: 145,
		Amount: big.NewInt(1000000), Price: big.NewInt(1500000000000), IsSell: isSell,
		MakerFeeRate: 5, TakerFeeRate: 10,
	})
	require.NoError(t, err)
	return order
}

// blockingBackend answers only when released or when its context ends.
type blockingBackend struct {
	started chan struct{}
	release chan struct{}
	proof   auth.Proof
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		proof:   auth.Proof{Kind: auth.ProofECDSA, Signature: make([]byte, 65)},
	}
}

func (b *blockingBackend) Kind() auth.Kind { return auth.KindRemote }

func (b *blockingBackend) Identity(context.Context) (common.Address, error) {
	return common.Address{}, nil
}

func (b *blockingBackend) Interactive() bool { return true }

func (b *blockingBackend) SignMessage(ctx context.Context, _ *auth.Request) (auth.Proof, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return b.proof, nil
	case <-ctx.Done():
		return auth.Proof{}, ctx.Err() //nolint:wrapcheck
	}
}

// fixedBackend always answers with the configured proof or error.
type fixedBackend struct {
	proof auth.Proof
	err   error
}

func (b fixedBackend) Kind() auth.Kind { return auth.KindRemote }

func (b fixedBackend) Identity(context.Context) (common.Address, error) {
	return common.Address{}, nil
}

func (b fixedBackend) Interactive() bool { return true }

func (b fixedBackend) SignMessage(context.Context, *auth.Request) (auth.Proof, error) {
	return b.proof, b.err
}

func TestChangePubKeyWithECDSA(t *testing.T) {
	ctx := context.Background()
	backend := localBackend(t)
	rollupSigner, err := signer.NewFromBaseChain(ctx, backend, baseChainID)
	require.NoError(t, err)

	cpk, err := tx.NewChangePubKey(tx.ChangePubKeyBuilder{
		ChainID: 1, AccountID: 10, SubAccountID: 1, NewPkHash: rollupSigner.PubKeyHash(),
		FeeToken: 18, Fee: big.NewInt(0), Nonce: 0, Timestamp: testTimestamp,
	})
	require.NoError(t, err)

	identity, err := backend.Identity(ctx)
	require.NoError(t, err)

	orch := orchestrator.NewService(rollupSigner)
	signed, err := orch.Run(ctx, cpk, orchestrator.RunOptions{
		Backend: backend,
		Auth:    orchestrator.AuthOptions{NetworkID: baseChainID, MainContract: mainContract, Account: identity},
	})
	require.NoError(t, err)

	out, ok := signed.Tx.(*tx.ChangePubKey)
	require.True(t, ok)
	assert.True(t, signer.VerifyTx(out))
	assert.Nil(t, signed.Layer1Signature)
	assert.Nil(t, signed.SubmitterSignature)

	expectedHash, err := tx.Hash(out)
	require.NoError(t, err)
	assert.Equal(t, expectedHash, signed.Hash)

	require.Equal(t, tx.AuthDataEthECDSA, out.EthAuthData.Kind)
	require.Len(t, out.EthAuthData.EthSignature, 65)

	digest, err := out.TypedDataHash(baseChainID, mainContract)
	require.NoError(t, err)
	sig := append([]byte(nil), out.EthAuthData.EthSignature...)
	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, identity, crypto.PubkeyToAddress(*pub))
}

func TestChangePubKeyRequiresAuth(t *testing.T) {
	ctx := context.Background()
	rollupSigner := newSigner(t, "cpk")
	orch := orchestrator.NewService(rollupSigner)

	cpk, err := tx.NewChangePubKey(tx.ChangePubKeyBuilder{
		ChainID: 1, AccountID: 10, SubAccountID: 1, NewPkHash: rollupSigner.PubKeyHash(),
		FeeToken: 18, Fee: big.NewInt(0), Timestamp: testTimestamp,
	})
	require.NoError(t, err)

	_, err = orch.Run(ctx, cpk, orchestrator.RunOptions{})
	assert.True(t, errors.Is(err, orchestrator.ErrAuthRequired))

	env, err := orch.Build(cpk.Clone())
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))
	err = orch.SignSubmitter(ctx, env, newSigner(t, "submitter"))
	assert.True(t, errors.Is(err, orchestrator.ErrAuthRequired))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())
}

func TestOrderMatchingEmbedsIndependentlySignedOrders(t *testing.T) {
	ctx := context.Background()
	makerSigner := newSigner(t, "maker")
	takerSigner := newSigner(t, "taker")
	matcher := newSigner(t, "matcher")
	submitter := newSigner(t, "submitter")

	maker := newOrder(t, 5, true)
	taker := newOrder(t, 6, false)
	_, err := makerSigner.SignOrder(maker)
	require.NoError(t, err)
	_, err = takerSigner.SignOrder(taker)
	require.NoError(t, err)

	matching, err := tx.NewOrderMatching(tx.OrderMatchingBuilder{
		AccountID: 10, SubAccountID: 1, Maker: maker, Taker: taker, Fee: big.NewInt(3), FeeToken: 18,
	})
	require.NoError(t, err)

	signed, err := orchestrator.NewService(matcher).Run(ctx, matching, orchestrator.RunOptions{Submitter: submitter})
	require.NoError(t, err)

	out, ok := signed.Tx.(*tx.OrderMatching)
	require.True(t, ok)
	assert.True(t, signer.VerifyTx(out))
	assert.Equal(t, matcher.PubKey(), out.Signature.PubKey)

	makerBytes, err := out.Maker.Encode()
	require.NoError(t, err)
	assert.True(t, signer.Verify(&out.Maker.Signature, makerBytes))
	assert.Equal(t, makerSigner.PubKey(), out.Maker.Signature.PubKey)

	takerBytes, err := out.Taker.Encode()
	require.NoError(t, err)
	assert.True(t, signer.Verify(&out.Taker.Signature, takerBytes))
	assert.Equal(t, takerSigner.PubKey(), out.Taker.Signature.PubKey)

	require.NotNil(t, signed.SubmitterSignature)
	assert.Equal(t, submitter.PubKey(), signed.SubmitterSignature.PubKey)
	assert.True(t, signer.Verify(signed.SubmitterSignature, signed.Hash[:]))
}

func TestTransferWithLayer1Signature(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "transfer"))

	signed, err := orch.Run(ctx, newTransfer(t), orchestrator.RunOptions{
		Backend: localBackend(t),
		Auth:    orchestrator.AuthOptions{NetworkID: baseChainID, TokenSymbol: "USDC"},
	})
	require.NoError(t, err)
	require.NotNil(t, signed.Layer1Signature)
	assert.Equal(t, tx.EthereumSignature, signed.Layer1Signature.Kind)
	assert.Len(t, signed.Layer1Signature.Signature, 65)
}

func TestAuthNotApplicable(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "funding"))

	funding, err := tx.NewFunding(tx.FundingBuilder{
		AccountID: 10, SubAccountID: 1, SubAccountNonce: 1, FundingAccountIDs: []types.AccountID{11},
		FeeToken: 18, Fee: big.NewInt(0),
	})
	require.NoError(t, err)

	env, err := orch.Build(funding)
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))

	err = orch.Authenticate(ctx, env, localBackend(t), orchestrator.AuthOptions{})
	assert.True(t, errors.Is(err, orchestrator.ErrAuthNotApplicable))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())

	// Run skips the backend for kinds without a base-chain proof
	signed, err := orch.Run(ctx, funding.Clone(), orchestrator.RunOptions{Backend: localBackend(t)})
	require.NoError(t, err)
	assert.Nil(t, signed.Layer1Signature)
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "transitions"))

	env, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StateBuilt, env.State())

	_, err = orch.Finalize(ctx, env)
	assert.True(t, errors.Is(err, orchestrator.ErrInvalidTransition))
	err = orch.Authenticate(ctx, env, localBackend(t), orchestrator.AuthOptions{})
	assert.True(t, errors.Is(err, orchestrator.ErrInvalidTransition))

	require.NoError(t, orch.SignRollup(ctx, env))
	err = orch.SignRollup(ctx, env)
	assert.True(t, errors.Is(err, orchestrator.ErrInvalidTransition))

	_, err = orch.Finalize(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StateFinalized, env.State())

	_, err = orch.Finalize(ctx, env)
	assert.True(t, errors.Is(err, orchestrator.ErrInvalidTransition))
	err = orch.Mutate(ctx, env, func(tx.Tx) error { return nil })
	assert.True(t, errors.Is(err, orchestrator.ErrInvalidTransition))
}

func TestMutateDropsSignatures(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "mutate"))

	env, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))
	require.NoError(t, orch.Authenticate(ctx, env, localBackend(t), orchestrator.AuthOptions{TokenSymbol: "USDC"}))
	require.NoError(t, orch.SignSubmitter(ctx, env, newSigner(t, "submitter")))
	assert.Equal(t, orchestrator.StateSubmitterSigned, env.State())

	err = orch.Mutate(ctx, env, func(next tx.Tx) error {
		next.(*tx.Transfer).Nonce = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StateBuilt, env.State())
	assert.True(t, env.Tx().RollupSignature().IsZero())
	assert.Equal(t, types.Nonce(2), env.Tx().(*tx.Transfer).Nonce)

	require.NoError(t, orch.SignRollup(ctx, env))
	signed, err := orch.Finalize(ctx, env)
	require.NoError(t, err)
	assert.Nil(t, signed.Layer1Signature)
	assert.Nil(t, signed.SubmitterSignature)
	assert.True(t, signer.VerifyTx(signed.Tx))
}

func TestMutateRejectsInvalidEdit(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "mutate"))

	env, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))

	err = orch.Mutate(ctx, env, func(next tx.Tx) error {
		next.(*tx.Transfer).AccountID = 1
		return nil
	})
	var validationErr *types.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())
}

func TestDirectEditInvalidatesSignatures(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "edit"))

	transfer := newTransfer(t)
	env, err := orch.Build(transfer)
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))

	transfer.Amount.SetInt64(20000)

	_, err = orch.Finalize(ctx, env)
	assert.True(t, errors.Is(err, orchestrator.ErrSignaturesInvalidated))
	assert.Equal(t, orchestrator.StateBuilt, env.State())
	assert.True(t, transfer.RollupSignature().IsZero())

	require.NoError(t, orch.SignRollup(ctx, env))
	signed, err := orch.Finalize(ctx, env)
	require.NoError(t, err)
	assert.True(t, signer.VerifyTx(signed.Tx))
}

func TestAuthFailureLeavesRollupSigned(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "failure"))

	env, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))

	rejected := types.NewAuthBackendError(types.AuthUserRejected, "remote", errors.New("user denied"))
	err = orch.Authenticate(ctx, env, fixedBackend{err: rejected}, orchestrator.AuthOptions{})
	require.Error(t, err)
	assert.True(t, types.IsAuthError(err, types.AuthUserRejected))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())

	// the envelope is still usable
	require.NoError(t, orch.Authenticate(ctx, env, localBackend(t), orchestrator.AuthOptions{}))
	assert.Equal(t, orchestrator.StateBaseChainAuthenticated, env.State())
}

func TestAuthInProgressAndCancel(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "cancel"))

	env, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))
	assert.False(t, orch.Cancel(env))

	backend := newBlockingBackend()
	done := make(chan error, 1)
	go func() {
		done <- orch.Authenticate(ctx, env, backend, orchestrator.AuthOptions{})
	}()
	<-backend.started

	err = orch.Authenticate(ctx, env, localBackend(t), orchestrator.AuthOptions{})
	assert.True(t, errors.Is(err, orchestrator.ErrAuthInProgress))
	err = orch.Mutate(ctx, env, func(tx.Tx) error { return nil })
	assert.True(t, errors.Is(err, orchestrator.ErrAuthInProgress))
	_, err = orch.Finalize(ctx, env)
	assert.True(t, errors.Is(err, orchestrator.ErrAuthInProgress))

	assert.True(t, orch.Cancel(env))
	assert.True(t, errors.Is(<-done, orchestrator.ErrAuthCanceled))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())

	// a fresh attempt completes
	go func() {
		done <- orch.Authenticate(ctx, env, backend, orchestrator.AuthOptions{})
	}()
	<-backend.started
	close(backend.release)
	require.NoError(t, <-done)
	assert.Equal(t, orchestrator.StateBaseChainAuthenticated, env.State())
}

func TestAuthContextTimeout(t *testing.T) {
	orch := orchestrator.NewService(newSigner(t, "timeout"))

	env, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(context.Background(), env))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = orch.Authenticate(ctx, env, newBlockingBackend(), orchestrator.AuthOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())
}

func TestUnrelatedEnvelopesProgressInParallel(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "parallel"))

	blocked, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, blocked))

	backend := newBlockingBackend()
	done := make(chan error, 1)
	go func() {
		done <- orch.Authenticate(ctx, blocked, backend, orchestrator.AuthOptions{})
	}()
	<-backend.started

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(nonce types.Nonce) {
			defer wg.Done()

			transfer := newTransfer(t)
			transfer.Nonce = nonce
			signed, err := orch.Run(ctx, transfer, orchestrator.RunOptions{})
			assert.NoError(t, err)
			if signed != nil {
				assert.True(t, signer.VerifyTx(signed.Tx))
			}
		}(types.Nonce(10 + i))
	}
	wg.Wait()

	assert.Equal(t, orchestrator.StateRollupSigned, blocked.State())
	close(backend.release)
	require.NoError(t, <-done)
}

func TestCreate2ProofForChangePubKey(t *testing.T) {
	ctx := context.Background()
	rollupSigner := newSigner(t, "create2")

	data := tx.Create2Data{
		CreatorAddress: common.HexToAddress("0x6E253C951A40fAf4032faFbEc19262Cd1531A5F5"),
		SaltArg:        common.HexToHash("0x01"),
		CodeHash:       crypto.Keccak256Hash([]byte("wallet init code")),
	}
	backend := auth.NewCreate2Backend(data, data.Address(rollupSigner.PubKeyHash()))

	cpk, err := tx.NewChangePubKey(tx.ChangePubKeyBuilder{
		ChainID: 1, AccountID: 10, SubAccountID: 1, NewPkHash: rollupSigner.PubKeyHash(),
		FeeToken: 18, Fee: big.NewInt(0), Timestamp: testTimestamp,
	})
	require.NoError(t, err)

	signed, err := orchestrator.NewService(rollupSigner).Run(ctx, cpk, orchestrator.RunOptions{Backend: backend})
	require.NoError(t, err)

	out := signed.Tx.(*tx.ChangePubKey)
	assert.Equal(t, tx.AuthDataEthCreate2, out.EthAuthData.Kind)
	require.NotNil(t, out.EthAuthData.Create2)
	assert.Equal(t, data, *out.EthAuthData.Create2)
}

func TestUnsupportedProofForTransfer(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "unsupported"))

	backend := fixedBackend{proof: auth.Proof{Kind: auth.ProofOnchain}}

	env, err := orch.Build(newTransfer(t))
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))

	err = orch.Authenticate(ctx, env, backend, orchestrator.AuthOptions{})
	assert.True(t, errors.Is(err, orchestrator.ErrUnsupportedProof))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())
}

func TestRunSkipsOptionalAuthForOnchainBackend(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "optional-onchain"))

	account := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	signed, err := orch.Run(ctx, newTransfer(t), orchestrator.RunOptions{
		Backend: auth.NewOnchainBackend(account, nil, mainContract),
		Auth:    orchestrator.AuthOptions{NetworkID: baseChainID, TokenSymbol: "USDC"},
	})
	require.NoError(t, err)
	assert.Nil(t, signed.Layer1Signature)
	assert.NotEmpty(t, signed.Tx)
}

func TestTransferWithStarkSignature(t *testing.T) {
	ctx := context.Background()
	orch := orchestrator.NewService(newSigner(t, "stark-transfer"))

	key, err := auth.GenerateStarkKey()
	require.NoError(t, err)
	backend, err := auth.NewStarkBackend(key, auth.StarkConfig{
		Account: common.HexToAddress("0x04a69b67bcabfa7d3ccb96e1d25c2e6fc93589fe"),
		ChainID: "SN_SEPOLIA",
	})
	require.NoError(t, err)

	signed, err := orch.Run(ctx, newTransfer(t), orchestrator.RunOptions{
		Backend: backend,
		Auth:    orchestrator.AuthOptions{NetworkID: baseChainID, TokenSymbol: "USDC"},
	})
	require.NoError(t, err)
	require.NotNil(t, signed.Layer1Signature)
	assert.Equal(t, tx.StarkSignature, signed.Layer1Signature.Kind)

	pubKey, sig, ok := signed.Layer1Signature.StarkParts()
	require.True(t, ok)
	assert.Len(t, pubKey, auth.StarkPubKeyLen)
	assert.Len(t, sig, auth.StarkSignatureLen)
}

func TestStarkProofRejectedForChangePubKey(t *testing.T) {
	ctx := context.Background()
	rollupSigner := newSigner(t, "stark-cpk")
	orch := orchestrator.NewService(rollupSigner)

	cpk, err := tx.NewChangePubKey(tx.ChangePubKeyBuilder{
		ChainID: 1, AccountID: 10, SubAccountID: 1, NewPkHash: rollupSigner.PubKeyHash(),
		FeeToken: 18, Fee: big.NewInt(0), Timestamp: testTimestamp,
	})
	require.NoError(t, err)

	backend := fixedBackend{proof: auth.Proof{
		Kind:      auth.ProofStark,
		Signature: make([]byte, auth.StarkSignatureLen),
		PubKey:    make([]byte, auth.StarkPubKeyLen),
	}}

	env, err := orch.Build(cpk)
	require.NoError(t, err)
	require.NoError(t, orch.SignRollup(ctx, env))

	err = orch.Authenticate(ctx, env, backend, orchestrator.AuthOptions{NetworkID: baseChainID, MainContract: mainContract})
	assert.True(t, errors.Is(err, orchestrator.ErrUnsupportedProof))
	assert.Equal(t, orchestrator.StateRollupSigned, env.State())
}
