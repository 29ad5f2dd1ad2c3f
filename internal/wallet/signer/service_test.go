package signer_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/signer"
)

func newTransfer(t *testing.T) *tx.Transfer {
	t.Helper()

	transfer, err := tx.NewTransfer(tx.TransferBuilder{
		AccountID:        10,
		FromSubAccountID: 1,
		ToAddress:        types.MustParseAddress("0xAFAFf3aD1a0425D792432D9eCD1c3e26Ef2C42E9"),
		ToSubAccountID:   1,
		Token:            18,
		Amount:           big.NewInt(10000),
		Fee:              big.NewInt(3),
		Nonce:            1,
		Timestamp:        1693472232,
	})
	require.NoError(t, err)
	return transfer
}

func TestNewFromSeedIsDeterministic(t *testing.T) {
	first, err := signer.NewFromSeed([]byte("rollup seed"))
	require.NoError(t, err)
	second, err := signer.NewFromSeed([]byte("rollup seed"))
	require.NoError(t, err)
	other, err := signer.NewFromSeed([]byte("another seed"))
	require.NoError(t, err)

	assert.Equal(t, first.PubKey(), second.PubKey())
	assert.Equal(t, first.PubKeyHash(), second.PubKeyHash())
	assert.NotEqual(t, first.PubKey(), other.PubKey())
	assert.Equal(t, signer.PubKeyHash(first.PubKey()), first.PubKeyHash())

	_, err = signer.NewFromSeed(nil)
	require.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	s, err := signer.NewRandom()
	require.NoError(t, err)

	msg := []byte("hello rollup")
	sig, err := s.Sign(msg)
	require.NoError(t, err)
	assert.Equal(t, s.PubKey(), sig.PubKey)
	assert.False(t, sig.IsZero())

	assert.True(t, signer.Verify(sig, msg))
	assert.False(t, signer.Verify(sig, []byte("hello rollup!")))
	assert.False(t, signer.Verify(&types.ZkSignature{}, msg))
	assert.False(t, signer.Verify(nil, msg))

	other, err := signer.NewRandom()
	require.NoError(t, err)
	forged := *sig
	forged.PubKey = other.PubKey()
	assert.False(t, signer.Verify(&forged, msg))
}

func TestSignTxAttachesSignature(t *testing.T) {
	s, err := signer.NewFromSeed([]byte("rollup seed"))
	require.NoError(t, err)

	transfer := newTransfer(t)
	sig, err := s.SignTx(transfer)
	require.NoError(t, err)
	assert.Equal(t, *sig, transfer.RollupSignature())
	assert.True(t, signer.VerifyTx(transfer))

	// any change to a covered field invalidates the signature
	transfer.Nonce++
	assert.False(t, signer.VerifyTx(transfer))
}

func TestSignTxRejectsInvalid(t *testing.T) {
	s, err := signer.NewRandom()
	require.NoError(t, err)

	transfer := newTransfer(t)
	transfer.AccountID = 1
	_, err = s.SignTx(transfer)
	require.Error(t, err)
	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "accountId", validationErr.Field)
	assert.True(t, transfer.RollupSignature().IsZero())
}

func TestSignOrderAndVerify(t *testing.T) {
	s, err := signer.NewRandom()
	require.NoError(t, err)

	order, err := tx.NewOrder(tx.OrderBuilder{
		AccountID:    5,
		SubAccountID: 1,
		SlotID:       3,
		Nonce:        1,
		BaseTokenID:  18,
		QuoteTokenID: 145,
		Amount:       big.NewInt(1000000),
		Price:        big.NewInt(1500000000000),
		MakerFeeRate: 5,
		TakerFeeRate: 10,
	})
	require.NoError(t, err)
	assert.False(t, signer.VerifyOrder(order))

	_, err = s.SignOrder(order)
	require.NoError(t, err)
	assert.True(t, signer.VerifyOrder(order))

	order.SlotID = 4
	assert.False(t, signer.VerifyOrder(order))
}

func TestNewFromBaseChain(t *testing.T) {
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	backend, err := auth.NewLocalBackend(crypto.FromECDSA(key))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := signer.NewFromBaseChain(ctx, backend, 1)
	require.NoError(t, err)
	second, err := signer.NewFromBaseChain(ctx, backend, 1)
	require.NoError(t, err)
	assert.Equal(t, first.PubKeyHash(), second.PubKeyHash())

	proof, err := backend.SignMessage(ctx, &auth.Request{Message: []byte(signer.SeedMessage)})
	require.NoError(t, err)
	fromSig, err := signer.NewFromSeed(proof.Signature)
	require.NoError(t, err)
	assert.Equal(t, first.PubKey(), fromSig.PubKey())
}

func TestClose(t *testing.T) {
	s, err := signer.NewRandom()
	require.NoError(t, err)
	pub := s.PubKey()

	s.Close()
	assert.Equal(t, pub, s.PubKey())
	_, err = s.Sign([]byte("after close"))
	require.Error(t, err)
}
