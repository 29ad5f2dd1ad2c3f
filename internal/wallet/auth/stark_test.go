package auth_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/auth"
)

var starkAccount = common.HexToAddress("0x04a69b67bcabfa7d3ccb96e1d25c2e6fc93589fe")

type fixedStarkKeys []byte

func (k fixedStarkKeys) PublicKey(context.Context, common.Address) ([]byte, error) {
	return k, nil
}

func newStarkBackend(t *testing.T, keys auth.StarkKeyReader) auth.Backend {
	t.Helper()

	key, err := auth.GenerateStarkKey()
	require.NoError(t, err)
	backend, err := auth.NewStarkBackend(key, auth.StarkConfig{Account: starkAccount, ChainID: "SN_MAIN", Keys: keys})
	require.NoError(t, err)
	return backend
}

func TestStarkBackendSignsText(t *testing.T) {
	ctx := context.Background()
	backend := newStarkBackend(t, nil)
	assert.Equal(t, auth.KindStark, backend.Kind())
	assert.False(t, backend.Interactive())
	assert.True(t, backend.Kind().SignsMessages())

	identity, err := backend.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, starkAccount, identity)

	msg := []byte("Transfer 1 USDC\nNonce: 1")
	proof, err := backend.SignMessage(ctx, &auth.Request{Message: msg, Account: starkAccount})
	require.NoError(t, err)
	assert.Equal(t, auth.ProofStark, proof.Kind)
	require.Len(t, proof.PubKey, auth.StarkPubKeyLen)
	require.Len(t, proof.Signature, auth.StarkSignatureLen)

	hash := auth.StarkMessageHash("SN_MAIN", accounts.TextHash(msg))
	ok, err := auth.VerifyStark(proof.PubKey, proof.Signature, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	other := auth.StarkMessageHash("SN_SEPOLIA", accounts.TextHash(msg))
	ok, err = auth.VerifyStark(proof.PubKey, proof.Signature, other)
	require.NoError(t, err)
	assert.False(t, ok)

	l1, ok := proof.Layer1Signature()
	require.True(t, ok)
	assert.Equal(t, tx.StarkSignature, l1.Kind)
	pubKey, sig, ok := l1.StarkParts()
	require.True(t, ok)
	assert.Equal(t, []byte(proof.PubKey), pubKey)
	assert.Equal(t, []byte(proof.Signature), sig)
}

func TestStarkKeyIsDeterministic(t *testing.T) {
	key, err := auth.GenerateStarkKey()
	require.NoError(t, err)

	a, err := auth.StarkKeyFromScalar(key)
	require.NoError(t, err)
	b, err := auth.StarkKeyFromScalar(key)
	require.NoError(t, err)
	assert.Equal(t, a.PublicKey.Bytes(), b.PublicKey.Bytes())

	_, err = auth.StarkKeyFromScalar(nil)
	require.Error(t, err)
	_, err = auth.StarkKeyFromScalar(make([]byte, 32))
	require.Error(t, err)
}

func TestStarkBackendChecksRegisteredKey(t *testing.T) {
	ctx := context.Background()
	backend := newStarkBackend(t, fixedStarkKeys(make([]byte, auth.StarkPubKeyLen)))

	_, err := backend.SignMessage(ctx, &auth.Request{Message: []byte("hello")})
	assert.True(t, types.IsAuthError(err, types.AuthContextMismatch))
}

func TestStarkBackendRejectsOtherAccount(t *testing.T) {
	backend := newStarkBackend(t, nil)

	_, err := backend.SignMessage(context.Background(), &auth.Request{
		Message: []byte("hello"),
		Account: common.HexToAddress("0x0000000000000000000000000000000000000001"),
	})
	assert.True(t, types.IsAuthError(err, types.AuthContextMismatch))
}

func TestNewStarkBackendValidatesConfig(t *testing.T) {
	key, err := auth.GenerateStarkKey()
	require.NoError(t, err)

	_, err = auth.NewStarkBackend(key, auth.StarkConfig{ChainID: "SN_MAIN"})
	require.Error(t, err)
	_, err = auth.NewStarkBackend(key, auth.StarkConfig{Account: starkAccount})
	require.Error(t, err)
}

func TestSignsMessages(t *testing.T) {
	assert.True(t, auth.KindLocal.SignsMessages())
	assert.True(t, auth.KindRemote.SignsMessages())
	assert.True(t, auth.KindAccountAbstraction.SignsMessages())
	assert.False(t, auth.KindOnchain.SignsMessages())
	assert.False(t, auth.KindCreate2.SignsMessages())
}
