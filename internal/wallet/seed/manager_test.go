package seed_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/wallet/seed"
)

// BIP-39 reference vector with passphrase "TREZOR".
const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testSeedHex  = "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04"
)

func TestInitializeFromMnemonic(t *testing.T) {
	m := seed.NewManager()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.GetSeed())

	require.NoError(t, m.Initialize(testMnemonic, "TREZOR"))
	assert.True(t, m.IsInitialized())
	assert.Equal(t, testSeedHex, hex.EncodeToString(m.GetSeed()))
}

func TestInitializeRejectsBadMnemonic(t *testing.T) {
	m := seed.NewManager()
	require.Error(t, m.Initialize("abandon abandon abandon", ""))
	assert.False(t, m.IsInitialized())
}

func TestGetSeedReturnsCopy(t *testing.T) {
	m, err := seed.NewManagerFromSecret([]byte{1, 2, 3})
	require.NoError(t, err)

	s := m.GetSeed()
	s[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, m.GetSeed())

	m.Clear()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.GetSeed())
}

func TestNewMnemonic(t *testing.T) {
	mnemonic, err := seed.NewMnemonic()
	require.NoError(t, err)

	m := seed.NewManager()
	require.NoError(t, m.Initialize(mnemonic, ""))
	assert.Len(t, m.GetSeed(), 64)
}
