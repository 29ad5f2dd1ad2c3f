package pack_test

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/rollup/pack"
	"github/chapool/go-rollup/internal/rollup/types"
)

func decimal(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, s)
	return v
}

func TestProfileWidths(t *testing.T) {
	assert.Equal(t, 5, pack.Amount.Bytes())
	assert.Equal(t, 2, pack.Fee.Bytes())
	assert.Equal(t, int64(31), pack.Amount.MaxExponent())
	assert.Equal(t, "34359738367", pack.Amount.MaxMantissa().String())
	assert.Equal(t, "2047", pack.Fee.MaxMantissa().String())
	assert.Equal(t, "20470000000000000000000000000000000", pack.Fee.MaxValue().String())
}

func TestPackKnownEncodings(t *testing.T) {
	packed, err := pack.PackAmount(big.NewInt(10000))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 4, 226, 0}, packed)

	packed, err = pack.PackFee(big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 96}, packed)

	packed, err = pack.PackFee(big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, []byte{12, 128}, packed)

	packed, err = pack.PackAmount(big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, packed)
}

func TestClosestPackable(t *testing.T) {
	value := decimal(t, "1234567899808787")

	closest, err := pack.ClosestPackableAmount(value)
	require.NoError(t, err)
	assert.Equal(t, "1234567899800000", closest.String())
	assert.LessOrEqual(t, closest.Cmp(value), 0)

	packed, err := pack.PackAmount(value)
	require.NoError(t, err)
	unpacked, err := pack.UnpackAmount(packed)
	require.NoError(t, err)
	assert.Equal(t, closest, unpacked)

	repacked, err := pack.PackAmount(unpacked)
	require.NoError(t, err)
	assert.Equal(t, packed, repacked)

	fee, err := pack.ClosestPackableFee(value)
	require.NoError(t, err)
	assert.Equal(t, "1234000000000000", fee.String())
}

func TestClosestPackablePicksNearerCandidate(t *testing.T) {
	// 2075 keeps 207*10; 2048 falls back to the saturated 2047*1
	closest, err := pack.ClosestPackableFee(big.NewInt(2075))
	require.NoError(t, err)
	assert.Equal(t, "2070", closest.String())

	closest, err = pack.ClosestPackableFee(big.NewInt(2050))
	require.NoError(t, err)
	assert.Equal(t, "2050", closest.String())

	closest, err = pack.ClosestPackableFee(big.NewInt(2048))
	require.NoError(t, err)
	assert.Equal(t, "2047", closest.String())
}

func TestPackRoundsDownAndIsIdempotent(t *testing.T) {
	values := []string{
		"1", "9", "2047", "2048", "2049", "99999", "123456789", "34359738367", "34359738368",
		"1000000000000000000", "1999999999999999999", "987654321987654321987654321",
		"34359738367000000000000000000000000000",
	}

	for _, profile := range []pack.Profile{pack.Amount, pack.Fee} {
		for _, s := range values {
			value := decimal(t, s)
			packed, err := pack.Pack(value, profile)
			if value.Cmp(profile.MaxValue()) > 0 {
				var overflow *types.PackingOverflowError
				require.True(t, errors.As(err, &overflow), "%s %s", profile.Name, s)
				continue
			}
			require.NoError(t, err, "%s %s", profile.Name, s)

			unpacked, err := pack.Unpack(packed, profile)
			require.NoError(t, err)
			assert.LessOrEqual(t, unpacked.Cmp(value), 0, "%s %s", profile.Name, s)

			again, err := pack.Pack(unpacked, profile)
			require.NoError(t, err)
			assert.Equal(t, packed, again, "%s %s", profile.Name, s)

			second, err := pack.Pack(value, profile)
			require.NoError(t, err)
			assert.Equal(t, packed, second)
		}
	}
}

func TestPackOverflow(t *testing.T) {
	tooBig := new(big.Int).Add(pack.Fee.MaxValue(), big.NewInt(1))
	_, err := pack.PackFee(tooBig)

	var overflow *types.PackingOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, "fee", overflow.Profile)
	assert.Equal(t, tooBig, overflow.Value)

	_, err = pack.PackAmount(new(big.Int).Lsh(big.NewInt(1), 128))
	require.True(t, errors.As(err, &overflow))

	_, err = pack.PackAmount(big.NewInt(-1))
	var validation *types.ValidationError
	require.True(t, errors.As(err, &validation))
}

func TestIsPackable(t *testing.T) {
	assert.True(t, pack.IsPackable(decimal(t, "34359738367000000000000000000000000000"), pack.Amount))
	assert.False(t, pack.IsPackable(decimal(t, "34359738367000000000000000000000000001"), pack.Amount))
	assert.False(t, pack.IsPackable(decimal(t, "34359738366999999999999999999999999999"), pack.Amount))
	assert.True(t, pack.IsPackable(decimal(t, "20470000000000000000000000000000000"), pack.Fee))
	assert.False(t, pack.IsPackable(decimal(t, "20470000000000000000000000000000001"), pack.Fee))
	assert.False(t, pack.IsPackable(big.NewInt(2049), pack.Fee))
	assert.True(t, pack.IsPackable(big.NewInt(2050), pack.Fee))
	assert.False(t, pack.IsPackable(nil, pack.Fee))
}

func TestUnpackRejectsWrongWidth(t *testing.T) {
	_, err := pack.UnpackFee([]byte{1, 2, 3})
	require.Error(t, err)
}
