package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	v, err := parseUnits("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = parseUnits("12345", 0)
	require.NoError(t, err)
	assert.Equal(t, "12345", v.String())

	_, err = parseUnits("0.0000001", 6)
	require.Error(t, err)

	_, err = parseUnits("-1", 18)
	require.Error(t, err)

	_, err = parseUnits("abc", 18)
	require.Error(t, err)
}

func TestAmountRounding(t *testing.T) {
	flags := commonFlags{decimals: 0}

	v, err := flags.amount("123456789123456789")
	require.NoError(t, err)
	assert.Equal(t, "123456789123456789", v.String())

	flags.round = true
	rounded, err := flags.amount("123456789123456789")
	require.NoError(t, err)
	assert.Equal(t, -1, rounded.Cmp(v))
}
