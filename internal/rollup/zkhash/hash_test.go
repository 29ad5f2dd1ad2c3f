package zkhash_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github/chapool/go-rollup/internal/rollup/zkhash"
)

func TestSumIsDeterministic(t *testing.T) {
	msg := bytes.Repeat([]byte{1}, 178)

	first := zkhash.Sum(msg)
	second := zkhash.Sum(append([]byte(nil), msg...))

	assert.Len(t, first, 32)
	assert.Equal(t, first, second)
}

func TestSumSeparatesInputs(t *testing.T) {
	a := zkhash.Sum([]byte{1, 2, 3, 4})
	b := zkhash.Sum([]byte{1, 2, 3, 5})
	assert.NotEqual(t, a, b)

	assert.Len(t, zkhash.Sum(nil), 32)
}

func TestSum31(t *testing.T) {
	msg := bytes.Repeat([]byte{0xff}, 100)

	full := zkhash.Sum(msg)
	short := zkhash.Sum31(msg)

	assert.Len(t, short, 31)
	assert.Equal(t, full[1:], short)
	assert.Equal(t, short, zkhash.HashOrders(msg))
}
