package util_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/util"
)

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3}
	util.ZeroBytes(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
	util.ZeroBytes(nil)
}

func TestLogFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := util.WithLogger(context.Background(), zerolog.New(&buf))

	util.LogFromContext(ctx).Info().Str("envelope", "e1").Msg("hello")
	assert.Contains(t, buf.String(), `"envelope":"e1"`)

	assert.NotNil(t, util.LogFromContext(context.Background()))
}

func TestConfigureLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	require.NoError(t, util.ConfigureLogger("warn", false))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	require.NoError(t, util.ConfigureLogger("", true))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	require.Error(t, util.ConfigureLogger("loud", false))
}
