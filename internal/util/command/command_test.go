package command_test

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/util/command"
)

func TestNewSubcommandGroup(t *testing.T) {
	var ran bool
	group := command.NewSubcommandGroup("key",
		&cobra.Command{Use: "derive", RunE: func(*cobra.Command, []string) error {
			ran = true
			return nil
		}},
	)

	var out bytes.Buffer
	group.SetOut(&out)

	group.SetArgs([]string{})
	require.NoError(t, group.Execute())
	assert.Contains(t, out.String(), "derive")

	group.SetArgs([]string{"derive"})
	require.NoError(t, group.Execute())
	assert.True(t, ran)
}
