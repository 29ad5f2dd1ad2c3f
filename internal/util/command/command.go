package command

import (
	"github.com/spf13/cobra"
)

// NewSubcommandGroup returns a command that only groups subcommands and prints help when run alone.
func NewSubcommandGroup(name string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: name + " subcommands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}
