package key

import (
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/util/command"
)

func newDerive() *cobra.Command {
	return &cobra.Command{
		Use:   "derive",
		Short: "Unlocks the keystore and prints the base-chain address and rollup key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}

			w, err := Unlock(cmd, cfg)
			if err != nil {
				return err
			}
			defer w.Close()

			printWallet(cmd.OutOrStdout(), w)

			return nil
		},
	}
}
