package key

import (
	"strings"

	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/util/command"
	"github/chapool/go-rollup/internal/wallet"
)

func newImport() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Stores an existing mnemonic in the keystore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}

			walletService, err := OpenService(cfg)
			if err != nil {
				return err
			}

			mnemonic, err := command.PromptSecret("Enter mnemonic: ")
			if err != nil {
				return err
			}

			password, err := wallet.ReadNewPassword(command.PromptSecret)
			if err != nil {
				return err
			}

			w, err := walletService.Import(cmd.Context(), strings.Join(strings.Fields(mnemonic), " "), password)
			if err != nil {
				return err
			}
			defer w.Close()

			printWallet(cmd.OutOrStdout(), w)

			return nil
		},
	}
}
