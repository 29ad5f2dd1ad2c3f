package key

import (
	"fmt"

	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/util/command"
	"github/chapool/go-rollup/internal/wallet"
)

func newCreate() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Generates a new mnemonic and stores it in the keystore",
		Long: `Generates a 24 word BIP-39 mnemonic, encrypts it into the configured keystore
file and prints the mnemonic once together with the derived keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}

			walletService, err := OpenService(cfg)
			if err != nil {
				return err
			}

			password, err := wallet.ReadNewPassword(command.PromptSecret)
			if err != nil {
				return err
			}

			w, mnemonic, err := walletService.Create(cmd.Context(), password)
			if err != nil {
				return err
			}
			defer w.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Write down the mnemonic, it is not shown again:")
			fmt.Fprintf(out, "\n  %s\n\n", mnemonic)
			printWallet(out, w)

			return nil
		},
	}
}
