package tx

import (
	"math/big"

	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

func newTransfer() *cobra.Command {
	var (
		flags          commonFlags
		to             string
		toSubAccountID uint8
		token          uint32
		amount         string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfers tokens to another rollup account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			toAddress, err := types.ParseAddress(to)
			if err != nil {
				return err
			}
			value, err := flags.amount(amount)
			if err != nil {
				return err
			}
			fee, err := flags.feeValue()
			if err != nil {
				return err
			}

			cfg, w, err := unlock(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			transfer, err := tx.NewTransfer(tx.TransferBuilder{
				AccountID:        types.AccountID(flags.accountID),
				FromSubAccountID: types.SubAccountID(flags.subAccountID),
				ToAddress:        toAddress,
				ToSubAccountID:   types.SubAccountID(toSubAccountID),
				Token:            types.TokenID(token),
				Amount:           value,
				Fee:              fee,
				Nonce:            types.Nonce(flags.nonce),
				Timestamp:        timestamp(),
			})
			if err != nil {
				return err
			}

			return flags.run(cmd, cfg, w, transfer, func(v *big.Int) { transfer.Fee.Set(v) })
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "recipient rollup address")
	cmd.Flags().Uint8Var(&toSubAccountID, "to-sub-account-id", 0, "recipient sub-account id")
	cmd.Flags().Uint32Var(&token, "token", 0, "token id")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in token units")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
