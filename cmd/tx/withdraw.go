package tx

import (
	"math/big"

	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

func newWithdraw() *cobra.Command {
	var (
		flags            commonFlags
		to               string
		toChainID        uint8
		token            uint32
		l1Token          uint32
		amount           string
		toL1             bool
		withdrawFeeRatio uint16
	)

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraws tokens to a base-chain address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			toAddress := types.AddressFromBaseChain(w.Address)
			if to != "" {
				if toAddress, err = types.ParseAddress(to); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("to-chain-id") {
				toChainID = cfg.Network.ChainID
			}
			if !cmd.Flags().Changed("l1-token") {
				l1Token = token
			}

			withdraw, err := tx.NewWithdraw(tx.WithdrawBuilder{
				AccountID:        types.AccountID(flags.accountID),
				SubAccountID:     types.SubAccountID(flags.subAccountID),
				ToChainID:        types.ChainID(toChainID),
				ToAddress:        toAddress,
				L2SourceToken:    types.TokenID(token),
				L1TargetToken:    types.TokenID(l1Token),
				Amount:           value,
				Fee:              fee,
				Nonce:            types.Nonce(flags.nonce),
				WithdrawToL1:     toL1,
				WithdrawFeeRatio: withdrawFeeRatio,
				Timestamp:        timestamp(),
			})
			if err != nil {
				return err
			}

			return flags.run(cmd, cfg, w, withdraw, func(v *big.Int) { withdraw.Fee.Set(v) })
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "receiving address, defaults to the wallet address")
	cmd.Flags().Uint8Var(&toChainID, "to-chain-id", 0, "rollup id of the target chain, defaults to network.chain_id")
	cmd.Flags().Uint32Var(&token, "token", 0, "rollup token id")
	cmd.Flags().Uint32Var(&l1Token, "l1-token", 0, "target token id on the base chain, defaults to --token")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in token units")
	cmd.Flags().BoolVar(&toL1, "to-l1", false, "withdraw to the base chain instead of the chain's gateway")
	cmd.Flags().Uint16Var(&withdrawFeeRatio, "withdraw-fee-ratio", 0, "fast withdraw fee ratio in basis points")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
