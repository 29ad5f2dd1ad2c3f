package tx

import (
	"math/big"

	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

func newChangePubKey() *cobra.Command {
	var (
		flags    commonFlags
		chainID  uint8
		feeToken uint32
	)

	cmd := &cobra.Command{
		Use:   "change-pubkey",
		Short: "Registers the wallet's rollup signing key for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fee, err := flags.feeValue()
			if err != nil {
				return err
			}

			cfg, w, err := unlock(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			if !cmd.Flags().Changed("chain-id") {
				chainID = cfg.Network.ChainID
			}

			cpk, err := tx.NewChangePubKey(tx.ChangePubKeyBuilder{
				ChainID:      types.ChainID(chainID),
				AccountID:    types.AccountID(flags.accountID),
				SubAccountID: types.SubAccountID(flags.subAccountID),
				NewPkHash:    w.Signer.PubKeyHash(),
				FeeToken:     types.TokenID(feeToken),
				Fee:          fee,
				Nonce:        types.Nonce(flags.nonce),
				Timestamp:    timestamp(),
			})
			if err != nil {
				return err
			}

			return flags.run(cmd, cfg, w, cpk, func(v *big.Int) { cpk.Fee.Set(v) })
		},
	}

	flags.register(cmd)
	cmd.Flags().Uint8Var(&chainID, "chain-id", 0, "rollup id of the chain the account authenticates on, defaults to network.chain_id")
	cmd.Flags().Uint32Var(&feeToken, "fee-token", 0, "token the fee is paid in")

	return cmd
}
