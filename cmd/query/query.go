package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util/command"
	"github/chapool/go-rollup/internal/wallet/submit"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("query",
		newTx(),
		newAccount(),
		newBalances(),
		newBlock(),
		newTokens(),
		newChains(),
	)
}

// queryFunc reads from the operator; its result is printed as JSON.
type queryFunc func(ctx context.Context, client *submit.Client, args []string) (any, error)

func newQuery(use string, short string, args cobra.PositionalArgs, fn queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}

			client, err := submit.NewClient(cmd.Context(), submit.ConfigFromNetwork(cfg))
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := fn(cmd.Context(), client, args)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func newTx() *cobra.Command {
	return newQuery("tx <hash>", "Looks up a transaction by hash", cobra.ExactArgs(1),
		func(ctx context.Context, client *submit.Client, args []string) (any, error) {
			hash, err := types.ParseTxHash(args[0])
			if err != nil {
				return nil, err
			}
			res, err := client.GetTransactionByHash(ctx, hash, true)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, errors.Errorf("transaction %s not found", hash)
			}
			return res, nil
		})
}

func newAccount() *cobra.Command {
	return newQuery("account <id|address>", "Shows account info", cobra.ExactArgs(1),
		func(ctx context.Context, client *submit.Client, args []string) (any, error) {
			account, err := submit.ParseAccountQuery(args[0])
			if err != nil {
				return nil, err
			}
			return client.GetAccount(ctx, account)
		})
}

func newBalances() *cobra.Command {
	return newQuery("balances <account-id> [sub-account-id]", "Shows account balances", cobra.RangeArgs(1, 2),
		func(ctx context.Context, client *submit.Client, args []string) (any, error) {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid account id %q", args[0])
			}

			var subAccountID *types.SubAccountID
			if len(args) == 2 {
				sub, err := strconv.ParseUint(args[1], 10, 8)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid sub-account id %q", args[1])
				}
				v := types.SubAccountID(sub)
				subAccountID = &v
			}

			return client.GetAccountBalances(ctx, types.AccountID(id), subAccountID)
		})
}

func newBlock() *cobra.Command {
	return newQuery("block [number]", "Shows the latest block number or a block by number", cobra.MaximumNArgs(1),
		func(ctx context.Context, client *submit.Client, args []string) (any, error) {
			if len(args) == 0 {
				return client.GetLatestBlockNumber(ctx)
			}

			n, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid block number %q", args[0])
			}
			number := submit.BlockNumber(n)
			return client.GetBlockByNumber(ctx, &number, true, false)
		})
}

func newTokens() *cobra.Command {
	return newQuery("tokens", "Lists supported tokens", cobra.NoArgs,
		func(ctx context.Context, client *submit.Client, _ []string) (any, error) {
			return client.GetSupportTokens(ctx)
		})
}

func newChains() *cobra.Command {
	return newQuery("chains", "Lists supported chains", cobra.NoArgs,
		func(ctx context.Context, client *submit.Client, _ []string) (any, error) {
			return client.GetSupportChains(ctx)
		})
}
