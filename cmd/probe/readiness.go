package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/util/command"
	"github/chapool/go-rollup/internal/wallet/chainclient"
	"github/chapool/go-rollup/internal/wallet/submit"
)

const readinessTimeout = 10 * time.Second

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Checks that the operator and the base chain are reachable",
		Long: `Checks that the operator answers with its latest block and, when base-chain
endpoints are configured, that they serve the configured base chain id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool(verboseFlag)

			ctx, cancel := context.WithTimeout(cmd.Context(), readinessTimeout)
			defer cancel()

			block, err := checkOperator(ctx, cfg)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "operator: latest block %d\n", block)
			}

			if len(cfg.Network.BaseChainRPCURLs) == 0 {
				return nil
			}
			if err := checkBaseChain(ctx, cfg); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "base chain: chain id %d\n", cfg.Network.BaseChainID)
			}
			return nil
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "print the probe results")

	return cmd
}

func checkOperator(ctx context.Context, cfg config.Config) (submit.BlockNumber, error) {
	client, err := submit.NewClient(ctx, submit.ConfigFromNetwork(cfg))
	if err != nil {
		return 0, err
	}
	defer client.Close()

	res, err := client.GetLatestBlockNumber(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Operator is not ready")
		return 0, errors.Wrap(err, "operator not ready")
	}
	if res == nil {
		return 0, errors.New("operator returned no block")
	}
	return res.LastBlockNumber, nil
}

func checkBaseChain(ctx context.Context, cfg config.Config) error {
	client, err := chainclient.New(ctx, cfg.Network.BaseChainRPCURLs, chainclient.DialEthclient)
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "base chain not ready")
	}
	if !id.IsUint64() || id.Uint64() != cfg.Network.BaseChainID {
		return errors.Errorf("base chain id %s does not match configured %d", id, cfg.Network.BaseChainID)
	}
	return nil
}
