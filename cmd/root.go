package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/cmd/env"
	"github/chapool/go-rollup/cmd/key"
	"github/chapool/go-rollup/cmd/probe"
	"github/chapool/go-rollup/cmd/query"
	"github/chapool/go-rollup/cmd/server"
	"github/chapool/go-rollup/cmd/tx"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/util/command"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "rollup",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Builds and signs layer-2 rollup transactions, attaches base-chain authentication
and submits them to the operator.
Configured through an optional config file, .env and ROLLUP_* variables.`, config.ModuleName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.PersistentFlags().StringP(command.ConfigFlag, "c", "", "config file (yaml, toml or json)")

	// attach the subcommands
	rootCmd.AddCommand(
		env.New(),
		key.New(),
		probe.New(),
		query.New(),
		server.New(),
		tx.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
