package env

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the effective configuration",
		Long: `Prints the configuration after applying defaults, the config file,
.env and ROLLUP_* variables, as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to marshal config")
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
