package command

import (
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/util"
)

// ConfigFlag is the persistent root flag naming an optional config file.
const ConfigFlag = "config"

// LoadConfig reads the configuration for cmd and applies its logger settings.
func LoadConfig(cmd *cobra.Command) (config.Config, error) {
	var path string
	if flag := cmd.Flags().Lookup(ConfigFlag); flag != nil {
		path = flag.Value.String()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if err := util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}
