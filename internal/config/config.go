package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every environment override, e.g. ROLLUP_NETWORK_NAME
const EnvPrefix = "ROLLUP"

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

type Config struct {
	Network  Network  `mapstructure:"network"`
	Retry    Retry    `mapstructure:"retry"`
	Auth     Auth     `mapstructure:"auth"`
	Keystore Keystore `mapstructure:"keystore"`
	Logger   Logger   `mapstructure:"logger"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Server   Server   `mapstructure:"server"`
}

type Network struct {
	Name             string   `mapstructure:"name"`
	RPCURLs          []string `mapstructure:"rpc_urls"`
	BaseChainRPCURLs []string `mapstructure:"base_chain_rpc_urls"`
	// ChainID is the rollup-side id of the base chain the account interacts through.
	ChainID      uint8  `mapstructure:"chain_id"`
	BaseChainID  uint64 `mapstructure:"base_chain_id"`
	MainContract string `mapstructure:"main_contract"`
}

type Retry struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
	MaxResubmits    int           `mapstructure:"max_resubmits"`
	// TxNotFoundCodes are operator error codes meaning getTransactionByHash knows no such tx.
	TxNotFoundCodes []int `mapstructure:"tx_not_found_codes"`
}

type Auth struct {
	// Timeout bounds one interactive signing request.
	Timeout        time.Duration `mapstructure:"timeout"`
	RemoteURL      string        `mapstructure:"remote_url"`
	DerivationPath string        `mapstructure:"derivation_path"`
	// StarkKey is the hex scalar used by the stark backend.
	StarkKey     string `mapstructure:"stark_key"`
	StarkChainID string `mapstructure:"stark_chain_id"`
}

type Keystore struct {
	Path string `mapstructure:"path"`
	// LightScrypt lowers the scrypt cost; throwaway keys only.
	LightScrypt bool `mapstructure:"light_scrypt"`
}

type Logger struct {
	Level              string `mapstructure:"level"`
	PrettyPrintConsole bool   `mapstructure:"pretty_print_console"`
}

type Metrics struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listen_address"`
}

// Server configures the HTTP surface started by the serve command
type Server struct {
	ListenAddress string `mapstructure:"listen_address"`
	// Debug enables the request logger middleware.
	Debug           bool          `mapstructure:"debug"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// preset is the per-network default endpoint set
type preset struct {
	rpcURL      string
	baseChainID uint64
}

var presets = map[string]preset{
	NetworkMainnet: {rpcURL: "https://api-v1.zk.link", baseChainID: 1},
	NetworkTestnet: {rpcURL: "https://aws-gw-v2.zk.link", baseChainID: 11155111},
}

// Default returns the testnet configuration without reading files or the environment
func Default() Config {
	cfg, err := load(viper.New(), "", false)
	if err != nil {
		// defaults alone always decode
		panic(err)
	}
	return cfg
}

// Load reads defaults, then the optional config file at path, then .env files, then ROLLUP_* variables.
// envFiles defaults to ".env"; missing files are skipped.
func Load(path string, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := gotenv.Load(file); err != nil {
			return Config{}, errors.Wrapf(err, "failed to load %s", file)
		}
	}

	return load(viper.New(), path, true)
}

func load(v *viper.Viper, path string, withEnv bool) (Config, error) {
	setDefaults(v)

	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	if err := cfg.applyPreset(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyPreset() error {
	c.Network.Name = strings.ToLower(c.Network.Name)
	p, ok := presets[c.Network.Name]
	if !ok {
		if len(c.Network.RPCURLs) == 0 {
			return errors.Errorf("unknown network %q and no rpc_urls configured", c.Network.Name)
		}
		return nil
	}

	if len(c.Network.RPCURLs) == 0 {
		c.Network.RPCURLs = []string{p.rpcURL}
	}
	if c.Network.BaseChainID == 0 {
		c.Network.BaseChainID = p.baseChainID
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network.name", NetworkTestnet)
	v.SetDefault("network.rpc_urls", []string{})
	v.SetDefault("network.base_chain_rpc_urls", []string{})
	v.SetDefault("network.chain_id", 1)
	v.SetDefault("network.base_chain_id", 0)
	v.SetDefault("network.main_contract", "")

	v.SetDefault("retry.initial_interval", 200*time.Millisecond)
	v.SetDefault("retry.max_interval", 5*time.Second)
	v.SetDefault("retry.max_elapsed_time", 30*time.Second)
	v.SetDefault("retry.max_resubmits", 2)
	v.SetDefault("retry.tx_not_found_codes", []int{})

	v.SetDefault("auth.timeout", 2*time.Minute)
	v.SetDefault("auth.remote_url", "")
	v.SetDefault("auth.derivation_path", "m/44'/60'/0'/0/0")
	v.SetDefault("auth.stark_key", "")
	v.SetDefault("auth.stark_chain_id", "SN_MAIN")

	v.SetDefault("keystore.path", "keystore.json")
	v.SetDefault("keystore.light_scrypt", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.pretty_print_console", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_address", ":9090")

	v.SetDefault("server.listen_address", ":8080")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}
