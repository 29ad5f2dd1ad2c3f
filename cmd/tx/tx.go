package tx

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/cmd/key"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/rollup/pack"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
	"github/chapool/go-rollup/internal/util/command"
	"github/chapool/go-rollup/internal/wallet"
	"github/chapool/go-rollup/internal/wallet/auth"
	"github/chapool/go-rollup/internal/wallet/chainclient"
	"github/chapool/go-rollup/internal/wallet/orchestrator"
	"github/chapool/go-rollup/internal/wallet/submit"
)

const (
	authLocal              = "local"
	authOnchain            = "onchain"
	authRemote             = "remote"
	authAccountAbstraction = "account-abstraction"
	authStark              = "stark"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("tx",
		newTransfer(),
		newWithdraw(),
		newChangePubKey(),
	)
}

// commonFlags are shared by every transaction subcommand.
type commonFlags struct {
	accountID       uint32
	subAccountID    uint8
	nonce           uint32
	fee             string
	decimals        int32
	tokenSymbol     string
	round           bool
	estimate        bool
	submit          bool
	authKind        string
	contractAccount string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Uint32Var(&f.accountID, "account-id", 0, "rollup account id")
	flags.Uint8Var(&f.subAccountID, "sub-account-id", 0, "rollup sub-account id")
	flags.Uint32Var(&f.nonce, "nonce", 0, "account nonce")
	flags.StringVar(&f.fee, "fee", "0", "fee in token units")
	flags.Int32Var(&f.decimals, "decimals", types.TokenMaxPrecision, "decimals used to read amounts")
	flags.StringVar(&f.tokenSymbol, "token-symbol", "", "token symbol shown in the base-chain signing message")
	flags.BoolVar(&f.round, "round", false, "round amounts down to the closest packable value")
	flags.BoolVar(&f.estimate, "estimate-fee", false, "replace the fee with the operator estimate")
	flags.BoolVar(&f.submit, "submit", false, "submit the signed transaction to the operator")
	flags.StringVar(&f.authKind, "auth", authLocal,
		fmt.Sprintf("base-chain authentication: %s, %s, %s, %s or %s", authLocal, authOnchain, authRemote, authAccountAbstraction, authStark))
	flags.StringVar(&f.contractAccount, "contract-account", "", "smart-contract account for account-abstraction or stark auth")

	_ = cmd.MarkFlagRequired("account-id")
}

// parseUnits reads a decimal token amount into base units.
func parseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", s)
	}

	d = d.Shift(decimals)
	if !d.IsInteger() || d.IsNegative() {
		return nil, errors.Errorf("amount %q is not a non-negative multiple of 10^-%d", s, decimals)
	}
	return d.BigInt(), nil
}

func (f *commonFlags) amount(s string) (*big.Int, error) {
	v, err := parseUnits(s, f.decimals)
	if err != nil {
		return nil, err
	}
	if !f.round {
		return v, nil
	}
	return pack.ClosestPackableAmount(v)
}

func (f *commonFlags) feeValue() (*big.Int, error) {
	v, err := parseUnits(f.fee, f.decimals)
	if err != nil {
		return nil, err
	}
	if !f.round {
		return v, nil
	}
	return pack.ClosestPackableFee(v)
}

func timestamp() types.TimeStamp {
	return types.TimeStamp(time.Now().Unix()) //nolint:gosec
}

// backend selects the authentication backend named by --auth. The returned func releases its connections.
//
//nolint:ireturn
func (f *commonFlags) backend(ctx context.Context, cfg config.Config, w *wallet.Wallet) (auth.Backend, func(), error) {
	noop := func() {}
	mainContract := common.HexToAddress(cfg.Network.MainContract)

	switch f.authKind {
	case authLocal:
		return w.Backend, noop, nil

	case authRemote:
		if cfg.Auth.RemoteURL == "" {
			return nil, noop, errors.New("auth.remote_url is not configured")
		}
		session, err := auth.NewWebsocketSession(ctx, cfg.Auth.RemoteURL)
		if err != nil {
			return nil, noop, err
		}
		return auth.NewRemoteBackend(session, cfg.Auth.Timeout), func() { _ = session.Close() }, nil

	case authOnchain, authAccountAbstraction:
		chain, err := chainclient.New(ctx, cfg.Network.BaseChainRPCURLs, chainclient.DialEthclient)
		if err != nil {
			return nil, noop, err
		}

		if f.authKind == authOnchain {
			return auth.NewOnchainBackend(w.Address, chain, mainContract), chain.Close, nil
		}

		if !common.IsHexAddress(f.contractAccount) {
			chain.Close()
			return nil, noop, errors.New("--contract-account must be a base-chain address")
		}
		backend, err := auth.NewAccountAbstractionBackend(w.Backend, auth.AccountAbstractionConfig{
			Account:   common.HexToAddress(f.contractAccount),
			NetworkID: cfg.Network.BaseChainID,
			Validator: chain,
			Owners:    chain,
		})
		if err != nil {
			chain.Close()
			return nil, noop, err
		}
		return backend, chain.Close, nil

	case authStark:
		if !common.IsHexAddress(f.contractAccount) {
			return nil, noop, errors.New("--contract-account must be a base-chain address")
		}
		key, err := hexutil.Decode(cfg.Auth.StarkKey)
		if err != nil {
			return nil, noop, errors.Wrap(err, "auth.stark_key is not a hex scalar")
		}
		defer util.ZeroBytes(key)

		backend, err := auth.NewStarkBackend(key, auth.StarkConfig{
			Account:   common.HexToAddress(f.contractAccount),
			ChainID:   cfg.Auth.StarkChainID,
			NetworkID: cfg.Network.BaseChainID,
		})
		if err != nil {
			return nil, noop, err
		}
		return backend, noop, nil

	default:
		return nil, noop, errors.Errorf("unknown auth backend %q", f.authKind)
	}
}

type result struct {
	Hash      types.TxHash    `json:"hash"`
	Tx        json.RawMessage `json:"tx"`
	Submitted bool            `json:"submitted"`
}

// run estimates the fee when asked, signs t through the orchestrator and prints the envelope.
// setFee writes an estimated fee back into the transaction before signing.
func (f *commonFlags) run(cmd *cobra.Command, cfg config.Config, w *wallet.Wallet, t tx.Tx, setFee func(*big.Int)) error {
	ctx := cmd.Context()
	log := util.LogFromContext(ctx)

	var client *submit.Client
	if f.submit || f.estimate {
		var err error
		client, err = submit.NewClient(ctx, submit.ConfigFromNetwork(cfg))
		if err != nil {
			return err
		}
		defer client.Close()
	}

	if f.estimate {
		fee, err := client.EstimateTransactionFee(ctx, t)
		if err != nil {
			return err
		}
		closest, err := pack.ClosestPackableFee(fee.Big())
		if err != nil {
			return err
		}
		setFee(closest)
		log.Debug().Str("fee", closest.String()).Msg("Using estimated fee")
	}

	backend, release, err := f.backend(ctx, cfg, w)
	if err != nil {
		return err
	}
	defer release()

	account, err := backend.Identity(ctx)
	if err != nil {
		return err
	}

	signed, err := orchestrator.NewService(w.Signer).Run(ctx, t, orchestrator.RunOptions{
		Backend: backend,
		Auth: orchestrator.AuthOptions{
			NetworkID:    cfg.Network.BaseChainID,
			MainContract: common.HexToAddress(cfg.Network.MainContract),
			Account:      account,
			TokenSymbol:  f.tokenSymbol,
		},
	})
	if err != nil {
		return err
	}

	raw, err := tx.MarshalTx(signed.Tx)
	if err != nil {
		return err
	}

	res := result{Hash: signed.Hash, Tx: raw}
	if f.submit {
		hash, err := client.Submit(ctx, signed)
		if err != nil {
			return err
		}
		res.Hash = hash
		res.Submitted = true
	}

	return printJSON(cmd, res)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func unlock(cmd *cobra.Command) (config.Config, *wallet.Wallet, error) {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}

	w, err := key.Unlock(cmd, cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, w, nil
}
