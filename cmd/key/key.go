package key

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/util/command"
	"github/chapool/go-rollup/internal/wallet"
	"github/chapool/go-rollup/internal/wallet/address"
	"github/chapool/go-rollup/internal/wallet/keystore"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("key",
		newCreate(),
		newImport(),
		newDerive(),
	)
}

// OpenService builds the keystore-backed wallet service described by cfg.
//
//nolint:ireturn
func OpenService(cfg config.Config) (wallet.Service, error) {
	params := keystore.DefaultScryptParams()
	if cfg.Keystore.LightScrypt {
		params = keystore.LightScryptParams()
	}

	keystoreService, err := keystore.NewService(cfg.Keystore.Path, params)
	if err != nil {
		return nil, err
	}

	return wallet.NewService(keystoreService, address.NewService(), wallet.Config{
		DerivationPath: cfg.Auth.DerivationPath,
		NetworkID:      cfg.Network.BaseChainID,
	}), nil
}

// Unlock prompts for the keystore password and unlocks the wallet. The caller closes it.
func Unlock(cmd *cobra.Command, cfg config.Config) (*wallet.Wallet, error) {
	walletService, err := OpenService(cfg)
	if err != nil {
		return nil, err
	}

	password, err := command.PromptSecret("Enter keystore password: ")
	if err != nil {
		return nil, err
	}

	return walletService.Unlock(cmd.Context(), password)
}

func printWallet(out io.Writer, w *wallet.Wallet) {
	pubKey := w.Signer.PubKey()

	fmt.Fprintf(out, "Address:        %s\n", w.Address.Hex())
	fmt.Fprintf(out, "Path:           %s\n", w.Path)
	fmt.Fprintf(out, "Rollup pubkey:  %s\n", hexutil.Encode(pubKey[:]))
	fmt.Fprintf(out, "Pubkey hash:    %s\n", w.Signer.PubKeyHash().String())
}
