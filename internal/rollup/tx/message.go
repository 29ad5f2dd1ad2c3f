package tx

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github/chapool/go-rollup/internal/rollup/types"
)

// FormatUnits renders a base-unit amount with the given decimals, trimming trailing zeros
// but always keeping one fractional digit ("1.0", "0.5", "12.345").
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		v = new(big.Int)
	}

	s := decimal.NewFromBigInt(v, -decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func transferMessagePart(kind string, token string, amount *big.Int, fee *big.Int, to types.Address) string {
	var b strings.Builder
	if amount != nil && amount.Sign() != 0 {
		fmt.Fprintf(&b, "%s %s %s to: %s", kind, FormatUnits(amount, types.TokenMaxPrecision), token, to.String())
	}
	if fee != nil && fee.Sign() != 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Fee: %s %s", FormatUnits(fee, types.TokenMaxPrecision), token)
	}
	return b.String()
}

func withNonce(part string, nonce types.Nonce) string {
	if part != "" {
		part += "\n"
	}
	return part + fmt.Sprintf("Nonce: %d", nonce)
}

// EthSignMessage is the personal_sign text shown to the owner of the base-chain account.
func (t *Transfer) EthSignMessage(tokenSymbol string) string {
	return withNonce(transferMessagePart("Transfer", tokenSymbol, bigOf(&t.Amount), bigOf(&t.Fee), t.To), t.Nonce)
}

func (t *Withdraw) EthSignMessage(tokenSymbol string) string {
	return withNonce(transferMessagePart("Withdraw", tokenSymbol, bigOf(&t.Amount), bigOf(&t.Fee), t.To), t.Nonce)
}

func (t *ForcedExit) EthSignMessage(tokenSymbol string) string {
	return withNonce(transferMessagePart("ForcedExit", tokenSymbol, bigOf(&t.ExitAmount), nil, t.Target), t.InitiatorNonce)
}

// EthSignMessage for ChangePubKey is only used by wallets without typed-data support.
func (t *ChangePubKey) EthSignMessage(tokenSymbol string) string {
	msg := "Set signing key: " + hex.EncodeToString(t.NewPkHash[:])
	if t.Fee.Sign() != 0 {
		msg += fmt.Sprintf("\nFee: %s %s", FormatUnits(bigOf(&t.Fee), types.TokenMaxPrecision), tokenSymbol)
	}
	return msg
}

func (t *OrderMatching) EthSignMessage() string {
	return fmt.Sprintf("OrderMatching fee: %s %d\n", FormatUnits(bigOf(&t.Fee), types.TokenMaxPrecision), t.FeeToken)
}

func (o *Order) EthSignMessage(quoteToken string, baseToken string, decimals int32) string {
	var msg string
	if o.Amount.Sign() == 0 {
		msg = fmt.Sprintf("Limit order for %s -> %s\n", quoteToken, baseToken)
	} else {
		msg = fmt.Sprintf("Order for %s %s -> %s\n", FormatUnits(bigOf(&o.Amount), decimals), quoteToken, baseToken)
	}
	return msg + fmt.Sprintf("price: %s\nNonce: %d", o.Price.String(), o.Nonce)
}
