package tx

import (
	"math"
	"math/big"

	"github/chapool/go-rollup/internal/rollup/pack"
	"github/chapool/go-rollup/internal/rollup/types"
)

// validator records the first failing field.
type validator struct {
	err *types.ValidationError
}

func (v *validator) fail(field string, format string, args ...any) *validator {
	if v.err == nil {
		v.err = types.NewValidationError(field, format, args...)
	}
	return v
}

func (v *validator) result() error {
	if v.err == nil {
		return nil
	}
	return v.err
}

func (v *validator) chain(field string, id types.ChainID) *validator {
	if id > types.MaxChainID {
		v.fail(field, "chain id %d out of range", id)
	}
	return v
}

func (v *validator) account(field string, id types.AccountID) *validator {
	switch {
	case id > types.MaxAccountID:
		v.fail(field, "account id %d out of range", id)
	case id == types.GlobalAssetAccountID:
		v.fail(field, "account id %d is the global asset account", id)
	}
	return v
}

func (v *validator) subAccount(field string, id types.SubAccountID) *validator {
	if id > types.MaxSubAccountID {
		v.fail(field, "sub-account id %d out of range", id)
	}
	return v
}

func (v *validator) token(field string, id types.TokenID) *validator {
	switch {
	case id > types.MaxTokenID:
		v.fail(field, "token id %d out of range", id)
	case id >= types.USDXTokenIDLowerBound && id <= types.USDXTokenIDUpperBound:
		v.fail(field, "token id %d is reserved", id)
	}
	return v
}

func (v *validator) slot(field string, id types.SlotID) *validator {
	if id > types.MaxSlotID {
		v.fail(field, "slot id %d out of range", id)
	}
	return v
}

func (v *validator) pair(field string, id types.PairID) *validator {
	if int(id) >= types.UsedPositionNumber {
		v.fail(field, "pair id %d out of range", id)
	}
	return v
}

func (v *validator) nonce(field string, n types.Nonce) *validator {
	if n >= types.MaxNonce {
		v.fail(field, "nonce has reached its maximum")
	}
	return v
}

func (v *validator) orderNonce(field string, n types.Nonce) *validator {
	if n >= types.MaxOrderNonce {
		v.fail(field, "order nonce has reached its maximum")
	}
	return v
}

func (v *validator) address(field string, a types.Address) *validator {
	switch {
	case a.IsZero():
		v.fail(field, "address is zero")
	case a.IsGlobalAccountAddress():
		v.fail(field, "address is the global asset account address")
	}
	return v
}

func (v *validator) unpackable(field string, amount *big.Int) *validator {
	switch {
	case amount == nil || amount.Sign() < 0:
		v.fail(field, "amount must be a non-negative integer")
	case amount.Cmp(types.MaxBalance) > 0:
		v.fail(field, "amount %s out of range", amount.String())
	}
	return v
}

func (v *validator) nonZero(field string, amount *big.Int) *validator {
	if amount != nil && amount.Sign() == 0 {
		v.fail(field, "amount is zero")
	}
	return v
}

func (v *validator) packableAmount(field string, amount *big.Int) *validator {
	if !pack.IsPackable(amount, pack.Amount) {
		v.fail(field, "amount %s is not packable", bigString(amount))
	}
	return v
}

func (v *validator) packableFee(field string, fee *big.Int) *validator {
	if !pack.IsPackable(fee, pack.Fee) {
		v.fail(field, "fee %s is not packable", bigString(fee))
	}
	return v
}

func (v *validator) price(field string, price *big.Int) *validator {
	if price == nil || price.Cmp(big.NewInt(types.MinPrice)) <= 0 || price.Cmp(types.MaxPrice) >= 0 {
		v.fail(field, "price %s out of range", bigString(price))
	}
	return v
}

// externalPrice accepts oracle prices, which may be zero.
func (v *validator) externalPrice(field string, price *big.Int) *validator {
	if price == nil || price.Sign() < 0 || price.Cmp(types.MaxPrice) >= 0 {
		v.fail(field, "price %s out of range", bigString(price))
	}
	return v
}

func (v *validator) withdrawFeeRatio(field string, ratio uint16) *validator {
	if ratio > types.WithdrawFeeRatioDenom {
		v.fail(field, "ratio %d out of range", ratio)
	}
	return v
}

func (v *validator) marginRatio(field string, ratio uint8) *validator {
	if ratio > types.MaxMarginRatio {
		v.fail(field, "margin ratio %d out of range", ratio)
	}
	return v
}

func (v *validator) fundingRate(field string, rate int16) *validator {
	if rate == math.MinInt16 {
		v.fail(field, "funding rate cannot be the i16 minimum")
	}
	return v
}

func (v *validator) nested(field string, err error) *validator {
	if err == nil || v.err != nil {
		return v
	}
	if inner, ok := err.(*types.ValidationError); ok { //nolint:errorlint
		v.err = types.NewValidationError(field+"."+inner.Field, "%s", inner.Reason)
		return v
	}
	v.fail(field, "%v", err)
	return v
}

func bigString(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
