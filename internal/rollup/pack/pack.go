package pack

import (
	"math/big"

	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
)

// Pack encodes value as (mantissa << ExponentBits) | exponent, big-endian, rounding down.
// Precision loss is silent; only values above the profile's magnitude fail.
func Pack(value *big.Int, p Profile) ([]byte, error) {
	mantissa, exponent, err := toFloat(value, p)
	if err != nil {
		return nil, err
	}

	packed := new(big.Int).Lsh(mantissa, p.ExponentBits)
	packed.Or(packed, big.NewInt(exponent))

	out := make([]byte, p.Bytes())
	packed.FillBytes(out)
	return out, nil
}

// Unpack decodes a packed field exactly.
func Unpack(packed []byte, p Profile) (*big.Int, error) {
	if len(packed) != p.Bytes() {
		return nil, errors.Errorf("%s packed value must be %d bytes, got %d", p.Name, p.Bytes(), len(packed))
	}

	raw := new(big.Int).SetBytes(packed)
	expMask := big.NewInt(int64(1)<<p.ExponentBits - 1)
	exponent := new(big.Int).And(raw, expMask)
	mantissa := new(big.Int).Rsh(raw, p.ExponentBits)

	return mantissa.Mul(mantissa, p.pow(exponent.Int64())), nil
}

// ClosestPackable returns Unpack(Pack(value)), the largest representable value not above value.
func ClosestPackable(value *big.Int, p Profile) (*big.Int, error) {
	mantissa, exponent, err := toFloat(value, p)
	if err != nil {
		return nil, err
	}
	return mantissa.Mul(mantissa, p.pow(exponent)), nil
}

// IsPackable reports whether value is exactly representable and within the profile's limit.
func IsPackable(value *big.Int, p Profile) bool {
	if value == nil || value.Sign() < 0 {
		return false
	}
	if p.PackableLimit != nil && value.Cmp(p.PackableLimit) > 0 {
		return false
	}

	closest, err := ClosestPackable(value, p)
	if err != nil {
		return false
	}
	return closest.Cmp(value) == 0
}

// PackAmount packs a token amount.
func PackAmount(value *big.Int) ([]byte, error) {
	return Pack(value, Amount)
}

// PackFee packs a fee.
func PackFee(value *big.Int) ([]byte, error) {
	return Pack(value, Fee)
}

// UnpackAmount decodes a 5 byte packed amount.
func UnpackAmount(packed []byte) (*big.Int, error) {
	return Unpack(packed, Amount)
}

// UnpackFee decodes a 2 byte packed fee.
func UnpackFee(packed []byte) (*big.Int, error) {
	return Unpack(packed, Fee)
}

// ClosestPackableAmount rounds a token amount down to a packable value.
func ClosestPackableAmount(value *big.Int) (*big.Int, error) {
	return ClosestPackable(value, Amount)
}

// ClosestPackableFee rounds a fee down to a packable value.
func ClosestPackableFee(value *big.Int) (*big.Int, error) {
	return ClosestPackable(value, Fee)
}

// toFloat finds the smallest exponent whose range covers value, then keeps the closer of
// the truncated mantissa and the saturated mantissa one exponent lower. Ties go lower.
func toFloat(value *big.Int, p Profile) (*big.Int, int64, error) {
	if value == nil {
		return nil, 0, types.NewValidationError(p.Name, "value is nil")
	}
	if value.Sign() < 0 {
		return nil, 0, types.NewValidationError(p.Name, "value %s is negative", value.String())
	}
	if value.Cmp(p.MaxValue()) > 0 {
		return nil, 0, &types.PackingOverflowError{Profile: p.Name, Value: new(big.Int).Set(value)}
	}

	maxMantissa := p.MaxMantissa()
	base := big.NewInt(p.Base)

	var exponent int64
	scale := big.NewInt(1)
	bound := new(big.Int).Set(maxMantissa)
	for value.Cmp(bound) > 0 {
		scale.Mul(scale, base)
		bound.Mul(maxMantissa, scale)
		exponent++
	}

	if exponent == 0 {
		return new(big.Int).Set(value), 0, nil
	}

	truncated := new(big.Int).Quo(value, scale)
	variant1 := new(big.Int).Mul(truncated, scale)
	variant2 := new(big.Int).Quo(new(big.Int).Mul(maxMantissa, scale), base)

	diff1 := new(big.Int).Sub(value, variant1)
	diff2 := new(big.Int).Sub(value, variant2)
	if diff1.Cmp(diff2) < 0 {
		return truncated, exponent, nil
	}
	return maxMantissa, exponent - 1, nil
}
