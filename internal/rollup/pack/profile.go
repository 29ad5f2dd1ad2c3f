package pack

import "math/big"

// Profile fixes the bit budget of a packed field.
type Profile struct {
	Name         string
	MantissaBits uint
	ExponentBits uint
	Base         int64
	// InputBits bounds the unpacked value (u128 in the circuit).
	InputBits uint
	// PackableLimit is the largest value accepted as an exact transaction field.
	PackableLimit *big.Int
}

// Circuit packing parameters.
const (
	AmountMantissaBits = 35
	AmountExponentBits = 5
	FeeMantissaBits    = 11
	FeeExponentBits    = 5
	FloatBase          = 10
	InputBits          = 128
)

//nolint:gochecknoglobals
var (
	// Amount packs token amounts into 5 bytes.
	Amount = Profile{
		Name:          "amount",
		MantissaBits:  AmountMantissaBits,
		ExponentBits:  AmountExponentBits,
		Base:          FloatBase,
		InputBits:     InputBits,
		PackableLimit: mustDecimal("34359738367000000000000000000000000000"),
	}
	// Fee packs fees into 2 bytes.
	Fee = Profile{
		Name:          "fee",
		MantissaBits:  FeeMantissaBits,
		ExponentBits:  FeeExponentBits,
		Base:          FloatBase,
		InputBits:     InputBits,
		PackableLimit: mustDecimal("20470000000000000000000000000000000"),
	}
)

// Bytes is the packed width.
func (p Profile) Bytes() int {
	return int((p.MantissaBits + p.ExponentBits) / 8) //nolint:mnd
}

// MaxMantissa is 2^MantissaBits - 1.
func (p Profile) MaxMantissa() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), p.MantissaBits), big.NewInt(1))
}

// MaxExponent is 2^ExponentBits - 1.
func (p Profile) MaxExponent() int64 {
	return int64(1)<<p.ExponentBits - 1
}

// MaxValue is the largest input Pack accepts.
func (p Profile) MaxValue() *big.Int {
	limit := new(big.Int).Mul(p.MaxMantissa(), p.pow(p.MaxExponent()))
	if p.InputBits == 0 {
		return limit
	}

	inputMax := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), p.InputBits), big.NewInt(1))
	if inputMax.Cmp(limit) < 0 {
		return inputMax
	}
	return limit
}

func (p Profile) pow(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(p.Base), big.NewInt(exp), nil)
}

func mustDecimal(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid decimal constant " + s)
	}
	return v
}
