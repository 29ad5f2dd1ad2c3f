package types

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// BigUint is an unsigned arbitrary-precision integer that travels as a decimal string.
type BigUint struct {
	big.Int
}

// NewBigUint copies v; nil becomes zero.
func NewBigUint(v *big.Int) BigUint {
	var b BigUint
	if v != nil {
		b.Set(v)
	}
	return b
}

// BigUintFromUint64 wraps a machine integer.
func BigUintFromUint64(v uint64) BigUint {
	var b BigUint
	b.SetUint64(v)
	return b
}

// ParseBigUint parses a base-10 string.
func ParseBigUint(s string) (BigUint, error) {
	var b BigUint
	if _, ok := b.SetString(strings.TrimSpace(s), 10); !ok {
		return b, errors.Errorf("invalid decimal integer %q", s)
	}
	if b.Sign() < 0 {
		return b, errors.Errorf("negative integer %q", s)
	}
	return b, nil
}

// MustParseBigUint is ParseBigUint for constants and tests.
func MustParseBigUint(s string) BigUint {
	b, err := ParseBigUint(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Big returns a copy as *big.Int.
func (b *BigUint) Big() *big.Int {
	return new(big.Int).Set(&b.Int)
}

func (b BigUint) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Int.String())
}

func (b *BigUint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// plain JSON numbers are accepted too
		s = string(data)
	}

	parsed, err := ParseBigUint(s)
	if err != nil {
		return err
	}
	b.Set(&parsed.Int)
	return nil
}
