package tx

import (
	"encoding/binary"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/pack"
	"github/chapool/go-rollup/internal/rollup/types"
)

// encoder appends fixed-width big-endian fields. The first failure sticks and later writes are no-ops.
type encoder struct {
	buf []byte
	err error
}

func newEncoder(size int) *encoder {
	return &encoder{buf: make([]byte, 0, size)}
}

func (e *encoder) u8(v uint8) *encoder {
	if e.err == nil {
		e.buf = append(e.buf, v)
	}
	return e
}

func (e *encoder) u16(v uint16) *encoder {
	if e.err == nil {
		e.buf = binary.BigEndian.AppendUint16(e.buf, v)
	}
	return e
}

func (e *encoder) u24(v uint32) *encoder {
	if e.err == nil {
		e.buf = append(e.buf, byte(v>>16), byte(v>>8), byte(v)) //nolint:mnd
	}
	return e
}

func (e *encoder) u32(v uint32) *encoder {
	if e.err == nil {
		e.buf = binary.BigEndian.AppendUint32(e.buf, v)
	}
	return e
}

func (e *encoder) u64(v uint64) *encoder {
	if e.err == nil {
		e.buf = binary.BigEndian.AppendUint64(e.buf, v)
	}
	return e
}

func (e *encoder) flag(v bool) *encoder {
	if v {
		return e.u8(1)
	}
	return e.u8(0)
}

func (e *encoder) raw(b []byte) *encoder {
	if e.err == nil {
		e.buf = append(e.buf, b...)
	}
	return e
}

// uint writes v as a big-endian unsigned integer of exactly width bytes.
func (e *encoder) uint(field string, v *big.Int, width int) *encoder {
	if e.err != nil {
		return e
	}

	word, overflow := uint256.FromBig(v)
	if v.Sign() < 0 || overflow || word.BitLen() > width*8 {
		e.err = types.NewValidationError(field, "%s does not fit in %d bytes", v.String(), width)
		return e
	}

	full := word.Bytes32()
	e.buf = append(e.buf, full[len(full)-width:]...)
	return e
}

func (e *encoder) packedAmount(field string, v *big.Int) *encoder {
	return e.packed(field, v, pack.Amount)
}

func (e *encoder) packedFee(field string, v *big.Int) *encoder {
	return e.packed(field, v, pack.Fee)
}

func (e *encoder) packed(field string, v *big.Int, p pack.Profile) *encoder {
	if e.err != nil {
		return e
	}

	packed, err := pack.Pack(v, p)
	if err != nil {
		e.err = errors.Wrapf(err, "failed to pack %s", field)
		return e
	}
	e.buf = append(e.buf, packed...)
	return e
}

func (e *encoder) result() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// resize pads b with trailing zeros to exactly size bytes.
func resize(b []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, b)
	return out
}
