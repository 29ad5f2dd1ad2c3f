package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// Address is a rollup account address. Base-chain addresses (20 bytes) are left-padded with zeros.
type Address [AddressBytes]byte

// ParseAddress accepts a 0x-prefixed hex string of 20 or 32 bytes.
func ParseAddress(s string) (Address, error) {
	var addr Address

	raw, err := hexutil.Decode(normalizeHex(s))
	if err != nil {
		return addr, errors.Wrapf(err, "invalid address %q", s)
	}

	switch len(raw) {
	case BaseChainAddrBytes, AddressBytes:
		copy(addr[AddressBytes-len(raw):], raw)
		return addr, nil
	default:
		return addr, errors.Errorf("invalid address length %d, expected 20 or 32 bytes", len(raw))
	}
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// AddressFromBaseChain widens a base-chain address.
func AddressFromBaseChain(a common.Address) Address {
	var addr Address
	copy(addr[AddressBytes-BaseChainAddrBytes:], a.Bytes())
	return addr
}

// IsZero reports whether every byte is zero.
func (a Address) IsZero() bool {
	return a == Address{}
}

// IsBaseChain reports whether the address is a left-padded 20 byte address.
func (a Address) IsBaseChain() bool {
	return bytes.Equal(a[:AddressBytes-BaseChainAddrBytes], make([]byte, AddressBytes-BaseChainAddrBytes))
}

// IsGlobalAccountAddress reports whether the address is the global asset account address.
func (a Address) IsGlobalAccountAddress() bool {
	if bytes.Equal(a[:], bytes.Repeat([]byte{0xff}, AddressBytes)) {
		return true
	}
	return a.IsBaseChain() && bytes.Equal(a[AddressBytes-BaseChainAddrBytes:], bytes.Repeat([]byte{0xff}, BaseChainAddrBytes))
}

// BaseChain returns the low 20 bytes as a base-chain address.
func (a Address) BaseChain() common.Address {
	return common.BytesToAddress(a[AddressBytes-BaseChainAddrBytes:])
}

// Bytes returns the full 32 byte form.
func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	if a.IsBaseChain() {
		return hexutil.Encode(a[AddressBytes-BaseChainAddrBytes:])
	}
	return hexutil.Encode(a[:])
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "address must be a string")
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "0x" + s
	}
	return "0x" + s[2:]
}
