package tx

import (
	"bytes"

	"github.com/pkg/errors"
)

// Flag is a one-byte boolean that travels as 0 or 1.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return errors.Errorf("invalid flag %s", data)
	}
	return nil
}
