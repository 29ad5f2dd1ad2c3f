// Package zkhash computes circuit-friendly digests over BN254's scalar field.
package zkhash

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github/chapool/go-rollup/internal/rollup/types"
)

// chunkBytes keeps every absorbed block below the field modulus.
const chunkBytes = types.FrBytes

// Sum absorbs msg in 31 byte chunks (each left-padded to a field element) and returns the
// 32 byte big-endian MiMC digest. The digest is itself a valid field element.
func Sum(msg []byte) []byte {
	h := mimc.NewMiMC()

	block := make([]byte, fr.Bytes)
	if len(msg) == 0 {
		_, _ = h.Write(block)
		return h.Sum(nil)
	}

	for start := 0; start < len(msg); start += chunkBytes {
		end := min(start+chunkBytes, len(msg))
		clear(block)
		copy(block[fr.Bytes-(end-start):], msg[start:end])
		// a 31 byte value never reaches the modulus, so Write cannot fail
		_, _ = h.Write(block)
	}

	return h.Sum(nil)
}

// Sum31 is Sum truncated to its low 248 bits, the width stored inside transaction messages.
func Sum31(msg []byte) []byte {
	digest := Sum(msg)
	return digest[len(digest)-types.FrBytes:]
}

// HashOrders hashes the fixed-width orders buffer of a matching transaction.
func HashOrders(orders []byte) []byte {
	return Sum31(orders)
}
