package chainclient

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const contractsABIJSON = `[
	{"type":"function","name":"isValidSignature","stateMutability":"view",
	 "inputs":[{"name":"hash","type":"bytes32"},{"name":"signature","type":"bytes"}],
	 "outputs":[{"name":"magicValue","type":"bytes4"}]},
	{"type":"function","name":"authFacts","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"},{"name":"nonce","type":"uint32"}],
	 "outputs":[{"name":"fact","type":"bytes32"}]},
	{"type":"function","name":"owner","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"address"}]}
]`

// contractsABI covers the views of the main contract and of contract accounts.
var contractsABI = mustParseABI(contractsABIJSON) //nolint:gochecknoglobals

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
