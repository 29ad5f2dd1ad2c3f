package tx

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

const (
	eip712DomainName    = "ZkLink"
	eip712DomainVersion = "1"
)

// TypedData is the EIP-712 payload a base-chain wallet signs to authorize a ChangePubKey.
func (t *ChangePubKey) TypedData(baseChainID uint64, mainContract common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"ChangePubKey": {
				{Name: "pubKeyHash", Type: "bytes20"},
				{Name: "nonce", Type: "uint32"},
				{Name: "accountId", Type: "uint32"},
			},
		},
		PrimaryType: "ChangePubKey",
		Domain: apitypes.TypedDataDomain{
			Name:              eip712DomainName,
			Version:           eip712DomainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(baseChainID)), //nolint:gosec
			VerifyingContract: mainContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"pubKeyHash": hexutil.Encode(t.NewPkHash[:]),
			"nonce":      strconv.FormatUint(uint64(t.Nonce), 10),
			"accountId":  strconv.FormatUint(uint64(t.AccountID), 10),
		},
	}
}

// TypedDataHash is the EIP-712 digest of TypedData.
func (t *ChangePubKey) TypedDataHash(baseChainID uint64, mainContract common.Address) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(t.TypedData(baseChainID, mainContract))
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash change pubkey typed data")
	}
	return hash, nil
}
