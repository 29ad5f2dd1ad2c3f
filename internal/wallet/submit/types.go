package submit

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

// BlockNumber is a rollup block height
type BlockNumber uint32

// Micros is a timestamp the operator sends as microseconds since the epoch
type Micros int64

func (m Micros) Time() time.Time {
	return time.UnixMicro(int64(m)).UTC()
}

// RawTx is a tagged transaction as the operator returns it
type RawTx json.RawMessage

func (r RawTx) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawTx) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Decode parses and validates the transaction.
func (r RawTx) Decode() (tx.Tx, error) {
	return tx.UnmarshalTx(r)
}

type ChainResp struct {
	ChainID           types.ChainID `json:"chainId"`
	ChainType         uint8         `json:"chainType"`
	LayerOneChainID   uint32        `json:"layerOneChainId"`
	MainContract      types.Address `json:"mainContract"`
	LayerZeroContract types.Address `json:"layerZeroContract"`
	Web3URL           string        `json:"web3Url"`
	FeeCap            *hexutil.Big  `json:"feeCap"`
	GasTokenID        types.TokenID `json:"gasTokenId"`
	Validator         types.Address `json:"validator"`
}

type TokenResp struct {
	ID       types.TokenID                    `json:"id"`
	Symbol   string                           `json:"symbol"`
	USDPrice decimal.Decimal                  `json:"usdPrice"`
	Chains   map[types.ChainID]ChainTokenResp `json:"chains"`
}

type ChainTokenResp struct {
	ChainID      types.ChainID `json:"chainId"`
	Address      types.Address `json:"address"`
	Decimals     uint8         `json:"decimals"`
	FastWithdraw bool          `json:"fastWithdraw"`
}

type BlockNumberResp struct {
	LastBlockNumber BlockNumber `json:"lastBlockNumber"`
	Timestamp       uint64      `json:"timestamp"`
	Committed       BlockNumber `json:"committed"`
	Verified        BlockNumber `json:"verified"`
}

type BlockResp struct {
	Number               BlockNumber      `json:"number"`
	Commitment           common.Hash      `json:"commitment"`
	RootHash             common.Hash      `json:"rootHash"`
	FeeAccountID         types.AccountID  `json:"feeAccountId"`
	BlockSize            uint64           `json:"blockSize"`
	OpsCompositionNumber uint64           `json:"opsCompositionNumber"`
	Timestamp            time.Time        `json:"timestamp"`
	Transactions         []TxHashOrDetail `json:"transactions"`
}

// TxHashOrDetail holds either a bare hash or a full transaction, depending on the include flags.
type TxHashOrDetail struct {
	Hash   types.TxHash
	Detail *BlockTxResp
}

func (t TxHashOrDetail) MarshalJSON() ([]byte, error) {
	if t.Detail != nil {
		return json.Marshal(t.Detail)
	}
	return json.Marshal(t.Hash)
}

func (t *TxHashOrDetail) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		t.Detail = nil
		return t.Hash.UnmarshalJSON(data)
	}

	var detail BlockTxResp
	if err := json.Unmarshal(data, &detail); err != nil {
		return errors.Wrap(err, "failed to decode block transaction")
	}
	t.Hash = detail.TxHash
	t.Detail = &detail
	return nil
}

type BlockOnChainResp struct {
	Committed []OnChainResp `json:"committed"`
	Proved    []OnChainResp `json:"proved"`
	Verified  []OnChainResp `json:"verified"`
}

type OnChainResp struct {
	ChainID types.ChainID `json:"chainId"`
	TxHash  common.Hash   `json:"txHash"`
}

// AccountQuery selects an account by id or by address
type AccountQuery struct {
	ID      *types.AccountID
	Address *types.Address
}

func AccountByID(id types.AccountID) AccountQuery {
	return AccountQuery{ID: &id}
}

func AccountByAddress(address types.Address) AccountQuery {
	return AccountQuery{Address: &address}
}

// ParseAccountQuery accepts a decimal account id or a hex address.
func ParseAccountQuery(s string) (AccountQuery, error) {
	if id, err := strconv.ParseUint(s, 10, 32); err == nil {
		return AccountByID(types.AccountID(id)), nil
	}
	address, err := types.ParseAddress(s)
	if err != nil {
		return AccountQuery{}, errors.Errorf("%q is neither an account id nor an address", s)
	}
	return AccountByAddress(address), nil
}

func (q AccountQuery) MarshalJSON() ([]byte, error) {
	switch {
	case q.ID != nil:
		return json.Marshal(*q.ID)
	case q.Address != nil:
		return json.Marshal(*q.Address)
	default:
		return nil, errors.New("empty account query")
	}
}

type SubAccountNonces map[types.SubAccountID]types.Nonce

type SubAccountBalances map[types.SubAccountID]map[types.TokenID]types.BigUint

type SubAccountOrders map[types.SubAccountID]map[types.SlotID]TidyOrder

type AccountInfoResp struct {
	ID               types.AccountID  `json:"id"`
	Address          types.Address    `json:"address"`
	Nonce            types.Nonce      `json:"nonce"`
	PubKeyHash       types.PubKeyHash `json:"pubKeyHash"`
	SubAccountNonces SubAccountNonces `json:"subAccountNonces"`
}

type TidyOrder struct {
	Nonce   types.Nonce     `json:"nonce"`
	Residue decimal.Decimal `json:"residue"`
}

type AccountSnapshotResp struct {
	ID               types.AccountID    `json:"id"`
	Address          types.Address      `json:"address"`
	Nonce            types.Nonce        `json:"nonce"`
	PubKeyHash       types.PubKeyHash   `json:"pubKeyHash"`
	SubAccountNonces SubAccountNonces   `json:"subAccountNonces"`
	Balances         SubAccountBalances `json:"balances"`
	OrderSlots       SubAccountOrders   `json:"orderSlots"`
	BlockNumber      BlockNumber        `json:"blockNumber"`
}

// StateUpdate is one account state change. Type selects which fields are set.
type StateUpdate struct {
	Type         string             `json:"type"`
	UpdateID     int32              `json:"updateId"`
	AccountID    types.AccountID    `json:"accountId"`
	SubAccountID types.SubAccountID `json:"subAccountId,omitempty"`
	Address      *types.Address     `json:"address,omitempty"`
	OldPkHash    *types.PubKeyHash  `json:"oldPubkeyHash,omitempty"`
	NewPkHash    *types.PubKeyHash  `json:"newPubkeyHash,omitempty"`
	CoinID       types.TokenID      `json:"coinId,omitempty"`
	OldBalance   *types.BigUint     `json:"oldBalance,omitempty"`
	NewBalance   *types.BigUint     `json:"newBalance,omitempty"`
	OldNonce     types.Nonce        `json:"oldNonce,omitempty"`
	NewNonce     types.Nonce        `json:"newNonce,omitempty"`
	SlotID       types.SlotID       `json:"slotId,omitempty"`
	OldTidyOrder *TidyOrder         `json:"oldTidyOrder,omitempty"`
	NewTidyOrder *TidyOrder         `json:"newTidyOrder,omitempty"`
}

type TxResp struct {
	TxHash  types.TxHash  `json:"txHash"`
	Tx      RawTx         `json:"tx"`
	Receipt TxReceiptResp `json:"receipt"`
	Updates []StateUpdate `json:"updates"`
}

type TxReceiptResp struct {
	Executed          bool         `json:"executed"`
	ExecutedTimestamp *Micros      `json:"executedTimestamp"`
	Success           bool         `json:"success"`
	FailReason        *string      `json:"failReason"`
	Block             *BlockNumber `json:"block"`
	Index             *uint32      `json:"index"`
}

type BlockTxResp struct {
	TxHash            types.TxHash  `json:"txHash"`
	Tx                RawTx         `json:"tx"`
	ExecutedTimestamp Micros        `json:"executedTimestamp"`
	Updates           []StateUpdate `json:"updates"`
}

type FastWithdrawTxResp struct {
	TxHash            types.TxHash `json:"txHash"`
	Tx                RawTx        `json:"tx"`
	ExecutedTimestamp Micros       `json:"executedTimestamp"`
}

type ForwardTxResp struct {
	TxID       int64         `json:"txId"`
	OpType     int16         `json:"opType"`
	TxHash     types.TxHash  `json:"txHash"`
	Tx         RawTx         `json:"tx"`
	Executable bool          `json:"executable"`
	Receipt    TxReceiptResp `json:"receipt"`
}

type Page[T any] struct {
	TotalPageNum uint64 `json:"totalPageNum"`
	PageIndex    uint64 `json:"pageIndex"`
	PageSize     uint32 `json:"pageSize"`
	PageData     []T    `json:"pageData"`
}

type TxHistory struct {
	ChainID     types.ChainID `json:"chainId"`
	FromAccount types.Address `json:"fromAccount"`
	ToAccount   types.Address `json:"toAccount"`
	Amount      types.BigUint `json:"amount"`
	Nonce       types.Nonce   `json:"nonce"`
	Tx          RawTx         `json:"tx"`
	TxHash      types.TxHash  `json:"txHash"`
	TxReceipt   TxReceiptResp `json:"txReceipt"`
	CreatedAt   time.Time     `json:"createdAt"`
}
