package submit

import (
	"context"

	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/orchestrator"
)

func (c *Client) GetSupportChains(ctx context.Context) ([]ChainResp, error) {
	var out []ChainResp
	if err := c.query(ctx, &out, "getSupportChains"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSupportTokens(ctx context.Context) (map[types.TokenID]TokenResp, error) {
	var out map[types.TokenID]TokenResp
	if err := c.query(ctx, &out, "getSupportTokens"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLatestBlockNumber(ctx context.Context) (*BlockNumberResp, error) {
	var out BlockNumberResp
	if err := c.query(ctx, &out, "getLatestBlockNumber"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBlockByNumber returns the latest block when number is nil.
func (c *Client) GetBlockByNumber(ctx context.Context, number *BlockNumber, includeTx bool, includeUpdate bool) (*BlockResp, error) {
	var out BlockResp
	if err := c.query(ctx, &out, "getBlockByNumber", number, includeTx, includeUpdate); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPendingBlock(ctx context.Context, lastTxTimestampMicro uint64, includeTx bool, includeUpdate bool, limit *int) ([]TxHashOrDetail, error) {
	var out []TxHashOrDetail
	if err := c.query(ctx, &out, "getPendingBlock", lastTxTimestampMicro, includeTx, includeUpdate, limit); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBlockOnChainByNumber(ctx context.Context, number BlockNumber) (*BlockOnChainResp, error) {
	var out BlockOnChainResp
	if err := c.query(ctx, &out, "getBlockOnChainByNumber", number); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAccount(ctx context.Context, account AccountQuery) (*AccountInfoResp, error) {
	var out AccountInfoResp
	if err := c.query(ctx, &out, "getAccount", account); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAccountBalances(ctx context.Context, accountID types.AccountID, subAccountID *types.SubAccountID) (SubAccountBalances, error) {
	var out SubAccountBalances
	if err := c.query(ctx, &out, "getAccountBalances", accountID, subAccountID); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAccountOrderSlots(ctx context.Context, accountID types.AccountID, subAccountID *types.SubAccountID) (SubAccountOrders, error) {
	var out SubAccountOrders
	if err := c.query(ctx, &out, "getAccountOrderSlots", accountID, subAccountID); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTokenReserve(ctx context.Context, tokenID types.TokenID, mapping bool) (map[types.ChainID]types.BigUint, error) {
	var out map[types.ChainID]types.BigUint
	if err := c.query(ctx, &out, "getTokenReserve", tokenID, mapping); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAccountSnapshot(ctx context.Context, account AccountQuery, subAccountID *types.SubAccountID, blockNumber *BlockNumber) (*AccountSnapshotResp, error) {
	var out AccountSnapshotResp
	if err := c.query(ctx, &out, "getAccountSnapshot", account, subAccountID, blockNumber); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransactionByHash returns nil without error when the operator does not know the hash.
func (c *Client) GetTransactionByHash(ctx context.Context, hash types.TxHash, includeUpdate bool) (*TxResp, error) {
	var out *TxResp
	if err := c.query(ctx, &out, "getTransactionByHash", hash, includeUpdate); err != nil {
		if rejected := asRejection(err); rejected != nil && c.txNotFound(rejected) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAccountTransactionHistory(ctx context.Context, txType tx.Type, address types.Address, pageIndex uint64, pageSize uint32) (*Page[TxHistory], error) {
	var out Page[TxHistory]
	if err := c.query(ctx, &out, "getAccountTransactionHistory", txType.String(), address, pageIndex, pageSize); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFastWithdrawTxs(ctx context.Context, lastTxTimestamp uint64, maxTxs uint32) ([]FastWithdrawTxResp, error) {
	var out []FastWithdrawTxResp
	if err := c.query(ctx, &out, "getFastWithdrawTxs", lastTxTimestamp, maxTxs); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PullForwardTxs(ctx context.Context, subAccountID types.SubAccountID, offsetID int64, limit int64) ([]ForwardTxResp, error) {
	var out []ForwardTxResp
	if err := c.query(ctx, &out, "pullForwardTxs", subAccountID, offsetID, limit); err != nil {
		return nil, err
	}
	return out, nil
}

// EstimateTransactionFee is deprecated on the operator side.
func (c *Client) EstimateTransactionFee(ctx context.Context, t tx.Tx) (types.BigUint, error) {
	body, err := tx.MarshalTx(t)
	if err != nil {
		return types.BigUint{}, err
	}

	var out types.BigUint
	if err := c.query(ctx, &out, "estimateTransactionFee", rawJSON(body)); err != nil {
		return types.BigUint{}, err
	}
	return out, nil
}

// ConfirmFullExit is a write, so it is not retried.
func (c *Client) ConfirmFullExit(ctx context.Context, hash types.TxHash, submitterSignature types.ZkSignature) (bool, error) {
	var out bool
	if err := c.call(ctx, &out, "confirmFullExit", hash, submitterSignature); err != nil {
		if rejected := asRejection(err); rejected != nil {
			return false, rejected
		}
		return false, err
	}
	return out, nil
}

// Service is the operator surface the CLI depends on
type Service interface {
	Submit(ctx context.Context, env *orchestrator.SignedEnvelope) (types.TxHash, error)
	GetSupportTokens(ctx context.Context) (map[types.TokenID]TokenResp, error)
	GetSupportChains(ctx context.Context) ([]ChainResp, error)
	GetLatestBlockNumber(ctx context.Context) (*BlockNumberResp, error)
	GetAccount(ctx context.Context, account AccountQuery) (*AccountInfoResp, error)
	GetAccountSnapshot(ctx context.Context, account AccountQuery, subAccountID *types.SubAccountID, blockNumber *BlockNumber) (*AccountSnapshotResp, error)
	GetTransactionByHash(ctx context.Context, hash types.TxHash, includeUpdate bool) (*TxResp, error)
	EstimateTransactionFee(ctx context.Context, t tx.Tx) (types.BigUint, error)
	Close()
}

var _ Service = (*Client)(nil)
