package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/api/router"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/submit"
)

// WithTestServer runs closure against a fully routed server backed by operator.
func WithTestServer(t *testing.T, operator api.Operator, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, config.Default(), operator, closure)
}

func WithTestServerConfigurable(t *testing.T, cfg config.Config, operator api.Operator, closure func(s *api.Server)) {
	t.Helper()

	s := api.InitNewServerWithOperator(cfg, operator)
	router.Init(s)

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	require.Empty(t, s.Shutdown(ctx))
}

// PerformRequest serves one request in-process. body may be nil, raw bytes, a string or a value
// that is JSON encoded.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body any, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil && req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// Operator is an in-memory api.Operator.
type Operator struct {
	mu sync.Mutex

	BlockErr error
	Block    submit.BlockNumberResp
	Txs      map[types.TxHash]*submit.TxResp
	TxErr    error
	Fee      types.BigUint
	FeeErr   error

	// EstimatedTxs records every transaction passed to EstimateTransactionFee.
	EstimatedTxs []tx.Tx
}

var _ api.Operator = (*Operator)(nil)

func NewOperator() *Operator {
	return &Operator{Txs: map[types.TxHash]*submit.TxResp{}}
}

func (o *Operator) GetLatestBlockNumber(context.Context) (*submit.BlockNumberResp, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.BlockErr != nil {
		return nil, o.BlockErr
	}
	block := o.Block
	return &block, nil
}

func (o *Operator) GetTransactionByHash(_ context.Context, hash types.TxHash, _ bool) (*submit.TxResp, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.TxErr != nil {
		return nil, o.TxErr
	}
	return o.Txs[hash], nil
}

func (o *Operator) EstimateTransactionFee(_ context.Context, t tx.Tx) (types.BigUint, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.EstimatedTxs = append(o.EstimatedTxs, t)
	if o.FeeErr != nil {
		return types.BigUint{}, o.FeeErr
	}
	return o.Fee, nil
}
