package submit

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/metrics"
	"github/chapool/go-rollup/internal/rollup/types"
)

// Caller is one operator JSON-RPC connection. *rpc.Client satisfies it.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Close()
}

// DialFunc opens a Caller for one URL.
type DialFunc func(ctx context.Context, url string) (Caller, error)

// DialRPC dials an operator endpoint with go-ethereum's rpc client.
func DialRPC(ctx context.Context, url string) (Caller, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", url)
	}
	return client, nil
}

// RetryConfig bounds query retries and resubmission
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	// MaxResubmits is how many times Submit resends after the operator confirmed it never saw the tx.
	MaxResubmits int
}

// DefaultRetryConfig returns the retry policy used when none is configured
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  30 * time.Second,
		MaxResubmits:    2,
	}
}

// NotFoundFunc reports whether an operator error answering getTransactionByHash means the
// operator has no such transaction.
type NotFoundFunc func(err *types.SubmissionRejectedError) bool

// NotFoundClassifier treats the given error codes, and any message saying the transaction is
// missing, as not found.
func NotFoundClassifier(codes ...int) NotFoundFunc {
	return func(err *types.SubmissionRejectedError) bool {
		if err == nil {
			return false
		}
		if slices.Contains(codes, err.Code) {
			return true
		}
		reason := strings.ToLower(err.Reason)
		return strings.Contains(reason, "not found") || strings.Contains(reason, "not exist")
	}
}

// Config configures the operator client
type Config struct {
	URLs  []string
	Retry RetryConfig
	// Dial defaults to DialRPC.
	Dial DialFunc
	// TxNotFound defaults to NotFoundClassifier().
	TxNotFound NotFoundFunc
}

// ConfigFromNetwork builds the client configuration from the loaded application config.
func ConfigFromNetwork(cfg config.Config) Config {
	return Config{
		URLs: cfg.Network.RPCURLs,
		Retry: RetryConfig{
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
			MaxResubmits:    cfg.Retry.MaxResubmits,
		},
		TxNotFound: NotFoundClassifier(cfg.Retry.TxNotFoundCodes...),
	}
}

// Client talks to one or more operator endpoints, failing over on transport errors
type Client struct {
	urls       []string
	dial       DialFunc
	retry      RetryConfig
	txNotFound NotFoundFunc
	mu         sync.Mutex
	clients    []Caller
	current    int
	logger     zerolog.Logger
}

// NewClient dials the configured endpoints. Endpoints that cannot be dialed now are retried on use.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("at least one operator URL is required")
	}
	dial := cfg.Dial
	if dial == nil {
		dial = DialRPC
	}
	txNotFound := cfg.TxNotFound
	if txNotFound == nil {
		txNotFound = NotFoundClassifier()
	}

	c := &Client{
		urls:       cfg.URLs,
		dial:       dial,
		retry:      cfg.Retry,
		txNotFound: txNotFound,
		clients:    make([]Caller, len(cfg.URLs)),
		logger:     log.With().Str("component", "submit").Logger(),
	}

	connected := 0
	for i, url := range cfg.URLs {
		caller, err := dial(ctx, url)
		if err != nil {
			c.logger.Warn().Str("url", url).Err(err).Msg("Failed to connect to operator, will retry on use")
			continue
		}
		c.clients[i] = caller
		connected++
	}

	if connected == 0 {
		return nil, errors.New("failed to connect to any operator endpoint")
	}

	return c, nil
}

// Close closes all endpoint connections
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, caller := range c.clients {
		if caller != nil {
			caller.Close()
			c.clients[i] = nil
		}
	}
}

// getClient returns the current endpoint, redialing it if needed
func (c *Client) getClient(ctx context.Context) (Caller, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 0; attempt < len(c.urls); attempt++ {
		idx := (c.current + attempt) % len(c.urls)
		if c.clients[idx] == nil {
			caller, err := c.dial(ctx, c.urls[idx])
			if err != nil {
				c.logger.Warn().Str("url", c.urls[idx]).Err(err).Msg("Failed to reconnect to operator")
				continue
			}
			c.clients[idx] = caller
		}

		if idx != c.current {
			c.logger.Info().Str("from", c.urls[c.current]).Str("to", c.urls[idx]).Msg("Switched operator endpoint")
			metrics.RPCFailovers.WithLabelValues("submit").Inc()
			c.current = idx
		}
		return c.clients[idx], idx, nil
	}

	return nil, 0, errors.New("no operator endpoint available")
}

// markFailed moves past an endpoint that failed at the transport level
func (c *Client) markFailed(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.urls) > 1 && c.current == idx {
		c.current = (idx + 1) % len(c.urls)
	}
}

// call performs one JSON-RPC request with no retry.
func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	caller, idx, err := c.getClient(ctx)
	if err != nil {
		return err
	}

	err = caller.CallContext(ctx, result, method, args...)
	switch {
	case err == nil:
		metrics.RPCRequests.WithLabelValues(method, metrics.ResultOK).Inc()
		return nil
	case isRejection(err):
		metrics.RPCRequests.WithLabelValues(method, metrics.ResultRejected).Inc()
	default:
		metrics.RPCRequests.WithLabelValues(method, metrics.ResultError).Inc()
		if ctx.Err() == nil {
			c.markFailed(idx)
		}
	}
	return errors.Wrapf(err, "%s", method)
}

// query performs an idempotent request, retrying transport failures with exponential backoff.
func (c *Client) query(ctx context.Context, result any, method string, args ...any) error {
	op := func() error {
		err := c.call(ctx, result, method, args...)
		if err == nil {
			return nil
		}
		if rejected := asRejection(err); rejected != nil {
			return backoff.Permanent(rejected)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		c.logger.Debug().Err(err).Str("method", method).Dur("retry_in", next).Msg("Operator query failed, retrying")
	}

	return backoff.RetryNotify(op, c.newBackOff(ctx), notify) //nolint:wrapcheck
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.retry.InitialInterval > 0 {
		b.InitialInterval = c.retry.InitialInterval
	}
	if c.retry.MaxInterval > 0 {
		b.MaxInterval = c.retry.MaxInterval
	}
	if c.retry.MaxElapsedTime > 0 {
		b.MaxElapsedTime = c.retry.MaxElapsedTime
	}
	return backoff.WithContext(b, ctx)
}

func isRejection(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

// asRejection converts a JSON-RPC error response into a SubmissionRejectedError.
func asRejection(err error) *types.SubmissionRejectedError {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return nil
	}
	return &types.SubmissionRejectedError{Code: rpcErr.ErrorCode(), Reason: rpcErr.Error()}
}
