package chainclient

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DialFunc opens a Backend for one URL.
type DialFunc func(ctx context.Context, url string) (Backend, error)

// DialEthclient dials a JSON-RPC node with go-ethereum's ethclient.
func DialEthclient(ctx context.Context, url string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", url)
	}
	return client, nil
}

// Client wraps several base-chain RPC nodes and fails over between them
type Client struct {
	urls    []string
	dial    DialFunc
	mu      sync.Mutex
	clients []Backend
	current int
	logger  zerolog.Logger
}

// New creates a client over urls. Nodes that cannot be dialed now are retried on use.
func New(ctx context.Context, urls []string, dial DialFunc) (*Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}
	if dial == nil {
		dial = DialEthclient
	}

	c := &Client{
		urls:    urls,
		dial:    dial,
		clients: make([]Backend, len(urls)),
		logger:  log.With().Str("component", "chainclient").Logger(),
	}

	connected := 0
	for i, url := range urls {
		backend, err := dial(ctx, url)
		if err != nil {
			c.logger.Warn().Str("url", url).Err(err).Msg("Failed to connect to RPC node, will retry on use")
			continue
		}
		c.clients[i] = backend
		connected++
	}

	if connected == 0 {
		return nil, errors.New("failed to connect to any RPC node")
	}

	return c, nil
}

// Close closes all node connections
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, client := range c.clients {
		if client != nil {
			client.Close()
			c.clients[i] = nil
		}
	}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain ID")
	}
	return chainID, nil
}

func (c *Client) IsValidSignature(ctx context.Context, account common.Address, hash common.Hash, sig []byte) (bool, error) {
	out, err := c.call(ctx, account, "isValidSignature", hash, sig)
	if err != nil {
		// reverting accounts reject the signature
		if isExecutionReverted(err) {
			return false, nil
		}
		return false, err
	}

	magic, ok := out[0].([4]byte)
	if !ok {
		return false, errors.New("unexpected isValidSignature result")
	}
	return magic == EIP1271MagicValue, nil
}

func (c *Client) AuthFact(ctx context.Context, mainContract common.Address, account common.Address, nonce uint32) (common.Hash, error) {
	out, err := c.call(ctx, mainContract, "authFacts", account, nonce)
	if err != nil {
		return common.Hash{}, err
	}

	fact, ok := out[0].([32]byte)
	if !ok {
		return common.Hash{}, errors.New("unexpected authFacts result")
	}
	return fact, nil
}

func (c *Client) Owner(ctx context.Context, account common.Address) (common.Address, error) {
	out, err := c.call(ctx, account, "owner")
	if err != nil {
		return common.Address{}, err
	}

	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("unexpected owner result")
	}
	return owner, nil
}

func (c *Client) call(ctx context.Context, to common.Address, method string, args ...any) ([]any, error) {
	data, err := contractsABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}

	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", method)
	}

	out, err := contractsABI.Unpack(method, resp)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", method)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("empty %s result", method)
	}
	return out, nil
}

// getClient returns the first healthy node starting from the current one, redialing dropped nodes.
func (c *Client) getClient(ctx context.Context) (Backend, error) { //nolint:ireturn
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.clients {
		idx := (c.current + i) % len(c.clients)

		if c.clients[idx] == nil {
			backend, err := c.dial(ctx, c.urls[idx])
			if err != nil {
				c.logger.Warn().Str("url", c.urls[idx]).Err(err).Msg("RPC node still unavailable")
				continue
			}
			c.clients[idx] = backend
		}

		if _, err := c.clients[idx].ChainID(ctx); err != nil {
			c.logger.Warn().Str("url", c.urls[idx]).Err(err).Msg("RPC client health check failed, will try to reconnect")
			c.clients[idx].Close()
			c.clients[idx] = nil
			continue
		}

		if idx != c.current {
			c.logger.Info().Str("url", c.urls[idx]).Msg("Failed over to RPC node")
			c.current = idx
		}
		return c.clients[idx], nil
	}

	return nil, errors.New("all RPC clients are unavailable")
}

// isExecutionReverted matches JSON-RPC errors that carry revert data.
func isExecutionReverted(err error) bool {
	var dataErr rpc.DataError
	return errors.As(err, &dataErr)
}
