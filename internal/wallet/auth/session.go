package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrSessionClosed is returned for calls on a session whose connection has gone away.
var ErrSessionClosed = errors.New("wallet session closed")

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
)

// Session is a request/response channel to an external wallet.
type Session interface {
	Call(ctx context.Context, result any, method string, params ...any) error
	Close() error
}

// RPCError is an error object returned by the wallet.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

type sessionRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type sessionResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// websocketSession multiplexes JSON-RPC calls over one websocket by request id.
type websocketSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan sessionResponse
	closed  chan struct{}
	once    sync.Once

	logger zerolog.Logger
}

// NewWebsocketSession dials a wallet bridge speaking JSON-RPC over websocket.
//
//nolint:ireturn
func NewWebsocketSession(ctx context.Context, url string) (Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect websocket")
	}

	s := &websocketSession{
		conn:    conn,
		pending: make(map[string]chan sessionResponse),
		closed:  make(chan struct{}),
		logger:  log.With().Str("component", "wallet-session").Logger(),
	}
	go s.readLoop()

	return s, nil
}

func (s *websocketSession) Call(ctx context.Context, result any, method string, params ...any) error {
	if params == nil {
		params = []any{}
	}
	req := sessionRequest{JSONRPC: "2.0", ID: uuid.NewString(), Method: method, Params: params}

	ch := make(chan sessionResponse, 1)
	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		return ErrSessionClosed
	default:
	}
	s.pending[req.ID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, req.ID)
		s.mu.Unlock()
	}()

	s.writeMu.Lock()
	err := s.conn.WriteJSON(req)
	s.writeMu.Unlock()
	if err != nil {
		s.shutdown()
		return errors.Wrap(ErrSessionClosed, err.Error())
	}

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case <-s.closed:
		return ErrSessionClosed
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil {
			return nil
		}
		return errors.Wrapf(json.Unmarshal(resp.Result, result), "failed to decode %s result", method)
	}
}

func (s *websocketSession) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	s.shutdown()
	return nil
}

func (s *websocketSession) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.closed)
		s.mu.Unlock()
		_ = s.conn.Close()
	})
}

func (s *websocketSession) readLoop() {
	defer s.shutdown()

	for {
		var resp sessionResponse
		if err := s.conn.ReadJSON(&resp); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Wallet session closed unexpectedly")
			}
			return
		}

		s.mu.Lock()
		ch, ok := s.pending[resp.ID]
		s.mu.Unlock()
		if !ok {
			s.logger.Debug().Str("id", resp.ID).Msg("Dropping response for unknown request")
			continue
		}
		select {
		case ch <- resp:
		default:
			s.logger.Debug().Str("id", resp.ID).Msg("Dropping duplicate response")
		}
	}
}
