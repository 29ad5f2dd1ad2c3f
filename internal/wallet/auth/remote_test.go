package auth_test

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/auth"
)

type walletMode int

const (
	walletApprove walletMode = iota
	walletReject
	walletHang
	walletDisconnect
	walletDuplicate
)

type walletRequest struct {
	ID     string            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeWallet answers wallet JSON-RPC over websocket with a fixed key.
func fakeWallet(t *testing.T, key *ecdsa.PrivateKey, chainID uint64, mode walletMode) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req walletRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}

			resp := map[string]any{"id": req.ID}
			switch req.Method {
			case "eth_chainId":
				resp["result"] = hexutil.Uint64(chainID)
			case "eth_accounts":
				resp["result"] = []common.Address{crypto.PubkeyToAddress(key.PublicKey)}
			case "personal_sign":
				switch mode {
				case walletReject:
					resp["error"] = map[string]any{"code": auth.CodeUserRejected, "message": "User rejected the request."}
				case walletHang:
					continue
				case walletDisconnect:
					return
				default:
					var msg hexutil.Bytes
					if err := json.Unmarshal(req.Params[0], &msg); err != nil {
						return
					}
					sig, err := crypto.Sign(accounts.TextHash(msg), key)
					if err != nil {
						return
					}
					sig[crypto.RecoveryIDOffset] += 27
					resp["result"] = hexutil.Bytes(sig)
				}
			default:
				resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
			}

			if err := conn.WriteJSON(resp); err != nil {
				return
			}
			if mode == walletDuplicate {
				if err := conn.WriteJSON(resp); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dialWallet(t *testing.T, server *httptest.Server) auth.Session {
	t.Helper()
	session, err := auth.NewWebsocketSession(context.Background(), "ws"+strings.TrimPrefix(server.URL, "http"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestRemoteBackendSigns(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	server := fakeWallet(t, key, 5, walletApprove)

	backend := auth.NewRemoteBackend(dialWallet(t, server), time.Second)
	assert.True(t, backend.Interactive())

	identity, err := backend.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), identity)

	req := &auth.Request{Message: []byte("Transfer 1.0 USDC"), NetworkID: 5}
	proof, err := backend.SignMessage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, identity, recoverSigner(t, accounts.TextHash(req.Message), proof.Signature))
}

func TestSessionSurvivesDuplicateResponses(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	server := fakeWallet(t, key, 5, walletDuplicate)

	backend := auth.NewRemoteBackend(dialWallet(t, server), time.Second)
	for range 3 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		identity, err := backend.Identity(ctx)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), identity)

		req := &auth.Request{Message: []byte("Transfer 1.0 USDC"), NetworkID: 5}
		proof, err := backend.SignMessage(ctx, req)
		cancel()
		require.NoError(t, err)
		assert.Equal(t, identity, recoverSigner(t, accounts.TextHash(req.Message), proof.Signature))
	}
}

func TestRemoteBackendErrors(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name      string
		mode      walletMode
		networkID uint64
		kind      types.AuthErrorKind
	}{
		{"user rejected", walletReject, 5, types.AuthUserRejected},
		{"timeout", walletHang, 5, types.AuthTimeout},
		{"disconnected", walletDisconnect, 5, types.AuthSessionDisconnected},
		{"wrong network", walletApprove, 1, types.AuthContextMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := fakeWallet(t, key, 5, tt.mode)
			backend := auth.NewRemoteBackend(dialWallet(t, server), 200*time.Millisecond)

			_, err := backend.SignMessage(context.Background(), &auth.Request{Message: []byte("hello"), NetworkID: tt.networkID})
			require.Error(t, err)
			assert.True(t, types.IsAuthError(err, tt.kind), "got %v", err)
		})
	}
}

func TestRemoteBackendRejectsForeignSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	server := fakeWallet(t, key, 5, walletApprove)

	backend := auth.NewRemoteBackend(dialWallet(t, server), time.Second)
	_, err = backend.SignMessage(context.Background(), &auth.Request{
		Message: []byte("hello"),
		Account: common.HexToAddress("0x0000000000000000000000000000000000000abc"),
	})
	assert.True(t, types.IsAuthError(err, types.AuthContextMismatch))
}
