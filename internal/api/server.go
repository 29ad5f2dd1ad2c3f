package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/wallet/submit"
)

// Operator is the slice of the submission client the HTTP handlers read through
type Operator interface {
	GetLatestBlockNumber(ctx context.Context) (*submit.BlockNumberResp, error)
	GetTransactionByHash(ctx context.Context, hash types.TxHash, includeUpdate bool) (*submit.TxResp, error)
	EstimateTransactionFee(ctx context.Context, t tx.Tx) (types.BigUint, error)
}

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1Tx    *echo.Group
}

// Server keeps the dependencies of the HTTP surface. Echo and Router are set by router.Init.
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config   config.Config
	Operator Operator
}

// NewOperator dials the configured operator endpoints.
func NewOperator(cfg config.Config) (*submit.Client, error) {
	return submit.NewClient(context.Background(), submit.ConfigFromNetwork(cfg))
}

func NewServer(cfg config.Config, operator Operator) *Server {
	return &Server{
		Config:   cfg,
		Operator: operator,
	}
}

func (s *Server) Ready() bool {
	if s.Echo == nil || s.Router == nil || s.Operator == nil {
		log.Debug().Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Server.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if closer, ok := s.Operator.(interface{ Close() }); ok {
		log.Debug().Msg("Closing operator client")
		closer.Close()
	}

	return errs
}
