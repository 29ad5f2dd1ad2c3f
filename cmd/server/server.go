package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/api/router"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP server",
		Long: `Starts the HTTP server exposing health probes and the transaction
encode, verify, fee estimation and lookup endpoints.

Requires configuration through ENV or a config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := api.InitNewServer(cfg)
	if err != nil {
		return err
	}
	router.Init(s)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().Str("address", cfg.Server.ListenAddress).Str("network", cfg.Network.Name).Msg("Server started")

	var startErr error
	select {
	case <-ctx.Done():
	case startErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), cfg.Server.ShutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
		log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
		return errs[0]
	}

	if startErr != nil {
		return startErr
	}

	log.Info().Msg("Server stopped")

	return nil
}
