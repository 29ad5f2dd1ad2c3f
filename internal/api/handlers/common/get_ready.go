package common

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/util"
)

// StatusNotReady is returned by /-/ready while the operator cannot be reached.
const StatusNotReady = 521

const readinessTimeout = 5 * time.Second

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if !s.Ready() {
			log.Warn().Msg("Server is not ready")
			return c.String(StatusNotReady, "Not ready.")
		}

		ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
		defer cancel()

		if _, err := s.Operator.GetLatestBlockNumber(ctx); err != nil {
			log.Warn().Err(err).Msg("Operator is not reachable")
			return c.String(StatusNotReady, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
