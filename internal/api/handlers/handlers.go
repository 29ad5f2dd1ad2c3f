package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/api/handlers/common"
	"github/chapool/go-rollup/internal/api/handlers/transactions"
)

// AttachAllRoutes registers every handler on the server's router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = append(s.Router.Routes, []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
		transactions.GetTransactionRoute(s),
		transactions.PostEncodeRoute(s),
		transactions.PostEstimateFeeRoute(s),
		transactions.PostVerifyRoute(s),
	}...)
}
