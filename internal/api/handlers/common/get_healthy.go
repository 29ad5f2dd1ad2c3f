package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-rollup/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Liveness only; the operator connection is covered by /-/ready.
func getHealthyHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy.")
	}
}
