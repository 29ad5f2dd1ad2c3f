package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/api/handlers"
	"github/chapool/go-rollup/internal/api/httperrors"
	"github/chapool/go-rollup/internal/api/middleware"
	"github/chapool/go-rollup/internal/metrics"
)

// Init builds the echo instance and attaches every route to s.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Server.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Logger.SetOutput(&echoLogWriter{})
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())

	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestID())
	s.Echo.Use(middleware.Logger(s.Config.Server.Debug))

	if s.Config.Metrics.Enabled {
		s.Echo.Use(metrics.HTTPMiddleware())
	}

	s.Router = &api.Router{
		Routes:     nil,
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1Tx:    s.Echo.Group("/api/v1/tx"),
	}

	if s.Config.Metrics.Enabled {
		s.Router.Routes = append(s.Router.Routes, s.Router.Root.GET("/metrics", echo.WrapHandler(metrics.Handler())))
	}

	handlers.AttachAllRoutes(s)
}

// echoLogWriter forwards echo's own log lines (startup errors) to zerolog.
type echoLogWriter struct{}

func (w *echoLogWriter) Write(p []byte) (int, error) {
	log.Debug().Str("component", "echo").Msg(string(p))
	return len(p), nil
}
