package middleware

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/go-rollup/internal/util"
)

// Logger stores a request-scoped zerolog logger carrying the request id in the request context.
// With logRequests set every request is also logged once it completes.
func Logger(logRequests bool) echo.MiddlewareFunc {
	requestLogger := echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		HandleError:  true,
		LogLatency:   true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			l := util.LogFromContext(c.Request().Context())

			event := l.Info()
			if v.Error != nil {
				event = l.Warn().Err(v.Error)
			}

			event.
				Str("method", v.Method).
				Str("path", v.URIPath).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Request handled")

			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if logRequests {
			next = requestLogger(next)
		}

		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := log.With().Str("request_id", requestID).Logger()
			c.SetRequest(c.Request().WithContext(util.WithLogger(c.Request().Context(), l)))

			return next(c)
		}
	}
}
