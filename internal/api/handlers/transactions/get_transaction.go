package transactions

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/api/httperrors"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Tx.GET("/:hash", getTransactionHandler(s))
}

func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		hash, err := types.ParseTxHash(c.Param("hash"))
		if err != nil {
			return httperrors.ErrBadRequestInvalidTxHash.WithDetail(err.Error())
		}

		includeUpdate := false
		if raw := c.QueryParam("includeUpdate"); raw != "" {
			includeUpdate, err = strconv.ParseBool(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "includeUpdate must be a boolean")
			}
		}

		resp, err := s.Operator.GetTransactionByHash(ctx, hash, includeUpdate)
		if err != nil {
			log.Debug().Err(err).Str("tx_hash", hash.String()).Msg("Failed to get transaction")
			return operatorError(err)
		}
		if resp == nil {
			return httperrors.ErrNotFoundTx
		}

		return c.JSON(http.StatusOK, resp)
	}
}
