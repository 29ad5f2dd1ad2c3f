package transactions

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

type EstimateFeeResponse struct {
	Fee types.BigUint `json:"fee"`
}

func PostEstimateFeeRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Tx.POST("/estimate-fee", postEstimateFeeHandler(s))
}

func postEstimateFeeHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		t, err := bindTx(c)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to bind transaction")
			return err
		}

		fee, err := s.Operator.EstimateTransactionFee(ctx, t)
		if err != nil {
			log.Debug().Err(err).Str("tx_type", t.Type().String()).Msg("Failed to estimate fee")
			return operatorError(err)
		}

		return c.JSON(http.StatusOK, &EstimateFeeResponse{Fee: fee})
	}
}
