package transactions

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

type EncodeResponse struct {
	Type  string        `json:"type"`
	Hash  types.TxHash  `json:"hash"`
	Bytes hexutil.Bytes `json:"bytes"`
	// Signed reports whether a rollup signature is attached; it is not checked here.
	Signed bool `json:"signed"`
}

func PostEncodeRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Tx.POST("/encode", postEncodeHandler(s))
}

func postEncodeHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		t, err := bindTx(c)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to bind transaction")
			return err
		}

		encoded, err := t.Encode()
		if err != nil {
			log.Debug().Err(err).Str("tx_type", t.Type().String()).Msg("Failed to encode transaction")
			return err
		}

		return c.JSON(http.StatusOK, &EncodeResponse{
			Type:   t.Type().String(),
			Hash:   tx.HashBytes(encoded),
			Bytes:  encoded,
			Signed: !t.RollupSignature().IsZero(),
		})
	}
}
