package transactions

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
	"github/chapool/go-rollup/internal/wallet/signer"
)

type VerifyResponse struct {
	Valid bool `json:"valid"`
	// PubKeyHash is derived from the public key inside the signature, present when Valid.
	PubKeyHash *types.PubKeyHash `json:"pubKeyHash,omitempty"`
	// Orders holds the taker and maker signature checks of an OrderMatching.
	Orders []bool `json:"orders,omitempty"`
}

func PostVerifyRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Tx.POST("/verify", postVerifyHandler(s))
}

func postVerifyHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		t, err := bindTx(c)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to bind transaction")
			return err
		}

		response := &VerifyResponse{
			Valid: signer.VerifyTx(t),
		}
		if response.Valid {
			pkHash := signer.PubKeyHash(t.RollupSignature().PubKey)
			response.PubKeyHash = &pkHash
		}
		if matching, ok := t.(*tx.OrderMatching); ok {
			response.Orders = []bool{
				signer.VerifyOrder(&matching.Taker),
				signer.VerifyOrder(&matching.Maker),
			}
		}

		log.Debug().Str("tx_type", t.Type().String()).Bool("valid", response.Valid).Msg("Verified rollup signature")

		return c.JSON(http.StatusOK, response)
	}
}
