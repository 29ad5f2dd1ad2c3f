package transactions

import (
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/api/httperrors"
	"github/chapool/go-rollup/internal/rollup/tx"
	"github/chapool/go-rollup/internal/rollup/types"
)

const maxTxBodyBytes = 1 << 20

// bindTx decodes the tagged transaction in the request body. Field validation failures keep
// their ValidationError so the error handler reports the offending field.
func bindTx(c echo.Context) (tx.Tx, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxTxBodyBytes+1))
	if err != nil {
		return nil, httperrors.ErrBadRequestMalformedTx.WithDetail(err.Error())
	}
	if len(body) > maxTxBodyBytes {
		return nil, echo.ErrStatusRequestEntityTooLarge
	}

	t, err := tx.UnmarshalTx(body)
	if err != nil {
		var validationErr *types.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}
		return nil, httperrors.ErrBadRequestMalformedTx.WithDetail(err.Error())
	}

	return t, nil
}

// operatorError keeps definitive rejections and reports everything else as an unreachable operator.
func operatorError(err error) error {
	var rejectedErr *types.SubmissionRejectedError
	if errors.As(err, &rejectedErr) {
		return err
	}

	httpErr := httperrors.ErrServiceUnavailableOperator.WithDetail(err.Error())
	httpErr.Internal = err
	return httpErr
}
