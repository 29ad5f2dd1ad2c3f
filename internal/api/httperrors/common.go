package httperrors

import (
	"net/http"
)

var (
	ErrBadRequestInvalidTxHash    = NewHTTPError(http.StatusBadRequest, TypeGeneric, "The given transaction hash is malformed.")
	ErrBadRequestMalformedTx      = NewHTTPError(http.StatusBadRequest, TypeMalformedTx, "The request body is not a tagged transaction.")
	ErrNotFoundTx                 = NewHTTPError(http.StatusNotFound, TypeGeneric, "The operator does not know this transaction.")
	ErrServiceUnavailableOperator = NewHTTPError(http.StatusServiceUnavailable, TypeOperatorUnavailable, "The operator could not be reached.")
)
