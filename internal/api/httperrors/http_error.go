package httperrors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/rollup/types"
	"github/chapool/go-rollup/internal/util"
)

// Public error types, stable across releases.
const (
	TypeGeneric             = "generic"
	TypeValidation          = "validation"
	TypePackingOverflow     = "packing_overflow"
	TypeMalformedTx         = "malformed_tx"
	TypeSubmissionRejected  = "submission_rejected"
	TypeOperatorUnavailable = "operator_unavailable"
)

// HTTPError is the JSON body of every non-2xx response.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	// Field names the offending transaction field of a validation error.
	Field string `json:"field,omitempty"`

	Internal error `json:"-"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{Code: code, Type: errorType, Title: title}
}

// NewFromEcho converts the errors echo raises itself (unknown route, bad method, bind failures).
func NewFromEcho(e *echo.HTTPError) *HTTPError {
	title := http.StatusText(e.Code)
	if msg, ok := e.Message.(string); ok && msg != "" {
		title = msg
	}
	return &HTTPError{Code: e.Code, Type: TypeGeneric, Title: title, Internal: e.Internal}
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
	}
	return fmt.Sprintf("HTTPError %d (%s): %s - %s", e.Code, e.Type, e.Title, e.Detail)
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// WithDetail returns a copy carrying detail.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	out := *e
	out.Detail = detail
	return &out
}

// FromError maps domain errors onto their HTTP representation. Anything unknown becomes a 500.
func FromError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return NewFromEcho(echoErr)
	}

	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		return &HTTPError{
			Code:     http.StatusBadRequest,
			Type:     TypeValidation,
			Title:    "Transaction failed validation.",
			Detail:   validationErr.Reason,
			Field:    validationErr.Field,
			Internal: err,
		}
	}

	var overflowErr *types.PackingOverflowError
	if errors.As(err, &overflowErr) {
		return &HTTPError{
			Code:     http.StatusBadRequest,
			Type:     TypePackingOverflow,
			Title:    "Value cannot be packed.",
			Detail:   overflowErr.Error(),
			Internal: err,
		}
	}

	var rejectedErr *types.SubmissionRejectedError
	if errors.As(err, &rejectedErr) {
		return &HTTPError{
			Code:     http.StatusUnprocessableEntity,
			Type:     TypeSubmissionRejected,
			Title:    "Operator rejected the transaction.",
			Detail:   rejectedErr.Reason,
			Internal: err,
		}
	}

	return &HTTPError{
		Code:     http.StatusInternalServerError,
		Type:     TypeGeneric,
		Title:    http.StatusText(http.StatusInternalServerError),
		Internal: err,
	}
}

// HTTPErrorHandler replaces echo's default handler so every error leaves as an HTTPError body.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr := FromError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		util.LogFromContext(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(httpErr.Code)
	} else {
		err = c.JSON(httpErr.Code, httpErr)
	}
	if err != nil {
		util.LogFromContext(c.Request().Context()).Warn().Err(err).Msg("Failed to write error response")
	}
}
