package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"StockPilot/internal/domain/models"
	xhttp "StockPilot/pkg/http"
)

// FromDomainError maps domain sentinels onto HTTP application errors.
func FromDomainError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, models.ErrModelNotFound):
		return xhttp.NewAppError("ERR_MODEL_NOT_FOUND", "ticker", "no fitted model for ticker", http.StatusNotFound).WithError(err)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNoPriceData):
		return xhttp.NotFoundError("no data for ticker").WithError(err)
	case errors.Is(err, models.ErrInsufficientHistory):
		return xhttp.NewAppError("ERR_INSUFFICIENT_HISTORY", "ticker", "not enough history", http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrEmptySeries):
		return xhttp.UnprocessableError("empty series").WithError(err)
	case errors.Is(err, models.ErrDataSourceUnavailable):
		return xhttp.UnavailableError("data source unavailable").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "request timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

// errorResponse writes err using the domain mapping.
func errorResponse(c echo.Context, err error) error {
	return xhttp.AppErrorResponse(c, FromDomainError(err))
}
