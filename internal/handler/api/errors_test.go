package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	models "StockPilot/internal/domain/models"
	xhttp "StockPilot/pkg/http"
)

func TestFromDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("BBCA.JK direction: %w", models.ErrModelNotFound), http.StatusNotFound, "ERR_MODEL_NOT_FOUND"},
		{models.ErrNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
		{models.ErrNoPriceData, http.StatusNotFound, "ERR_NOT_FOUND"},
		{fmt.Errorf("x: %w", models.ErrInsufficientHistory), http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_HISTORY"},
		{models.ErrEmptySeries, http.StatusUnprocessableEntity, "ERR_UNPROCESSABLE"},
		{fmt.Errorf("query: %w", models.ErrDataSourceUnavailable), http.StatusServiceUnavailable, "ERR_UNAVAILABLE"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "ERR_TIMEOUT"},
		{errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		got := FromDomainError(tc.err)
		assert.Equal(t, tc.status, got.Status, tc.err.Error())
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
		assert.ErrorIs(t, got, tc.err)
	}

	own := xhttp.BadRequestError("bad")
	assert.Same(t, own, FromDomainError(fmt.Errorf("wrapped: %w", own)))
}
