package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("patient", nil), http.StatusNotFound},
		{BadRequest("bad payload", nil), http.StatusBadRequest},
		{Unauthorized(nil), http.StatusUnauthorized},
		{Forbidden("patients may only access their own QR code"), http.StatusForbidden},
		{Unavailable("print queue unavailable", nil), http.StatusServiceUnavailable},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("sql: no rows in result set")
	err := NotFound("patient", cause)

	assert.Equal(t, "patient not found: sql: no rows in result set", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "patient not found", NotFound("patient", nil).Error())
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("load patient: %w", NotFound("patient", nil))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrNotFound, appErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
