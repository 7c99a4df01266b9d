package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group(""))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func up(context.Context) error { return nil }

func TestLiveness(t *testing.T) {
	rec := serve(NewHandler(nil), "/health/live")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	rec := serve(NewHandler(map[string]Check{"database": up, "redis": up}), "/health/ready")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP","components":{"database":"UP","redis":"UP"}}`, rec.Body.String())
}

func TestReadiness_Down(t *testing.T) {
	down := func(context.Context) error { return errors.New("circuit breaker is open") }

	rec := serve(NewHandler(map[string]Check{"database": up, "redis": down}), "/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"DOWN","components":{"database":"UP","redis":"DOWN"}}`, rec.Body.String())
}
