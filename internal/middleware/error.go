package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/postoppal-api/internal/handler"
)

// ErrorHandler logs errors attached with c.Error and renders the last one
// unless a response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle errors if they exist
		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Interface("meta", e.Meta).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr.IsType(gin.ErrorTypeBind) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(lastErr.Error()))
			return
		}
		handler.RespondWithError(c, lastErr.Err)
	}
}
