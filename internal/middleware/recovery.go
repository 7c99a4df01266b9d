package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/postoppal-api/internal/handler"
)

// Recovery turns a panic into a 500 whose data carries the request ID, which
// the caller can quote to find the logged stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				rid := c.GetString(ContextRequestID)

				log.Error().
					Interface("error", err).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("route", c.FullPath()).
					Str("subject", CurrentSubject(c)).
					Str("request_id", rid).
					Msg("Request panic recovered")

				resp := handler.NewErrorResponse("internal server error")
				if rid != "" {
					resp.Data = gin.H{"request_id": rid}
				}
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}
