package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/pairhub/internal/observe"
)

// AccessLog writes one line per request.
func AccessLog(obs *observe.Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := obs.Log().Info()
		if status >= 500 {
			ev = obs.Log().Error()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("cost", time.Since(start).String()).
			Msg("request")
	}
}
