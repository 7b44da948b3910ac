package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/pairhub/internal/common"
	"github.com/suPer8Hu/pairhub/internal/observe"
)

// Recovery turns a handler panic into a 500 envelope.
func Recovery(obs *observe.Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				obs.Log().Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Str("panic", fmtPanic(r)).
					Msg("handler panicked")
				common.Fail(c, http.StatusInternalServerError, 50000, "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

func fmtPanic(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(r)
}
