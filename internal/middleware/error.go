package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hoosuem8800/portal-api/pkg/httputil"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

// ErrorHandler turns errors attached to the gin context into the JSON
// error envelope. Handlers that call httputil.RespondWithError directly
// bypass this; it catches bound-request failures and stray c.Error calls.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		last := c.Errors.Last()
		log.Error(last.Err, "request error",
			"request_id", c.GetString(ContextRequestID),
			"path", c.Request.URL.Path,
			"method", c.Request.Method)

		if !c.Writer.Written() {
			httputil.RespondWithError(c, last.Err)
		}
	}
}
