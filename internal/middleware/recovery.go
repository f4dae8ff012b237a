package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoosuem8800/portal-api/pkg/logger"
)

// Recovery converts panics into 500 responses.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(nil, "panic recovered",
					"panic", r,
					"request_id", c.GetString(ContextRequestID),
					"path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL",
						"message": "internal server error",
					},
				})
			}
		}()
		c.Next()
	}
}
