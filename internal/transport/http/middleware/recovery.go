package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "docmanager/internal/transport/http/response"
)

// Recovery panic -> 500 {"detail"}，堆栈只进日志
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.Stack("stack"),
				)
				resp.Abort(c, http.StatusInternalServerError, resp.MsgInternal)
			}
		}()
		c.Next()
	}
}
