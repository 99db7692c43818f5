package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "docmanager/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；n<=0 不限制，超限 413
func MaxBodyBytes(n int64) gin.HandlerFunc { return MaxBodyBytesFunc(n, nil) }

// MaxBodyBytesFunc 超限时交给 overflow 写响应，nil 时 413
func MaxBodyBytesFunc(n int64, overflow gin.HandlerFunc) gin.HandlerFunc {
	if overflow == nil {
		overflow = func(c *gin.Context) {
			resp.Abort(c, http.StatusRequestEntityTooLarge, resp.MsgBodyTooLarge)
		}
	}
	return func(c *gin.Context) {
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			c.Abort()
			overflow(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
		if c.Writer.Written() {
			return
		}
		for _, e := range c.Errors {
			var mbe *http.MaxBytesError
			if errors.As(e.Err, &mbe) {
				overflow(c)
				return
			}
		}
	}
}
