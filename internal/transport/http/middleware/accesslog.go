package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 敏感字段 key（query 中统一按 key 打码）
var sensitiveKeys = map[string]struct{}{
	"password": {}, "pwd": {}, "token": {}, "authorization": {},
	"secret": {}, "client_secret": {}, "access_token": {},
}

func maskQuery(kv url.Values) map[string][]string {
	out := make(map[string][]string, len(kv))
	for k, v := range kv {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = []string{"****"}
		} else {
			out[k] = v
		}
	}
	return out
}

// AccessFields 追加到 ginzap 请求日志里的字段
func AccessFields(c *gin.Context) []zapcore.Field {
	fields := []zapcore.Field{
		zap.String("rid", c.GetString(KeyRequestID)),
		zap.String("route", c.FullPath()),
		zap.Int("size", c.Writer.Size()),
	}
	if q := c.Request.URL.Query(); len(q) > 0 {
		fields = append(fields, zap.Any("query", maskQuery(q)))
	}
	if u, ok := CurrentUser(c); ok {
		fields = append(fields, zap.Uint("user_id", u.ID))
	}
	return fields
}
