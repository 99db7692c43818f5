package response

import "github.com/gin-gonic/gin"

// Err 错误体；成功响应直接返回业务 JSON
type Err struct {
	Detail string `json:"detail"`
}

// Error 自定义 msg 为空时用状态码缺省文案
func Error(status int, customMsg string) Err {
	msg := customMsg
	if msg == "" {
		msg = CodeMsgMap[status]
	}
	return Err{Detail: msg}
}

// Abort 写错误体并终止后续 handler
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(status, msg))
}
