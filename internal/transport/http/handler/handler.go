// Package handler HTTP 动作定义；业务逻辑全部在 service 层
package handler

import (
	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	mdw "docmanager/internal/transport/http/middleware"
)

// idURI 路径参数 :id
type idURI struct {
	ID uint `uri:"id" binding:"required"`
}

type message struct {
	Message string `json:"message"`
}

// me 仅在 Auth 动作内调用，RegisterAction 已保证用户存在
func me(c *gin.Context) *domain.User {
	u, _ := mdw.CurrentUser(c)
	return u
}
