package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	resp "docmanager/internal/transport/http/response"
)

const keyCurrentUser = "currentUser"

// IdentityVerifier token -> 当前有效用户
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, token string) (*domain.User, error)
}

// AuthJWT 校验 Bearer token；失败一律 401，不进入 handler
func AuthJWT(gate IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			resp.Abort(c, http.StatusUnauthorized, resp.MsgUnauthorized)
			return
		}
		u, err := gate.VerifyIdentity(c.Request.Context(), tok)
		if err != nil || u == nil {
			resp.Abort(c, http.StatusUnauthorized, resp.MsgUnauthorized)
			return
		}
		c.Set(keyCurrentUser, u)
		c.Next()
	}
}

func bearer(h string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// CurrentUser AuthJWT 注入的用户
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(keyCurrentUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
