package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	"docmanager/internal/service"
	"docmanager/internal/transport/http/ez"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (*AuthHandler) Priority() int { return 10 }

type registerIn struct {
	Email    string  `json:"email"     binding:"required"`
	Username string  `json:"username"  binding:"required"`
	Password string  `json:"password"  binding:"required"`
	FullName *string `json:"full_name"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenOut struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user,omitempty"`
}

func (h *AuthHandler) MountAPI(public, private *gin.RouterGroup) {
	pub, priv := ez.New(public), ez.New(private)

	ez.RegisterAction(pub, ez.Action[registerIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: []ez.Binder{ez.BindJSON},
		Handler: func(c *gin.Context, in *registerIn) (*domain.User, error) {
			return h.svc.Register(c, service.RegisterInput{
				Email:    in.Email,
				Username: in.Username,
				Password: in.Password,
				FullName: in.FullName,
			})
		},
	})

	ez.RegisterAction(pub, ez.Action[loginIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: []ez.Binder{ez.BindJSON},
		Handler: func(c *gin.Context, in *loginIn) (tokenOut, error) {
			u, err := h.svc.Authenticate(c, in.Email, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			tok, err := h.svc.IssueToken(u)
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{AccessToken: tok, TokenType: "bearer", User: u}, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/auth/me",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return me(c), nil
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (tokenOut, error) {
			tok, err := h.svc.IssueToken(me(c))
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{AccessToken: tok, TokenType: "bearer"}, nil
		},
	})
}
