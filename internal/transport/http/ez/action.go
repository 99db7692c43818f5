package ez

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	mdw "docmanager/internal/transport/http/middleware"
	resp "docmanager/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindURI   Binder = "uri"   // 从路径参数 :id 绑定
	BindForm  Binder = "form"  // multipart / urlencoded 表单
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.Request 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method string   // GET | POST | PUT | PATCH | DELETE，其他值注册时 panic
	Path   string   // 例："/auth/login"、"/documents/:id/process"
	Binder []Binder // 按顺序绑定，可组合 uri + query
	Auth   bool     // 要求 AuthJWT 已注入当前用户
	// Handler 返回的 error 统一交给 Translate
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权
		if a.Auth {
			if _, ok := mdw.CurrentUser(c); !ok {
				resp.Abort(c, http.StatusUnauthorized, resp.MsgUnauthorized)
				return
			}
		}

		// 2) 绑定入参
		var in I
		for _, b := range a.Binder {
			if err := bind(c, b, &in); err != nil {
				var mbe *http.MaxBytesError
				if errors.As(err, &mbe) {
					// 响应由 MaxBodyBytes 按路由决定
					_ = c.Error(err)
					c.Abort()
					return
				}
				resp.Abort(c, http.StatusUnprocessableEntity, err.Error())
				return
			}
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPost:
		e.g.POST(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		// 启动期暴露拼写错误
		panic(fmt.Sprintf("ez: unsupported method %q for %s", a.Method, a.Path))
	}
}

func bind(c *gin.Context, b Binder, in any) error {
	switch b {
	case BindJSON:
		return c.ShouldBindJSON(in)
	case BindQuery:
		return c.ShouldBindQuery(in)
	case BindURI:
		return c.ShouldBindUri(in)
	case BindForm:
		return c.ShouldBind(in)
	default: // BindNone
		return nil
	}
}

// 统一错误对象，Handler 可直接返回指定状态码
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error    { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error  { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func NotFound(msg string) error      { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Unprocessable(msg string) error { return &AErr{Code: http.StatusUnprocessableEntity, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Respond 在 RegisterAction 之外（如中间件、自定义 handler）复用同一套映射
func Respond(c *gin.Context, err error) {
	status, msg := Translate(err)
	if status >= http.StatusInternalServerError {
		// 原始错误挂到 gin 上，由 ginzap 打日志
		_ = c.Error(err)
	}
	resp.Abort(c, status, msg)
}
