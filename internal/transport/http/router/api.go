package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"docmanager/internal/core/config"
	"docmanager/internal/core/metrics"
	"docmanager/internal/core/server"
	"docmanager/internal/service"
	"docmanager/internal/transport/http/ez"
	"docmanager/internal/transport/http/handler"
	mdw "docmanager/internal/transport/http/middleware"
	resp "docmanager/internal/transport/http/response"
)

// 上传路由，与 handler.DocumentHandler 的挂载点一致
const uploadPath = "/api/documents/"

type Deps struct {
	Log     *zap.Logger
	Metrics *metrics.Metrics
	CORS    []string
	Limits  config.Limits

	Auth    *service.AuthService
	Docs    *service.DocumentService
	Search  *service.SearchService
	Summary *service.SummaryService

	// Ready 可选的 /health 依赖检查
	Ready func(c *gin.Context) error
}

func NewAPIEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	r := server.NewRouter(d.Log, server.RouterOpts{
		AllowedOrigins: d.CORS,
		LogFields:      mdw.AccessFields,
		Recovery:       mdw.Recovery(d.Log),
	})

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(d.Limits.GlobalRPS), d.Limits.GlobalBurst),
		mdw.RateLimitPerIP(rate.Limit(d.Limits.RPS), d.Limits.Burst),
		mdw.ConcurrencyLimit(d.Limits.Concurrency),
		mdw.MaxBodyBytesFunc(d.Limits.MaxBodyBytes, bodyOverflow(d.Docs)),
		mdw.Timeout(time.Duration(d.Limits.RequestTimeoutSec)*time.Second),
		mdw.Metrics(d.Metrics),
	)

	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "Not Found") })
	r.NoMethod(func(c *gin.Context) { resp.Abort(c, http.StatusMethodNotAllowed, "Method Not Allowed") })

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	private := api.Group("")
	private.Use(mdw.AuthJWT(d.Auth))

	var reg Registry
	reg.Register(
		handler.NewAuthHandler(d.Auth),
		handler.NewDocumentHandler(d.Docs),
		handler.NewSearchHandler(d.Search),
		handler.NewSummaryHandler(d.Summary),
	)
	reg.MountAll(api, private)
	return r
}

// bodyOverflow 上传接口的请求体超限按文件过大处理，其余路由 413
func bodyOverflow(docs *service.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if docs != nil && c.Request.Method == http.MethodPost && c.FullPath() == uploadPath {
			ez.Respond(c, docs.TooLarge())
			return
		}
		resp.Abort(c, http.StatusRequestEntityTooLarge, resp.MsgBodyTooLarge)
	}
}
