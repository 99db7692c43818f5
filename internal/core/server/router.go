package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type RouterOpts struct {
	AllowedOrigins []string
	// LogFields 附加到每条请求日志
	LogFields func(c *gin.Context) []zapcore.Field
	// Recovery 为空时用 ginzap 自带的
	Recovery gin.HandlerFunc
}

// NewRouter 基础引擎：zap 请求日志 + panic 恢复 + CORS
func NewRouter(l *zap.Logger, o RouterOpts) *gin.Engine {
	r := gin.New()
	r.ContextWithFallback = true
	cfg := &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health", "/metrics"},
	}
	if o.LogFields != nil {
		cfg.Context = o.LogFields
	}
	r.Use(ginzap.GinzapWithConfig(l, cfg))
	if o.Recovery != nil {
		r.Use(o.Recovery)
	} else {
		r.Use(ginzap.RecoveryWithZap(l, true))
	}
	r.Use(cors.New(corsConfig(o.AllowedOrigins)))
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowCredentials = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20,
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
