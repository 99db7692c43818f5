package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docmanager/internal/core/auth"
	"docmanager/internal/core/cache"
	"docmanager/internal/core/config"
	"docmanager/internal/core/database"
	"docmanager/internal/core/logger"
	"docmanager/internal/core/metrics"
	"docmanager/internal/core/server"
	"docmanager/internal/enrich"
	"docmanager/internal/extract"
	"docmanager/internal/repo"
	"docmanager/internal/service"
	"docmanager/internal/storage"
	"docmanager/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File.Enable,
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log)()
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))
	if cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	ctx := context.Background()
	blobs := mustOpenStorage(ctx, cfg, log)

	// Redis 可选，只缓存远程模型结果
	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unreachable, enrichment cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rc.Close()
			rc = nil
		} else {
			defer func() { _ = rc.Close() }()
		}
	}

	m := metrics.New()
	enricher, err := enrich.New(ctx, enrich.Options{
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
		Timeout:  time.Duration(cfg.AI.TimeoutSec) * time.Second,
		Cache:    rc,
		CacheTTL: time.Duration(cfg.AI.CacheTTLMin) * time.Minute,
		Log:      log.Named("enrich"),
		Counter:  m.EnrichFallback,
	})
	if err != nil {
		log.Fatal("enrichment client", zap.Error(err))
	}
	if cfg.AI.APIKey == "" {
		log.Warn("ai api key not set, using local enrichment only")
	}

	// JWT
	jwter := &auth.JWTer{
		Secret:    []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		Algorithm: cfg.JWT.Algorithm,
		TTL:       cfg.TokenTTL(),
	}

	users, docs := repo.NewUserRepo(db), repo.NewDocumentRepo(db)
	docSvc := service.NewDocumentService(service.DocumentDeps{
		Docs:              docs,
		Blobs:             blobs,
		Extractor:         extract.NewRegistry(),
		Enricher:          enricher,
		MaxSize:           cfg.Upload.MaxFileSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		Log:               log.Named("documents"),
	})
	r := router.NewAPIEngine(router.Deps{
		Log:     log,
		Metrics: m,
		CORS:    cfg.CORS.AllowedOrigins,
		Limits:  cfg.Limits,
		Auth:    service.NewAuthService(users, jwter, log.Named("auth")),
		Docs:    docSvc,
		Search:  service.NewSearchService(docs, enricher, log.Named("search")),
		Summary: service.NewSummaryService(docSvc, docs, enricher, log.Named("summary")),
		Ready: func(c *gin.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(c)
		},
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("docmanager api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.String("storage", cfg.Storage.Backend),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("docmanager api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("docmanager api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func mustOpenStorage(ctx context.Context, cfg *config.Config, l *zap.Logger) storage.Blob {
	switch cfg.Storage.Backend {
	case "minio":
		mc := cfg.Storage.MinIO
		s, err := storage.NewMinIO(ctx, mc.Endpoint, mc.AccessKey, mc.SecretKey, mc.Bucket, mc.UseSSL)
		if err != nil {
			l.Fatal("minio open", zap.String("endpoint", mc.Endpoint), zap.Error(err))
		}
		return s
	default:
		s, err := storage.NewLocal(cfg.Upload.Dir)
		if err != nil {
			l.Fatal("upload dir", zap.String("dir", cfg.Upload.Dir), zap.Error(err))
		}
		return s
	}
}
