// migrate 只做建表/补列，不启动 HTTP
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docmanager/internal/core/config"
	"docmanager/internal/core/database"
	"docmanager/internal/core/logger"
	"docmanager/internal/repo"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		Username: cfg.DB.Username,
		Password: cfg.DB.Password,
		LogLevel: cfg.DB.LogLevel,
	}, log)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal("automigrate failed", zap.Error(err))
	}
	log.Info("migrate done", zap.String("driver", cfg.DB.Driver), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))
}
