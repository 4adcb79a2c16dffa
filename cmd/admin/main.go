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

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-admin-users/internal/core/auth"
	"go-admin-users/internal/core/cache"
	"go-admin-users/internal/core/config"
	"go-admin-users/internal/core/database"
	"go-admin-users/internal/core/logger"
	"go-admin-users/internal/core/server"
	"go-admin-users/internal/core/session"
	"go-admin-users/internal/domain"
	"go-admin-users/internal/repo"
	"go-admin-users/internal/service"
	"go-admin-users/internal/transport/http/handler"
	"go-admin-users/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg.Log)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&domain.Permission{}, &domain.Role{}, &domain.User{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	tokenTTL := time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    tokenTTL,
	}

	// redis：角色目录缓存 + 会话失效标记
	rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessions := session.NewStore(rc.RDB, tokenTTL)

	// 依赖
	userRepo := repo.NewUserRepo(db)
	roleRepo := repo.NewRoleRepo(db)
	if err := roleRepo.EnsureBaseline(context.Background()); err != nil {
		log.Fatal("seed baseline roles failed", zap.Error(err))
	}
	// 补种可能新增角色，上一轮缓存的目录不作数
	if err := rc.Invalidate(context.Background(), handler.RoleCatalogKey); err != nil {
		log.Warn("invalidate role catalog cache", zap.Error(err))
	}
	userSvc := service.NewUserService(userRepo, roleRepo, sessions, log)
	listingSvc := service.NewListingService(userRepo, service.ListingOptions{
		IndexPageSize:   cfg.Listing.IndexPageSize,
		DefaultPageSize: cfg.Listing.DefaultPageSize,
		MaxPageSize:     cfg.Listing.MaxPageSize,
	})
	userH := handler.NewUserHandler(userSvc, listingSvc, rc, log)

	// 路由
	r := router.NewAdminEngine(log, userH, jwter, userRepo, sessions)

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
	log.Info("admin panel starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("users", baseURL+"/users"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin panel start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin panel started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin panel stopped gracefully")
}

func newLogger(lc config.Log) (*zap.Logger, func()) {
	if lc.File != "" {
		return logger.NewWithRotate(lc.Level, lc.JSON, lc.File, lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays, lc.Compress)
	}
	return logger.New(lc.Level, lc.JSON)
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
