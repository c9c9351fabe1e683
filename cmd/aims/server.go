package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitfantasy/aims/internal/config"
	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/bitfantasy/aims/internal/inspection/handler"
	"github.com/bitfantasy/aims/internal/inspection/repository"
	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/bitfantasy/aims/internal/inspection/sse"
	"github.com/bitfantasy/aims/internal/inspection/storage"
	"github.com/bitfantasy/aims/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func serve() error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting aims service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)
	if rdb != nil {
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, library cache disabled", zap.Error(err))
			rdb.Close()
			rdb = nil
		}
	}

	// 初始化对象存储
	store, err := initStorage(cfg.MinIO)
	if err != nil {
		zapLogger.Warn("Object storage unavailable, uploads disabled", zap.Error(err))
	}

	hub := sse.NewHub(zapLogger)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, store, hub, zapLogger)
	services.Report.SetCompression(cfg.Report.Compress)
	handlers := handler.NewHandlers(services, hub, zapLogger)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/events"})))

	registerRoutes(router, handlers, db, rdb, cfg)

	if cfg.JWT.Secret == "" {
		zapLogger.Warn("JWT secret not configured, API authentication disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE 长连接
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	zapLogger.Info("Server exited")
	return nil
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// initStorage 未启用或连接失败时返回 nil 接口
func initStorage(cfg config.MinIOConfig) (storage.ObjectStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	store, err := storage.NewMinIOStore(storage.MinIOConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		PublicURL: cfg.PublicURL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, bucket := range []string{storage.BucketAttachments, storage.BucketLogos} {
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
		}
	}
	return store, nil
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		checks := gin.H{"database": "ok"}
		status := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				// 缓存不可用时服务降级但仍可用
				checks["redis"] = "down"
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	r.GET("/metrics", middleware.MetricsHandler())

	api := r.Group("/api", middleware.JWTAuth(cfg.JWT.Secret))
	handler.RegisterRoutes(api, h)
}
