package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "socialhub/docs"
	_ "socialhub/internal/domain/common"
	_ "socialhub/internal/domain/engagement"
	_ "socialhub/internal/domain/moderation"
	_ "socialhub/internal/domain/notification"
	_ "socialhub/internal/domain/social"
	_ "socialhub/internal/domain/user"
	userRepo "socialhub/internal/domain/user/repository"
	userService "socialhub/internal/domain/user/service"
	"socialhub/internal/pkg/config"
	"socialhub/internal/pkg/middleware"
	"socialhub/internal/pkg/push"
	"socialhub/internal/pkg/registry"
	"socialhub/internal/pkg/uploader"
	"socialhub/internal/pkg/worker"
	"socialhub/pkg/cache"
	"socialhub/pkg/database"
	"socialhub/pkg/logger"
	"socialhub/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// @title SocialHub API
// @version 1.0
// @description 社交应用后端：关注、帖子、点赞评论、举报审核、通知推送
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. 配置与日志
	config.LoadConfig()
	cfg := config.GlobalConfig
	if err := logger.Init(cfg.App.Env, cfg.App.Debug); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. 基础设施
	db := database.InitDatabase()
	rdb := database.InitRedis()
	metrics.InitMetrics()

	if err := uploader.InitUploader(); err != nil {
		logger.Log.Warn("uploader disabled", zap.Error(err))
	}

	pool := worker.NewWorkerPool(push.NewSender(cfg.Push), cfg.Worker.Size, cfg.Worker.BufferSize, cfg.Worker.MaxRetry)
	pool.Start()

	// 3. 认证：JWT，配置 Firebase 时额外接受 Firebase ID Token
	users := userService.NewUserService(userRepo.NewUserRepository(db), nil)
	var verifiers []middleware.TokenVerifier
	fb, err := middleware.NewFirebaseVerifier(context.Background(), cfg.Firebase, users.FindIDByPhone)
	switch {
	case err == nil:
		verifiers = append(verifiers, fb)
	case errors.Is(err, middleware.ErrFirebaseDisabled):
	default:
		logger.Log.Warn("firebase auth disabled", zap.Error(err))
	}

	// 4. 路由与中间件
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID", "X-Trace-ID")

	r.Use(
		cors.New(corsConfig),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.RateLimitMiddleware(limiter),
	)

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err == nil {
			err = rdb.Ping(c.Request.Context()).Err()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 5. 模块初始化
	if err := registry.InitModules(&registry.ModuleContext{
		DB:     db,
		Redis:  rdb,
		Cache:  cache.NewRedisCache(rdb),
		Router: r,
		Auth:   middleware.AuthMiddleware(verifiers...),
		Pusher: pool,
	}); err != nil {
		logger.Log.Fatal("failed to init modules", zap.Error(err))
	}

	// 6. 后台任务：系统指标、限流器清理、连接池采样
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go backgroundLoop(ctx, limiter, pool, database.NewPoolMonitor(db, metrics.GetGlobalCollector()))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown", zap.Error(err))
	}

	// 请求结束后再停推送，保证已提交的通知被投递
	pool.Stop()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
}

func backgroundLoop(ctx context.Context, limiter *middleware.IPRateLimiter, pool *worker.WorkerPool, dbPool *database.PoolMonitor) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	collector := metrics.GetGlobalCollector()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collector.UpdateSystemMetrics()
			collector.SetPushQueueDepth(len(pool.TaskQueue) + len(pool.RetryQueue))
			limiter.Cleanup(3 * time.Minute)
			if _, err := dbPool.Sample(); err != nil {
				logger.Log.Warn("db pool sample failed", zap.Error(err))
			}
		}
	}
}
