// WorkOrderService 主程序
// 功能：广告账户工单后台，提供开户申请、资金操作、审核流转与审计查询
// 架构：DDD 分层 + Gin + GORM + Kafka
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/application"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	wogateway "github.com/jqjjian/ad-workflow-sub001/internal/workorder/infrastructure/gateway"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/infrastructure/messaging"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/infrastructure/persistence"
	wohttp "github.com/jqjjian/ad-workflow-sub001/internal/workorder/interfaces/http"
	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/validation"
	"github.com/jqjjian/ad-workflow-sub001/pkg/cache"
	"github.com/jqjjian/ad-workflow-sub001/pkg/config"
	"github.com/jqjjian/ad-workflow-sub001/pkg/db"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
	"github.com/jqjjian/ad-workflow-sub001/pkg/metrics"
	"github.com/jqjjian/ad-workflow-sub001/pkg/middleware"
	"github.com/jqjjian/ad-workflow-sub001/pkg/mq"
	"github.com/jqjjian/ad-workflow-sub001/pkg/ratelimit"
	"github.com/jqjjian/ad-workflow-sub001/pkg/trace"
)

func main() {
	// 1. 加载配置
	configPath := config.GetEnv("CONFIG_PATH", "configs/workorder/config.toml")
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting work order service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化链路追踪
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracer(cfg.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Warn(ctx, "Failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn(ctx, "Tracer shutdown failed", "error", err)
				}
			}()
		}
	}

	// 4. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&domain.WorkOrder{},
		&domain.RawData{},
		&domain.BusinessData{},
		&domain.CompanyInfo{},
		&domain.Attachment{},
		&domain.AuditLogEntry{},
		&domain.UserCompanyInfo{},
		&persistence.DictionaryItemModel{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database schema", "error", err)
	}

	// 5. 初始化 Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Warn(ctx, "Failed to connect redis, degrading to database-only reads", "error", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// 6. 初始化 Kafka 审计事件发布
	var auditPublisher domain.AuditEventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Warn(ctx, "Failed to create kafka producer, audit events will not be published", "error", err)
		} else {
			defer producer.Close()
			auditPublisher = messaging.NewKafkaAuditPublisher(producer, cfg.Kafka.AuditTopic)
		}
	}

	// 7. 初始化指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
		if err := m.Register(); err != nil {
			logger.Warn(ctx, "Failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn(ctx, "Failed to start metrics server", "error", err)
		}
	}

	// 8. 组装仓储与服务
	workOrderRepo := persistence.NewGormWorkOrderRepository(database.DB)
	auditRepo := persistence.NewGormAuditLogRepository(database.DB)
	userCompanyRepo := persistence.NewGormUserCompanyInfoRepository(database.DB)

	gw := wogateway.NewHTTPGateway(wogateway.Config{
		AccountBaseURL: cfg.Gateway.AccountBaseURL,
		FundingBaseURL: cfg.Gateway.FundingBaseURL,
		AccessToken:    cfg.Gateway.AccessToken,
		Timeout:        time.Duration(cfg.Gateway.Timeout) * time.Second,
	})

	auditor := application.NewAuditRecorder(auditRepo, auditPublisher)
	dictService := persistence.NewGormDictionaryService(database.DB, redisCache)
	accountValidator := validation.NewAccountValidator(dictService)
	fundingValidator := validation.NewFundingValidator()

	cmdService := application.NewWorkOrderCommandService(
		workOrderRepo, userCompanyRepo, gw, auditor,
		accountValidator, fundingValidator,
		validation.Options{Permissive: cfg.Environment != "prod"},
		m,
	)
	reviewService := application.NewReviewService(workOrderRepo, gw, auditor, m)
	queryService := application.NewWorkOrderQueryService(workOrderRepo, auditRepo, redisCache, m)

	// 9. 启动 HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	if m != nil {
		router.Use(middleware.GinMetricsMiddleware(m))
	}
	if cfg.RateLimit.Enabled && redisCache != nil {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		router.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit.Rate, cfg.RateLimit.Period, cfg.RateLimit.Burst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	handler := wohttp.NewWorkOrderHandler(cmdService, reviewService, queryService, workOrderRepo)
	handler.RegisterRoutes(&router.RouterGroup)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	// 10. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down work order service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server forced to shutdown", "error", err)
	}
	logger.Info(ctx, "Server exited")
}
