// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-analysis-go/internal/analysis"
	"chat-analysis-go/internal/config"
	"chat-analysis-go/internal/handler"
	"chat-analysis-go/internal/loader"
	"chat-analysis-go/internal/model"
	"chat-analysis-go/internal/pipeline"
	"chat-analysis-go/internal/repository"
	"chat-analysis-go/internal/service"
	"chat-analysis-go/pkg/database"
	"chat-analysis-go/pkg/es"
	"chat-analysis-go/pkg/events"
	"chat-analysis-go/pkg/kafka"
	"chat-analysis-go/pkg/log"
	"chat-analysis-go/pkg/metrics"
	"chat-analysis-go/pkg/storage"
	"chat-analysis-go/pkg/textanalysis"
	"chat-analysis-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	configPath := "./configs/config.yaml"
	if p := os.Getenv("CHATSTAT_CONFIG"); p != "" {
		configPath = p
	}
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化可选的外部依赖，未配置或初始化失败时退化为内存实现
	deps := service.Dependencies{}
	var loaderOpts []loader.Option

	if cfg.Database.MySQL.DSN != "" {
		if err := database.InitMySQL(cfg.Database.MySQL.DSN, &model.LoadRun{}); err != nil {
			log.Error("MySQL 初始化失败，加载历史仅保存在内存中", err)
		} else {
			deps.Runs = repository.NewLoadRunRepository(database.DB)
		}
	}

	var attempts kafka.AttemptCounter = &kafka.MemoryAttempts{}
	if cfg.Database.Redis.Addr != "" {
		if err := database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB); err != nil {
			log.Error("Redis 初始化失败，视图缓存已禁用", err)
		} else {
			deps.Cache = repository.NewViewCache(database.RDB, time.Duration(cfg.Report.CacheTTLMinutes)*time.Minute)
			attempts = kafka.RedisAttempts{Client: database.RDB, TTL: 24 * time.Hour}
		}
	}

	if cfg.MinIO.Endpoint != "" {
		if err := storage.InitMinIO(cfg.MinIO); err != nil {
			log.Error("MinIO 初始化失败，仅支持本地数据源", err)
		} else {
			loaderOpts = append(loaderOpts, loader.WithObjectOpener(storage.NewObjectOpener(storage.MinioClient)))
		}
	}

	if cfg.Elasticsearch.Addresses != "" {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Error("Elasticsearch 初始化失败，消息检索已禁用", err)
		} else {
			deps.Indexer = es.NewMessageIndex(es.ESClient, cfg.Elasticsearch.IndexName)
		}
	}

	var queue handler.RefreshQueue
	if cfg.Kafka.Brokers != "" {
		kafka.InitProducer(cfg.Kafka)
		queue = kafka.Queue{}
	}

	// 4. 初始化 Service (依赖注入)
	hub := events.NewHub()
	deps.Events = hub
	deps.Loader = loader.New(cfg.Datasets, loaderOpts...)
	deps.Analyzer = analysis.NewAnalyzer(analysis.Options{
		TopN:              cfg.Report.TopN,
		WordCloudMaxWords: cfg.Report.WordCloudMaxWords,
		Tokenizer:         textanalysis.NewTokenizer(cfg.Report.ExtraStopwords),
	})
	reportService := service.NewReportService(deps)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpireHours)

	// 5. 启动时加载数据集，失败时服务仍然启动并通过状态接口返回诊断信息
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	if _, err := reportService.Load(startupCtx); err != nil {
		log.Warnf("启动加载失败: %v", err)
	}
	cancelStartup()

	// 6. 启动后台 Kafka 消费者
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	if queue != nil {
		go kafka.StartConsumer(consumerCtx, cfg.Kafka, pipeline.NewRefreshProcessor(reportService), attempts)
	}

	// 7. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	routerCfg := handler.RouterConfig{
		ReportService: reportService,
		JWTManager:    jwtManager,
		RefreshQueue:  queue,
		Events:        hub,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = metrics.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	r := handler.NewRouter(routerCfg)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 先关闭事件 Hub，断开 websocket 长连接，否则 Shutdown 会一直等待
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	cancelConsumer()
	if err := kafka.CloseProducer(); err != nil {
		log.Errorf("Kafka 生产者关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
