package handler

import (
	"net/http"

	"chat-analysis-go/internal/middleware"
	"chat-analysis-go/internal/service"
	"chat-analysis-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// RouterConfig 汇总注册路由所需的依赖。Events 与 Metrics 为空时不注册对应路由。
type RouterConfig struct {
	ReportService service.ReportService
	JWTManager    *token.JWTManager
	RefreshQueue  RefreshQueue
	Events        http.Handler
	Metrics       http.Handler
	MetricsPath   string
}

// NewRouter 创建路由引擎并注册全部接口。
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	reports := NewReportHandler(cfg.ReportService)
	admin := NewAdminHandler(cfg.ReportService, cfg.RefreshQueue)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/status", reports.Status)
		apiV1.GET("/views", reports.ListViews)
		apiV1.GET("/views/:name", reports.GetView)
		apiV1.GET("/views/:name/export", reports.ExportView)
		apiV1.GET("/messages/search", reports.SearchMessages)
		if cfg.Events != nil {
			apiV1.GET("/events", NewEventsHandler(cfg.Events).Stream)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		adminGroup := apiV1.Group("/admin")
		adminGroup.Use(middleware.AuthMiddleware(cfg.JWTManager), middleware.AdminAuthMiddleware())
		{
			adminGroup.POST("/refresh", admin.Refresh)
			adminGroup.GET("/loads", admin.ListLoads)
		}
	}

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.Metrics))
	}
	return r
}
