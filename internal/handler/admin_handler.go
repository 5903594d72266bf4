package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"chat-analysis-go/internal/loader"
	"chat-analysis-go/internal/middleware"
	"chat-analysis-go/internal/service"
	"chat-analysis-go/pkg/log"
	"chat-analysis-go/pkg/tasks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// refreshTimeout 限制同步刷新的最长耗时，刷新不随请求连接断开而取消。
const refreshTimeout = 2 * time.Minute

// RefreshQueue 投递异步刷新任务。
type RefreshQueue interface {
	Enqueue(ctx context.Context, task tasks.RefreshTask) error
}

// AdminHandler 处理管理员接口。
type AdminHandler struct {
	reportService service.ReportService
	queue         RefreshQueue
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。queue 为 nil 时刷新同步执行。
func NewAdminHandler(reportService service.ReportService, queue RefreshQueue) *AdminHandler {
	return &AdminHandler{reportService: reportService, queue: queue}
}

// Refresh 触发一次显式刷新。
func (h *AdminHandler) Refresh(c *gin.Context) {
	requestedBy := "unknown"
	if claims, ok := middleware.ClaimsFrom(c); ok {
		requestedBy = claims.Subject
	}

	if h.queue != nil {
		task := tasks.RefreshTask{ID: uuid.NewString(), RequestedBy: requestedBy, RequestedAt: time.Now()}
		if err := h.queue.Enqueue(c.Request.Context(), task); err != nil {
			log.Errorf("[AdminHandler] 投递刷新任务失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "投递刷新任务失败", "data": nil})
			return
		}
		log.Infof("[AdminHandler] 已投递刷新任务, TaskID: %s, RequestedBy: %s", task.ID, requestedBy)
		c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "刷新任务已提交", "data": task})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), refreshTimeout)
	defer cancel()
	run, err := h.reportService.Refresh(ctx, requestedBy)
	if err != nil {
		var le *loader.LoadError
		if !errors.As(err, &le) {
			log.Errorf("[AdminHandler] 刷新失败: %v", err)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": err.Error(), "data": run})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": run})
}

// ListLoads 返回最近的加载记录。
func (h *AdminHandler) ListLoads(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的 limit 参数", "data": nil})
		return
	}
	runs, err := h.reportService.LoadHistory(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("[AdminHandler] 获取加载记录失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取加载记录失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": runs})
}
