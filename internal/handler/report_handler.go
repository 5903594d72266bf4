// Package handler 包含 HTTP 请求处理器。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"chat-analysis-go/internal/analysis"
	"chat-analysis-go/internal/service"
	"chat-analysis-go/pkg/export"
	"chat-analysis-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ReportHandler 结构体定义了报表相关的处理器。
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler 创建一个新的 ReportHandler 实例。
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Status 返回数据集加载状态与诊断信息。
func (h *ReportHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": h.reportService.Status()})
}

// ListViews 返回视图目录。
func (h *ReportHandler) ListViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": h.reportService.ListViews()})
}

// GetView 计算并返回指定视图。
func (h *ReportHandler) GetView(c *gin.Context) {
	name := c.Param("name")
	res, err := h.reportService.View(c.Request.Context(), name)
	if err != nil {
		writeViewError(c, name, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": res})
}

// ExportView 以 XLSX 文件形式下载指定视图。
func (h *ReportHandler) ExportView(c *gin.Context) {
	name := c.Param("name")
	res, err := h.reportService.View(c.Request.Context(), name)
	if err != nil {
		writeViewError(c, name, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(res)+`"`)
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, res); err != nil {
		// 响应头已发送，只能记录日志
		log.Errorf("[ReportHandler] 导出视图失败, view: %s, error: %v", name, err)
	}
}

// SearchMessages 在 dataset1 消息中全文检索。
func (h *ReportHandler) SearchMessages(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的查询参数", "data": nil})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size <= 0 {
		size = 10
	}

	hits, err := h.reportService.SearchMessages(c.Request.Context(), query, size)
	switch {
	case errors.Is(err, service.ErrDatasetsUnavailable), errors.Is(err, service.ErrSearchUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": err.Error(), "data": nil})
		return
	case err != nil:
		log.Errorf("[ReportHandler] 消息检索失败, query: %s, error: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "搜索失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": hits})
}

func writeViewError(c *gin.Context, name string, err error) {
	status := http.StatusInternalServerError
	message := "视图计算失败"
	switch {
	case errors.Is(err, analysis.ErrUnknownView):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrDatasetsUnavailable):
		status, message = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, analysis.ErrMissingColumn):
		status, message = http.StatusUnprocessableEntity, err.Error()
	default:
		log.Errorf("[ReportHandler] 视图计算失败, view: %s, error: %v", name, err)
	}
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}
