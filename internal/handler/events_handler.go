package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EventsHandler 将 websocket 订阅请求交给事件 Hub。
type EventsHandler struct {
	hub http.Handler
}

// NewEventsHandler 创建一个新的 EventsHandler 实例。
func NewEventsHandler(hub http.Handler) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream 升级为 websocket 并推送加载事件。
func (h *EventsHandler) Stream(c *gin.Context) {
	h.hub.ServeHTTP(c.Writer, c.Request)
}
