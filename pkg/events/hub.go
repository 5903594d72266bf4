// Package events 通过 websocket 向订阅者推送数据集加载事件。
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"chat-analysis-go/internal/model"
	"chat-analysis-go/pkg/log"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// ErrHubClosed 表示 Hub 已关闭。
var ErrHubClosed = errors.New("event hub closed")

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub 维护所有 websocket 订阅者并广播事件。
// 订阅者集合只由 run 协程访问。
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	quit       chan struct{}
	done       chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHub 创建 Hub 并启动分发协程，使用完毕后必须调用 Close。
func NewHub() *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源
			},
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			log.Debugf("[EventHub] 订阅者加入，当前 %d 个", len(clients))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// 缓冲区已满的订阅者直接断开
					delete(clients, c)
					close(c.send)
				}
			}
		case <-h.quit:
			for c := range clients {
				delete(clients, c)
				close(c.send)
			}
			return
		}
	}
}

// Publish 向所有订阅者广播一个加载事件。
func (h *Hub) Publish(ctx context.Context, event model.LoadEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP 将请求升级为 websocket 连接并注册为订阅者。
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(2)
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		h.wg.Add(-2)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
	go h.writePump(c)
	go h.readPump(c)
}

// writePump 是连接上唯一的写入者。send 关闭后发送关闭帧并断开连接。
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只用于感知断开与处理 pong，客户端发送的内容会被丢弃。
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		h.wg.Done()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close 断开所有订阅者并等待相关协程退出。
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	close(h.quit)
	<-h.done
	h.wg.Wait()
}
