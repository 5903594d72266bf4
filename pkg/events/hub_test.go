package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-analysis-go/internal/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// publishUntilReceived 反复发布直到订阅者收到，规避注册与发布之间的竞争。
func publishUntilReceived(t *testing.T, h *Hub, conn *websocket.Conn, event model.LoadEvent) model.LoadEvent {
	t.Helper()
	received := make(chan model.LoadEvent, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			close(received)
			return
		}
		var got model.LoadEvent
		_ = json.Unmarshal(data, &got)
		received <- got
	}()

	deadline := time.After(2 * time.Second)
	for {
		require.NoError(t, h.Publish(context.Background(), event))
		select {
		case got, ok := <-received:
			require.True(t, ok, "connection closed before event arrived")
			return got
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("event not received")
		}
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)
	defer conn.Close()

	event := model.LoadEvent{Type: "load", RunID: "r1", Status: model.LoadSucceeded, Fingerprint: "abc"}
	got := publishUntilReceived(t, h, conn, event)
	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, model.LoadSucceeded, got.Status)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	publishUntilReceived(t, h, conn, model.LoadEvent{Type: "load", RunID: "r0"})

	h.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var err error
	for err == nil {
		// 关闭帧之前可能还有重复发布的事件
		_, _, err = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	assert.ErrorIs(t, h.Publish(context.Background(), model.LoadEvent{}), ErrHubClosed)
	h.Close()
}

func TestHubRejectsAfterClose(t *testing.T) {
	h := NewHub()
	h.Close()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/events", nil))
	assert.Equal(t, 503, rec.Code)
}
