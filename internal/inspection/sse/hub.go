package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventSOWUpdate        = "sow_update"
	EventLibraryUpdate    = "library_update"
	EventJobPackUpdate    = "jobpack_update"
	EventAttachmentUpdate = "attachment_update"
)

// Event 服务端推送事件
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client 已连接的看板
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub 管理全部SSE连接。写操作完成后广播变更事件，看板据此失效缓存并重新查询。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)))
	}
}

// Broadcast 向全部连接发送事件，缓冲区满的连接跳过
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishChange 广播数据变更，payload 为受影响实体的标识
func (h *Hub) PublishChange(eventType, action string, payload map[string]string) {
	if h == nil {
		return
	}
	body := make(map[string]string, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["action"] = action
	data, err := json.Marshal(body)
	if err != nil {
		return
	}
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}
