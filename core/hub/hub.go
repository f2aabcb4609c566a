package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"podcastr/logger"

	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	MsgTypeState   MessageType = "state"   // 播放状态快照（服务端 -> 客户端）
	MsgTypeCommand MessageType = "command" // 播放控制（客户端 -> 服务端）
	MsgTypeError   MessageType = "error"   // 错误消息
	MsgTypePing    MessageType = "ping"    // 心跳
	MsgTypePong    MessageType = "pong"    // 心跳响应
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Message WebSocket 消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// CommandData 客户端发来的播放控制
type CommandData struct {
	Action    string `json:"action"`
	EpisodeID string `json:"episodeId,omitempty"`
	Index     int    `json:"index,omitempty"`
	Playing   bool   `json:"playing,omitempty"`
}

// ErrorData 错误消息数据
type ErrorData struct {
	Message string `json:"message"`
}

// Client 一个 WebSocket 连接
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string

	mu     sync.Mutex
	closed bool
}

// trySend 非阻塞发送，通道已关闭或缓冲区满时返回 false
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// NewClient 创建客户端
func NewClient(h *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
		SessionID: sessionID,
	}
}

// broadcastMessage 广播消息
type broadcastMessage struct {
	sessionID string
	message   []byte
}

// Hub 按会话分组管理 WebSocket 连接，同一会话的所有页面共享状态
type Hub struct {
	sessions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu   sync.RWMutex
	done chan struct{}
}

// New 创建 Hub
func New() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.broadcastToSession(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.SessionID] == nil {
		h.sessions[client.SessionID] = make(map[*Client]bool)
	}
	h.sessions[client.SessionID][client] = true

	logger.Debug("subscriber registered",
		logger.String("session", client.SessionID),
		logger.Int("subscribers", len(h.sessions[client.SessionID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[client.SessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	client.closeSend()
	if len(clients) == 0 {
		delete(h.sessions, client.SessionID)
	}

	logger.Debug("subscriber unregistered", logger.String("session", client.SessionID))
}

func (h *Hub) broadcastToSession(msg *broadcastMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[msg.sessionID]))
	for client := range h.sessions[msg.sessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.trySend(msg.message) {
			// 发送缓冲区满，移除客户端
			logger.Warn("subscriber too slow, dropping", logger.String("session", client.SessionID))
			h.removeClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.sessions {
		for client := range clients {
			client.closeSend()
		}
	}
	h.sessions = make(map[string]map[*Client]bool)
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish 向会话的所有订阅者广播消息
func (h *Hub) Publish(sessionID string, msgType MessageType, data interface{}) error {
	payload, err := encode(msgType, data)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- &broadcastMessage{sessionID: sessionID, message: payload}:
	case <-h.done:
	}
	return nil
}

// SubscriberCount 会话当前的订阅者数量
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func encode(msgType MessageType, data interface{}) ([]byte, error) {
	msg := Message{Type: msgType, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

// SendMessage 直接发送给单个客户端，缓冲区满时丢弃
func (c *Client) SendMessage(msgType MessageType, data interface{}) error {
	payload, err := encode(msgType, data)
	if err != nil {
		return err
	}

	c.trySend(payload)
	return nil
}

// CommandHandler 处理客户端发来的控制命令
type CommandHandler func(ctx context.Context, client *Client, cmd CommandData)

// ReadPump 读取消息循环
func (c *Client) ReadPump(ctx context.Context, handler CommandHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err), logger.String("session", c.SessionID))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Warn("invalid message format", logger.ErrorField(err), logger.String("session", c.SessionID))
			c.SendMessage(MsgTypeError, ErrorData{Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case MsgTypePing:
			c.SendMessage(MsgTypePong, nil)
		case MsgTypeCommand:
			var cmd CommandData
			if err := json.Unmarshal(msg.Data, &cmd); err != nil {
				c.SendMessage(MsgTypeError, ErrorData{Message: "invalid command"})
				continue
			}
			handler(ctx, c, cmd)
		default:
			c.SendMessage(MsgTypeError, ErrorData{Message: "unknown message type"})
		}
	}
}

// WritePump 写消息循环，同时定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
