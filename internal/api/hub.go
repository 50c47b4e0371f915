package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/char5742/floatball/internal/consts"
	"github.com/char5742/floatball/internal/log"
	"github.com/char5742/floatball/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub は位置を接続中の WebSocket クライアントへ配信する
// Publish はシミュレーションの時間軸から呼ばれるため、遅いクライアントの古い位置は捨てる
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.Mutex
	logger  log.Log
}

type client struct {
	conn *websocket.Conn
	send chan types.Point
}

// NewHub は新しい Hub を作成する
func NewHub(logger log.Log) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Publish は全クライアントへ位置を送る
func (h *Hub) Publish(p types.Point) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		select {
		case c.send <- p:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- p:
			default:
			}
		}
	}
}

// ClientCount は接続数を返す
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// ServeHTTP は WebSocket 接続を受け付ける
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket のアップグレードに失敗しました", log.Err(err))
		return
	}

	c := &client{conn: conn, send: make(chan types.Point, consts.ClientBuffer)}
	h.mutex.Lock()
	h.clients[c] = struct{}{}
	h.mutex.Unlock()
	h.logger.Debug("WebSocket クライアント接続", log.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)
	h.readLoop(c)
}

// Close はすべての接続を閉じる
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// readLoop はクライアントの切断を検知する。受信内容は使わない
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for p := range c.send {
		if err := c.conn.WriteJSON(p); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
