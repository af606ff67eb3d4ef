package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"campus-market/backend/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// 將訊息寫入到遠端對等點的最長時間
	writeWait = 10 * time.Second

	// 允許從遠端對等點讀取下一個 pong 訊息的最長時間。
	pongWait = 60 * time.Second

	// 發送 ping 訊息給遠端對等點的週期。
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024

	// 每條連線的發送緩衝，滿了就視為慢速客戶端並關閉連線
	sendBufferSize = 256
)

// Client 代表一個 WebSocket 客戶端
type Client struct {
	id      uuid.UUID
	gateway *Gateway
	conn    *websocket.Conn // WebSocket 連線物件，透過它來讀寫訊息
	send    chan models.Event
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter // nil 表示不限速
	logger  logrus.FieldLogger

	// 只在 readPump 的 goroutine 中讀寫，nil 表示尚未驗證
	user *models.PublicProfile
}

func newClient(g *Gateway, conn *websocket.Conn) *Client {
	id := uuid.New()
	c := &Client{
		id:      id,
		gateway: g,
		conn:    conn,
		send:    make(chan models.Event, sendBufferSize),
		done:    make(chan struct{}),
		logger:  g.logger.WithField("conn_id", id),
	}
	if g.sendRate > 0 {
		c.limiter = rate.NewLimiter(g.sendRate, g.sendBurst)
	}
	return c
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

// Enqueue 不會阻塞。緩衝滿了代表客戶端跟不上，直接關閉連線
func (c *Client) Enqueue(evt models.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- evt:
		return true
	case <-c.done:
		return false
	default:
		c.logger.WithField("event", evt.Name).Warn("Client send buffer is full, closing connection")
		c.Close()
		return false
	}
}

// Close 可重複呼叫
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) emit(name models.EventName, payload any) {
	evt, err := models.NewEvent(name, payload)
	if err != nil {
		c.logger.WithError(err).Error("Error marshalling event")
		return
	}
	c.Enqueue(evt)
}

// 讀取用戶傳來的事件，交給 Gateway 分派
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.gateway.registry.Remove(c)
		c.Close()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Client disconnected gracefully.")
			} else {
				c.logger.WithError(err).Debug("Error reading message")
			}
			return
		}

		var evt models.Event
		if err := json.Unmarshal(p, &evt); err != nil || evt.Name == "" {
			c.emit(models.EventError, models.ErrorPayload{Message: "Invalid event format"})
			continue
		}
		c.gateway.dispatch(ctx, c, evt)
	}
}

// 把 send 通道中的事件寫給前端
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case evt := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				c.logger.WithError(err).Debug("Error writing message")
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		// 接收定時器以保持連線活躍並檢測客戶端是否仍在線。
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
