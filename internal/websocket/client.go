package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// FrameHandler processes one inbound text frame of a client.
type FrameHandler func(c *Client, raw []byte)

type Client struct {
	ID     string
	UserID int64
	User   user_dto.PublicUser
	IP     string
	Conn   *websocket.Conn
	Send   chan []byte

	// topics is guarded by the hub's topic lock.
	topics map[string]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	lastSeen  atomic.Int64
	closeOnce sync.Once
	limiter   *rate.Limiter

	onFrame FrameHandler
	onClose func()
}

func NewClient(conn *websocket.Conn, user user_dto.PublicUser, ip string, onFrame FrameHandler) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		User:    user,
		IP:      ip,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		topics:  make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
		onFrame: onFrame,
	}
	c.touch()
	return c
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

func (c *Client) GetLastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *Client) IsClientActive() bool {
	return c.ctx.Err() == nil
}

func (c *Client) Context() context.Context {
	return c.ctx
}

// Close stops both pumps. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

// trySend queues data without blocking. A full buffer marks a slow consumer,
// which is disconnected.
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}

	select {
	case c.Send <- data:
		return true
	default:
		log.Warn().Str("clientID", c.ID).Int64("userID", c.UserID).Msg("ws: slow consumer, dropping client")
		go c.Close()
		return false
	}
}

func (c *Client) start(h *Hub) {
	go c.writePump()
	go c.readPump(h)
}

// writePump: take data from c.Send and send to socket + ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			if _, err := w.Write(msg); err != nil {
				_ = w.Close()
				return
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump: read frames from client + handle pong for keep-alive
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.Unregister(c)
		c.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.touch()
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("clientID", c.ID).Msg("ws: unexpected close")
			}
			return
		}
		c.touch()

		if msgType != websocket.TextMessage || c.onFrame == nil {
			continue
		}
		c.onFrame(c, raw)
	}
}
