package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/hub"
)

// EchoPrefix prefixes the reply to text a client sends on the order channel.
const EchoPrefix = "Order received: "

// Hub is the registry connections are attached to.
type Hub interface {
	Subscribe(ctx context.Context, channel entity.Channel, conn hub.Conn) (hub.Handle, error)
	Unsubscribe(handle hub.Handle) bool
	OnTransportError(handle hub.Handle, cause error)
}

type Handler struct {
	hub      Hub
	upgrader websocket.Upgrader
}

func NewHandler(h Hub) *Handler {
	return &Handler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/orders", h.serve(entity.ChannelOrders))
	r.GET("/ws/products", h.serve(entity.ChannelProducts))
}

func (h *Handler) serve(channel entity.Channel) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("WebSocket upgrade failed", "channel", channel, "err", err)
			return
		}

		conn := newConn(ws)
		handle, err := h.hub.Subscribe(context.Background(), channel, conn)
		if err != nil {
			slog.Error("Failed to subscribe connection", "channel", channel, "err", err)
			_ = conn.Close(hub.StatusServerError, "subscribe failed")
			return
		}

		done := make(chan struct{})
		go keepAlive(conn, done)
		h.readPump(channel, handle, conn)
		close(done)
	}
}

// readPump blocks until the peer goes away, answering order channel text
// with an echo.
func (h *Handler) readPump(channel entity.Channel, handle hub.Handle, c *conn) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && c.Open() {
				h.hub.OnTransportError(handle, err)
				return
			}
			h.hub.Unsubscribe(handle)
			_ = c.Close(hub.StatusNormalClosure, "")
			return
		}

		if channel != entity.ChannelOrders || kind != websocket.TextMessage {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		if err := c.WriteText(ctx, EchoPrefix+string(payload)); err != nil {
			slog.Warn("Failed to echo message", "handle", handle, "err", err)
		}
		cancel()
	}
}

func keepAlive(c *conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
