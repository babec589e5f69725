package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	models "StockRank/internal/domain/models"
	"StockRank/internal/stream"
	xlogger "StockRank/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeTimeout   = 5 * time.Second
	readLimitBytes = 4096
)

// StreamHandler upgrades clients onto the live quote stream.
type StreamHandler struct {
	logger   *xlogger.Logger
	manager  *stream.Manager
	upgrader websocket.Upgrader
}

func NewStreamHandler(logger *xlogger.Logger, manager *stream.Manager) *StreamHandler {
	return &StreamHandler{
		logger:  logger,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/stream", h.Stream)
}

// connection adapts a websocket peer to the stream.Subscriber interface.
// Writes are serialized so pollers from different symbols never interleave
// frames on the wire.
type connection struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *connection) ID() string { return c.id }

func (c *connection) Send(u *models.StreamUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(u)
}

func (c *connection) sendAck(ack *models.StreamAck) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(ack)
}

func (h *StreamHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", xlogger.Error(err))
		return err
	}

	sub := &connection{id: uuid.NewString(), conn: conn}
	h.logger.Info("stream client connected",
		xlogger.String("client_id", sub.id),
		xlogger.String("remote", conn.RemoteAddr().String()))

	defer func() {
		h.manager.Disconnect(sub)
		conn.Close()
		h.logger.Info("stream client disconnected", xlogger.String("client_id", sub.id))
	}()

	conn.SetReadLimit(readLimitBytes)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("stream read error",
					xlogger.String("client_id", sub.id), xlogger.Error(err))
			}
			return nil
		}

		var cmd models.StreamCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			h.ack(sub, &models.StreamAck{Type: "error", Error: "malformed command"})
			continue
		}
		h.dispatch(sub, &cmd)
	}
}

func (h *StreamHandler) dispatch(sub *connection, cmd *models.StreamCommand) {
	switch cmd.Action {
	case "subscribe":
		if len(cmd.Symbols) == 0 {
			h.ack(sub, &models.StreamAck{Type: "error", Error: "subscribe requires symbols"})
			return
		}
		symbols, interval := h.manager.Subscribe(sub, cmd.Symbols, cmd.Interval)
		h.ack(sub, &models.StreamAck{
			Type:     "subscribed",
			Symbols:  symbols,
			Interval: int(interval / time.Second),
		})
	case "unsubscribe":
		symbols, err := h.manager.Unsubscribe(sub, cmd.Symbols)
		if err != nil {
			h.ack(sub, &models.StreamAck{Type: "error", Error: err.Error()})
			return
		}
		h.ack(sub, &models.StreamAck{Type: "unsubscribed", Symbols: symbols})
	default:
		h.ack(sub, &models.StreamAck{Type: "error", Error: "unknown action: " + cmd.Action})
	}
}

func (h *StreamHandler) ack(sub *connection, ack *models.StreamAck) {
	if err := sub.sendAck(ack); err != nil {
		h.logger.Warn("ack write failed",
			xlogger.String("client_id", sub.id), xlogger.Error(err))
	}
}
