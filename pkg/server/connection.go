package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/playback"
	"github.com/realtime-ai/streamplayout/pkg/trace"
)

// Control message types exchanged as WebSocket text messages.
const (
	MsgTypeAudio   = "audio"   // payload: base64 PCM16 chunk
	MsgTypeStop    = "stop"    // discard buffered audio
	MsgTypeStats   = "stats"   // request / reply with playback.Stats
	MsgTypeStopped = "stopped" // reply to stop
	MsgTypeError   = "error"   // payload: error string
)

// Message is the JSON envelope of a control message.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type reply struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// producerConn is one producer WebSocket. Reads run on the HTTP handler
// goroutine; a single writePump owns all writes.
type producerConn struct {
	id     string
	ws     *websocket.Conn
	server *Server
	logger *zap.Logger

	out chan reply

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

func newProducerConn(id string, ws *websocket.Conn, s *Server) *producerConn {
	ctx, cancel := context.WithCancel(context.Background())
	return &producerConn{
		id:     id,
		ws:     ws,
		server: s,
		logger: s.logger.With(zap.String("conn_id", id)),
		out:    make(chan reply, 16),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *producerConn) serve() {
	ctx, span := trace.InstrumentConnection(c.ctx, c.id, c.ws.RemoteAddr().String())
	defer span.End()

	c.logger.Info("producer connected", zap.String("remote_addr", c.ws.RemoteAddr().String()))

	cfg := c.server.config
	c.ws.SetReadLimit(cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	c.wg.Add(1)
	go c.writePump()

	c.readPump(ctx)

	c.close()
	c.wg.Wait()
	c.logger.Info("producer disconnected")
}

func (c *producerConn) close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.ws.Close()
	})
}

func (c *producerConn) readPump(ctx context.Context) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read error", zap.Error(err))
			}
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			if !c.submit(ctx, data) {
				return
			}
		case websocket.TextMessage:
			if !c.handleControl(ctx, data) {
				return
			}
		}
	}
}

// submit returns false when the connection should be closed.
func (c *producerConn) submit(ctx context.Context, data []byte) bool {
	err := c.server.player.SubmitContext(ctx, data)
	switch {
	case err == nil:
		return true
	case errors.Is(err, playback.ErrClosed), errors.Is(err, context.Canceled):
		return false
	default:
		c.logger.Warn("chunk rejected", zap.Int("bytes", len(data)), zap.Error(err))
		c.send(reply{Type: MsgTypeError, Payload: err.Error()})
		return true
	}
}

func (c *producerConn) handleControl(ctx context.Context, data []byte) bool {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("failed to unmarshal message", zap.Error(err))
		c.send(reply{Type: MsgTypeError, Payload: "invalid message"})
		return true
	}

	switch msg.Type {
	case MsgTypeAudio:
		var encoded string
		if err := json.Unmarshal(msg.Payload, &encoded); err != nil {
			c.send(reply{Type: MsgTypeError, Payload: "audio payload must be a base64 string"})
			return true
		}
		chunk, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			c.send(reply{Type: MsgTypeError, Payload: "invalid base64 audio"})
			return true
		}
		return c.submit(ctx, chunk)

	case MsgTypeStop:
		c.server.player.Stop()
		c.send(reply{Type: MsgTypeStopped})

	case MsgTypeStats:
		c.send(reply{Type: MsgTypeStats, Payload: c.server.player.Stats()})

	default:
		c.logger.Warn("unknown message type", zap.String("type", msg.Type))
		c.send(reply{Type: MsgTypeError, Payload: "unknown message type: " + msg.Type})
	}
	return true
}

func (c *producerConn) send(r reply) {
	select {
	case c.out <- r:
	default:
		c.logger.Warn("outbound queue full, dropping reply", zap.String("type", r.Type))
	}
}

func (c *producerConn) writePump() {
	defer c.wg.Done()

	cfg := c.server.config
	ticker := time.NewTicker(cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case r := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.ws.WriteJSON(r); err != nil {
				c.logger.Warn("write error", zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(cfg.WriteWait)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.close()
				return
			}
		}
	}
}
