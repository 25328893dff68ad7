package server

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/protocol"
	"github.com/verte-zerg/racetyper/internal/session"
)

// maxMessageSize bounds a single inbound frame.
const maxMessageSize = 64 * 1024

type frame struct {
	data []byte
	pong bool
}

// conn owns one WebSocket connection. The reader goroutine only forwards
// frames; run is the single worker that touches the session and writes.
type conn struct {
	id      string
	ws      *websocket.Conn
	cfg     model.ServerConfig
	sess    *session.Session
	logger  *logrus.Entry
	limiter *rate.Limiter
	now     func() time.Time

	inbound chan frame
	readErr chan error
	done    chan struct{}

	closeOnce sync.Once
	lastSeen  time.Time
}

func newConn(s *Server, ws *websocket.Conn, remoteAddr string) *conn {
	id := uuid.New().String()
	logger := s.logger.WithFields(logrus.Fields{
		"conn_id":     id,
		"remote_addr": remoteAddr,
	})

	var limiter *rate.Limiter
	if s.cfg.RateLimit.Enabled {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit.MessagesPerSecond), s.cfg.RateLimit.Burst)
	}

	return &conn{
		id:      id,
		ws:      ws,
		cfg:     s.cfg,
		sess:    session.New(s.cfg.Session, s.texts, s.results, logger),
		logger:  logger,
		limiter: limiter,
		now:     time.Now,
		inbound: make(chan frame, 16),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func (c *conn) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		c.forward(frame{pong: true})
		return nil
	})
	c.ws.SetPingHandler(func(appData string) error {
		c.forward(frame{pong: true})
		err := c.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteTimeout))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			return err
		}
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr <- err
			return
		}
		if !c.forward(frame{data: data}) {
			return
		}
	}
}

// forward hands a frame to the worker. It reports false once the worker has exited.
func (c *conn) forward(f frame) bool {
	select {
	case c.inbound <- f:
		return true
	case <-c.done:
		return false
	}
}

func (c *conn) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.teardown()

	c.logger.Info("connection opened")
	c.lastSeen = c.now()
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		case err := <-c.readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.WithError(err).Warn("unexpected close")
			} else {
				c.logger.WithError(err).Debug("read ended")
			}
			return
		case f := <-c.inbound:
			c.lastSeen = c.now()
			if f.pong {
				continue
			}
			if c.limiter != nil && !c.limiter.Allow() {
				c.logger.Warn("rate limit exceeded")
				c.closeWith(websocket.ClosePolicyViolation, "Rate limit exceeded")
				return
			}
			if err := c.handleSafe(ctx, f.data); err != nil {
				c.logger.WithError(err).Warn("write failed")
				return
			}
		case <-ticker.C:
			if c.now().Sub(c.lastSeen) > c.cfg.ClientTimeout {
				c.logger.Info("heartbeat timed out, disconnecting")
				c.closeWith(websocket.CloseGoingAway, "heartbeat timeout")
				return
			}
			if err := c.ws.WriteControl(websocket.PingMessage, nil, c.now().Add(c.cfg.WriteTimeout)); err != nil {
				c.logger.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

// handleSafe processes one frame. A panic is confined to that frame; only a
// failed write is returned.
func (c *conn) handleSafe(ctx context.Context, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("message handler panicked")
			err = nil
		}
	}()
	return c.handle(ctx, data)
}

func (c *conn) handle(ctx context.Context, data []byte) error {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.logger.WithError(err).Warn("inbound message dropped")
		return nil
	}

	reply, err := c.sess.Handle(ctx, msg)
	if err != nil {
		c.logHandleError(err)
	}
	if reply == nil {
		return nil
	}
	return c.write(*reply)
}

func (c *conn) logHandleError(err error) {
	entry := c.logger.WithError(err).WithField("state", c.sess.State().String())
	switch {
	case errors.Is(err, session.ErrStoreUnavailable):
		entry.Error("store call failed")
	case errors.Is(err, session.ErrProtocolViolation),
		errors.Is(err, session.ErrEditLogFull),
		errors.Is(err, session.ErrInsufficientWords):
		entry.Warn("message rejected")
	default:
		entry.Error("message failed")
	}
}

func (c *conn) write(env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Type, err)
	}
	if err := c.ws.SetWriteDeadline(c.now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.ws.WriteControl(websocket.CloseMessage, msg, c.now().Add(time.Second)); err != nil {
		c.logger.WithError(err).Debug("close frame not sent")
	}
}

func (c *conn) teardown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sess.Close()
		if err := c.ws.Close(); err != nil {
			c.logger.WithError(err).Debug("socket close failed")
		}
		c.logger.Info("connection closed")
	})
}
