package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/config"
	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/proto"
	"github.com/vovakirdan/wirechat-admin/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the chat session.
type WSHandler struct {
	session *core.Session
	limits  config.WSConfig
	log     *zerolog.Logger

	// closing is cancelled by Shutdown.
	closing  context.Context
	shutdown context.CancelFunc
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(session *core.Session, limits config.WSConfig, logger *zerolog.Logger) *WSHandler {
	closing, shutdown := context.WithCancel(context.Background())
	return &WSHandler{
		session:  session,
		limits:   limits,
		log:      logger,
		closing:  closing,
		shutdown: shutdown,
	}
}

// Shutdown closes open connections with StatusGoingAway and refuses new ones.
// http.Server.Shutdown leaves hijacked connections alone, so register it with
// RegisterOnShutdown.
func (h *WSHandler) Shutdown() {
	h.shutdown()
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	if h.closing.Err() != nil {
		stdhttp.Error(w, "server shutting down", stdhttp.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.limits.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.limits.MaxMessageBytes)
	}

	connID := utils.NewID()
	connLog := h.log.With().Str("conn_id", connID).Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopOnShutdown := context.AfterFunc(h.closing, func() {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	})
	defer stopOnShutdown()

	// Subscribe before the snapshot so no update between the two is lost.
	updates, unsubscribe := h.session.Subscribe(ctx)
	defer unsubscribe()

	if err := wsjson.Write(ctx, conn, event(proto.EventNameView, toProtoView(h.session.View()))); err != nil {
		connLog.Warn().Err(err).Msg("write initial view")
		return
	}

	// Replies and updates share one writer.
	outbound := make(chan proto.Outbound, 16)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, outbound, &connLog)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, updates, outbound, &connLog)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if h.closing.Err() != nil {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			connLog.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- proto.Outbound, logger *zerolog.Logger) error {
	limiter := newRateLimiter(h.limits.RatePerSecond, h.limits.Burst)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			logger.Debug().Err(err).Msg("read ws inbound")
			return err
		}

		var reply *proto.Outbound
		if !limiter.allow() {
			reply = &proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"},
			}
		} else {
			var err error
			reply, err = applyInbound(ctx, h.session, inbound)
			if err != nil {
				logger.Debug().Err(err).Str("type", inbound.Type).Msg("malformed inbound")
				reply = &proto.Outbound{
					Type:  proto.OutboundTypeError,
					Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed data"},
				}
			}
		}

		if reply == nil {
			continue
		}
		select {
		case out <- *reply:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan core.Update, replies <-chan proto.Outbound, logger *zerolog.Logger) error {
	for {
		var msg proto.Outbound
		select {
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			msg = outboundFromUpdate(u)
		case msg = <-replies:
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := wsjson.Write(ctx, conn, msg); err != nil {
			logger.Error().Err(err).Msg("write ws event")
			return err
		}
	}
}
