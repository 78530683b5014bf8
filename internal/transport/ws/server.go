package ws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"idlekingdom.dev/internal/host"
	"idlekingdom.dev/internal/protocol"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/transport/view"
)

type Options struct {
	// CommandsPerSecond and Burst bound each session's CMD rate.
	CommandsPerSecond float64
	Burst             int
}

type Server struct {
	rt   *host.Runtime
	log  *log.Logger
	opts Options

	upgrader websocket.Upgrader
}

func NewServer(rt *host.Runtime, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.CommandsPerSecond <= 0 {
		opts.CommandsPerSecond = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 40
	}
	return &Server{
		rt:   rt,
		log:  logger,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, ok := s.handshake(conn)
		if !ok {
			return
		}
		logger := s.log.With("session", sessionID)
		logger.Info("session opened")
		defer logger.Info("session closed")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		updates, unsubscribe := s.rt.Subscribe()
		defer unsubscribe()
		out := make(chan []byte, 16)

		// Writer goroutine.
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-out:
				case u := <-updates:
					for _, ev := range u.Events {
						if err := writeJSON(conn, view.Event(ev)); err != nil {
							cancel()
							return
						}
					}
					b, _ = json.Marshal(protocol.StateMsg{
						Type:            protocol.TypeState,
						ProtocolVersion: protocol.Version,
						State:           view.State(s.rt.Engine(), u.State),
					})
				}
				if err := writeRaw(conn, b); err != nil {
					cancel()
					return
				}
			}
		}()

		send := func(v any) bool {
			b, err := json.Marshal(v)
			if err != nil {
				return false
			}
			select {
			case out <- b:
				return true
			case <-ctx.Done():
				return false
			}
		}

		limiter := rate.NewLimiter(rate.Limit(s.opts.CommandsPerSecond), s.opts.Burst)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				send(errorMsg(protocol.ErrBadRequest, "invalid json"))
				continue
			}
			if base.Type != protocol.TypeCmd {
				send(errorMsg(protocol.ErrProto, "unexpected message type "+base.Type))
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				send(errorMsg(protocol.ErrBadRequest, "invalid CMD"))
				continue
			}
			if !send(s.execute(ctx, logger, limiter, cmd)) {
				return
			}
		}
	}
}

func (s *Server) execute(ctx context.Context, logger *log.Logger, limiter *rate.Limiter, cmd protocol.CmdMsg) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		CmdID:           cmd.CmdID,
		Op:              cmd.Op,
	}
	if snap, ok := s.rt.Snapshot(); ok {
		ack.Tick = snap.Tick
	}
	if cmd.ProtocolVersion != protocol.Version {
		ack.Code = protocol.ErrProto
		ack.Reason = "bad protocol_version"
		return ack
	}
	if !limiter.Allow() {
		ack.Code = protocol.ErrRateLimit
		return ack
	}
	if !KnownOp(cmd.Op) {
		ack.Code = protocol.ErrUnknownOp
		return ack
	}
	res, err := s.rt.Submit(ctx, engine.Command{Op: engine.Op(cmd.Op), ID: cmd.ID})
	if err != nil {
		logger.Warn("submit failed", "op", cmd.Op, "err", err)
		ack.Code = protocol.ErrInternal
		return ack
	}
	ack.OK = res.OK
	ack.Tick = res.State.Tick
	if !res.OK {
		ack.Code = protocol.ErrRejected
		ack.Reason = string(res.Reason)
	}
	return ack
}

func (s *Server) handshake(conn *websocket.Conn) (string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = writeJSON(conn, errorMsg(protocol.ErrProto, "expected HELLO"))
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = writeJSON(conn, errorMsg(protocol.ErrProto, "bad protocol_version"))
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", false
	}

	snap, ok := s.rt.Snapshot()
	if !ok {
		_ = writeJSON(conn, errorMsg(protocol.ErrInternal, "game not ready"))
		return "", false
	}
	eng := s.rt.Engine()
	tune := eng.Tuning()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		GameParams: protocol.GameParams{
			TickDurationMs:    tune.TickDurationMs,
			MaxOfflineSeconds: tune.MaxOfflineSeconds,
			CommandsPerSecond: s.opts.CommandsPerSecond,
			CommandBurst:      s.opts.Burst,
		},
		CatalogDigest: eng.Catalogs().Digest(),
		State:         view.State(eng, snap),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", false
	}
	return welcome.SessionID, true
}

// KnownOp reports whether op names a host-facing operation.
func KnownOp(op string) bool {
	for _, o := range engine.AllOps() {
		if string(o) == op {
			return true
		}
	}
	return false
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{Type: protocol.TypeError, ProtocolVersion: protocol.Version, Code: code, Message: message}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeRaw(conn, b)
}

func writeRaw(conn *websocket.Conn, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
