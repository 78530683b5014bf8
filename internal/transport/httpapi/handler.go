// Package httpapi is the REST surface of a running kingdom.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"idlekingdom.dev/internal/host"
	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/persistence/transfer"
	"idlekingdom.dev/internal/protocol"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/transport/view"
	"idlekingdom.dev/internal/transport/ws"
)

const maxImportBytes = 1 << 20

type Handler struct {
	rt      *host.Runtime
	log     *log.Logger
	ws      *ws.Server
	limiter *rate.Limiter
	timeout time.Duration
}

type Options struct {
	CommandsPerSecond float64
	Burst             int
	RequestTimeout    time.Duration
}

func NewHandler(rt *host.Runtime, logger *log.Logger, opts Options) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.CommandsPerSecond <= 0 {
		opts.CommandsPerSecond = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 40
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	return &Handler{
		rt:      rt,
		log:     logger,
		ws:      ws.NewServer(rt, logger.With("transport", "ws"), ws.Options{CommandsPerSecond: opts.CommandsPerSecond, Burst: opts.Burst}),
		limiter: rate.NewLimiter(rate.Limit(opts.CommandsPerSecond), opts.Burst),
		timeout: opts.RequestTimeout,
	}
}

// Routes builds the router. The websocket endpoint is mounted outside the
// timeout middleware since sessions are long-lived.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/v1/ws", h.ws.Handler())
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(h.timeout))
		r.Get("/v1/state", h.GetState)
		r.Get("/v1/catalog", h.GetCatalog)
		r.Post("/v1/commands", h.PostCommand)
		r.Get("/v1/export", h.GetExport)
		r.Post("/v1/import", h.PostImport)
	})
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	s, ok := h.rt.Snapshot()
	if !ok {
		h.respond(w, http.StatusServiceUnavailable, map[string]any{"status": "booting"})
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"status": "ok", "tick": s.Tick})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.rt.Snapshot()
	if !ok {
		h.respondError(w, http.StatusServiceUnavailable, protocol.ErrInternal, "game not ready")
		return
	}
	h.respond(w, http.StatusOK, view.State(h.rt.Engine(), s))
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, view.Catalog(h.rt.Engine().Catalogs()))
}

type commandRequest struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

type commandResponse struct {
	OK     bool               `json:"ok"`
	Reason string             `json:"reason,omitempty"`
	Code   string             `json:"code,omitempty"`
	State  protocol.StateView `json:"state"`
}

func (h *Handler) PostCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, protocol.ErrBadRequest, "invalid request body")
		return
	}
	if !ws.KnownOp(req.Op) {
		h.respondError(w, http.StatusBadRequest, protocol.ErrUnknownOp, "unknown op "+req.Op)
		return
	}
	if !h.limiter.Allow() {
		h.respondError(w, http.StatusTooManyRequests, protocol.ErrRateLimit, "too many commands")
		return
	}
	res, err := h.rt.Submit(r.Context(), engine.Command{Op: engine.Op(req.Op), ID: req.ID})
	if err != nil {
		h.log.Warn("submit failed", "op", req.Op, "err", err, "request_id", middleware.GetReqID(r.Context()))
		h.respondError(w, http.StatusServiceUnavailable, protocol.ErrInternal, err.Error())
		return
	}
	out := commandResponse{OK: res.OK, State: view.State(h.rt.Engine(), res.State)}
	status := http.StatusOK
	if !res.OK {
		out.Reason = string(res.Reason)
		out.Code = protocol.ErrRejected
		status = http.StatusConflict
	}
	h.respond(w, status, out)
}

func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.rt.Snapshot()
	if !ok {
		h.respondError(w, http.StatusServiceUnavailable, protocol.ErrInternal, "game not ready")
		return
	}
	text, err := transfer.Export(s)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, protocol.ErrInternal, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

// PostImport replaces the running game with an exported one. A save from
// another format version is refused with 422; unreadable text with 400.
func (h *Handler) PostImport(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, protocol.ErrBadRequest, "read body")
		return
	}
	eng := h.rt.Engine()
	s, err := transfer.Import(strings.TrimSpace(string(b)), snapshot.Defaults{Loop: eng.LoopDefaults()})
	switch {
	case errors.Is(err, snapshot.ErrVersion):
		h.respondError(w, http.StatusUnprocessableEntity, protocol.ErrBadRequest, err.Error())
		return
	case err != nil:
		h.respondError(w, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}
	installed, err := h.rt.Replace(r.Context(), s)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, protocol.ErrInternal, err.Error())
		return
	}
	h.log.Info("save imported", "tick", installed.Tick, "request_id", middleware.GetReqID(r.Context()))
	h.respond(w, http.StatusOK, view.State(eng, installed))
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respond(w, status, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}
