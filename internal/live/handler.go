// Package live serves binding sessions over HTTP and WebSocket. Each
// browser connection gets its own server-side document; client events are
// replayed on it and the re-rendered body is sent back.
package live

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/livefir/objectmodel/dom/htmldoc"
	"github.com/livefir/objectmodel/internal/memory"
	"github.com/livefir/objectmodel/internal/metrics"
	"github.com/livefir/objectmodel/internal/session"
	"github.com/livefir/objectmodel/internal/token"
)

const (
	SessionCookie = "objectmodel-session"
	WSPath        = "/ws"
	MetricsPath   = "/metrics"
)

// Handler is the http.Handler of the live server.
type Handler struct {
	sessions *session.Manager
	tokens   *token.Service
	codec    Codec
	upgrader *websocket.Upgrader
	logger   *slog.Logger
	metrics  *metrics.Collector
	minify   bool
	title    string
	mux      *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithCodec sets the default frame codec. Clients may pick another one
// with the codec query parameter.
func WithCodec(c Codec) Option {
	return func(h *Handler) { h.codec = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics exposes c on the metrics endpoint. Pass the collector the
// session Components share.
func WithMetrics(c *metrics.Collector) Option {
	return func(h *Handler) { h.metrics = c }
}

// WithMinify minifies every rendered body.
func WithMinify(on bool) Option {
	return func(h *Handler) { h.minify = on }
}

func WithTitle(title string) Option {
	return func(h *Handler) { h.title = title }
}

// WithTokens sets the service signing session cookies and connect tokens.
// By default each Handler gets its own key.
func WithTokens(t *token.Service) Option {
	return func(h *Handler) { h.tokens = t }
}

// New creates a Handler serving sessions from m.
func New(m *session.Manager, opts ...Option) *Handler {
	h := &Handler{
		sessions: m,
		codec:    JSON,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NewCollector(),
		title:   "objectmodel",
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tokens == nil {
		h.tokens = token.MustNewService(nil)
	}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("GET "+MetricsPath, h.handleMetrics)
	h.mux.HandleFunc(WSPath, h.handleWebSocket)
	h.mux.HandleFunc("/favicon.ico", http.NotFound)
	h.mux.HandleFunc("/", h.handlePage)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// fromCookie returns the live session named by the signed session cookie.
func (h *Handler) fromCookie(r *http.Request) *session.Session {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	id, err := h.tokens.Verify(c.Value)
	if err != nil {
		h.logger.Debug("session cookie rejected", "error", err)
		return nil
	}
	if s, ok := h.sessions.GetSession(id); ok {
		return s
	}
	return nil
}

// newSession creates a session and, when w is set, hands out its cookie.
func (h *Handler) newSession(w http.ResponseWriter) (*session.Session, error) {
	s, err := h.sessions.CreateSession()
	if err != nil {
		return nil, err
	}
	h.metrics.IncrementCustomCounter("live_sessions")
	if w == nil {
		return s, nil
	}

	tok, err := h.tokens.SessionToken(s.ID)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

func (h *Handler) renderBody(s *session.Session) (string, error) {
	opts := []htmldoc.RenderOption{htmldoc.BodyOnly()}
	if h.minify {
		opts = append(opts, htmldoc.Minified())
	}
	var buf bytes.Buffer
	if err := s.Render(&buf, opts...); err != nil {
		return "", fmt.Errorf("render failed: %w", err)
	}
	return buf.String(), nil
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := h.fromCookie(r)
	if s == nil {
		var err error
		if s, err = h.newSession(w); err != nil {
			h.logger.Error("session creation failed", "error", err)
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	}
	if r.URL.Path != s.Path() {
		s.Navigate(r.URL.Path)
	}
	if r.Method == http.MethodHead {
		return
	}

	body, err := h.renderBody(s)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	connect, err := h.tokens.ConnectToken(s.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Page(h.title, connect, WSPath, body).Render(r.Context(), w); err != nil {
		h.logger.Error("page render failed", "error", err)
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	codec := h.codec
	if name := r.URL.Query().Get("codec"); name != "" {
		c, err := CodecByName(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		codec = c
	}

	s, status, err := h.connect(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.metrics.IncrementCustomCounter("live_connections")
	h.logger.Info("client connected", "remote", conn.RemoteAddr().String(), "session", s.ID, "codec", codec.Name())

	// Send initial body
	if err := h.send(conn, codec, h.update(s, Update{})); err != nil {
		h.logger.Warn("initial send failed", "error", err)
		return
	}

	// message loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", "error", err)
			}
			break
		}
		h.metrics.IncrementCustomCounter("live_messages")

		var msg Message
		if err := codec.Unmarshal(data, &msg); err != nil {
			h.metrics.IncrementCustomCounter("live_errors")
			h.logger.Warn("failed to parse message", "error", err)
			continue
		}

		u := h.update(s, h.apply(s, msg))
		if err := h.send(conn, codec, u); err != nil {
			h.logger.Warn("websocket write failed", "error", err)
			break
		}
	}

	h.logger.Info("client disconnected", "session", s.ID)
}

// connect resolves the session of a WebSocket handshake: the connect token
// in the query, then the cookie, else a new session. A bad connect token is
// refused.
func (h *Handler) connect(r *http.Request) (*session.Session, int, error) {
	if tok := r.URL.Query().Get("session"); tok != "" {
		id, err := h.tokens.Verify(tok)
		if err != nil {
			h.logger.Warn("connect token rejected", "error", err)
			return nil, http.StatusUnauthorized, err
		}
		if s, ok := h.sessions.GetSession(id); ok {
			return s, 0, nil
		}
	} else if s := h.fromCookie(r); s != nil {
		return s, 0, nil
	}

	s, err := h.newSession(nil)
	if err != nil {
		return nil, statusFor(err), err
	}
	return s, 0, nil
}

func statusFor(err error) int {
	if errors.Is(err, memory.ErrOverBudget) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// apply replays msg on the session document.
func (h *Handler) apply(s *session.Session, msg Message) Update {
	var u Update
	switch msg.Kind {
	case KindEvent:
		event := msg.Event
		if event == "" {
			event = "click"
		}
		notPrevented, err := s.Dispatch(msg.Listener, event)
		if err != nil {
			u.Error = err.Error()
		}
		u.Prevented = err == nil && !notPrevented
	case KindNavigate:
		if msg.Path == "" {
			u.Error = "navigate without path"
		} else if msg.Path != s.Path() {
			s.Navigate(msg.Path)
		}
	case KindBack:
		if !s.Go(-1) {
			u.Error = "no history entry"
		}
	case KindForward:
		if !s.Go(1) {
			u.Error = "no history entry"
		}
	default:
		u.Error = fmt.Sprintf("unknown message kind %q", msg.Kind)
	}
	if u.Error != "" {
		h.metrics.IncrementCustomCounter("live_errors")
		h.logger.Debug("message rejected", "kind", msg.Kind, "error", u.Error)
	}
	return u
}

// update fills in the session state of u.
func (h *Handler) update(s *session.Session, u Update) Update {
	u.Session = s.ID
	u.Path = s.Path()
	body, err := h.renderBody(s)
	if err != nil {
		u.Error = err.Error()
		return u
	}
	u.Body = body
	return u
}

func (h *Handler) send(conn *websocket.Conn, codec Codec, u Update) error {
	data, err := codec.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	return conn.WriteMessage(codec.MessageType(), data)
}

// metricsResponse is the JSON body of the metrics endpoint.
type metricsResponse struct {
	Metrics       metrics.ApplicationMetrics `json:"metrics"`
	Counters      map[string]int64           `json:"counters"`
	Sessions      int                        `json:"sessions"`
	Memory        memory.Status              `json:"memory"`
	SkipRate      float64                    `json:"skip_rate"`
	AverageFanOut float64                    `json:"average_fan_out"`
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	resp := metricsResponse{
		Metrics:       h.metrics.GetMetrics(),
		Counters:      h.metrics.GetCustomCounters(),
		Sessions:      h.sessions.Len(),
		Memory:        h.sessions.Memory(),
		SkipRate:      h.metrics.GetSkipRate(),
		AverageFanOut: h.metrics.GetAverageFanOut(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
