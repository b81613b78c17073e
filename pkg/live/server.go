package live

import (
	"context"
	stderrors "errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/binding/handlers"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/telemetry"
)

// Config configures a Server.
type Config struct {
	// Template is the markup of the page root. It must contain an element.
	Template string

	// Model is the initial view model. Every session binds its own copy.
	Model map[string]any

	// Title is the page title (default: "bindkit").
	Title string

	// Components resolves the component binding. If nil, an empty registry
	// is used.
	Components *component.Registry

	// Prefix is the binding attribute prefix (default: "bind-").
	Prefix string

	// IgnoredTags replaces the tags the walker skips when non-nil.
	IgnoredTags []string

	// Metrics enables the metrics endpoint and binding metrics.
	Metrics bool

	// Namespace is the metrics namespace (default: "bindkit").
	Namespace string

	// MetricsPath is the metrics route (default: "/metrics").
	MetricsPath string

	// Registry collects the metrics. If nil, a fresh registry is created.
	Registry *prometheus.Registry

	// Logger is the server logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// CheckOrigin validates the websocket Origin header. If nil, every
	// origin is accepted.
	CheckOrigin func(*http.Request) bool

	// ReadHeaderTimeout bounds request header reads in Run.
	ReadHeaderTimeout time.Duration

	// ReadTimeout is the maximum idle time between client messages.
	// Zero means no limit.
	ReadTimeout time.Duration

	// WriteTimeout bounds each websocket write (default: 10s).
	WriteTimeout time.Duration

	// MaxMessageSize is the largest accepted client message (default: 64KB).
	MaxMessageSize int64
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	return Config{
		Title:             "bindkit",
		Metrics:           true,
		Namespace:         "bindkit",
		MetricsPath:       "/metrics",
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxMessageSize:    64 * 1024,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Namespace == "" {
		c.Namespace = d.Namespace
	}
	if c.MetricsPath == "" {
		c.MetricsPath = d.MetricsPath
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.Components == nil {
		c.Components = component.NewRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// Server serves a bound page and its websocket sessions.
type Server struct {
	config   Config
	handlers *binding.Registry
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// New creates a Server. The template is parsed once up front so a broken
// page fails here rather than on the first request.
func New(config Config) (*Server, error) {
	config.applyDefaults()
	if _, err := dom.ParseElement(config.Template); err != nil {
		return nil, errors.New(errors.CodeInvalidRoot).
			WithDetail("live page template has no root element").
			Wrap(err)
	}

	reg := binding.NewRegistry()
	if err := handlers.Register(reg, config.Components); err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		handlers: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:   config.Logger.With("component", "live"),
		sessions: make(map[*Session]struct{}),
	}
	if config.Metrics {
		if s.config.Registry == nil {
			s.config.Registry = prometheus.NewRegistry()
		}
		s.metrics = telemetry.NewMetrics(
			telemetry.WithRegistry(s.config.Registry),
			telemetry.WithNamespace(config.Namespace),
		)
	}
	return s, nil
}

// Metrics returns the server metrics, or nil when disabled.
func (s *Server) Metrics() *telemetry.Metrics {
	return s.metrics
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.config.Registry != nil && s.metrics != nil {
		r.Method(http.MethodGet, s.config.MetricsPath,
			promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Run listens on addr until ctx is canceled, then closes every session and
// shuts the listener down.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close sends a close frame to every open session.
func (s *Server) Close() {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		sess.Close()
	}
}

// bind parses a fresh copy of the page and binds model to it.
func (s *Server) bind(model *Model) (*binding.Engine, *html.Node, error) {
	root, err := dom.ParseElement(s.config.Template)
	if err != nil {
		return nil, nil, err
	}
	opts := []binding.Option{
		binding.WithRegistry(s.handlers),
		binding.WithPrefix(s.config.Prefix),
		binding.WithLogger(s.logger),
		binding.WithMetrics(s.metrics),
	}
	if s.config.IgnoredTags != nil {
		opts = append(opts, binding.WithIgnoredTags(s.config.IgnoredTags...))
	}
	engine := binding.New(opts...)
	if err := engine.ApplyBindings(model.Data(), root); err != nil {
		return nil, nil, err
	}
	return engine, root, nil
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="bindkit-root">{{.Body}}</div>
<script>
(function () {
  var root = document.getElementById("bindkit-root");
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(scheme + location.host + {{.Socket}});
  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type === "render") root.innerHTML = msg.html;
    if (msg.type === "error") console.error(msg.error);
  };
  window.bindkit = {
    send: function (op, key, value) {
      ws.send(JSON.stringify({op: op, key: key, value: value}));
    }
  };
})();
</script>
</body>
</html>
`))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	model := NewModel(s.config.Model)
	defer model.Dispose()

	engine, root, err := s.bind(model)
	if err != nil {
		s.logger.Error("bind failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		http.Error(w, "bind failed", http.StatusInternalServerError)
		return
	}
	defer engine.CleanNode(root)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = page.Execute(w, struct {
		Title  string
		Body   template.HTML
		Socket string
	}{
		Title:  s.config.Title,
		Body:   template.HTML(dom.Render(root)),
		Socket: "/ws",
	})
	if err != nil {
		s.logger.Error("page render failed", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sess, err := newSession(s, conn)
	if err != nil {
		s.logger.Error("session bind failed", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "bind failed"),
			time.Now().Add(s.config.WriteTimeout))
		conn.Close()
		return
	}

	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	sess.ReadLoop()
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}
