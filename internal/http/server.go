package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	applog "mayfinance/internal/log"
	"mayfinance/internal/middleware/ratelimit"
	"mayfinance/internal/middleware/security"
	"mayfinance/internal/middleware/trace"
	"mayfinance/internal/session"
	appweb "mayfinance/web"
)

// Options configures NewServer. Zero values pick the defaults.
type Options struct {
	Logger             *applog.Logger
	MaxUploadBytes     int64
	RateLimitPerMinute int
	Ready              func(ctx context.Context) error
	Settings           Settings
}

// Settings is what the settings page reports about the running instance.
type Settings struct {
	Backend       string
	OCREngine     string
	EventsEnabled bool
	SheetsEnabled bool
	SessionTTL    time.Duration
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *session.Manager
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	logger    *applog.Logger
	events    *applog.StructuredLogger
	maxUpload int64
	ready     func(ctx context.Context) error
	settings  Settings
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(addr string, sessions *session.Manager, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Ready == nil {
		opts.Ready = func(context.Context) error { return nil }
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		templates: t,
		sessions:  sessions,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:    trace.NewMiddleware(opts.Logger, ratelimit.ClientIP),
		logger:    logger,
		events:    applog.NewStructuredLogger(opts.Logger),
		maxUpload: opts.MaxUploadBytes,
		ready:     opts.Ready,
		settings:  opts.Settings,
		started:   time.Now(),
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	pages := http.NewServeMux()
	pages.HandleFunc("GET /{$}", s.withSession(s.handleDashboard))
	pages.HandleFunc("GET /transactions/new", s.withSession(s.handleNewTransaction))
	pages.HandleFunc("POST /transactions", s.withSession(s.handleCreateTransaction))
	pages.HandleFunc("POST /transactions/delete", s.withSession(s.handleDeleteTransaction))
	pages.HandleFunc("DELETE /transactions/delete", s.withSession(s.handleDeleteTransaction))
	pages.HandleFunc("GET /transactions/{id}/receipt", s.withSession(s.handleReceipt))
	pages.HandleFunc("GET /scan", s.withSession(s.handleScanPage))
	pages.HandleFunc("POST /scan", s.withSession(s.handleScanUpload))
	pages.HandleFunc("POST /scan/confirm", s.withSession(s.handleScanConfirm))
	pages.HandleFunc("GET /report", s.withSession(s.handleReport))
	pages.HandleFunc("GET /export.csv", s.withSession(s.handleExportCSV))
	pages.HandleFunc("POST /export/sheets", s.withSession(s.handleExportSheets))
	pages.HandleFunc("GET /settings", s.withSession(s.handleSettings))
	pages.HandleFunc("POST /ledger/reset", s.withSession(s.handleReset))

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, ratelimit.ClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Too many requests, please try again later.").Write(w)
	}
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	mux.Handle("/", headers.Middleware(security.NoStore(s.limiter.Middleware(ratelimit.ClientIP, onLimit)(pages))))

	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown stops the limiter janitor and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// sessionHandler is a handler that runs against the caller's session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Resolve(w, r)
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to open session", applog.FieldError, err)
			InternalServerError("Could not open your ledger.").Write(w)
			return
		}
		logger := applog.FromContext(r.Context()).With(applog.FieldSessionID, sess.ID)
		next(w, r.WithContext(applog.WithLogger(r.Context(), logger)), sess)
	}
}
