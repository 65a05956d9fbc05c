// Package dashboard serves the signed-in landing page API on top of an Authenticator.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-utils-authsession"
	"github.com/gin-gonic/gin"
)

const defaultStatsInterval = 30 * time.Second

// DefaultPortals lists the destinations linked from the dashboard.
func DefaultPortals() []authsession.Portal {
	return []authsession.Portal{
		{Name: "notify", URL: "https://notify.slider.cloud/"},
		{Name: "whisper", URL: "https://whisper.slider.cloud/"},
		{Name: "wof", URL: "https://wof.slider.cloud/"},
		{Name: "admin", URL: "https://admin.slider.cloud/", AdminOnly: true},
	}
}

// Options configures a Server.
type Options struct {
	Portals       []authsession.Portal
	StatsInterval time.Duration
	Logger        *slog.Logger
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
	// RandIntN overrides the stats generator; nil uses math/rand/v2.
	RandIntN func(int) int
	// SecureCookies marks cookies Secure even on plain HTTP, for TLS-terminating proxies.
	SecureCookies bool
}

// Server exposes the dashboard routes for a single Authenticator.
type Server struct {
	auth     *authsession.Authenticator
	engine   *gin.Engine
	logger   *slog.Logger
	portals  []authsession.Portal
	byName   map[string]authsession.Portal
	stats    *statsBoard
	interval time.Duration

	secureCookies bool

	mu        sync.Mutex
	statsTask *authsession.Task
}

// New builds the gin engine and registers every route.
func New(auth *authsession.Authenticator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	portals := opts.Portals
	if len(portals) == 0 {
		portals = DefaultPortals()
	}
	interval := opts.StatsInterval
	if interval <= 0 {
		interval = defaultStatsInterval
	}
	s := &Server{
		auth:     auth,
		logger:   logger.With("component", "dashboard"),
		portals:  portals,
		byName:   make(map[string]authsession.Portal, len(portals)),
		stats:    newStatsBoard(opts.RandIntN),
		interval: interval,

		secureCookies: opts.SecureCookies,
	}
	for _, p := range portals {
		s.byName[p.Name] = p
	}

	r := gin.New()
	r.SetHTMLTemplate(callbackTemplate)
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(bindSession(auth))
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	s.registerRoutes(r)
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// StartStats begins refreshing portal stats unless a refresher is already
// running. Logout cancels it through the Authenticator's scheduler.
func (s *Server) StartStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statsTask != nil && !s.statsTask.Cancelled() {
		return
	}
	s.stats.refresh(time.Now())
	s.statsTask = s.auth.Scheduler().Every(s.interval, func() {
		s.stats.refresh(time.Now())
	})
}

func (s *Server) statsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsTask != nil && !s.statsTask.Cancelled()
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.auth.Scheduler().CancelAll()
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutdown initiated")
	s.auth.Scheduler().CancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
