// Package web provides the HTTP server: the admin JSON API, the import
// endpoints the roster dialog talks to, and the public site pages.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/auth"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Options tunes the HTTP layer. Zero values get sensible defaults.
type Options struct {
	// TrustedProxies are CIDRs whose X-Real-IP / X-Forwarded-For headers
	// are believed.
	TrustedProxies []string

	// RateLimit is requests per RateWindow per client IP. Negative disables
	// limiting. (default: 100/min)
	RateLimit  int
	RateWindow time.Duration

	// RequestTimeout bounds handler time per request. (default: 60s)
	RequestTimeout time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.RateLimit == 0 {
		o.RateLimit = 100
	}
	if o.RateWindow <= 0 {
		o.RateWindow = time.Minute
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 15 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 30 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 60 * time.Second
	}
	return o
}

// Server is the HTTP server for the league management service.
type Server struct {
	svc    *core.Service
	authn  *auth.DiscordAuth
	router *chi.Mux
	server *http.Server
	opts   Options
}

// NewServer wires the router, middleware stack and all routes.
func NewServer(svc *core.Service, authn *auth.DiscordAuth, opts Options) *Server {
	s := &Server{
		svc:    svc,
		authn:  authn,
		router: chi.NewRouter(),
		opts:   opts.withDefaults(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.opts.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.opts.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.opts.RateLimit > 0 {
		limiter := newRateLimiter(s.opts.RateLimit, s.opts.RateWindow)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	staticFS, _ := fs.Sub(staticFiles, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/healthz", s.handleHealth)

	// Public pages
	s.router.Get("/", s.handleHome)
	s.router.Get("/leagues", s.handleLeaguePage)

	// Discord login
	s.router.Get("/auth/login", s.authn.LoginHandler)
	s.router.Get("/auth/callback", s.authn.CallbackHandler)
	s.router.Post("/auth/logout", s.authn.LogoutHandler)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/public/leagues", s.handlePublicLeagues)

		// Everything else requires a login session.
		r.Group(func(r chi.Router) {
			r.Use(s.authn.RequireSession)

			r.Get("/me", s.handleMe)

			r.Route("/leagues", func(r chi.Router) {
				r.Get("/", s.handleListLeagues)
				r.Post("/", s.handleCreateLeague)

				r.Route("/{leagueID}", func(r chi.Router) {
					r.Get("/", s.handleGetLeague)
					r.Put("/", s.handleUpdateLeague)
					r.Delete("/", s.handleDeleteLeague)

					r.Get("/csv-headers", s.handleCSVHeaders)
					r.Get("/csv-example", s.handleCSVExample)

					r.Route("/competitions", func(r chi.Router) {
						r.Get("/", s.handleListCompetitions)
						r.Post("/", s.handleCreateCompetition)
						r.Get("/{competitionID}", s.handleGetCompetition)
						r.Put("/{competitionID}", s.handleUpdateCompetition)
						r.Delete("/{competitionID}", s.handleDeleteCompetition)
					})

					r.Route("/drivers", func(r chi.Router) {
						r.Get("/", s.handleListDrivers)
						r.Post("/", s.handleCreateDriver)
						r.Get("/{driverID}", s.handleGetDriver)
						r.Put("/{driverID}", s.handleUpdateDriver)
						r.Delete("/{driverID}", s.handleDeleteDriver)

						r.Post("/reset", s.handleResetRoster)
						r.Post("/import", s.handleImportRoster)
						r.Post("/import/preview", s.handlePreviewImport)
						r.Get("/export", s.handleExportRoster)
					})

					r.Get("/import/status", s.handleImportStatus)
					r.Delete("/import/status", s.handleAckImport)
				})
			})

			r.Route("/competitions/{competitionID}/seasons", func(r chi.Router) {
				r.Get("/", s.handleListSeasons)
				r.Post("/", s.handleCreateSeason)
				r.Get("/{seasonID}", s.handleGetSeason)
				r.Put("/{seasonID}", s.handleUpdateSeason)
				r.Delete("/{seasonID}", s.handleDeleteSeason)
			})

			r.Get("/site-config", s.handleGetSiteConfig)
			r.Put("/site-config", s.handleUpdateSiteConfig)

			r.Get("/audit-log", s.handleAuditLog)
		})
	})
}

// Start begins listening on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// respondJSON writes v with the given status. Encoding failures are logged;
// the status line is already gone by then.
func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}

// rateLimiter is a token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for two windows.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error:   "Too many requests",
				Message: "Too many requests",
				Action:  "Please wait a moment before trying again",
				Code:    "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
