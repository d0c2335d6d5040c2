// Package http serves the Telegram webhook, a health probe and the metrics API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/roelfdiedericks/notionvox/internal/gateway"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// DefaultWebhookPath is where Telegram posts updates.
const DefaultWebhookPath = "/webhook"

// maxBodyBytes caps an update body. Updates are small JSON documents.
const maxBodyBytes = 1 << 20

// WebhookHandler is implemented by gateway.Gateway.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, body []byte) gateway.Envelope
	Health() gateway.Envelope
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Listen      string // e.g. ":8080", "127.0.0.1:8080"
	WebhookPath string // default /webhook
	// Secret, when set, must match the X-Telegram-Bot-Api-Secret-Token
	// header Telegram sends with each update.
	Secret string
	// TrustedProxies lists IPs or CIDRs of reverse proxies whose
	// X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []string
}

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	webhook     WebhookHandler
	secret      string
	path        string
	rateLimiter *RateLimiter
	proxies     proxyList
	wg          sync.WaitGroup
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *ServerConfig, webhook WebhookHandler) *Server {
	listen := cfg.Listen
	if listen == "" {
		listen = ":8080"
	}
	path := cfg.WebhookPath
	if path == "" {
		path = DefaultWebhookPath
	}

	s := &Server{
		webhook:     webhook,
		secret:      cfg.Secret,
		path:        path,
		rateLimiter: NewRateLimiter(10 * time.Second),
		proxies:     parseProxies(cfg.TrustedProxies),
	}
	if s.secret == "" {
		L_warn("http: no webhook secret configured, anyone who finds the URL can post updates")
	}

	s.server = &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a voice run (download, transcription, Notion) happens inside the request
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequest, stripHeaders)

	r.Handle(s.path, s.secretToken(http.HandlerFunc(s.handleWebhook))).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics", handleMetricsAPI).Methods(http.MethodGet)
	return r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		L_info("http: server starting", "addr", s.server.Addr, "webhook", s.path)

		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			L_error("http: server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server, waiting for in-flight
// updates until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		L_error("http: shutdown error", "error", err)
		return err
	}

	s.wg.Wait()
	L_info("http: server stopped")
	return nil
}

// logRequest logs every request with its status and duration
func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lw, r)

		L_debug("http: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.statusCode,
			"duration", time.Since(start))
	})
}

// loggingResponseWriter wraps ResponseWriter to capture status code
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.ResponseWriter.WriteHeader(code)
}

// stripHeaders removes fingerprinting headers
func stripHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Server")
		w.Header().Del("X-Powered-By")

		next.ServeHTTP(w, r)
	})
}
