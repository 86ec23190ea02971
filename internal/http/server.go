// Package http serves the web UI: the ingestion form, the report page,
// and the assistant chat.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	appweb "fintrack/web"
)

// TransactionReader is the storage surface the handlers read from.
type TransactionReader interface {
	ListAll(ctx context.Context) ([]core.Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]core.Transaction, error)
}

// TransactionWriter ingests and deletes transactions.
type TransactionWriter interface {
	Create(ctx context.Context, tx core.Transaction) (string, error)
	Delete(ctx context.Context, id string) error
}

// Assistant answers chat questions.
type Assistant interface {
	Answer(ctx context.Context, question string) (string, error)
}

type Server struct {
	http.Server
	templates   *template.Template
	reader      TransactionReader
	writer      TransactionWriter
	assistant   Assistant
	rateLimiter *rateLimiter
	logger      *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. The assistant may be nil; the chat page then reports that
// it is unavailable.
func NewServer(addr string, reader TransactionReader, writer TransactionWriter, assistant Assistant, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		reader:      reader,
		writer:      writer,
		assistant:   assistant,
		rateLimiter: newRateLimiter(),
		logger:      logger.WithComponent(applog.ComponentHTTP),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Error("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.withSecurity(s.handleIndex))
	mux.HandleFunc("POST /{$}", s.withSecurity(s.handleCreate))
	mux.HandleFunc("POST /transactions/{id}/delete", s.withSecurity(s.handleDelete))
	mux.HandleFunc("GET /report", s.withSecurity(s.handleReport))
	mux.HandleFunc("GET /api/report", s.withSecurity(s.handleAPIReport))
	mux.HandleFunc("GET /chat", s.withSecurity(s.handleChatPage))
	mux.HandleFunc("POST /chat", s.withSecurity(s.handleChatAsk))
	mux.HandleFunc("GET /healthz", handleHealth)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurity adds security headers and rate limits mutating requests.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientAddr(r)) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// report builds the full analytics result from the current live set.
func (s *Server) report(ctx context.Context) (*analytics.Result, error) {
	txs, err := s.reader.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Analyze(analytics.FromTransactions(txs))
}
