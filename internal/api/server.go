// Package api serves the ledger and its reports as JSON over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/report"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

// Config holds the listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// TLS switches the listener to HTTPS when set.
	TLS          *tls.Config
	// CORSOrigins lists the browser origins allowed to call the API; "*"
	// allows any. Empty disables CORS headers.
	CORSOrigins  []string
}

// Server routes /api requests to the ledger and the reporter.
type Server struct {
	ledger   *ledger.Ledger
	reporter *report.Reporter
	router   chi.Router
	http     *http.Server
}

// NewServer wires the routes. Nothing listens until ListenAndServe.
func NewServer(l *ledger.Ledger, r *report.Reporter, cfg Config) *Server {
	s := &Server{
		ledger:   l,
		reporter: r,
	}
	s.router = s.routes(cfg.CORSOrigins)
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		TLSConfig:    cfg.TLS,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if s.http.TLSConfig != nil {
			slog.Info("API server listening", "addr", ln.Addr().String(), "tls", true)
			errCh <- s.http.ServeTLS(ln, "", "")
			return
		}
		slog.Info("API server listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) routes(corsOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Authorization", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.createAccount)
			r.Post("/transfer", s.transfer)
			r.Get("/{id}", s.getAccount)
			r.Put("/{id}", s.updateAccount)
			r.Delete("/{id}", s.deleteAccount)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.listTransactions)
			r.Post("/", s.createTransaction)
			r.Get("/{id}", s.getTransaction)
			r.Put("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", s.stats)
			r.Get("/history", s.history)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Get("/summary", s.categorySummary)
			r.Post("/", s.createCategory)
			r.Delete("/{id}", s.deleteCategory)
		})
	})

	return r
}

// accessLog logs one line per request with slog.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Tally API is running",
	})
}
