// Package server exposes loop assets over HTTP and a live status feed over
// websockets.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"syncloop/core/auth"
)

// Options selects the routes a server exposes. Nil parts are left out.
type Options struct {
	Assets Backend
	// Issuer, when set, protects /assets and the status routes and enables
	// /api/token.
	Issuer        *auth.Issuer
	AccessKeyHash string
	Hub           *Hub
	Log           *zap.Logger
}

type handler struct {
	opts Options
	log  *zap.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(opts Options) *mux.Router {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{opts: opts, log: log.Named("http")}

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	protect := func(next http.Handler, query bool) http.Handler {
		if opts.Issuer == nil {
			return next
		}
		return h.authMiddleware(next, query)
	}
	if opts.Issuer != nil && (opts.Assets != nil || opts.Hub != nil) {
		router.HandleFunc("/api/token", h.token).Methods(http.MethodPost)
	}

	if opts.Assets != nil {
		router.Handle("/assets/{path:.+}", protect(http.HandlerFunc(h.asset), false)).Methods(http.MethodGet, http.MethodHead)
	}
	if opts.Hub != nil {
		// browsers cannot set headers on a websocket handshake
		router.Handle("/ws/status", protect(opts.Hub, true)).Methods(http.MethodGet)
		router.Handle("/api/status", protect(http.HandlerFunc(h.status), false)).Methods(http.MethodGet)
	}
	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
