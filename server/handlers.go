package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"syncloop/core/auth"
	"syncloop/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Hub.State())
}

func (h *handler) asset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["path"]
	rc, size, err := h.opts.Assets.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		h.log.Error("asset open failed", zap.String("path", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.ContentType(name))
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("asset copy interrupted", zap.String("path", name), zap.Error(err))
	}
}

// TokenRequest is the body of POST /api/token.
type TokenRequest struct {
	Key string `json:"key"`
}

// TokenResponse carries an asset token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *handler) token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}
	if h.opts.AccessKeyHash == "" || !auth.CheckKey(req.Key, h.opts.AccessKeyHash) {
		h.log.Warn("token request rejected", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Invalid key", http.StatusUnauthorized)
		return
	}

	token, exp, err := h.opts.Issuer.Issue(uuid.New().String())
	if err != nil {
		h.log.Error("issue token", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: exp})
}

// authMiddleware requires a bearer token. With query set, a token query
// parameter is accepted in place of the header.
func (h *handler) authMiddleware(next http.Handler, query bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		var token string
		switch {
		case authHeader != "":
			t, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || t == "" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}
			token = t
		case query && r.URL.Query().Get("token") != "":
			token = r.URL.Query().Get("token")
		default:
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}
		if _, err := h.opts.Issuer.Verify(token); err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
