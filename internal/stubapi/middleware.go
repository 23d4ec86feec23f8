package stubapi

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"admitcrm/internal/crm"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	currentUserKey
)

func recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						"method", r.Method,
					)
					writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestID echoes the client's X-Request-ID or mints one, so stub logs can
// be correlated with the client's gateway logs.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			id, _ := r.Context().Value(requestIDKey).(string)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", id,
				"client", clientLabel(r.UserAgent()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// clientLabel turns a User-Agent header into "Browser on OS" for the request
// log.
func clientLabel(uaString string) string {
	if uaString == "" {
		return "unknown"
	}
	ua := useragent.New(uaString)
	browser, _ := ua.Browser()
	os := ua.OS()
	if browser == "" {
		browser = "unknown"
	}
	if os == "" {
		return browser
	}
	return browser + " on " + os
}

// authenticate verifies the bearer access token and loads the user into the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := s.tokens.Verify(token, tokenTypeAccess)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		user, ok := s.data.UserByID(claims.UserID)
		if !ok || !user.IsActive {
			writeError(w, http.StatusUnauthorized, "unauthorized", "account disabled")
			return
		}
		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) crm.User {
	user, _ := r.Context().Value(currentUserKey).(crm.User)
	return user
}
