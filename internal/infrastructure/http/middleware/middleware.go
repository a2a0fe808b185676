// Package middleware provides Chi-compatible middleware for the API server
package middleware

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/user"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
)

type contextKey string

const userKey contextKey = "user"

// Logger creates a Chi-compatible logging middleware
func Logger(logger *zap.Logger, skipPaths ...string) func(next http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			if _, ok := skip[r.URL.Path]; ok {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case status >= 500:
				logger.Error("Server error", fields...)
			case status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("API Request", fields...)
			}
		})
	}
}

// Security adds security headers for API responses
func Security() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the configured origins. An empty list or "*" allows any origin.
func CORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[origin]; ok || allowAll {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Compress negotiates brotli or gzip for JSON responses
func Compress(level int) func(next http.Handler) http.Handler {
	c := chimiddleware.NewCompressor(level, "application/json", "text/plain")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c.Handler
}

// JSONOnly rejects request bodies that are not JSON
func JSONOnly() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if (r.Method == http.MethodPost || r.Method == http.MethodPatch) && r.ContentLength > 0 {
				if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnsupportedMediaType)
					_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST","message":"Content-Type must be application/json"}}`))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate resolves an optional bearer token to a user. Invalid tokens are
// treated as anonymous; routes that need a user check UserFromContext.
func Authenticate(auth inbound.AuthService, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			u, err := auth.CurrentUser(r.Context(), token)
			if err != nil {
				logger.Debug("Ignoring invalid token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

// BearerToken extracts the token of an Authorization: Bearer header
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey).(*user.User)
	return u
}
