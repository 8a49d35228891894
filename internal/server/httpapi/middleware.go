package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"coursemarket/internal/shared/models"
)

type contextKey string

const callerContextKey contextKey = "caller"

// caller is the verified identity attached to an authenticated request.
type caller struct {
	UserID string
	Role   models.Role
}

// authMiddleware reads the Authorization header, verifies the bearer token
// and attaches the caller's identity to the request context.
func (r *Router) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		authz := req.Header.Get("Authorization")
		if authz == "" {
			r.writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		if !strings.HasPrefix(authz, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")) == "" {
			r.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		claims, err := r.services.Auth.ParseToken(req.Context(), token)
		if err != nil {
			r.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(req.Context(), callerContextKey, caller{UserID: claims.Subject, Role: claims.Role})
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requireRole rejects callers whose role is not exactly the expected one.
// One role per guard; there is no "any of" form.
func (r *Router) requireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			c := callerFrom(req.Context())
			if c.Role != role {
				r.writeError(w, http.StatusForbidden, strings.ToLower(string(role))+" role required")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func callerFrom(ctx context.Context) caller {
	if v := ctx.Value(callerContextKey); v != nil {
		if c, ok := v.(caller); ok {
			return c
		}
	}
	return caller{}
}

// recoverer converts a handler panic into the uniform 500 envelope.
func (r *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if r.logger != nil {
					r.logger.Printf("panic serving %s %s: %v", req.Method, req.URL.Path, rec)
				}
				r.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// metricsMiddleware records request count and latency per route pattern.
func (r *Router) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		route := chi.RouteContext(req.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		r.collector.RecordRequest(req.Method, route, ww.Status(), time.Since(start))
	})
}
