package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"coursemarket/internal/server/config"
	"coursemarket/internal/server/metrics"
	"coursemarket/internal/server/service"
	"coursemarket/internal/shared/models"
)

type Router struct {
	services        *service.Services
	logger          *log.Logger
	maxRequestBytes int64
	collector       *metrics.Collector
}

// NewRouter builds the HTTP surface. Every request flows
// identify -> authorize -> validate -> service -> respond, and every failure
// ends in the JSON error envelope.
func NewRouter(services *service.Services, logger *log.Logger, cfg config.Config, reg *prometheus.Registry) http.Handler {
	r := &Router{services: services, logger: logger, maxRequestBytes: cfg.MaxRequestBytes}

	mux := chi.NewRouter()
	mux.Use(r.recoverer)
	if reg != nil {
		r.collector = metrics.NewCollector(reg)
		mux.Use(r.metricsMiddleware)
		mux.Method(http.MethodGet, "/metrics", metrics.Handler(reg))
	}

	mux.Get("/health", r.handleHealth)
	mux.Get("/swagger.yaml", r.handleSwagger)

	mux.Group(func(pub chi.Router) {
		if cfg.AuthRatePerMin > 0 {
			pub.Use(newAuthLimiter(cfg.AuthRatePerMin).middleware)
		}
		pub.Post("/api/v1/auth/signup", r.handleSignup)
		pub.Post("/api/v1/auth/login", r.handleLogin)
	})

	mux.Get("/api/v1/courses", r.handleListCourses)
	mux.Get("/api/v1/courses/{id}", r.handleGetCourse)
	mux.Get("/api/v1/courses/{id}/lessons", r.handleListLessons)

	mux.Group(func(pr chi.Router) {
		pr.Use(r.authMiddleware)
		pr.Get("/api/v1/me", r.handleMe)
		pr.Get("/api/v1/users/{id}/purchases", r.handleListPurchases)

		pr.Group(func(ir chi.Router) {
			ir.Use(r.requireRole(models.RoleInstructor))
			ir.Post("/api/v1/courses", r.handleCreateCourse)
			ir.Patch("/api/v1/courses/{id}", r.handleUpdateCourse)
			ir.Delete("/api/v1/courses/{id}", r.handleDeleteCourse)
			ir.Post("/api/v1/lessons", r.handleCreateLesson)
		})

		pr.Group(func(sr chi.Router) {
			sr.Use(r.requireRole(models.RoleStudent))
			sr.Post("/api/v1/purchases", r.handleCreatePurchase)
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, bounded by the configured
// request size limit. Returns an error already mapped to a user message.
func (r *Router) decodeJSON(w http.ResponseWriter, req *http.Request, v any) bool {
	if r.maxRequestBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.maxRequestBytes)
	}
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			r.writeError(w, http.StatusRequestEntityTooLarge, "request entity too large")
			return false
		}
		r.writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
