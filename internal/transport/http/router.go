package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"valuation-service/internal/app"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	// Metrics serves GET /metrics when set, typically promhttp.HandlerFor.
	Metrics http.Handler
}

// NewRouter wires the REST API, the live preview websocket and health checks.
func NewRouter(service *app.AssessmentService, opts RouterOptions) http.Handler {
	h := NewHandler(service)
	ws := NewWSHandler(service)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", AccessKeyHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Get("/ws/preview", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/questionnaire", h.questionnaire)
		r.Get("/s2d", h.s2dBattery)
		r.Post("/preview", h.preview)
		r.Post("/continuations", h.requestContinuationByEmail)
		r.Post("/continuations/verify", h.verifyContinuation)

		r.Route("/assessments", func(r chi.Router) {
			r.Post("/", h.start)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.requireAccess)
				r.Get("/", h.get)
				r.Put("/answers", h.saveProgress)
				r.Post("/submit", h.submit)
				r.Post("/continuation", h.requestContinuation)
				r.Post("/s2d", h.submitS2D)
			})
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
