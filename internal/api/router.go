package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theopenlane/eushield/internal/cache"
	"github.com/theopenlane/eushield/internal/scoring"
)

// defaultRequestTimeout bounds every request when no analyze timeout is configured
const defaultRequestTimeout = 60 * time.Second

// RouterConfig holds the collaborators of the API router
type RouterConfig struct {
	// Analyzer runs the detection pipeline; analyze routes answer 503 without it
	Analyzer Analyzer
	// Store caches verdicts per domain; nil disables caching
	Store cache.Store
	// Notifier is told about fresh analyses; nil disables notifications
	Notifier Notifier
	// TotalPossibleSignals is reported with fallback and cached results
	TotalPossibleSignals int
	// MaxBodySize bounds request bodies in bytes
	MaxBodySize int64
	// AnalyzeTimeout bounds one analysis
	AnalyzeTimeout time.Duration
}

// NewRouter creates a new chi router with all endpoints and middleware
func NewRouter(cfg RouterConfig) http.Handler {
	total := cfg.TotalPossibleSignals
	if total <= 0 {
		total = scoring.Default().TotalPossibleSignals()
	}

	h := &Handler{
		analyzer:       cfg.Analyzer,
		store:          cfg.Store,
		notifier:       cfg.Notifier,
		maxBodySize:    cfg.MaxBodySize,
		analyzeTimeout: cfg.AnalyzeTimeout,
		totalPossible:  total,
		metrics:        newMetrics(),
	}

	requestTimeout := defaultRequestTimeout
	if cfg.AnalyzeTimeout > 0 {
		requestTimeout = cfg.AnalyzeTimeout + 5*time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Heartbeat("/ping"))

	// the browser add-on calls from extension origins
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	r.Handle("/metrics", h.metrics.handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/analyze", h.handleAnalyze)
		r.Get("/results/{domain}", h.handleResult)
		r.Post("/rescan", h.handleRescan)
		r.Post("/messages", h.handleMessage)
	})

	return r
}
