// Package api provides the HTTP surface of the eushield analysis service
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/theopenlane/eushield/internal/cache"
	"github.com/theopenlane/eushield/internal/compliance"
	"github.com/theopenlane/eushield/internal/document"
	"github.com/theopenlane/eushield/internal/domain"
	"github.com/theopenlane/eushield/internal/types"
)

// Analyzer runs the detection and scoring pipeline for a page
type Analyzer interface {
	Run(ctx context.Context, pageURL string, doc compliance.Document) (*compliance.Analysis, error)
}

// Notifier is told about every fresh analysis
type Notifier interface {
	NotifyAnalysis(ctx context.Context, domain, analyzedURL string, result types.ScoringResult) error
}

// Handler manages API endpoints
type Handler struct {
	analyzer       Analyzer
	store          cache.Store
	notifier       Notifier
	maxBodySize    int64
	analyzeTimeout time.Duration
	totalPossible  int
	inflight       singleflight.Group
	metrics        *metrics
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// AnalyzeRequest asks for the page at URL to be analyzed. HTML is the
// rendered page when the caller has it.
type AnalyzeRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

// RescanRequest invalidates and re-analyzes a domain
type RescanRequest struct {
	Domain string `json:"domain"`
}

// AnalyzeResult is the verdict for one domain
type AnalyzeResult struct {
	Domain string `json:"domain"`
	// URL is the page the verdict was computed for
	URL    string `json:"url"`
	Cached bool   `json:"cached"`
	// Reason is set when the pipeline failed and Scoring is the grey fallback
	Reason    string                 `json:"reason,omitempty"`
	Detection *types.DetectionResult `json:"detection,omitempty"`
	Scoring   types.ScoringResult    `json:"scoring"`
	// Timestamp is the unix milliseconds the result was stored at, for cached results
	Timestamp int64 `json:"timestamp,omitempty"`
}

// AnalyzeResponse is the API response envelope
type AnalyzeResponse struct {
	Success bool           `json:"success"`
	Data    *AnalyzeResult `json:"data,omitempty"`
	Error   *Error         `json:"error,omitempty"`
}

// handleHealth returns service health status
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "eushield",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleAnalyze returns the cached verdict for the page's domain or runs a fresh analysis
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, ErrAnalyzerNotConfigured.Error())
		return
	}

	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var req AnalyzeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errCodeInvalidRequest, ErrInvalidRequestBody.Error())
		return
	}

	if req.URL == "" {
		respondError(w, http.StatusBadRequest, errCodeValidation, ErrURLRequired.Error())
		return
	}

	_, hostname, err := domain.Origin(req.URL)
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation, err.Error())
		return
	}

	if cached := h.lookup(r.Context(), hostname); cached != nil {
		writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Data: cached})
		return
	}

	var doc compliance.Document

	if req.HTML != "" {
		page, err := document.Parse(req.HTML)
		if err != nil {
			log.Warn().Err(err).Str("url", req.URL).Msg("ignoring unparseable page html")
		} else {
			doc = page
		}
	}

	result := h.analyze(r.Context(), hostname, req.URL, doc)

	writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Data: result})
}

// handleResult returns the stored verdict for a domain
func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	name, err := domain.Normalize(chi.URLParam(r, "domain"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation, err.Error())
		return
	}

	cached := h.lookup(r.Context(), name)
	if cached == nil {
		respondError(w, http.StatusNotFound, errCodeNotFound, ErrResultNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Data: cached})
}

// handleRescan drops the stored verdict for a domain and analyzes its home page again
func (h *Handler) handleRescan(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, ErrAnalyzerNotConfigured.Error())
		return
	}

	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var req RescanRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errCodeInvalidRequest, ErrInvalidRequestBody.Error())
		return
	}

	if req.Domain == "" {
		respondError(w, http.StatusBadRequest, errCodeValidation, ErrDomainRequired.Error())
		return
	}

	name, err := domain.Normalize(req.Domain)
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Data: h.rescan(r.Context(), name)})
}

// rescan clears the stored verdict and analyzes the domain's home page
func (h *Handler) rescan(ctx context.Context, name string) *AnalyzeResult {
	if h.store != nil {
		if err := h.store.Clear(ctx, domain.SiteKey(name)); err != nil {
			log.Warn().Err(err).Str("domain", name).Msg("failed to clear cached result")
		}
	}

	return h.analyze(ctx, name, "https://"+name+"/", nil)
}

// lookup returns the fresh stored verdict for hostname's site, or nil. Cache
// failures are logged and treated as a miss.
func (h *Handler) lookup(ctx context.Context, hostname string) *AnalyzeResult {
	if h.store == nil {
		return nil
	}

	cached, err := h.store.Get(ctx, domain.SiteKey(hostname))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			h.metrics.observeLookup(lookupMiss)
		} else {
			h.metrics.observeLookup(lookupError)
			log.Warn().Err(err).Str("domain", hostname).Msg("cache lookup failed")
		}

		return nil
	}

	h.metrics.observeLookup(lookupHit)

	return &AnalyzeResult{
		Domain:    cached.Domain,
		URL:       cached.AnalyzedURL,
		Cached:    true,
		Scoring:   h.scoringFromCache(cached),
		Timestamp: cached.Timestamp,
	}
}

// analyze runs the pipeline once per site at a time; concurrent callers for
// the same site share the result. The shared run is detached from any one
// caller's cancellation and bounded by the analyze timeout instead, while each
// caller stops waiting when its own context ends. Failures resolve to the grey
// fallback.
func (h *Handler) analyze(ctx context.Context, hostname, pageURL string, doc compliance.Document) *AnalyzeResult {
	detached := context.WithoutCancel(ctx)

	ch := h.inflight.DoChan(domain.SiteKey(hostname), func() (any, error) {
		return h.runAnalysis(detached, hostname, pageURL, doc), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			log.Debug().Str("domain", hostname).Msg("joined in-flight analysis")
		}

		result := *res.Val.(*AnalyzeResult)

		return &result
	case <-ctx.Done():
		log.Debug().Err(ctx.Err()).Str("domain", hostname).Msg("caller stopped waiting for analysis")

		return &AnalyzeResult{
			Domain:  hostname,
			URL:     pageURL,
			Reason:  reasonTimeout,
			Scoring: compliance.FallbackResult(h.totalPossible),
		}
	}
}

func (h *Handler) runAnalysis(ctx context.Context, hostname, pageURL string, doc compliance.Document) *AnalyzeResult {
	if h.analyzeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.analyzeTimeout)
		defer cancel()
	}

	started := time.Now()

	analysis, err := h.analyzer.Run(ctx, pageURL, doc)
	if err != nil {
		reason := failureReason(err)
		h.metrics.observeFallback(reason, started)

		log.Error().Err(err).Str("domain", hostname).Str("reason", reason).Msg("analysis failed, reporting grey")

		return &AnalyzeResult{
			Domain:  hostname,
			URL:     pageURL,
			Reason:  reason,
			Scoring: compliance.FallbackResult(h.totalPossible),
		}
	}

	h.metrics.observeAnalysis(analysis.Scoring.Status, started)

	analyzedURL := analysis.Detection.URL

	if h.store != nil {
		if err := h.store.Put(ctx, domain.SiteKey(analysis.Domain), analyzedURL, analysis.Scoring); err != nil {
			log.Warn().Err(err).Str("domain", analysis.Domain).Msg("failed to cache result")
		}
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyAnalysis(ctx, analysis.Domain, analyzedURL, analysis.Scoring); err != nil {
			log.Error().Err(err).Str("domain", analysis.Domain).Msg("slack notification failed")
		}
	}

	detection := analysis.Detection

	return &AnalyzeResult{
		Domain:    analysis.Domain,
		URL:       analyzedURL,
		Detection: &detection,
		Scoring:   analysis.Scoring,
	}
}

// failureReason maps a pipeline error to the reason reported with the fallback
func failureReason(err error) string {
	var detectionErr *compliance.DetectionError

	switch {
	case errors.As(err, &detectionErr):
		return detectionErr.Reason
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return reasonTimeout
	default:
		return reasonInternal
	}
}

func (h *Handler) scoringFromCache(c *types.CachedResult) types.ScoringResult {
	return types.ScoringResult{
		Score:                c.Score,
		Status:               c.Status,
		Confidence:           c.Confidence,
		Signals:              c.Signals,
		TotalPossibleSignals: h.totalPossible,
	}
}
