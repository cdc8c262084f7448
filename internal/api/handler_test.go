package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theopenlane/eushield/internal/cache"
	"github.com/theopenlane/eushield/internal/compliance"
	"github.com/theopenlane/eushield/internal/domain"
	"github.com/theopenlane/eushield/internal/types"
)

// mockAnalyzer returns a fixed scoring result for any page
type mockAnalyzer struct {
	mu      sync.Mutex
	result  types.ScoringResult
	err     error
	calls   atomic.Int32
	lastURL string
	lastDoc compliance.Document
	// release, when set, blocks Run until closed
	release chan struct{}
	started chan struct{}
}

func (m *mockAnalyzer) Run(ctx context.Context, pageURL string, doc compliance.Document) (*compliance.Analysis, error) {
	m.calls.Add(1)

	m.mu.Lock()
	m.lastURL = pageURL
	m.lastDoc = doc
	m.mu.Unlock()

	if m.started != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
	}

	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.err != nil {
		return nil, m.err
	}

	_, hostname, err := domain.Origin(pageURL)
	if err != nil {
		return nil, err
	}

	return &compliance.Analysis{
		Domain:    hostname,
		Detection: types.DetectionResult{Detected: true, Type: types.PageTypePrivacy, URL: pageURL, Text: "text"},
		Scoring:   m.result,
	}, nil
}

// recordingNotifier remembers every notified domain
type recordingNotifier struct {
	mu      sync.Mutex
	domains []string
	err     error
}

func (n *recordingNotifier) NotifyAnalysis(_ context.Context, domain, _ string, _ types.ScoringResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.domains = append(n.domains, domain)

	return n.err
}

// failingStore is a cache whose backend is down
type failingStore struct{}

var errBackendDown = errors.New("backend down")

func (failingStore) Get(context.Context, string) (*types.CachedResult, error) {
	return nil, errBackendDown
}

func (failingStore) Put(context.Context, string, string, types.ScoringResult) error {
	return errBackendDown
}

func (failingStore) Clear(context.Context, string) error { return errBackendDown }

func (failingStore) Close() error { return nil }

// emptyProber finds nothing on any site
type emptyProber struct{}

func (emptyProber) Probe(context.Context, string) []string { return nil }

func greenResult() types.ScoringResult {
	return types.ScoringResult{
		Score:      34,
		Status:     types.StatusGreen,
		Confidence: 25,
		Signals: []types.MatchedSignal{
			{ID: "gdpr_mention", Label: "GDPR Mention", Category: types.CategoryEUPositive, Weight: 6, Description: "d", MatchCount: 1},
		},
		TotalPossibleSignals: 16,
	}
}

func newTestRouter(analyzer Analyzer, store cache.Store, notifier Notifier) http.Handler {
	return NewRouter(RouterConfig{
		Analyzer:    analyzer,
		Store:       store,
		Notifier:    notifier,
		MaxBodySize: 1 << 20,
	})
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	return w
}

func decodeAnalyze(t *testing.T, w *httptest.ResponseRecorder) AnalyzeResponse {
	t.Helper()

	var resp AnalyzeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	return resp
}

func TestHandleHealth(t *testing.T) {
	handler := newTestRouter(&mockAnalyzer{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "healthy" || resp.Service != "eushield" {
		t.Errorf("unexpected health response %+v", resp)
	}
}

func TestPingEndpoint(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for /ping, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleAnalyze_FreshThenCached(t *testing.T) {
	analyzer := &mockAnalyzer{result: greenResult()}
	notifier := &recordingNotifier{}
	store := cache.NewMemoryStore()
	handler := newTestRouter(analyzer, store, notifier)

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://Example.DE/datenschutz"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAnalyze(t, w)
	require.True(t, resp.Success)
	assert.False(t, resp.Data.Cached)
	assert.Equal(t, "example.de", resp.Data.Domain)
	assert.Equal(t, "https://Example.DE/datenschutz", resp.Data.URL)
	assert.Equal(t, 34, resp.Data.Scoring.Score)
	require.NotNil(t, resp.Data.Detection)
	assert.Equal(t, types.PageTypePrivacy, resp.Data.Detection.Type)
	assert.Equal(t, []string{"example.de"}, notifier.domains)

	w = postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/impressum"})
	require.Equal(t, http.StatusOK, w.Code)

	resp = decodeAnalyze(t, w)
	assert.True(t, resp.Data.Cached)
	assert.Equal(t, "https://Example.DE/datenschutz", resp.Data.URL)
	assert.Equal(t, types.StatusGreen, resp.Data.Scoring.Status)
	assert.Equal(t, 16, resp.Data.Scoring.TotalPossibleSignals)
	assert.NotZero(t, resp.Data.Timestamp)
	assert.Nil(t, resp.Data.Detection)

	assert.Equal(t, int32(1), analyzer.calls.Load())
	assert.Len(t, notifier.domains, 1)
}

func TestHandleAnalyze_ParsesHTML(t *testing.T) {
	analyzer := &mockAnalyzer{result: greenResult()}
	handler := newTestRouter(analyzer, nil, nil)

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{
		URL:  "https://example.de/datenschutz",
		HTML: "<html><head><title>Datenschutz</title></head><body><h1>Datenschutzerklärung</h1></body></html>",
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, analyzer.lastDoc)
	assert.Equal(t, "Datenschutz", analyzer.lastDoc.Title())

	w = postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, analyzer.lastDoc)
}

func TestHandleAnalyze_NoPagesFoundIsGrey(t *testing.T) {
	store := cache.NewMemoryStore()
	notifier := &recordingNotifier{}
	handler := newTestRouter(compliance.NewDetector(emptyProber{}, nil), store, notifier)

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://shop.example.com/cart"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAnalyze(t, w)
	require.True(t, resp.Success)
	assert.Equal(t, "no_pages_found", resp.Data.Reason)
	assert.Equal(t, types.StatusGrey, resp.Data.Scoring.Status)
	assert.Zero(t, resp.Data.Scoring.Score)
	assert.Zero(t, resp.Data.Scoring.Confidence)
	assert.Empty(t, resp.Data.Scoring.Signals)
	assert.Equal(t, 16, resp.Data.Scoring.TotalPossibleSignals)

	_, err := store.Get(context.Background(), "example.com")
	assert.ErrorIs(t, err, cache.ErrNotFound, "fallback results are not cached")
	assert.Empty(t, notifier.domains)
}

func TestHandleAnalyze_TimeoutIsGrey(t *testing.T) {
	handler := newTestRouter(&mockAnalyzer{err: context.DeadlineExceeded}, nil, nil)

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.com/"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAnalyze(t, w)
	assert.Equal(t, reasonTimeout, resp.Data.Reason)
	assert.Equal(t, types.StatusGrey, resp.Data.Scoring.Status)
}

func TestHandleAnalyze_CacheFailuresAreNonFatal(t *testing.T) {
	analyzer := &mockAnalyzer{result: greenResult()}
	notifier := &recordingNotifier{err: errors.New("slack down")}
	handler := newTestRouter(analyzer, failingStore{}, notifier)

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAnalyze(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Data.Reason)
	assert.Equal(t, 34, resp.Data.Scoring.Score)
	assert.Equal(t, int32(1), analyzer.calls.Load())
}

func TestHandleAnalyze_InvalidRequests(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"url":`, errCodeInvalidRequest},
		{"unknown field", `{"url":"https://example.de/","tab":1}`, errCodeInvalidRequest},
		{"two objects", `{"url":"https://example.de/"}{"url":"https://example.fr/"}`, errCodeInvalidRequest},
		{"missing url", `{}`, errCodeValidation},
		{"unsupported scheme", `{"url":"ftp://example.de/"}`, errCodeValidation},
		{"no host", `{"url":"https:///path"}`, errCodeValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := &mockAnalyzer{result: greenResult()}
			handler := newTestRouter(analyzer, nil, nil)

			w := postJSON(t, handler, "/api/analyze", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			resp := decodeAnalyze(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
			assert.Zero(t, analyzer.calls.Load())
		})
	}
}

func TestHandleAnalyze_BodyTooLarge(t *testing.T) {
	handler := NewRouter(RouterConfig{Analyzer: &mockAnalyzer{}, MaxBodySize: 16})

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/a-rather-long-path"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAnalyze_NotConfigured(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalyze_SharesInFlightWork(t *testing.T) {
	analyzer := &mockAnalyzer{
		result:  greenResult(),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}

	h := &Handler{analyzer: analyzer, totalPossible: 16}

	const callers = 5

	var wg sync.WaitGroup
	results := make([]*AnalyzeResult, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = h.analyze(context.Background(), "example.de", "https://example.de/", nil)
	}()

	<-analyzer.started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.analyze(context.Background(), "example.de", "https://example.de/", nil)
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(analyzer.release)
	wg.Wait()

	assert.Equal(t, int32(1), analyzer.calls.Load())

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 34, r.Scoring.Score)
	}
}

func TestAnalyze_CancelledCallerDoesNotAbortSharedWork(t *testing.T) {
	analyzer := &mockAnalyzer{
		result:  greenResult(),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}

	h := &Handler{analyzer: analyzer, totalPossible: 16}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	first := make(chan *AnalyzeResult, 1)
	second := make(chan *AnalyzeResult, 1)

	go func() {
		first <- h.analyze(firstCtx, "example.de", "https://example.de/", nil)
	}()

	<-analyzer.started

	go func() {
		second <- h.analyze(context.Background(), "example.de", "https://example.de/", nil)
	}()

	time.Sleep(100 * time.Millisecond)
	cancelFirst()

	select {
	case r := <-first:
		assert.Equal(t, reasonTimeout, r.Reason)
		assert.Equal(t, types.StatusGrey, r.Scoring.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(analyzer.release)

	select {
	case r := <-second:
		assert.Empty(t, r.Reason)
		assert.Equal(t, types.StatusGreen, r.Scoring.Status)
		assert.Equal(t, 34, r.Scoring.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never received the shared result")
	}

	assert.Equal(t, int32(1), analyzer.calls.Load())
}

func TestAnalyze_SharesVerdictAcrossSubdomains(t *testing.T) {
	analyzer := &mockAnalyzer{result: greenResult()}
	store := cache.NewMemoryStore()
	handler := newTestRouter(analyzer, store, nil)

	w := postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://www.example.de/datenschutz"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeAnalyze(t, w).Data.Cached)

	w = postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/impressum"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAnalyze(t, w)
	assert.True(t, resp.Data.Cached)
	assert.Equal(t, "example.de", resp.Data.Domain)
	assert.Equal(t, int32(1), analyzer.calls.Load())

	req := httptest.NewRequest(http.MethodGet, "/api/results/shop.example.de", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleResult(t *testing.T) {
	store := cache.NewMemoryStore()
	handler := newTestRouter(&mockAnalyzer{}, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results/example.de", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errCodeNotFound, decodeAnalyze(t, w).Error.Code)

	require.NoError(t, store.Put(context.Background(), "example.de", "https://example.de/impressum", greenResult()))

	req = httptest.NewRequest(http.MethodGet, "/api/results/Example.DE", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAnalyze(t, w)
	assert.True(t, resp.Data.Cached)
	assert.Equal(t, "https://example.de/impressum", resp.Data.URL)
	assert.Equal(t, greenResult().Signals, resp.Data.Scoring.Signals)
}

func TestHandleResult_InvalidDomain(t *testing.T) {
	handler := newTestRouter(&mockAnalyzer{}, cache.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results/bad%20domain", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRescan(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()

	stale := types.ScoringResult{Score: -16, Status: types.StatusRed, Signals: []types.MatchedSignal{}, TotalPossibleSignals: 16}
	require.NoError(t, store.Put(ctx, "example.de", "https://example.de/terms", stale))

	analyzer := &mockAnalyzer{result: greenResult()}
	handler := newTestRouter(analyzer, store, nil)

	w := postJSON(t, handler, "/api/rescan", RescanRequest{Domain: "Example.DE"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAnalyze(t, w)
	assert.False(t, resp.Data.Cached)
	assert.Equal(t, types.StatusGreen, resp.Data.Scoring.Status)
	assert.Equal(t, "https://example.de/", analyzer.lastURL)
	assert.Nil(t, analyzer.lastDoc)

	cached, err := store.Get(ctx, "example.de")
	require.NoError(t, err)
	assert.Equal(t, types.StatusGreen, cached.Status)
}

func TestHandleRescan_InvalidRequests(t *testing.T) {
	handler := newTestRouter(&mockAnalyzer{}, nil, nil)

	assert.Equal(t, http.StatusBadRequest, postJSON(t, handler, "/api/rescan", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(t, handler, "/api/rescan", `{"domain":"a b"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(t, handler, "/api/rescan", `not json`).Code)
}

func TestFailureReason(t *testing.T) {
	_, err := compliance.NewDetector(emptyProber{}, nil).Run(context.Background(), "https://example.com/cart", nil)
	require.Error(t, err)

	assert.Equal(t, "no_pages_found", failureReason(err))
	assert.Equal(t, reasonTimeout, failureReason(context.Canceled))
	assert.Equal(t, reasonInternal, failureReason(errors.New("boom")))
}
