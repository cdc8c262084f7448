package compliance

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	// defaultProbeTimeout is the per-path deadline; a slow path never delays the others past it
	defaultProbeTimeout = 3 * time.Second
	// defaultProbeThreads controls concurrent probe workers
	defaultProbeThreads = 8
	// minBodyLength is the shortest body, in characters, considered meaningful legal text
	minBodyLength = 100
	// htmlContentType must appear in the response content type
	htmlContentType = "text/html"
)

// KnownPaths are the well-known legal and company information paths probed on every site
var KnownPaths = []string{
	// company information
	"/about",
	"/about-us",
	"/company",
	"/contact",
	"/impressum",
	"/ueber-uns",
	// legal
	"/terms",
	"/tos",
	"/privacy",
	"/privacy-policy",
	"/legal",
	"/legal-notice",
	"/cookie-policy",
	"/agb",
	"/datenschutz",
	"/cgv",
	"/aviso-legal",
	"/informativa-privacy",
	// localized
	"/en/about",
	"/en/terms",
	"/en/privacy",
	"/en/legal",
	"/de/impressum",
	"/de/datenschutz",
	"/de/ueber-uns",
	"/fr/mentions-legales",
	"/fr/politique-de-confidentialite",
	"/es/aviso-legal",
	"/es/politica-de-privacidad",
	"/it/informativa-privacy",
}

// PageProber collects normalized text from well-known paths of a site
type PageProber interface {
	// Probe returns the texts of every path that yielded usable HTML, in path order
	Probe(ctx context.Context, origin string) []string
}

// Options configures probing behavior
type Options struct {
	probeTimeout time.Duration
	probeThreads int
	paths        []string
}

// Option is a functional option for configuring the prober
type Option func(*Options)

// WithProbeTimeout sets the per-path probe timeout
func WithProbeTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.probeTimeout = d
		}
	}
}

// WithProbeThreads sets the concurrent probe worker count
func WithProbeThreads(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.probeThreads = n
		}
	}
}

// WithPaths replaces the probed path list
func WithPaths(paths ...string) Option {
	return func(o *Options) {
		if len(paths) > 0 {
			o.paths = paths
		}
	}
}

// Prober implements PageProber over a Fetcher
type Prober struct {
	fetcher Fetcher
	options *Options
}

// NewProber creates a prober with the given fetcher and options
func NewProber(fetcher Fetcher, opts ...Option) (*Prober, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}

	o := &Options{
		probeTimeout: defaultProbeTimeout,
		probeThreads: defaultProbeThreads,
		paths:        KnownPaths,
	}

	for _, opt := range opts {
		opt(o)
	}

	return &Prober{fetcher: fetcher, options: o}, nil
}

// Probe fetches every configured path below origin concurrently. Failed
// probes are logged and skipped, so the result may be empty but Probe never
// fails. Cancelling ctx aborts all in-flight probes.
func (p *Prober) Probe(ctx context.Context, origin string) []string {
	origin = strings.TrimSuffix(origin, "/")

	var wg sync.WaitGroup

	texts := make([]string, len(p.options.paths))
	sem := make(chan struct{}, p.options.probeThreads)

	for i, path := range p.options.paths {
		wg.Add(1)

		go func(idx int, path string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			text, err := p.probePath(ctx, origin, path)
			if err != nil {
				log.Debug().Err(err).Str("origin", origin).Str("path", path).Msg("probe failed")
				return
			}

			texts[idx] = text
		}(i, path)
	}

	wg.Wait()

	found := lo.Compact(texts)
	log.Debug().Str("origin", origin).Int("probed", len(texts)).Int("found", len(found)).Msg("probe complete")

	return found
}

// probePath fetches one path under its own deadline and returns the normalized page text
func (p *Prober) probePath(ctx context.Context, origin, path string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.options.probeTimeout)
	defer cancel()

	resp, err := p.fetcher.Fetch(probeCtx, origin+path)
	if err != nil {
		switch {
		case ctx.Err() == nil && errors.Is(probeCtx.Err(), context.DeadlineExceeded):
			return "", &ProbeError{Path: path, Reason: ProbeTimeout, Err: err}
		case errors.Is(err, ErrReadBody):
			return "", &ProbeError{Path: path, Reason: ProbeReadFailed, Err: err}
		default:
			return "", &ProbeError{Path: path, Reason: ProbeFetchFailed, Err: err}
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &ProbeError{Path: path, Reason: ProbeFetchFailed}
	}

	if !strings.Contains(strings.ToLower(resp.ContentType), htmlContentType) {
		return "", &ProbeError{Path: path, Reason: ProbeNotHTML}
	}

	if utf8.RuneCount(resp.Body) < minBodyLength {
		return "", &ProbeError{Path: path, Reason: ProbeTooShort}
	}

	return NormalizeText(string(resp.Body)), nil
}
