package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/theopenlane/eushield/internal/domain"
	"github.com/theopenlane/eushield/internal/scoring"
	"github.com/theopenlane/eushield/internal/types"
)

// Analysis pairs the detection metadata with the score of the combined text
type Analysis struct {
	Domain    string                `json:"domain"`
	Detection types.DetectionResult `json:"detection"`
	Scoring   types.ScoringResult   `json:"scoring"`
}

// Detector runs the detection and scoring pipeline for one page
type Detector struct {
	prober PageProber
	scorer *scoring.Engine
}

// NewDetector creates a detector. A nil scorer selects the default engine.
func NewDetector(prober PageProber, scorer *scoring.Engine) *Detector {
	if scorer == nil {
		scorer = scoring.Default()
	}

	return &Detector{prober: prober, scorer: scorer}
}

// Run analyzes pageURL. doc is the rendered page when one is available and
// may be nil. The only pipeline failure is ErrNoPagesFound; a cancelled ctx
// returns ctx.Err() and no analysis.
func (d *Detector) Run(ctx context.Context, pageURL string, doc Document) (*Analysis, error) {
	origin, hostname, err := domain.Origin(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPageURL, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, detectErr := DetectPage(pageURL, doc)
	hasCurrent := detectErr == nil

	if !hasCurrent {
		log.Debug().Str("url", pageURL).Err(detectErr).Msg("current page not relevant")
	}

	probed := d.prober.Probe(ctx, origin)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !hasCurrent && len(probed) == 0 {
		return nil, newDetectionError(ErrNoPagesFound)
	}

	parts := make([]string, 0, len(probed)+1)
	if current.Text != "" {
		parts = append(parts, current.Text)
	}

	parts = append(parts, probed...)
	combined := truncate(strings.Join(parts, " "), MaxCombinedTextLength)

	detection := types.DetectionResult{
		Detected: true,
		Type:     types.PageTypeNone,
		URL:      pageURL,
	}

	if hasCurrent {
		detection = current
	}

	detection.Text = combined

	result := d.score(combined, hostname)

	log.Info().Str("domain", hostname).Str("page_type", string(detection.Type)).Int("probed_pages", len(probed)).
		Int("score", result.Score).Str("status", string(result.Status)).Msg("analysis complete")

	return &Analysis{
		Domain:    hostname,
		Detection: detection,
		Scoring:   result,
	}, nil
}

// score runs the engine, turning a panic into a grey zero-confidence result
func (d *Detector) score(text, hostname string) (result types.ScoringResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("domain", hostname).Interface("panic", r).Msg("scoring failed, falling back to grey")

			result = FallbackResult(d.scorer.TotalPossibleSignals())
		}
	}()

	return d.scorer.Score(text, hostname)
}

// FallbackResult is the grey, zero-confidence result shown when no
// determination could be made
func FallbackResult(totalPossible int) types.ScoringResult {
	return types.ScoringResult{
		Score:                0,
		Status:               types.StatusGrey,
		Confidence:           0,
		Signals:              []types.MatchedSignal{},
		TotalPossibleSignals: totalPossible,
	}
}

// IsNoPagesFound reports whether err is the terminal no_pages_found failure
func IsNoPagesFound(err error) bool {
	return errors.Is(err, ErrNoPagesFound)
}
