// Package scoring turns catalog signal matches into a score, a status and a
// confidence value
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/theopenlane/eushield/internal/signals"
	"github.com/theopenlane/eushield/internal/types"
)

const (
	// GreenThreshold is the minimum score for a green status
	GreenThreshold = 15
	// RedThreshold is the maximum score for a red status
	RedThreshold = -5
	// TLDBonus is added to the score when the domain uses an EU/EEA ccTLD
	TLDBonus = 5
	// TLDSignalID identifies the synthetic domain TLD signal
	TLDSignalID = "eu_tld"
)

// euTLDs lists the EU member state ccTLDs, the eu TLD and the EEA ccTLDs
var euTLDs = map[string]struct{}{
	"eu": {}, "at": {}, "be": {}, "bg": {}, "hr": {}, "cy": {}, "cz": {}, "dk": {},
	"ee": {}, "fi": {}, "fr": {}, "de": {}, "gr": {}, "hu": {}, "ie": {}, "it": {},
	"lv": {}, "lt": {}, "lu": {}, "mt": {}, "nl": {}, "pl": {}, "pt": {}, "ro": {},
	"sk": {}, "si": {}, "es": {}, "se": {},
	"no": {}, "is": {}, "li": {},
}

// Engine scores text against a catalog. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	catalog *signals.Catalog
	// totalPossible is the confidence denominator: positive entries plus the TLD signal
	totalPossible int
}

// New creates a scoring engine over the given catalog
func New(catalog *signals.Catalog) *Engine {
	return &Engine{
		catalog:       catalog,
		totalPossible: catalog.CountCategory(types.CategoryEUPositive) + 1,
	}
}

// defaultEngine scores against the built-in catalog
var defaultEngine = New(signals.Default())

// Default returns the engine backed by the built-in catalog
func Default() *Engine {
	return defaultEngine
}

// Score runs every catalog pattern against text and aggregates the matches.
// domain may be empty; when it carries an EU/EEA ccTLD a bonus is applied.
// Empty text always yields a grey result with score 0 and no signals.
func (e *Engine) Score(text, domain string) types.ScoringResult {
	if len(text) == 0 {
		return mustValidate(types.ScoringResult{
			Score:                0,
			Status:               types.StatusGrey,
			Confidence:           0,
			Signals:              []types.MatchedSignal{},
			TotalPossibleSignals: e.totalPossible,
		})
	}

	matched := make([]types.MatchedSignal, 0)

	for _, p := range e.catalog.Patterns() {
		count := p.Count(text)
		if count == 0 {
			continue
		}

		matched = append(matched, types.MatchedSignal{
			ID:          p.ID,
			Label:       p.Label,
			Category:    p.Category,
			Weight:      p.Weight,
			Description: p.Description,
			MatchCount:  count,
		})
	}

	if tld, ok := EUTLD(domain); ok {
		matched = append(matched, types.MatchedSignal{
			ID:          TLDSignalID,
			Label:       "EU Domain TLD",
			Category:    types.CategoryEUPositive,
			Weight:      TLDBonus,
			Description: fmt.Sprintf("Domain uses .%s (EU/EEA country TLD)", tld),
			MatchCount:  1,
		})
	}

	score := lo.SumBy(matched, func(s types.MatchedSignal) int {
		return s.Weight
	})

	positives := lo.CountBy(matched, func(s types.MatchedSignal) bool {
		return s.Category == types.CategoryEUPositive
	})

	return mustValidate(types.ScoringResult{
		Score:                score,
		Status:               StatusFor(score),
		Confidence:           confidence(positives, e.totalPossible),
		Signals:              matched,
		TotalPossibleSignals: e.totalPossible,
	})
}

// TotalPossibleSignals returns the confidence denominator of the engine
func (e *Engine) TotalPossibleSignals() int {
	return e.totalPossible
}

// Score scores text with the default engine
func Score(text, domain string) types.ScoringResult {
	return defaultEngine.Score(text, domain)
}

// StatusFor maps a score onto the tri-state status
func StatusFor(score int) types.Status {
	switch {
	case score >= GreenThreshold:
		return types.StatusGreen
	case score <= RedThreshold:
		return types.StatusRed
	default:
		return types.StatusGrey
	}
}

// EUTLD returns the lower-cased last label of domain and whether it is an
// EU/EEA country-code TLD
func EUTLD(domain string) (string, bool) {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if domain == "" {
		return "", false
	}

	tld := strings.ToLower(domain[strings.LastIndex(domain, ".")+1:])
	_, ok := euTLDs[tld]

	return tld, ok
}

// confidence is the rounded percentage of positive evidence categories observed
func confidence(found, total int) int {
	if total <= 0 {
		return 0
	}

	return int(math.Round(float64(found) * 100 / float64(total)))
}

// mustValidate panics when the result breaks its own invariants, which can
// only happen through a programming error
func mustValidate(r types.ScoringResult) types.ScoringResult {
	if err := r.Validate(); err != nil {
		panic(err)
	}

	return r
}
