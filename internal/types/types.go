package types

// Category classifies a signal as evidence for or against an EU/EEA operator
type Category string

const (
	// CategoryEUPositive marks evidence that the operator is EU/EEA based
	CategoryEUPositive Category = "eu_positive"
	// CategoryRedFlag marks evidence that the operator is not EU/EEA based
	CategoryRedFlag Category = "red_flag"
)

// Valid reports whether the category is one of the known values
func (c Category) Valid() bool {
	return c == CategoryEUPositive || c == CategoryRedFlag
}

// Status is the tri-state verdict derived from the aggregate score
type Status string

const (
	// StatusGreen indicates the operator is plausibly EU/EEA based
	StatusGreen Status = "green"
	// StatusRed indicates the operator is plausibly not EU/EEA based
	StatusRed Status = "red"
	// StatusGrey indicates insufficient evidence either way
	StatusGrey Status = "grey"
)

// Valid reports whether the status is one of the known values
func (s Status) Valid() bool {
	switch s {
	case StatusGreen, StatusRed, StatusGrey:
		return true
	default:
		return false
	}
}

// PageType is the category of a relevant legal or company page
type PageType string

const (
	// PageTypeNone is used when the analyzed page type is unknown
	PageTypeNone PageType = ""
	// PageTypeTOS identifies terms of service pages
	PageTypeTOS PageType = "tos"
	// PageTypePrivacy identifies privacy policy pages
	PageTypePrivacy PageType = "privacy"
	// PageTypeCookie identifies cookie policy pages
	PageTypeCookie PageType = "cookie"
	// PageTypeLegal identifies any other legal, about or contact page
	PageTypeLegal PageType = "legal"
)

// Valid reports whether the page type is one of the known values, including none
func (p PageType) Valid() bool {
	switch p {
	case PageTypeNone, PageTypeTOS, PageTypePrivacy, PageTypeCookie, PageTypeLegal:
		return true
	default:
		return false
	}
}

// MatchedSignal is a catalog signal that occurred at least once in analyzed text
type MatchedSignal struct {
	ID          string   `json:"id" example:"gdpr_mention" description:"Stable signal identifier"`
	Label       string   `json:"label" example:"GDPR Mention" description:"Display name of the signal"`
	Category    Category `json:"category" example:"eu_positive" description:"Signal category (eu_positive/red_flag)"`
	Weight      int      `json:"weight" example:"6" description:"Signed weight added to the score"`
	Description string   `json:"description" description:"Human-readable description of the signal"`
	MatchCount  int      `json:"matchCount" example:"2" description:"Number of textual occurrences across all rules"`
}

// ScoringResult is the outcome of scoring a body of text
type ScoringResult struct {
	Score                int             `json:"score" example:"34" description:"Sum of matched weights plus domain bonus"`
	Status               Status          `json:"status" example:"green" description:"Verdict (green/red/grey)"`
	Confidence           int             `json:"confidence" example:"25" description:"Share of positive evidence categories observed (0-100)"`
	Signals              []MatchedSignal `json:"signals" description:"Matched signals in catalog order"`
	TotalPossibleSignals int             `json:"totalPossibleSignals" example:"16" description:"Positive catalog entries plus the domain TLD signal"`
}

// DetectionResult describes one page-analysis attempt
type DetectionResult struct {
	Detected bool     `json:"detected" description:"Whether a relevant page was analyzed"`
	Type     PageType `json:"type,omitempty" example:"privacy" description:"Page type of the current page when known"`
	URL      string   `json:"url" example:"https://example.de/datenschutz" description:"The analyzed URL"`
	Text     string   `json:"text" description:"Extracted text used for scoring"`
}

// CachedResult is a scoring result stored for a domain with a freshness timestamp
type CachedResult struct {
	Domain      string          `json:"domain" example:"example.de"`
	Score       int             `json:"score"`
	Status      Status          `json:"status"`
	Confidence  int             `json:"confidence"`
	Signals     []MatchedSignal `json:"signals"`
	AnalyzedURL string          `json:"analyzedUrl"`
	Timestamp   int64           `json:"timestamp" description:"Unix milliseconds at write time"`
}

// NewCachedResult stamps a scoring result for storage
func NewCachedResult(domain, analyzedURL string, result ScoringResult, timestamp int64) CachedResult {
	return CachedResult{
		Domain:      domain,
		Score:       result.Score,
		Status:      result.Status,
		Confidence:  result.Confidence,
		Signals:     result.Signals,
		AnalyzedURL: analyzedURL,
		Timestamp:   timestamp,
	}
}
