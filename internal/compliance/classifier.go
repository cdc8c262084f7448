package compliance

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/theopenlane/eushield/internal/types"
)

// contentPreviewLength is the number of body text characters inspected by the content strategy
const contentPreviewLength = 1000

// Document exposes the rendered page the pipeline was invoked from. A nil
// Document means no page is available.
type Document interface {
	// Title returns the document title
	Title() string
	// FirstHeading returns the text of the first h1 element
	FirstHeading() string
	// BodyText returns the visible text of the body
	BodyText() string
	// BodyHTML returns the full body markup
	BodyHTML() string
}

// relevantPathPatterns match URL paths of legal, privacy and company information pages
var relevantPathPatterns = compileAll(
	`/about`,
	`/company`,
	`/contact`,
	`/impressum`,
	`/ueber-uns`,
	`/terms`,
	`/tos`,
	`/privacy`,
	`/privacy-policy`,
	`/legal`,
	`/legal-notice`,
	`/cookie-policy`,
	`/agb`,
	`/datenschutz`,
	`/cgv`,
	`/aviso-legal`,
	`/informativa-privacy`,
	`/mentions-legales`,
	`/politica-de-privacidad`,
	`/politique-de-confidentialite`,
)

// pageTypeRule maps keyword patterns onto a page type
type pageTypeRule struct {
	pageType types.PageType
	patterns []*regexp.Regexp
}

// urlTypeRules is the ordered page type precedence for matched URLs; first match wins
var urlTypeRules = []pageTypeRule{
	{pageType: types.PageTypeTOS, patterns: compileAll(`terms`, `tos`, `agb`, `cgv`)},
	{pageType: types.PageTypePrivacy, patterns: compileAll(`privacy`, `datenschutz`, `politique`, `confidentialite`, `privacidad`)},
	{pageType: types.PageTypeCookie, patterns: compileAll(`cookie`)},
}

// contentTypeRules is the ordered page type precedence for matched content
var contentTypeRules = []pageTypeRule{
	{pageType: types.PageTypeTOS, patterns: compileAll(`terms`, `conditions`)},
	{pageType: types.PageTypePrivacy, patterns: compileAll(`privacy`, `datenschutz`)},
	{pageType: types.PageTypeCookie, patterns: compileAll(`cookie`)},
}

// relevantKeywords indicate legal content in English, German, French, Spanish and Italian
var relevantKeywords = []string{
	"privacy",
	"policy",
	"terms",
	"conditions",
	"cookie",
	"datenschutz",
	"politique de confidentialité",
	"política de privacidad",
	"informativa sulla privacy",
	"avb",
	"cgv",
	"impressum",
}

// detectStrategy attempts to recognize the current page as relevant
type detectStrategy func(pageURL string, doc Document) (types.DetectionResult, error)

// detectStrategies run in order; the first success wins
var detectStrategies = []detectStrategy{MatchURL, MatchContent}

// DetectPage classifies the current page by URL, falling back to its content.
// When neither strategy succeeds the error from the last strategy is returned.
func DetectPage(pageURL string, doc Document) (types.DetectionResult, error) {
	var err error

	for _, strategy := range detectStrategies {
		var result types.DetectionResult

		result, err = strategy(pageURL, doc)
		if err == nil {
			return result, nil
		}
	}

	return types.DetectionResult{}, err
}

// MatchURL recognizes a relevant page from its URL path. The page text is
// extracted from doc when one is available.
func MatchURL(pageURL string, doc Document) (types.DetectionResult, error) {
	path := urlPath(pageURL)

	if !matchesAny(relevantPathPatterns, path) {
		return types.DetectionResult{}, newDetectionError(ErrNoURLMatch)
	}

	text := ""
	if doc != nil {
		text = NormalizeText(doc.BodyHTML())
	}

	return types.DetectionResult{
		Detected: true,
		Type:     pageType(urlTypeRules, path),
		URL:      pageURL,
		Text:     text,
	}, nil
}

// MatchContent recognizes a relevant page from its title, first heading and
// the start of its body text
func MatchContent(pageURL string, doc Document) (types.DetectionResult, error) {
	if doc == nil {
		return types.DetectionResult{}, newDetectionError(ErrNoContentMatch)
	}

	content := collapseWhitespace(strings.Join([]string{
		doc.Title(),
		doc.FirstHeading(),
		truncate(doc.BodyText(), contentPreviewLength),
	}, " "))

	lowered := strings.ToLower(content)

	if !lo.SomeBy(relevantKeywords, func(k string) bool { return strings.Contains(lowered, k) }) {
		return types.DetectionResult{}, newDetectionError(ErrNoContentMatch)
	}

	return types.DetectionResult{
		Detected: true,
		Type:     pageType(contentTypeRules, lowered),
		URL:      pageURL,
		Text:     content,
	}, nil
}

// urlPath returns the lower-cased path of pageURL, or the lower-cased input
// when it does not parse
func urlPath(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return strings.ToLower(pageURL)
	}

	return strings.ToLower(u.Path)
}

// pageType applies rules in order and falls back to legal
func pageType(rules []pageTypeRule, s string) types.PageType {
	for _, rule := range rules {
		if matchesAny(rule.patterns, s) {
			return rule.pageType
		}
	}

	return types.PageTypeLegal
}

// compileAll compiles multiple regex patterns, panicking on invalid patterns
func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}

	return compiled
}

// matchesAny returns true if any of the patterns match the input string
func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}

	return false
}
