package compliance

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPageTextLength caps the normalized text of a single page, in characters
	MaxPageTextLength = 50000
	// MaxCombinedTextLength caps the concatenated text handed to the scorer, in characters
	MaxCombinedTextLength = 100000
)

var (
	// scriptBlock, styleBlock and navBlock remove non-content elements including their bodies
	scriptBlock = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	styleBlock  = regexp.MustCompile(`(?is)<style\b.*?</style\s*>`)
	navBlock    = regexp.MustCompile(`(?is)<nav\b.*?</nav\s*>`)
	// anyTag matches every remaining markup tag
	anyTag = regexp.MustCompile(`<[^>]*>`)
	// entity matches the named and decimal entities that are decoded
	entity = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#[0-9]{1,7});`)
)

var namedEntities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&apos;": "'",
}

// NormalizeText converts an HTML fragment into plain, whitespace-collapsed
// text of at most MaxPageTextLength characters. Plain text passes through
// unchanged apart from whitespace collapsing.
func NormalizeText(html string) string {
	if html == "" {
		return ""
	}

	text := scriptBlock.ReplaceAllString(html, "")
	text = styleBlock.ReplaceAllString(text, "")
	text = navBlock.ReplaceAllString(text, "")
	text = anyTag.ReplaceAllString(text, " ")
	text = decodeEntities(text)
	text = collapseWhitespace(text)

	return truncate(text, MaxPageTextLength)
}

// decodeEntities decodes the supported entities in a single left-to-right
// pass, so "&amp;lt;" yields "&lt;" and not "<"
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	return entity.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := namedEntities[m]; ok {
			return v
		}

		code, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || code == 0 || !utf8.ValidRune(rune(code)) {
			return m
		}

		return string(rune(code))
	})
}

// collapseWhitespace replaces every run of Unicode whitespace with one space and trims the ends
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n characters without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}
