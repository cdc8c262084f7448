// Package signals holds the weighted pattern catalog used to score legal and
// company-information text for evidence of an EU/EEA based operator.
package signals

import (
	"fmt"
	"regexp"

	"github.com/samber/lo"

	"github.com/theopenlane/eushield/internal/types"
)

// Rule is a single text-matching rule of a pattern
type Rule struct {
	expr      *regexp.Regexp
	wholeWord bool
}

// wordGuardBefore and wordGuardAfter match a position that is not glued to a
// letter, digit or underscore in any script
const (
	wordGuardBefore = `(?:^|[^\p{L}\p{Nd}_])`
	wordGuardAfter  = `(?:[^\p{L}\p{Nd}_]|$)`
)

// Match builds a rule that counts every non-overlapping match of expr
func Match(expr *regexp.Regexp) Rule {
	return Rule{expr: expr}
}

// WholeWord builds a rule whose matches only count when they are not glued to
// a neighboring letter or digit in any script (Österreich, Ελλάδα). RE2's \b
// is ASCII-only, so the guards are part of the compiled expression.
func WholeWord(expr *regexp.Regexp) Rule {
	if expr == nil {
		return Rule{wholeWord: true}
	}

	guarded := regexp.MustCompile(wordGuardBefore + "(" + expr.String() + ")" + wordGuardAfter)

	return Rule{expr: guarded, wholeWord: true}
}

// String returns the rule's source expression
func (r Rule) String() string {
	if r.expr == nil {
		return ""
	}

	return r.expr.String()
}

// Count returns the number of occurrences of the rule in text
func (r Rule) Count(text string) int {
	if !r.wholeWord {
		return len(r.expr.FindAllStringIndex(text, -1))
	}

	// the guards consume a neighboring character, so scanning resumes at the
	// end of the word itself to let adjacent words share a separator
	count, pos := 0, 0

	for pos < len(text) {
		loc := r.expr.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}

		count++

		next := pos + loc[3]
		if next <= pos {
			next = pos + 1
		}

		pos = next
	}

	return count
}

// Pattern is an immutable catalog entry describing one weighted signal
type Pattern struct {
	// ID is the stable identifier, unique across the catalog
	ID string
	// Category is the evidence direction of the signal
	Category types.Category
	// Label is the display name
	Label string
	// Weight is added to the score once when the pattern matches
	Weight int
	// Rules are independent matchers; the pattern matches if any rule matches
	Rules []Rule
	// Description is a human-readable explanation of the signal
	Description string
}

// Count sums the occurrences of every rule of the pattern in text
func (p Pattern) Count(text string) int {
	return lo.SumBy(p.Rules, func(r Rule) int {
		return r.Count(text)
	})
}

// Validate checks the pattern against the catalog entry schema
func (p Pattern) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidPattern)
	case !p.Category.Valid():
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidPattern, p.ID, p.Category)
	case p.Label == "":
		return fmt.Errorf("%w: %s has empty label", ErrInvalidPattern, p.ID)
	case p.Description == "":
		return fmt.Errorf("%w: %s has empty description", ErrInvalidPattern, p.ID)
	case len(p.Rules) == 0:
		return fmt.Errorf("%w: %s has no rules", ErrInvalidPattern, p.ID)
	}

	for i, r := range p.Rules {
		if r.expr == nil {
			return fmt.Errorf("%w: %s rule %d has no expression", ErrInvalidPattern, p.ID, i)
		}
	}

	return nil
}

// Catalog is an ordered, validated, read-only set of patterns
type Catalog struct {
	patterns []Pattern
}

// New validates the patterns and returns a catalog preserving their order
func New(patterns ...Pattern) (*Catalog, error) {
	seen := make(map[string]struct{}, len(patterns))

	for _, p := range patterns {
		if err := p.Validate(); err != nil {
			return nil, err
		}

		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}

		seen[p.ID] = struct{}{}
	}

	return &Catalog{patterns: append([]Pattern(nil), patterns...)}, nil
}

// MustNew is like New but panics when the catalog is malformed
func MustNew(patterns ...Pattern) *Catalog {
	c, err := New(patterns...)
	if err != nil {
		panic(err)
	}

	return c
}

// Patterns returns a copy of the catalog entries in iteration order
func (c *Catalog) Patterns() []Pattern {
	return append([]Pattern(nil), c.patterns...)
}

// Len returns the number of catalog entries
func (c *Catalog) Len() int {
	return len(c.patterns)
}

// CountCategory returns the number of entries in the given category
func (c *Catalog) CountCategory(category types.Category) int {
	return lo.CountBy(c.patterns, func(p Pattern) bool {
		return p.Category == category
	})
}

// defaultCatalog is built once at package initialization; a malformed entry
// aborts process start
var defaultCatalog = MustNew(append(euPositivePatterns(), redFlagPatterns()...)...)

// Default returns the shared built-in catalog
func Default() *Catalog {
	return defaultCatalog
}
