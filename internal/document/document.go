// Package document exposes a parsed HTML page through the accessors the
// detection pipeline inspects
package document

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContentSelector matches elements whose text is never shown to a reader
const nonContentSelector = "script, style, noscript, template"

// Page is a parsed HTML document
type Page struct {
	doc *goquery.Document
}

// Parse builds a Page from raw HTML. Fragments are accepted; the parser
// supplies the missing html and body elements.
func Parse(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseHTML, err)
	}

	return &Page{doc: doc}, nil
}

// Title returns the trimmed text of the first title element
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// FirstHeading returns the trimmed text of the first h1 element
func (p *Page) FirstHeading() string {
	return collapse(p.doc.Find("h1").First().Text())
}

// BodyText returns the visible body text with whitespace collapsed
func (p *Page) BodyText() string {
	body := p.doc.Find("body").First().Clone()
	body.Find(nonContentSelector).Remove()

	return collapse(body.Text())
}

// BodyHTML returns the inner markup of the body element
func (p *Page) BodyHTML() string {
	html, err := p.doc.Find("body").First().Html()
	if err != nil {
		return ""
	}

	return html
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
