package compliance

import (
	"errors"
	"strings"
	"testing"

	"github.com/theopenlane/eushield/internal/types"
)

// stubDocument is a fixed Document for classifier tests
type stubDocument struct {
	title    string
	heading  string
	bodyText string
	bodyHTML string
}

func (d stubDocument) Title() string { return d.title }
func (d stubDocument) FirstHeading() string { return d.heading }
func (d stubDocument) BodyText() string { return d.bodyText }
func (d stubDocument) BodyHTML() string { return d.bodyHTML }

func TestMatchURL(t *testing.T) {
	testCases := []struct {
		url      string
		expected types.PageType
	}{
		{"https://example.com/terms", types.PageTypeTOS},
		{"https://example.com/en/terms-of-service", types.PageTypeTOS},
		{"https://example.de/AGB", types.PageTypeTOS},
		{"https://example.fr/cgv", types.PageTypeTOS},
		{"https://example.com/privacy-policy", types.PageTypePrivacy},
		{"https://example.de/datenschutz", types.PageTypePrivacy},
		{"https://example.fr/politique-de-confidentialite", types.PageTypePrivacy},
		{"https://example.es/politica-de-privacidad", types.PageTypePrivacy},
		{"https://example.it/informativa-privacy", types.PageTypePrivacy},
		{"https://example.com/cookie-policy", types.PageTypeCookie},
		{"https://example.de/impressum", types.PageTypeLegal},
		{"https://example.com/about-us", types.PageTypeLegal},
		{"https://example.fr/mentions-legales", types.PageTypeLegal},
		{"https://example.es/aviso-legal", types.PageTypeLegal},
		{"https://example.com/legal-notice", types.PageTypeLegal},
		{"https://example.com/contact?ref=footer", types.PageTypeLegal},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			result, err := MatchURL(tc.url, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !result.Detected {
				t.Error("expected detected to be true")
			}
			if result.Type != tc.expected {
				t.Errorf("expected type %q, got %q", tc.expected, result.Type)
			}
			if result.URL != tc.url {
				t.Errorf("expected url %q, got %q", tc.url, result.URL)
			}
			if result.Text != "" {
				t.Errorf("expected empty text without a document, got %q", result.Text)
			}
		})
	}
}

func TestMatchURL_ExtractsDocumentText(t *testing.T) {
	doc := stubDocument{bodyHTML: "<script>track()</script><h1>Impressum</h1><p>Muster GmbH</p>"}

	result, err := MatchURL("https://example.de/impressum", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "Impressum Muster GmbH" {
		t.Errorf("unexpected text %q", result.Text)
	}
}

func TestMatchURL_NoMatch(t *testing.T) {
	urls := []string{
		"https://example.com/",
		"https://example.com/products/shoes",
		// host names are not inspected
		"https://terms.example.com/",
	}

	for _, u := range urls {
		_, err := MatchURL(u, nil)
		if !errors.Is(err, ErrNoURLMatch) {
			t.Errorf("%s: expected ErrNoURLMatch, got %v", u, err)
		}

		var detErr *DetectionError
		if !errors.As(err, &detErr) || detErr.Reason != "no_url_match" {
			t.Errorf("%s: expected DetectionError with reason no_url_match, got %v", u, err)
		}
	}
}

func TestMatchContent(t *testing.T) {
	testCases := []struct {
		name     string
		doc      stubDocument
		expected types.PageType
	}{
		{
			name:     "terms title",
			doc:      stubDocument{title: "Terms and Conditions", bodyText: "Welcome"},
			expected: types.PageTypeTOS,
		},
		{
			name:     "privacy heading",
			doc:      stubDocument{title: "Acme", heading: "Privacy Notice"},
			expected: types.PageTypePrivacy,
		},
		{
			name:     "german privacy",
			doc:      stubDocument{title: "Datenschutzerklärung"},
			expected: types.PageTypePrivacy,
		},
		{
			name:     "cookie body",
			doc:      stubDocument{title: "Acme", bodyText: "We use cookies on this site."},
			expected: types.PageTypeCookie,
		},
		{
			name:     "impressum falls back to legal",
			doc:      stubDocument{title: "Impressum"},
			expected: types.PageTypeLegal,
		},
		{
			name:     "spanish keyword",
			doc:      stubDocument{heading: "Política de privacidad"},
			expected: types.PageTypeLegal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := MatchContent("https://example.com/page", tc.doc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Type != tc.expected {
				t.Errorf("expected type %q, got %q", tc.expected, result.Type)
			}
			if result.Text == "" {
				t.Error("expected combined content text")
			}
		})
	}
}

func TestMatchContent_OnlyInspectsPreview(t *testing.T) {
	doc := stubDocument{
		title:    "Shop",
		heading:  "Shoes",
		bodyText: strings.Repeat("x", contentPreviewLength) + " privacy",
	}

	_, err := MatchContent("https://example.com/shop", doc)
	if !errors.Is(err, ErrNoContentMatch) {
		t.Errorf("expected ErrNoContentMatch, got %v", err)
	}
}

func TestMatchContent_NoDocument(t *testing.T) {
	_, err := MatchContent("https://example.com/", nil)
	if !errors.Is(err, ErrNoContentMatch) {
		t.Errorf("expected ErrNoContentMatch, got %v", err)
	}
}

func TestDetectPage_FallsBackToContent(t *testing.T) {
	doc := stubDocument{title: "Privacy Policy", heading: "Your data"}

	result, err := DetectPage("https://example.com/p/123", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Type != types.PageTypePrivacy {
		t.Errorf("expected privacy, got %q", result.Type)
	}
	if result.Text != "Privacy Policy Your data" {
		t.Errorf("unexpected text %q", result.Text)
	}
}

func TestDetectPage_URLWins(t *testing.T) {
	doc := stubDocument{title: "Cookie settings", bodyHTML: "<p>Terms</p>"}

	result, err := DetectPage("https://example.com/terms", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Type != types.PageTypeTOS {
		t.Errorf("expected tos, got %q", result.Type)
	}
	if result.Text != "Terms" {
		t.Errorf("expected body text from URL strategy, got %q", result.Text)
	}
}

func TestDetectPage_NotRelevant(t *testing.T) {
	doc := stubDocument{title: "Running shoes", heading: "New arrivals", bodyText: "Free shipping"}

	_, err := DetectPage("https://example.com/shop", doc)
	if !errors.Is(err, ErrNoContentMatch) {
		t.Errorf("expected ErrNoContentMatch, got %v", err)
	}
}
