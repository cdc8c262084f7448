package domain

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Info contains parsed hostname information
type Info struct {
	Domain      string `json:"domain"`
	Subdomain   string `json:"subdomain,omitempty"`
	TLD         string `json:"tld"`
	SLD         string `json:"sld"`
	Registrable string `json:"registrable"`
}

// Parse extracts hostname information from a bare hostname or an absolute URL
func Parse(input string) (*Info, error) {
	host, err := Normalize(input)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(host, ".") {
		return nil, fmt.Errorf("%w: %q has no public suffix", ErrInvalidDomainFormat, input)
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDomainFormat, err)
	}

	tld, _ := publicsuffix.PublicSuffix(host)

	subdomain := ""
	if etld1 != host {
		subdomain = strings.TrimSuffix(host, "."+etld1)
	}

	return &Info{
		Domain:      host,
		Subdomain:   subdomain,
		TLD:         tld,
		SLD:         strings.TrimSuffix(etld1, "."+tld),
		Registrable: etld1,
	}, nil
}

// SiteKey returns the registrable domain verdicts are stored and shared under,
// so www.example.de and example.de resolve to one entry. IP addresses and
// hosts without a public suffix key on themselves.
func SiteKey(hostname string) string {
	if net.ParseIP(strings.Trim(hostname, "[]")) != nil {
		return hostname
	}

	info, err := Parse(hostname)
	if err != nil {
		return hostname
	}

	return info.Registrable
}

// Normalize reduces a hostname or URL to the lower-cased hostname used as a
// cache and message key. Ports, paths and a trailing dot are dropped.
func Normalize(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidURLFormat, err)
		}

		input = u.Hostname()
	} else if idx := strings.IndexAny(input, "/?#"); idx != -1 {
		input = input[:idx]
	}

	if idx := strings.LastIndex(input, ":"); idx != -1 {
		input = input[:idx]
	}

	input = strings.TrimSuffix(input, ".")

	if input == "" || strings.HasPrefix(input, ".") || strings.ContainsAny(input, " @") {
		return "", ErrInvalidDomainFormat
	}

	return input, nil
}

// Origin derives the scheme+host origin and the lower-cased hostname from an
// absolute http(s) URL
func Origin(rawURL string) (origin, hostname string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidURLFormat, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURLFormat, u.Scheme)
	}

	hostname = strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if hostname == "" {
		return "", "", fmt.Errorf("%w: missing host", ErrInvalidURLFormat)
	}

	return scheme + "://" + strings.ToLower(u.Host), hostname, nil
}
