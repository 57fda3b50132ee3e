package classify

import (
	"fmt"
	"net/url"
	"strings"
)

// Location is the page a session is bound to.
type Location struct {
	url      *url.URL
	hostname string
}

// ParseLocation parses the page URL. An empty string yields a location
// with no origin; relative destinations then resolve to no host.
func ParseLocation(raw string) (Location, error) {
	if strings.TrimSpace(raw) == "" {
		return Location{url: &url.URL{}}, nil
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}, fmt.Errorf("invalid page url %q: %w", raw, err)
	}
	return Location{url: u, hostname: strings.ToLower(u.Hostname())}, nil
}

// MustLocation is ParseLocation for literals.
func MustLocation(raw string) Location {
	loc, err := ParseLocation(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

// Hostname returns the lower-case page hostname.
func (l Location) Hostname() string {
	return l.hostname
}

// String returns the page URL.
func (l Location) String() string {
	if l.url == nil {
		return ""
	}
	return l.url.String()
}

// Resolve makes ref absolute against the page URL.
func (l Location) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if l.url == nil {
		return u, nil
	}
	return l.url.ResolveReference(u), nil
}

// StripWWW removes a leading "www." label.
func StripWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// RootDomain returns the last two labels of host.
func RootDomain(host string) string {
	labels := strings.Split(strings.Trim(strings.ToLower(host), "."), ".")
	if len(labels) <= 2 {
		return strings.Join(labels, ".")
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// hostMatches reports whether host is domain or one of its subdomains.
func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
