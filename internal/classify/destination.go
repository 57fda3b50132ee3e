package classify

import (
	"net/url"
	"strings"

	"github.com/nao1215/newsadvisor/internal/model"
)

// destination is a link or frame target prepared for rule matching.
// When the value cannot be parsed as a URL, parsed is nil and rules fall
// back to substring matching on lower.
type destination struct {
	raw    string
	lower  string
	parsed *url.URL
	host   string
	params []model.Param
}

func newDestination(page Location, ref string) destination {
	d := destination{raw: strings.TrimSpace(ref)}
	d.lower = strings.ToLower(d.raw)

	u, err := page.Resolve(d.raw)
	if err != nil {
		d.params = splitQuery(rawQuery(d.raw))
		return d
	}
	d.parsed = u
	d.host = strings.ToLower(u.Hostname())
	d.lower = strings.ToLower(u.String())
	d.params = splitQuery(u.RawQuery)
	return d
}

// malformed reports whether the destination could not be parsed.
func (d destination) malformed() bool {
	return d.parsed == nil
}

// path returns the lower-case path, or the raw value when malformed.
func (d destination) path() string {
	if d.parsed == nil {
		return d.lower
	}
	return strings.ToLower(d.parsed.Path)
}

// String returns the absolute destination, or the raw value.
func (d destination) String() string {
	if d.parsed == nil {
		return d.raw
	}
	return d.parsed.String()
}

// adDomain returns the ad-network domain the destination belongs to.
func (d destination) adDomain(domains []string) (string, bool) {
	for _, domain := range domains {
		if d.parsed == nil {
			if strings.Contains(d.lower, domain) {
				return domain, true
			}
			continue
		}
		if hostMatches(d.host, domain) {
			return domain, true
		}
	}
	return "", false
}

// flagged returns the tracking parameters in query order.
func (d destination) flagged() []model.Param {
	out := make([]model.Param, 0)
	for _, p := range d.params {
		if isTrackingParam(p.Key) {
			out = append(out, p)
		}
	}
	return out
}

// parsedURL builds the panel breakdown of the destination.
func (d destination) parsedURL() *model.ParsedURL {
	return &model.ParsedURL{
		Hostname:      d.host,
		FlaggedParams: d.flagged(),
	}
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	for _, p := range TrackingParams {
		if strings.HasSuffix(p, "_") {
			if strings.HasPrefix(k, p) {
				return true
			}
			continue
		}
		if k == p {
			return true
		}
	}
	return false
}

// rawQuery extracts the query portion of an unparseable reference.
func rawQuery(ref string) string {
	_, q, ok := strings.Cut(ref, "?")
	if !ok {
		return ""
	}
	q, _, _ = strings.Cut(q, "#")
	return q
}

// splitQuery parses a query string preserving parameter order.
func splitQuery(q string) []model.Param {
	out := make([]model.Param, 0)
	for _, part := range strings.Split(q, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if uv, err := url.QueryUnescape(v); err == nil {
			v = uv
		}
		if k == "" {
			continue
		}
		out = append(out, model.Param{Key: k, Value: v})
	}
	return out
}
