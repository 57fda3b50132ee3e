package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/newsadvisor/internal/model"
)

// linkInput is everything the link rules may look at.
type linkInput struct {
	dest          destination
	text          string
	containerText string
	pageHost      string
	adDomains     []string
}

// linkRule is one step of the ordered chain. match returns the evidence
// string when the rule fires.
type linkRule struct {
	name  string
	typ   model.Type
	match func(in linkInput) (string, bool)
}

// linkRules is the fixed precedence order. Do not reorder.
var linkRules = []linkRule{
	{name: "ad-domain", typ: model.TypeAd, match: matchAdDomain},
	{name: "recommendation-param", typ: model.TypeSponsored, match: matchRecommendationParam},
	{name: "path-marker", typ: model.TypeSponsored, match: matchPathMarker},
	{name: "container-keyword", typ: model.TypeSponsored, match: matchContainerKeyword},
	{name: "external-domain", typ: model.TypeSponsored, match: matchExternalDomain},
	{name: "short-text", typ: model.TypeNeutral, match: matchShortText},
}

func matchAdDomain(in linkInput) (string, bool) {
	domain, ok := in.dest.adDomain(in.adDomains)
	if !ok {
		return "", false
	}
	return "Destination URL matches: " + domain, true
}

func matchRecommendationParam(in linkInput) (string, bool) {
	for _, p := range in.dest.params {
		key := strings.ToLower(p.Key)
		for _, trigger := range RecommendationParams {
			if key == trigger {
				return fmt.Sprintf("Recommendation tracking parameter: %s=%s", p.Key, p.Value), true
			}
		}
		if !strings.HasPrefix(key, "utm_") {
			continue
		}
		value := strings.ToLower(p.Value)
		for _, network := range RecommendationNetworks {
			if strings.Contains(value, network) {
				return fmt.Sprintf("Recommendation tracking parameter: %s=%s", p.Key, p.Value), true
			}
		}
	}
	return "", false
}

func matchPathMarker(in linkInput) (string, bool) {
	path := in.dest.path()
	for _, marker := range PathMarkers {
		if strings.Contains(path, marker) {
			return fmt.Sprintf("Destination path contains %q", marker), true
		}
	}
	return "", false
}

func matchContainerKeyword(in linkInput) (string, bool) {
	container := strings.ToLower(in.containerText)
	if container == "" {
		return "", false
	}
	own := strings.ToLower(in.text)
	for _, kw := range SponsoredKeywords {
		if strings.Contains(container, kw) && !strings.Contains(own, kw) {
			return fmt.Sprintf("Container text contains %q", kw), true
		}
	}
	return "", false
}

func matchExternalDomain(in linkInput) (string, bool) {
	if in.dest.malformed() || in.dest.host == "" {
		return "", false
	}
	host := StripWWW(in.dest.host)
	if host == StripWWW(in.pageHost) {
		return "", false
	}
	return "External domain: " + host, true
}

func matchShortText(in linkInput) (string, bool) {
	n := utf8.RuneCountInString(in.text)
	if n >= MinTextLength {
		return "", false
	}
	if n == 0 {
		return "No visible text", true
	}
	return fmt.Sprintf("Visible text is only %d characters", n), true
}

// evaluateLink runs the chain and returns the outcome, the evidence and
// the name of the rule that fired.
func evaluateLink(in linkInput) (model.Type, string, string) {
	for _, rule := range linkRules {
		if evidence, ok := rule.match(in); ok {
			return rule.typ, evidence, rule.name
		}
	}
	return model.TypeNews, "No ad or sponsored signals found", "default"
}
