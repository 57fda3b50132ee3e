package classify

import (
	"strings"

	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
)

// classifyFrame judges an embedded frame from its own attributes.
//
//	a. blank source with an ad-id keyword -> Ad
//	b. blank source                       -> Sponsored
//	c. ad domain or ad-id keyword         -> Ad
//	d. same root domain as the page       -> News
//	e. otherwise                          -> Sponsored
//
// Ad and Sponsored outcomes escalate to the frame's parent, which becomes
// the annotated element and a zone.
func (c *Classifier) classifyFrame(frame candidate.Opaque) Outcome {
	src := strings.TrimSpace(frame.Attr("src"))
	blank := src == "" || strings.EqualFold(src, "about:blank")
	keyword, hasKeyword := adIDKeyword(frame)

	var (
		typ      model.Type
		evidence string
		rule     string
		dest     destination
	)
	if !blank {
		dest = newDestination(c.page, src)
	}

	switch {
	case blank && hasKeyword:
		typ, evidence, rule = model.TypeAd, "Iframe ID contains "+keyword, "blank-ad-id"
	case blank:
		typ, evidence, rule = model.TypeSponsored, "Blank iframe source (dynamic content or tracking pixel)", "blank-source"
	default:
		if domain, ok := dest.adDomain(c.adDomains); ok {
			typ, evidence, rule = model.TypeAd, "Iframe source matches: "+domain, "ad-domain"
		} else if hasKeyword {
			typ, evidence, rule = model.TypeAd, "Iframe ID contains "+keyword, "ad-id"
		} else if !dest.malformed() && (dest.host == "" || RootDomain(dest.host) == RootDomain(c.page.Hostname())) {
			typ, evidence, rule = model.TypeNews, "Iframe source is an internal embed: "+hostOrPage(dest.host, c.page), "internal-embed"
		} else {
			typ, evidence, rule = model.TypeSponsored, "Iframe from external source: "+hostOrRaw(dest), "external-source"
		}
	}

	details := []string{
		evidence,
		"Kind: " + frame.Kind().String(),
	}
	if blank {
		details = append(details, "Source: (blank)")
	} else {
		details = append(details, "Source: "+dest.String())
	}
	if id := frame.Attr("id"); id != "" {
		details = append(details, "Iframe ID: "+id)
	}
	if name := frame.Attr("name"); name != "" {
		details = append(details, "Iframe name: "+name)
	}

	out := Outcome{
		Result: model.NewResult(typ, []string{evidence}, details),
		Target: frame.Node(),
		Rule:   rule,
	}
	if !blank {
		out.URL = dest.parsedURL()
	}
	if typ != model.TypeNews {
		if parent := frame.Node().Parent; dom.IsElement(parent) {
			out.Target = parent
			out.Zone = parent
		}
	}
	return out
}

// adIDKeyword looks for an ad-slot keyword in the frame id and name.
func adIDKeyword(frame candidate.Opaque) (string, bool) {
	ident := strings.ToLower(frame.Attr("id") + " " + frame.Attr("name"))
	for _, kw := range AdIDKeywords {
		if strings.Contains(ident, kw) {
			return kw, true
		}
	}
	return "", false
}

func hostOrPage(host string, page Location) string {
	if host != "" {
		return host
	}
	return page.Hostname()
}

func hostOrRaw(d destination) string {
	if d.host != "" {
		return d.host
	}
	return d.raw
}
