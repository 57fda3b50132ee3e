package report

import (
	"slices"
	"strings"

	"github.com/nao1215/newsadvisor/internal/model"
)

// Placement is a labeled snippet that appeared on more than one page.
type Placement struct {
	// Fingerprint is the shared markup fingerprint.
	Fingerprint string `json:"fingerprint"`

	// Type is the classification of the first occurrence.
	Type model.Type `json:"type"`

	// Pages lists the page URLs carrying the snippet, in batch order.
	Pages []string `json:"pages"`
}

// Totals aggregates a batch of page reports.
type Totals struct {
	// Pages is the number of reports.
	Pages int `json:"pages"`

	// Disabled is the number of pages on which the advisor stayed off.
	Disabled int `json:"disabled"`

	// Errors is the number of pages that failed to load or run.
	Errors int `json:"errors"`

	// Classified counts outcomes per type across all pages.
	Classified map[model.Type]int `json:"classified"`

	// Zones is the total number of zones.
	Zones int `json:"zones"`

	// Annotations is the total number of labeled elements.
	Annotations int `json:"annotations"`

	// Repeated lists snippets labeled on more than one page.
	Repeated []Placement `json:"repeated,omitempty"`
}

// Summarize computes Totals over reports. Nil reports are ignored.
func Summarize(reports []*model.PageReport) Totals {
	t := Totals{Classified: make(map[model.Type]int)}
	byPrint := make(map[string]*Placement)
	order := make([]string, 0)

	for _, r := range reports {
		if r == nil {
			continue
		}
		t.Pages++
		if r.Disabled {
			t.Disabled++
		}
		if r.Error != "" {
			t.Errors++
		}
		for typ, n := range r.Stats.Classified {
			t.Classified[typ] += n
		}
		t.Zones += r.Stats.Zones
		t.Annotations += len(r.Annotations)

		for _, a := range r.Annotations {
			if a.Fingerprint == "" {
				continue
			}
			p, ok := byPrint[a.Fingerprint]
			if !ok {
				p = &Placement{Fingerprint: a.Fingerprint, Type: a.Result.Type()}
				byPrint[a.Fingerprint] = p
				order = append(order, a.Fingerprint)
			}
			if !slices.Contains(p.Pages, r.URL) {
				p.Pages = append(p.Pages, r.URL)
			}
		}
	}

	for _, fp := range order {
		if p := byPrint[fp]; len(p.Pages) > 1 {
			t.Repeated = append(t.Repeated, *p)
		}
	}
	slices.SortStableFunc(t.Repeated, func(a, b Placement) int {
		if d := len(b.Pages) - len(a.Pages); d != 0 {
			return d
		}
		return strings.Compare(a.Fingerprint, b.Fingerprint)
	})
	return t
}

// Total returns the number of classified candidates.
func (t Totals) Total() int {
	total := 0
	for _, n := range t.Classified {
		total += n
	}
	return total
}
