package model

import "time"

// PageReport summarizes one advisor session over one page.
type PageReport struct {
	// URL is the page location the session was bound to.
	URL string `json:"url"`

	// Hostname is the page hostname.
	Hostname string `json:"hostname"`

	// Title is the document title, when the page was loaded by newsadvisor.
	Title string `json:"title,omitempty"`

	// DateScanned is when the session started.
	DateScanned time.Time `json:"date_scanned"`

	// Elapsed is the wall-clock duration of the session.
	Elapsed time.Duration `json:"elapsed"`

	// Disabled is true when the settings or allow-list kept the advisor off.
	Disabled bool `json:"disabled"`

	// Stats counts what the engine did.
	Stats Stats `json:"stats"`

	// Annotations lists every labeled element in classification order.
	Annotations []Annotation `json:"annotations,omitempty"`

	// Pending is the number of candidates still waiting for visibility
	// when the session ended.
	Pending int `json:"pending"`

	// Error contains the error message if the session failed.
	Error string `json:"error,omitempty"`
}

// Stats counts engine activity for one session.
type Stats struct {
	// Registered is the number of candidates added to the watch set.
	Registered int `json:"registered"`

	// Skipped is the number of candidates marked processed without
	// classification.
	Skipped int `json:"skipped"`

	// Suppressed is the number of candidates found inside a zone when
	// their classification fired.
	Suppressed int `json:"suppressed"`

	// Classified counts classification outcomes per type.
	Classified map[Type]int `json:"classified"`

	// Zones is the number of containers promoted to a zone.
	Zones int `json:"zones"`

	// Failed is the number of candidates whose classification was aborted.
	Failed int `json:"failed"`
}

// NewPageReport creates an empty report for a page.
func NewPageReport(url, hostname string) *PageReport {
	return &PageReport{
		URL:         url,
		Hostname:    hostname,
		DateScanned: time.Now(),
		Stats: Stats{
			Classified: make(map[Type]int),
		},
		Annotations: make([]Annotation, 0),
	}
}

// Count returns the number of classifications of type t.
func (r *PageReport) Count(t Type) int {
	return r.Stats.Classified[t]
}

// TotalClassified returns the number of candidates that were classified.
func (r *PageReport) TotalClassified() int {
	total := 0
	for _, n := range r.Stats.Classified {
		total += n
	}
	return total
}

// HasAnnotations reports whether any element was labeled.
func (r *PageReport) HasAnnotations() bool {
	return len(r.Annotations) > 0
}

// AnnotationsOf returns the annotations of type t, in classification order.
func (r *PageReport) AnnotationsOf(t Type) []Annotation {
	out := make([]Annotation, 0)
	for _, a := range r.Annotations {
		if a.Result.Type() == t {
			out = append(out, a)
		}
	}
	return out
}
