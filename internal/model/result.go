package model

import "encoding/json"

// Result is the outcome of classifying one candidate.
// A Result is immutable once produced: NewResult copies the evidence it is
// given and the accessors return copies.
type Result struct {
	typ     Type
	summary []string
	details []string
}

// NewResult builds a Result. Summary holds the evidence of the rule that
// fired, in rule-evaluation order. Details holds the full evidence trail.
func NewResult(typ Type, summary, details []string) Result {
	return Result{
		typ:     typ,
		summary: clone(summary),
		details: clone(details),
	}
}

// Type returns the classification outcome.
func (r Result) Type() Type {
	return r.typ
}

// Summary returns the short evidence list shown on hover.
func (r Result) Summary() []string {
	return clone(r.summary)
}

// Details returns the full evidence trail shown in the panel.
func (r Result) Details() []string {
	return clone(r.details)
}

// Reason returns the first summary entry, or an empty string.
func (r Result) Reason() string {
	if len(r.summary) == 0 {
		return ""
	}
	return r.summary[0]
}

// Equal reports whether two results carry the same outcome and evidence.
func (r Result) Equal(other Result) bool {
	return r.typ == other.typ &&
		equalStrings(r.summary, other.summary) &&
		equalStrings(r.details, other.details)
}

// resultJSON is the serialized shape of a Result.
type resultJSON struct {
	Type    Type     `json:"type"`
	Summary []string `json:"summary"`
	Details []string `json:"details"`
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Type:    r.typ,
		Summary: r.summary,
		Details: r.details,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewResult(raw.Type, raw.Summary, raw.Details)
	return nil
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
