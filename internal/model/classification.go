package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type is the classification outcome for a candidate.
// The zero value is TypeNews so that an unset Type never reads as an ad.
type Type int

const (
	// TypeNews marks editorial content.
	TypeNews Type = iota

	// TypeAd marks content served by an advertising network.
	TypeAd

	// TypeSponsored marks paid, partner or recommendation-network content.
	TypeSponsored

	// TypeNeutral marks content too small to judge. Neutral results are
	// never annotated.
	TypeNeutral
)

// AllTypes lists every classification outcome in display order.
var AllTypes = []Type{TypeNews, TypeAd, TypeSponsored, TypeNeutral}

// String returns the lower-case identifier used in markup attributes,
// JSON output and the settings store.
func (t Type) String() string {
	switch t {
	case TypeNews:
		return "news"
	case TypeAd:
		return "ad"
	case TypeSponsored:
		return "sponsored"
	case TypeNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

var titleCaser = cases.Title(language.English)

// Label returns the human-readable badge label ("News", "Ad", ...).
func (t Type) Label() string {
	return titleCaser.String(t.String())
}

// Annotated reports whether a result of this type produces a visible badge.
func (t Type) Annotated() bool {
	return t == TypeNews || t == TypeAd || t == TypeSponsored
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType converts an identifier produced by Type.String back to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "news":
		return TypeNews, nil
	case "ad":
		return TypeAd, nil
	case "sponsored":
		return TypeSponsored, nil
	case "neutral":
		return TypeNeutral, nil
	default:
		return TypeNews, fmt.Errorf("unknown classification type %q", s)
	}
}

// TypeInfo carries the presentation text attached to each outcome.
type TypeInfo struct {
	// Headline is the tooltip title.
	Headline string

	// Intro is the first paragraph of the transparency panel.
	Intro string
}

// typeInfoMapping is the single source of presentation text per outcome.
var typeInfoMapping = map[Type]TypeInfo{
	TypeNews: {
		Headline: "Classified as News",
		Intro:    "This content appears to be genuine news based on the following signals:",
	},
	TypeAd: {
		Headline: "Classified as Ad",
		Intro:    "This content appears to be an advertisement based on the following signals:",
	},
	TypeSponsored: {
		Headline: "Classified as Sponsored Content",
		Intro:    "This content appears to be sponsored or partner content based on the following signals:",
	},
	TypeNeutral: {
		Headline: "Not classified",
		Intro:    "This content was too small to classify.",
	},
}

// Info returns the presentation text for t.
func (t Type) Info() TypeInfo {
	if info, ok := typeInfoMapping[t]; ok {
		return info
	}
	return TypeInfo{Headline: "Unknown", Intro: "No classification is available."}
}

// Kind is the capability tag assigned to a candidate once, when it is
// registered. Dispatch happens on the tag rather than on live markup.
type Kind int

const (
	// KindLink is a hyperlink with a destination.
	KindLink Kind = iota

	// KindFrame is an embedded frame. Its document is never inspected.
	KindFrame

	// KindWidget is a recommendation-widget container that can be traversed.
	KindWidget

	// KindShadowHost is a recommendation-widget container whose content is
	// encapsulated and cannot be traversed.
	KindShadowHost
)

// String returns the identifier of the kind.
func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindFrame:
		return "frame"
	case KindWidget:
		return "widget"
	case KindShadowHost:
		return "shadow-host"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Opaque reports whether candidates of this kind are black boxes.
func (k Kind) Opaque() bool {
	return k == KindFrame || k == KindShadowHost
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind converts an identifier produced by Kind.String back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "link":
		return KindLink, nil
	case "frame":
		return KindFrame, nil
	case "widget":
		return KindWidget, nil
	case "shadow-host":
		return KindShadowHost, nil
	default:
		return KindLink, fmt.Errorf("unknown candidate kind %q", s)
	}
}
