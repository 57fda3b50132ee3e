package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Param is a single query parameter flagged as tracking-related.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParsedURL is the destination breakdown shown in the transparency panel.
type ParsedURL struct {
	// Hostname is the destination host without port.
	Hostname string `json:"hostname"`

	// FlaggedParams are the tracking parameters found in the query string,
	// in the order they appear.
	FlaggedParams []Param `json:"flagged_params,omitempty"`
}

// Point is a pointer position in viewport coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Annotation describes one labeled element.
// It is produced for every non-neutral classification and handed to the
// presentation collaborators and report writers.
type Annotation struct {
	// BadgeID identifies the badge inserted into the document.
	BadgeID int `json:"badge_id"`

	// Kind is the capability tag of the candidate that was classified.
	Kind Kind `json:"kind"`

	// Result is the classification outcome and its evidence.
	Result Result `json:"result"`

	// Target is the XPath of the labeled element.
	Target string `json:"target"`

	// Anchor is the XPath of the element that carries the badge.
	Anchor string `json:"anchor"`

	// Snippet is the truncated outer markup of the labeled element.
	Snippet string `json:"snippet"`

	// URL is the parsed destination, if the candidate had one.
	URL *ParsedURL `json:"url,omitempty"`

	// Zone is true when the labeled element was promoted to a zone.
	Zone bool `json:"zone"`

	// Fingerprint is the SHA3-256 of the snippet, hex encoded.
	Fingerprint string `json:"fingerprint"`
}

// Fingerprint returns the hex SHA3-256 digest of a markup snippet.
// Identical markup on different pages yields the same fingerprint, which
// lets batch reports group repeated placements.
func Fingerprint(snippet string) string {
	sum := sha3.Sum256([]byte(snippet))
	return hex.EncodeToString(sum[:])
}
