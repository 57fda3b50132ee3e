// Package candidate recognizes the elements the advisor classifies and
// tags each one with a fixed capability once, at registration.
//
// A Candidate is a closed sum type. Link and Widget are traversable: their
// subtree can be scored for an injection point and read for text. Opaque
// covers embedded frames and shadow-encapsulated widgets: it exposes the
// host element's attributes and nothing below it, so classification code
// for black boxes has no way to walk into them.
package candidate
