// Package model defines the core data structures shared by the advisor.
//
// This package contains the following main types:
//   - Type: the classification outcome (news, ad, sponsored, neutral)
//   - Kind: the capability tag assigned to a candidate at registration
//   - Result: an immutable classification outcome with its evidence trail
//   - Annotation: what the presentation layer receives for a labeled element
//   - PageReport: a per-page summary of one advisor session
//
// Models live in their own package because the classifier, the engine, the
// presentation collaborators and the report writers all consume them.
//
// The models are serializable to JSON for report output.
package model
