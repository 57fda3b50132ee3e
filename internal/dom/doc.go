// Package dom provides helpers over golang.org/x/net/html trees.
//
// The advisor treats an *html.Node tree as the live document: hosts apply
// structural changes to it and the engine reads and annotates it. This
// package holds the small tree operations every other package needs:
// attribute and class access, ancestor search, visible-text extraction,
// XPath addressing and markup snippets.
//
// None of the helpers descend into opaque content: <template> elements
// (declarative shadow roots) and <iframe> children are skipped by every
// traversal.
package dom
