package loader

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/nao1215/newsadvisor/internal/dom"
	"golang.org/x/net/html"
)

// Page is a parsed document ready for a session.
type Page struct {
	// Source is the target the page was read from.
	Source string

	// URL is the page location the session should be bound to.
	URL string

	// StatusCode is the HTTP status of remote pages, zero otherwise.
	StatusCode int

	// ContentType is the Content-Type header of remote pages.
	ContentType string

	// Title is the document title.
	Title string

	// Lang is the lang attribute of the html element.
	Lang string

	// Canonical is the absolute canonical link, if the page declares one.
	Canonical string

	// Description is the content of the description meta tag.
	Description string

	// Size is the number of bytes parsed.
	Size int64

	// Truncated is true when the source exceeded the body size limit.
	Truncated bool

	// ViewportHeight is the per-site viewport override, zero if none.
	ViewportHeight int

	// Doc is the document tree.
	Doc *html.Node
}

// Parse parses an HTML document and collects its metadata. Relative
// references are resolved against pageURL.
func Parse(r io.Reader, pageURL string) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &Page{URL: pageURL, Doc: doc}
	dom.Walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "html":
			if p.Lang == "" {
				p.Lang = dom.Attr(n, "lang")
			}
		case "title":
			if p.Title == "" {
				p.Title = textOf(n)
			}
		case "link":
			if p.Canonical == "" && hasToken(dom.Attr(n, "rel"), "canonical") {
				p.Canonical = resolve(base, dom.Attr(n, "href"))
			}
		case "meta":
			if p.Description == "" && strings.EqualFold(dom.Attr(n, "name"), "description") {
				p.Description = strings.TrimSpace(dom.Attr(n, "content"))
			}
		case "body":
			// Metadata lives in head; body content is the engine's.
			return false
		}
		return true
	})
	return p, nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
