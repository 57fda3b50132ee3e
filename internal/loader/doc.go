// Package loader reads pages for offline advisor sessions.
//
// A target is a local file, "-" for standard input, or an http(s) URL.
// Remote pages are fetched with a plain GET: the configured User-Agent,
// per-site cookies and headers from the configuration file, and a body
// size limit. The result is parsed with golang.org/x/net/html into the
// tree an engine.Session works on.
//
// # Usage
//
//	l := loader.New(loader.WithUserAgent(cfg.UserAgent), loader.WithSites(cfg.File))
//	page, err := l.Load(ctx, "https://news.example.com/", "")
//	sess, err := engine.NewSession(page.Doc, page.URL)
//
// The loader never runs scripts. Content inserted by scripts reaches the
// engine through replay scripts or the live browser host instead.
package loader
