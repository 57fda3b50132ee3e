// Package log provides secure logging built on top of the standard slog
// package.
//
// Pages carry more secrets than one expects: login links with session
// tokens, ad click identifiers that single out one visitor, cookies passed
// through the loader. The SecureHandler wraps any slog.Handler and
// removes them before a record is written:
//   - attributes whose key names a credential (cookie, authorization,
//     password, token, session) are replaced by MaskValue
//   - string values that look like a credential (JWT, bearer, basic auth,
//     long API keys, private key blocks) are replaced by MaskValue
//   - URL values keep their host and path, but sensitive query parameters
//     (session ids, tokens, ad click ids) have their values masked
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("page loaded", "url", "https://news.example.com/a?gclid=abc")
//	// url=https://news.example.com/a?gclid=***
package log
