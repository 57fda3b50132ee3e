package log

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces a redacted attribute value.
const MaskValue = "***REDACTED***"

// MaskParam replaces the value of a redacted query parameter.
const MaskParam = "***"

// credentialHeaders are attribute keys that are always masked. They are
// compared case-insensitively.
var credentialHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"set-cookie":          {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"api_key":             {},
	"apikey":              {},
	"api-key":             {},
	"sid":                 {},
	"jsessionid":          {},
	"sessionid":           {},
	"session_id":          {},
	"session":             {},
}

// credentialWords mask any attribute key that contains them. The bare
// word "key" is not listed: primary_key or hotkey are not secrets.
var credentialWords = []string{
	"password", "passwd", "secret", "token", "auth",
	"credential", "private", "cookie",
}

// trackingParams are query parameters that identify a visitor or carry a
// credential. Site cookies and logins end up in the first group, ad
// networks put per-click identifiers in the second.
var trackingParams = map[string]struct{}{
	"token": {}, "access_token": {}, "id_token": {}, "auth": {}, "key": {},
	"api_key": {}, "apikey": {}, "sig": {}, "signature": {}, "password": {},
	"session": {}, "sessionid": {}, "session_id": {}, "sid": {},
	"jsessionid": {}, "phpsessid": {}, "email": {},

	"gclid": {}, "dclid": {}, "fbclid": {}, "msclkid": {}, "yclid": {},
	"ttclid": {}, "twclid": {}, "tblci": {}, "dicbo": {}, "obclickid": {},
	"mc_eid": {}, "_hsenc": {}, "oly_enc_id": {}, "vero_id": {}, "wickedid": {},
}

// credentialShapes match values that are masked whatever their key.
var credentialShapes = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// SecureHandler is an slog.Handler that redacts credentials and visitor
// identifiers before records reach the wrapped handler. Keys naming a
// credential and values shaped like one become MaskValue; http(s) URLs
// keep everything but the values of tracking parameters.
type SecureHandler struct {
	next slog.Handler
}

// NewSecureHandler wraps next. A nil next wraps the default handler.
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		clean = append(clean, redact(a))
	}
	return &SecureHandler{next: h.next.WithAttrs(clean)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}

func redact(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		members := v.Group()
		clean := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			clean = append(clean, redact(m))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	if isCredentialKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if v.Kind() != slog.KindString {
		return slog.Attr{Key: a.Key, Value: v}
	}

	s := v.String()
	if looksLikeCredential(s) {
		return slog.String(a.Key, MaskValue)
	}
	if masked, ok := maskURL(s); ok {
		return slog.String(a.Key, masked)
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func isCredentialKey(key string) bool {
	k := strings.ToLower(key)
	if _, ok := credentialHeaders[k]; ok {
		return true
	}
	for _, w := range credentialWords {
		if strings.Contains(k, w) {
			return true
		}
	}
	return false
}

func looksLikeCredential(s string) bool {
	for _, re := range credentialShapes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// maskURL masks tracking parameter values of an absolute http(s) URL,
// keeping parameter order and the rest of the URL. It reports false when
// s is not such a URL or carries no tracking parameter.
func maskURL(s string) (string, bool) {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.RawQuery == "" {
		return "", false
	}

	pairs := strings.Split(u.RawQuery, "&")
	changed := false
	for i, pair := range pairs {
		raw, _, hasValue := strings.Cut(pair, "=")
		if !hasValue {
			continue
		}
		name, err := url.QueryUnescape(raw)
		if err != nil {
			name = raw
		}
		if _, ok := trackingParams[strings.ToLower(name)]; !ok {
			continue
		}
		pairs[i] = raw + "=" + MaskParam
		changed = true
	}
	if !changed {
		return "", false
	}
	u.RawQuery = strings.Join(pairs, "&")
	return u.String(), true
}
