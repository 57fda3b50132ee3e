package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Setting keys accepted by Settings.Set and Settings.Get.
const (
	KeyEnabled   = "enabled"
	KeyOverlay   = "overlay"
	KeyFocusMode = "focus_mode"
	KeyTooltip   = "tooltip"
	KeyPanel     = "panel"
	KeyAllowList = "allow_list"
)

// SettingKeys lists every setting key in display order.
var SettingKeys = []string{KeyEnabled, KeyOverlay, KeyFocusMode, KeyTooltip, KeyPanel, KeyAllowList}

// Settings are the run toggles of an advisor session. They are
// re-evaluated on every update.
type Settings struct {
	// Enabled turns the advisor on or off.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Overlay controls annotations. With the overlay off the advisor is
	// inactive and existing annotations are reverted.
	Overlay bool `yaml:"overlay" json:"overlay"`

	// FocusMode marks the page body so that non-news content can be
	// de-emphasised.
	FocusMode bool `yaml:"focus_mode" json:"focus_mode"`

	// Tooltip enables the hover hook.
	Tooltip bool `yaml:"tooltip" json:"tooltip"`

	// Panel enables the click hook.
	Panel bool `yaml:"panel" json:"panel"`

	// AllowList holds hostnames on which the advisor stays off. An entry
	// matches the hostname itself and its subdomains.
	AllowList []string `yaml:"allow_list,omitempty" json:"allow_list,omitempty"`
}

// DefaultSettings returns the settings of a fresh install: everything on
// except focus mode.
func DefaultSettings() Settings {
	return Settings{
		Enabled:   true,
		Overlay:   true,
		FocusMode: false,
		Tooltip:   true,
		Panel:     true,
	}
}

// Allowed reports whether host is on the allow-list.
func (s Settings) Allowed(host string) bool {
	h := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	if h == "" {
		return false
	}
	for _, entry := range s.AllowList {
		e := normalizeHost(entry)
		if e == "" {
			continue
		}
		if h == e || strings.HasSuffix(h, "."+e) {
			return true
		}
	}
	return false
}

// Active reports whether a session on host should classify and annotate.
func (s Settings) Active(host string) bool {
	return s.Enabled && s.Overlay && !s.Allowed(host)
}

// FocusActive reports whether focus mode applies on host.
func (s Settings) FocusActive(host string) bool {
	return s.Enabled && s.FocusMode && !s.Allowed(host)
}

// Equal reports whether two settings are identical.
func (s Settings) Equal(other Settings) bool {
	return s.Enabled == other.Enabled &&
		s.Overlay == other.Overlay &&
		s.FocusMode == other.FocusMode &&
		s.Tooltip == other.Tooltip &&
		s.Panel == other.Panel &&
		slices.Equal(s.AllowList, other.AllowList)
}

// Get returns the string form of one setting.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case KeyEnabled:
		return strconv.FormatBool(s.Enabled), nil
	case KeyOverlay:
		return strconv.FormatBool(s.Overlay), nil
	case KeyFocusMode:
		return strconv.FormatBool(s.FocusMode), nil
	case KeyTooltip:
		return strconv.FormatBool(s.Tooltip), nil
	case KeyPanel:
		return strconv.FormatBool(s.Panel), nil
	case KeyAllowList:
		return strings.Join(s.AllowList, ","), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
}

// Set updates one setting from its string form. The allow-list takes a
// comma-separated list of hostnames.
func (s *Settings) Set(key, value string) error {
	if key == KeyAllowList {
		s.AllowList = ParseAllowList(value)
		return nil
	}

	var target *bool
	switch key {
	case KeyEnabled:
		target = &s.Enabled
	case KeyOverlay:
		target = &s.Overlay
	case KeyFocusMode:
		target = &s.FocusMode
	case KeyTooltip:
		target = &s.Tooltip
	case KeyPanel:
		target = &s.Panel
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}

	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidSettingValue, key, value)
	}
	*target = v
	return nil
}

// ParseAllowList splits a comma or whitespace separated hostname list,
// normalizing and deduplicating entries.
func ParseAllowList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		h := normalizeHost(f)
		if h == "" || slices.Contains(out, h) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func normalizeHost(entry string) string {
	e := strings.ToLower(strings.TrimSpace(entry))
	e = strings.TrimPrefix(e, "*.")
	e = strings.TrimPrefix(e, ".")
	return strings.TrimPrefix(e, "www.")
}
