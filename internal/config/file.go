package config

// SiteConfig holds per-host loading options.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when loading pages of this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ViewportHeight overrides the viewport height for this host.
	ViewportHeight int `yaml:"viewportHeight,omitempty"`
}

// File represents the structure of the .newsadvisor configuration file.
type File struct {
	// Settings replaces the default session settings when present.
	Settings *Settings `yaml:"settings,omitempty"`

	// AllowList adds hostnames on which the advisor stays off.
	AllowList []string `yaml:"allowList,omitempty"`

	// Margin overrides the scheduler proximity margin.
	Margin *int `yaml:"margin,omitempty"`

	// ViewportHeight overrides the initial viewport height.
	ViewportHeight int `yaml:"viewportHeight,omitempty"`

	// RowHeight overrides the FlowLayout row height.
	RowHeight int `yaml:"rowHeight,omitempty"`

	// AdDomains extends the ad-network domain list.
	AdDomains []string `yaml:"adDomains,omitempty"`

	// WidgetSelectors extends the recommendation-widget selectors.
	WidgetSelectors []string `yaml:"widgetSelectors,omitempty"`

	// Sites maps hostnames to their loading options.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the options for a host, merged over Defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if result.Headers != nil {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.ViewportHeight > 0 {
		result.ViewportHeight = siteConfig.ViewportHeight
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	return result
}
