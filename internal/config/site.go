package config

// SiteConfig holds per-host settings for a directory site.
// This covers things that do not belong on the command line, such as
// session cookies for directories that gate result pages behind a login.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send with requests to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// DelaySeconds overrides the global politeness delay for this host.
	// Zero means use the global delay.
	DelaySeconds float64 `yaml:"delaySeconds,omitempty"`

	// MaxPages overrides the global listing page limit for this host.
	// Zero means use the global limit.
	MaxPages int `yaml:"maxPages,omitempty"`
}

// File represents the structure of the .empresascan configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	// Keys are bare hosts (e.g., "www.einforma.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all hosts
	// unless overridden in the host-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the host-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with host-specific configuration if present
	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.DelaySeconds != 0 {
			result.DelaySeconds = siteConfig.DelaySeconds
		}
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
	}

	return result
}
