package config

// SiteConfig holds per-host overrides for crawl behavior. Keys in the
// config file are bare hosts (e.g. "docs.example.com").
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with requests to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers for requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global recursion bound for seeds on this
	// host. Zero means the global depth applies.
	Depth int `yaml:"depth,omitempty"`

	// Include overrides the global include pattern for seeds on this host.
	Include string `yaml:"include,omitempty"`

	// Exclude overrides the global exclude pattern for seeds on this host.
	Exclude string `yaml:"exclude,omitempty"`
}

// File represents the structure of the .linkscan configuration file.
type File struct {
	// Sites maps hosts to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every host unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the effective configuration for a host, merging
// the site-specific entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.Include != "" {
		result.Include = siteConfig.Include
	}
	if siteConfig.Exclude != "" {
		result.Exclude = siteConfig.Exclude
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
