package search

import (
	"fmt"
	"strings"

	"portfolio/pkg/config"
)

const (
	providerTavily  = "tavily"
	providerBrave   = "brave"
	providerSearxng = "searxng"
)

// Config holds environment configuration for search providers.
type Config struct {
	Provider string
	APIKey   string
	APIURL   string
}

// LoadConfig loads search configuration from the environment. An empty
// Provider means research is disabled.
func LoadConfig() Config {
	return Config{
		Provider: strings.ToLower(config.GetEnv("SEARCH_PROVIDER", "")),
		APIKey:   config.GetEnv("SEARCH_API_KEY", ""),
		APIURL:   config.GetEnv("SEARCH_API_URL", ""),
	}
}

// Enabled reports whether enough is configured to build a provider.
func (c Config) Enabled() bool {
	switch c.Provider {
	case providerTavily, providerBrave:
		return c.APIKey != ""
	case providerSearxng:
		return c.APIURL != ""
	default:
		return false
	}
}

// NewProvider creates a search provider from configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case providerTavily:
		return NewTavilyProvider(cfg.APIKey, cfg.APIURL)
	case providerBrave:
		return NewBraveProvider(cfg.APIKey, cfg.APIURL)
	case providerSearxng:
		return NewSearxngProvider(cfg.APIURL)
	default:
		return nil, fmt.Errorf("unsupported search provider: %q", cfg.Provider)
	}
}
