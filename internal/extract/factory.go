package extract

import (
	"fmt"

	"oshikake/internal/config"
	"oshikake/internal/port"
)

// ProviderFactory is a function that creates an OrderExtractor from a
// provider config.
type ProviderFactory func(cfg *config.ExtractorProviderConfig) (port.OrderExtractor, error)

// registry of extractor provider factories, populated by init() in each
// provider package or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extractor provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates an OrderExtractor from a provider config using the
// registered factory.
func NewExtractor(cfg *config.ExtractorProviderConfig) (port.OrderExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// BuildChain assembles the configured providers into a single extractor:
// each provider config becomes a concrete extractor, multiple providers
// are stacked behind a fallback chain, and the whole thing is wrapped in
// the configured retry policy.
func BuildChain(cfg *config.ExtractorConfig) (port.OrderExtractor, error) {
	var (
		extractors []port.OrderExtractor
		names      []string
	)
	for _, pc := range cfg.Providers() {
		e, err := NewExtractor(pc)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, e)
		names = append(names, pc.Provider)
	}
	if len(extractors) == 0 {
		return nil, fmt.Errorf("no extractor providers configured")
	}

	var chain port.OrderExtractor = extractors[0]
	if len(extractors) > 1 {
		chain = NewFallbackExtractor(extractors, names)
	}
	return NewRetrier(chain, cfg.MaxAttempts, cfg.BackoffBase), nil
}
