package extract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oshikake/internal/config"
	"oshikake/internal/extract"
	_ "oshikake/internal/extract/claude"
	_ "oshikake/internal/extract/gemini"
	"oshikake/internal/port"
)

func TestNewExtractor_KnownProviders(t *testing.T) {
	for _, provider := range []string{"claude", "gemini"} {
		e, err := extract.NewExtractor(&config.ExtractorProviderConfig{Provider: provider})
		require.NoError(t, err, provider)
		assert.NotNil(t, e)
	}
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := extract.NewExtractor(&config.ExtractorProviderConfig{Provider: "palm"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extractor provider")
}

func TestBuildChain_NoProviders(t *testing.T) {
	_, err := extract.BuildChain(&config.ExtractorConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extractor providers configured")
}

func TestBuildChain_SingleProvider(t *testing.T) {
	chain, err := extract.BuildChain(&config.ExtractorConfig{
		Primary:     config.ExtractorProviderConfig{Provider: "claude"},
		MaxAttempts: 1,
	})

	require.NoError(t, err)
	assert.IsType(t, &extract.Retrier{}, chain)
}

func TestBuildChain_RegisteredProviderIsUsed(t *testing.T) {
	called := false
	extract.RegisterProvider("custom", func(cfg *config.ExtractorProviderConfig) (port.OrderExtractor, error) {
		called = true
		return stubExtractor{}, nil
	})

	_, err := extract.BuildChain(&config.ExtractorConfig{
		Primary: config.ExtractorProviderConfig{Provider: "custom"},
	})

	require.NoError(t, err)
	assert.True(t, called)
}

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, port.ExtractInput) (*port.ExtractOutput, error) {
	return &port.ExtractOutput{RawText: "{}"}, nil
}
