package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oshikake/internal/extract"
	"oshikake/internal/port"
	"oshikake/mocks"
)

func TestFallbackExtractor_PrimarySucceeds(t *testing.T) {
	primary := new(mocks.MockOrderExtractor)
	secondary := new(mocks.MockOrderExtractor)
	primary.On("Extract", mock.Anything, mock.Anything).
		Return(&port.ExtractOutput{RawText: "primary"}, nil).Once()

	f := extract.NewFallbackExtractor(
		[]port.OrderExtractor{primary, secondary},
		[]string{"bedrock", "claude"},
	)
	out, err := f.Extract(context.Background(), port.ExtractInput{})

	require.NoError(t, err)
	assert.Equal(t, "primary", out.RawText)
	secondary.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_FallsBackOnFailure(t *testing.T) {
	primary := new(mocks.MockOrderExtractor)
	secondary := new(mocks.MockOrderExtractor)
	primary.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extract.NewServiceError("bedrock", errors.New("boom"))).Once()
	secondary.On("Extract", mock.Anything, mock.Anything).
		Return(&port.ExtractOutput{RawText: "secondary"}, nil).Once()

	f := extract.NewFallbackExtractor(
		[]port.OrderExtractor{primary, secondary},
		[]string{"bedrock", "claude"},
	)
	out, err := f.Extract(context.Background(), port.ExtractInput{})

	require.NoError(t, err)
	assert.Equal(t, "secondary", out.RawText)
}

func TestFallbackExtractor_OpensCircuitOnRateLimit(t *testing.T) {
	primary := new(mocks.MockOrderExtractor)
	secondary := new(mocks.MockOrderExtractor)
	primary.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extract.NewRateLimitError("bedrock", errors.New("429"), 300)).Once()
	secondary.On("Extract", mock.Anything, mock.Anything).
		Return(&port.ExtractOutput{RawText: "secondary"}, nil).Twice()

	f := extract.NewFallbackExtractor(
		[]port.OrderExtractor{primary, secondary},
		[]string{"bedrock", "claude"},
	)

	// First call rate-limits the primary and opens its circuit.
	_, err := f.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)

	// Second call must skip the primary entirely.
	_, err = f.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	primary.AssertNumberOfCalls(t, "Extract", 1)
}

func TestFallbackExtractor_AllRateLimited(t *testing.T) {
	primary := new(mocks.MockOrderExtractor)
	secondary := new(mocks.MockOrderExtractor)
	primary.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extract.NewRateLimitError("bedrock", errors.New("429"), 60)).Once()
	secondary.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extract.NewRateLimitError("claude", errors.New("429"), 120)).Once()

	f := extract.NewFallbackExtractor(
		[]port.OrderExtractor{primary, secondary},
		[]string{"bedrock", "claude"},
	)
	_, err := f.Extract(context.Background(), port.ExtractInput{})

	var rlErr *extract.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackExtractor_AllFailed(t *testing.T) {
	primary := new(mocks.MockOrderExtractor)
	primary.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extract.NewServiceError("bedrock", errors.New("boom"))).Once()

	f := extract.NewFallbackExtractor(
		[]port.OrderExtractor{primary},
		[]string{"bedrock"},
	)
	_, err := f.Extract(context.Background(), port.ExtractInput{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all extractors failed")
}
