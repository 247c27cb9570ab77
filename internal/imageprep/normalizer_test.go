package imageprep_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oshikake/internal/config"
	"oshikake/internal/imageprep"
)

func testConfig() config.NormalizerConfig {
	return config.NormalizerConfig{
		Profile:      imageprep.ProfileOCR,
		MaxBytes:     4 * 1024 * 1024,
		MinDim:       800,
		MaxDim:       1600,
		QualityFloor: 40,
		QualityStep:  10,
	}
}

// encodePNG renders a w x h checkerboard so the encoded bytes are not
// trivially compressible.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 30, G: 30, B: 30, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 220, G: 220, B: 220, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_UpscalesSmallImages(t *testing.T) {
	n := imageprep.New(testConfig())
	res := n.Normalize(encodePNG(t, 400, 300))

	assert.False(t, res.DecodeFailed)
	assert.GreaterOrEqual(t, res.Width, 800)
	assert.GreaterOrEqual(t, res.Height, 800)
	// Aspect ratio survives within rounding.
	assert.InDelta(t, 400.0/300.0, float64(res.Width)/float64(res.Height), 0.02)
}

func TestNormalize_DownscalesOversizedImages(t *testing.T) {
	n := imageprep.New(testConfig())
	res := n.Normalize(encodePNG(t, 3200, 2400))

	assert.LessOrEqual(t, res.Width, 1600)
	assert.LessOrEqual(t, res.Height, 1600)
}

func TestNormalize_KeepsInRangeDimensions(t *testing.T) {
	n := imageprep.New(testConfig())
	res := n.Normalize(encodePNG(t, 1200, 900))

	assert.Equal(t, 1200, res.Width)
	assert.Equal(t, 900, res.Height)
}

func TestNormalize_DecodeFailurePassthrough(t *testing.T) {
	n := imageprep.New(testConfig())
	original := []byte("definitely not an image")
	res := n.Normalize(original)

	assert.True(t, res.DecodeFailed)
	assert.Equal(t, original, res.Data)
}

func TestNormalize_SizeOnlyPassthroughUnderCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.Profile = imageprep.ProfileSizeOnly
	n := imageprep.New(cfg)

	original := encodePNG(t, 1000, 1000)
	res := n.Normalize(original)

	assert.Equal(t, original, res.Data)
	assert.Equal(t, []string{"passthrough"}, res.Steps)
}

func TestNormalize_TerminatesUnderTinyCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBytes = 2048
	n := imageprep.New(cfg)

	// The ladder cannot possibly fit this image under 2 KiB; the call must
	// still return the smallest candidate instead of looping or failing.
	res := n.Normalize(encodePNG(t, 1600, 1600))

	assert.False(t, res.DecodeFailed)
	assert.NotEmpty(t, res.Data)
	assert.Contains(t, res.Steps, "jpeg q=40")
}

func TestNormalize_Deterministic(t *testing.T) {
	n := imageprep.New(testConfig())
	input := encodePNG(t, 1024, 768)

	first := n.Normalize(input)
	second := n.Normalize(input)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Steps, second.Steps)
}
