package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"oshikake/internal/config"
)

// ProfileOCR always re-encodes with the enhancement passes; ProfileSizeOnly
// touches the image only when it exceeds the byte ceiling.
const (
	ProfileOCR      = "ocr"
	ProfileSizeOnly = "size-only"
)

// Result is the outcome of a normalization pass. Data is always usable:
// when the input cannot be decoded, Data is the original bytes and
// DecodeFailed is set so the caller can log the condition.
type Result struct {
	Data         []byte
	Format       string
	Width        int
	Height       int
	DecodeFailed bool
	Steps        []string
}

// Normalizer resizes and re-encodes document images so they fit the
// extraction model's size constraints while keeping text legible.
type Normalizer struct {
	profile      string
	maxBytes     int
	minDim       int
	maxDim       int
	qualityFloor int
	qualityStep  int
}

// New creates a Normalizer from configuration.
func New(cfg config.NormalizerConfig) *Normalizer {
	n := &Normalizer{
		profile:      cfg.Profile,
		maxBytes:     cfg.MaxBytes,
		minDim:       cfg.MinDim,
		maxDim:       cfg.MaxDim,
		qualityFloor: cfg.QualityFloor,
		qualityStep:  cfg.QualityStep,
	}
	if n.profile == "" {
		n.profile = ProfileOCR
	}
	if n.qualityStep <= 0 {
		n.qualityStep = 10
	}
	if n.qualityFloor <= 0 {
		n.qualityFloor = 40
	}
	return n
}

// Normalize produces output bytes for the given image. It never fails for
// size reasons: when no rung of the encoding ladder fits under the byte
// ceiling the smallest candidate is returned as a best effort.
func (n *Normalizer) Normalize(data []byte) Result {
	if n.profile == ProfileSizeOnly && n.maxBytes > 0 && len(data) <= n.maxBytes {
		return Result{Data: data, Format: "original", Steps: []string{"passthrough"}}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{Data: data, Format: "original", DecodeFailed: true,
			Steps: []string{"decode failed, original bytes kept"}}
	}

	res := n.render(src, 1.0)
	if n.maxBytes > 0 && len(res.Data) > n.maxBytes {
		// One further downscale retry before giving up on the ceiling.
		retry := n.render(src, 0.7)
		retry.Steps = append(res.Steps, retry.Steps...)
		if len(retry.Data) < len(res.Data) {
			res = retry
		}
	}
	return res
}

// render runs resize, enhancement, and the encoding ladder at the given
// extra scale factor. Deterministic for identical input and parameters.
func (n *Normalizer) render(src image.Image, extraScale float64) Result {
	var steps []string

	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	tw, th, step := n.targetDims(w, h)
	if step != "" {
		steps = append(steps, step)
	}
	if extraScale != 1.0 {
		tw = int(float64(tw) * extraScale)
		th = int(float64(th) * extraScale)
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
		steps = append(steps, fmt.Sprintf("downscale retry (%dx%d)", tw, th))
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	// White background so transparent regions read as paper, not black.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	if n.profile == ProfileOCR {
		enhance(dst)
		steps = append(steps, "grayscale", "contrast stretch")
	}

	// Encoding ladder: lossless PNG first, then JPEG at descending quality.
	best, format, encSteps := n.encode(dst)
	steps = append(steps, encSteps...)

	return Result{Data: best, Format: format, Width: tw, Height: th, Steps: steps}
}

// targetDims computes output dimensions preserving aspect ratio: small
// images are upscaled so the shorter side reaches minDim (extraction
// accuracy improves with size), oversized ones are shrunk so the longer
// side fits maxDim.
func (n *Normalizer) targetDims(w, h int) (int, int, string) {
	if w < n.minDim || h < n.minDim {
		scale := maxf(float64(n.minDim)/float64(w), float64(n.minDim)/float64(h))
		tw, th := int(float64(w)*scale), int(float64(h)*scale)
		return tw, th, fmt.Sprintf("upscale (%dx%d)", tw, th)
	}
	if w > n.maxDim && h > n.maxDim {
		scale := minf(float64(n.maxDim)/float64(w), float64(n.maxDim)/float64(h))
		tw, th := int(float64(w)*scale), int(float64(h)*scale)
		return tw, th, fmt.Sprintf("downscale (%dx%d)", tw, th)
	}
	return w, h, ""
}

// encode walks the quality ladder and returns the first candidate under
// the byte ceiling, or the smallest candidate when none fits.
func (n *Normalizer) encode(img image.Image) ([]byte, string, []string) {
	var steps []string

	var pngBuf bytes.Buffer
	_ = png.Encode(&pngBuf, img)
	steps = append(steps, "png")
	if n.maxBytes <= 0 || pngBuf.Len() <= n.maxBytes {
		return pngBuf.Bytes(), "png", steps
	}

	best := pngBuf.Bytes()
	format := "png"
	for q := 90; q >= n.qualityFloor; q -= n.qualityStep {
		var jpgBuf bytes.Buffer
		_ = jpeg.Encode(&jpgBuf, img, &jpeg.Options{Quality: q})
		steps = append(steps, fmt.Sprintf("jpeg q=%d", q))
		if jpgBuf.Len() <= n.maxBytes {
			return jpgBuf.Bytes(), "jpeg", steps
		}
		if jpgBuf.Len() < len(best) {
			best = jpgBuf.Bytes()
			format = "jpeg"
		}
	}
	return best, format, steps
}

// enhance converts to grayscale and stretches contrast in place: dark
// pixels get darker, bright pixels brighter, so print stands out from paper.
func enhance(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			gray := int(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B) + 0.5)
			var v int
			if gray < 128 {
				v = gray - 20
				if v < 0 {
					v = 0
				}
			} else {
				v = gray + 30
				if v > 255 {
					v = 255
				}
			}
			img.SetRGBA(x, y, color.RGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: c.A})
		}
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
