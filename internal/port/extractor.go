package port

import "context"

// ExtractInput carries the image handed to an extraction provider.
type ExtractInput struct {
	ImageBytes  []byte
	ContentType string
}

// ExtractOutput holds the raw text the provider returned. The text is
// surfaced unmodified; interpreting it is the repair layer's job.
type ExtractOutput struct {
	RawText   string
	ModelUsed string
}

// OrderExtractor abstracts the vision model that turns a document image
// into the extraction contract's JSON text.
type OrderExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
