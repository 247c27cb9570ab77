package domain

import "strings"

// Category classifies an order by the merchandise brand it belongs to,
// derived from the order-ID prefix printed on the document.
type Category string

const (
	CategoryHololive  Category = "hololive"
	CategoryNijisanji Category = "nijisanji"
	CategorySixfonia  Category = "sixfonia"
	CategoryOther     Category = "other"
	CategoryError     Category = "error"
)

// ValidCategories is the closed set of persistable categories.
var ValidCategories = map[Category]bool{
	CategoryHololive:  true,
	CategoryNijisanji: true,
	CategorySixfonia:  true,
	CategoryOther:     true,
	CategoryError:     true,
}

// CategoryForOrderID derives the category from the order-ID prefix.
// Only the prefix is significant; the rest of the string (and its casing)
// does not affect the result.
func CategoryForOrderID(orderID string) Category {
	switch {
	case strings.HasPrefix(orderID, "#"):
		return CategoryHololive
	case strings.HasPrefix(orderID, "SN"):
		return CategoryNijisanji
	case strings.HasPrefix(orderID, "sxfn"):
		return CategorySixfonia
	default:
		return CategoryOther
	}
}

// FileType represents the allowed upload file types.
type FileType string

const (
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types to FileType.
var AllowedContentTypes = map[string]FileType{
	"image/jpeg": FileTypeJPG,
	"image/png":  FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// IngestStatus tracks a document through the processing pipeline.
type IngestStatus string

const (
	IngestStatusDownloaded IngestStatus = "downloaded"
	IngestStatusExtracting IngestStatus = "extracting"
	IngestStatusParsed     IngestStatus = "parsed"
	IngestStatusSentineled IngestStatus = "sentineled"
	IngestStatusPersisting IngestStatus = "persisting"
	IngestStatusDone       IngestStatus = "done"
	IngestStatusFailed     IngestStatus = "failed"
)
