package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"sync"

	"oshikake/internal/config"
	"oshikake/internal/domain"
	"oshikake/internal/extract"
	"oshikake/internal/imageprep"
	"oshikake/internal/port"
)

// PersistError reports a failed persistence step. Stage identifies which
// write failed; the header key is included so a partially persisted order
// can be located.
type PersistError struct {
	Stage   string
	OrderID string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s for order %q: %v", e.Stage, e.OrderID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// ObjectEvent describes one object-created notification from the image store.
type ObjectEvent struct {
	BucketName string `json:"bucket_name" binding:"required"`
	ObjectKey  string `json:"object_key" binding:"required"`
	ObjectSize int64  `json:"object_size"`
}

// FileResult is the per-document outcome inside a batch.
type FileResult struct {
	ObjectKey string              `json:"objectKey"`
	Status    string              `json:"status"`
	OrderID   string              `json:"orderId,omitempty"`
	Sentinel  bool                `json:"sentinel,omitempty"`
	Error     string              `json:"error,omitempty"`
	Order     *domain.Order       `json:"-"`
	IngestEnd domain.IngestStatus `json:"-"`
}

// BatchResult summarizes a settled batch. One document failing never
// aborts the others; every task settles and reports its own outcome.
type BatchResult struct {
	Message        string       `json:"message"`
	ProcessedFiles int          `json:"processedFiles"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	Results        []FileResult `json:"results"`
}

// IngestService runs the document pipeline: download, normalize, extract,
// repair, persist.
type IngestService interface {
	ProcessObject(ctx context.Context, bucket, key string) (*domain.Order, error)
	ProcessBatch(ctx context.Context, events []ObjectEvent) *BatchResult
	UploadAndProcess(ctx context.Context, filename, contentType string, data []byte) (*domain.Order, error)
}

type ingestService struct {
	storage     port.ObjectStorage
	repo        port.OrderRepository
	extractor   port.OrderExtractor
	repairer    *extract.Repairer
	normalizer  *imageprep.Normalizer
	bucket      string
	maxBytes    int64
	concurrency int
}

// NewIngestService creates a new IngestService implementation.
func NewIngestService(
	storage port.ObjectStorage,
	repo port.OrderRepository,
	extractor port.OrderExtractor,
	repairer *extract.Repairer,
	normalizer *imageprep.Normalizer,
	s3Cfg *config.S3Config,
	batchCfg *config.BatchConfig,
) IngestService {
	concurrency := batchCfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &ingestService{
		storage:     storage,
		repo:        repo,
		extractor:   extractor,
		repairer:    repairer,
		normalizer:  normalizer,
		bucket:      s3Cfg.Bucket,
		maxBytes:    s3Cfg.MaxFileSizeBytes(),
		concurrency: concurrency,
	}
}

// ProcessObject runs the full pipeline for one stored object.
func (s *ingestService) ProcessObject(ctx context.Context, bucket, key string) (*domain.Order, error) {
	data, err := s.storage.Download(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("ingestService.ProcessObject: download %s/%s: %w", bucket, key, err)
	}

	norm := s.normalizer.Normalize(data)
	if norm.DecodeFailed {
		log.Printf("ingestService: %s could not be decoded, extracting original bytes", key)
	}

	out, err := s.extractor.Extract(ctx, port.ExtractInput{
		ImageBytes:  norm.Data,
		ContentType: contentTypeForFormat(norm.Format),
	})
	if err != nil {
		return nil, fmt.Errorf("ingestService.ProcessObject: extract %s: %w", key, err)
	}

	extraction := s.repairer.Repair(out.RawText)
	if extraction.Sentinel {
		log.Printf("ingestService: %s produced unparseable output, persisting sentinel record", key)
	}

	order, err := s.persist(ctx, extraction, documentName(key), objectURI(bucket, key))
	if err != nil {
		return nil, err
	}
	return order, nil
}

// persist writes the header first, confirms the stored key, then writes
// every detail under that key. A failed detail write aborts the remainder.
// A repeated order ID replaces the earlier document: the header is upserted
// and the previous line items are cleared before the new ones are written.
func (s *ingestService) persist(ctx context.Context, ex *domain.OrderExtraction, docName, docURI string) (*domain.Order, error) {
	snapshot, err := json.Marshal(ex)
	if err != nil {
		return nil, &PersistError{Stage: "snapshot", OrderID: ex.Header.OrderID, Err: err}
	}

	header := domain.OrderHeader{
		OrderID:      ex.Header.OrderID,
		OrderDate:    ex.Header.OrderDate,
		Subtotal:     ex.Header.Subtotal,
		ShippingFee:  ex.Header.ShippingFee,
		TotalAmount:  ex.Header.TotalAmount,
		Category:     ex.Header.Category,
		DocumentName: docName,
		DocumentURI:  docURI,
		Content:      string(snapshot),
	}

	storedKey, err := s.repo.CreateHeader(ctx, &header)
	if err != nil {
		return nil, &PersistError{Stage: "header", OrderID: header.OrderID, Err: err}
	}
	if storedKey == "" {
		return nil, &PersistError{Stage: "header", OrderID: header.OrderID,
			Err: fmt.Errorf("store returned empty key")}
	}

	if err := s.repo.DeleteDetailsByHeader(ctx, storedKey); err != nil {
		return nil, &PersistError{Stage: "details reset", OrderID: storedKey, Err: err}
	}

	details := make([]domain.OrderDetail, 0, len(ex.Details))
	for _, item := range ex.Details {
		detail := domain.OrderDetail{
			OrderHeaderID: storedKey,
			ItemID:        item.ItemID,
			ProductName:   item.ProductName,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			Subtotal:      item.Subtotal,
		}
		if err := s.repo.CreateDetail(ctx, &detail); err != nil {
			return nil, &PersistError{Stage: "detail " + item.ItemID, OrderID: storedKey, Err: err}
		}
		details = append(details, detail)
	}

	return &domain.Order{OrderHeader: header, Details: details}, nil
}

// ProcessBatch fans the events out over a bounded worker pool and waits for
// every task to settle.
func (s *ingestService) ProcessBatch(ctx context.Context, events []ObjectEvent) *BatchResult {
	results := make([]FileResult, len(events))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range events {
		i := i
		ev := events[i]

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			key := DecodeObjectKey(ev.ObjectKey)
			res := FileResult{ObjectKey: key}

			order, err := s.ProcessObject(ctx, ev.BucketName, key)
			if err != nil {
				log.Printf("ingestService.ProcessBatch: %s failed: %v", key, err)
				res.Status = "failed"
				res.Error = err.Error()
				res.IngestEnd = domain.IngestStatusFailed
			} else {
				res.Status = "succeeded"
				res.OrderID = order.OrderID
				res.Sentinel = order.Category == domain.CategoryError
				res.Order = order
				res.IngestEnd = domain.IngestStatusDone
			}
			results[i] = res
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Status == "succeeded" {
			succeeded++
		}
	}

	return &BatchResult{
		Message:        fmt.Sprintf("processed %d files", len(events)),
		ProcessedFiles: len(events),
		Succeeded:      succeeded,
		Failed:         len(events) - succeeded,
		Results:        results,
	}
}

// UploadAndProcess normalizes the image, stores it, and runs extraction
// and persistence synchronously.
func (s *ingestService) UploadAndProcess(ctx context.Context, filename, contentType string, data []byte) (*domain.Order, error) {
	if _, ok := domain.AllowedContentTypes[contentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	norm := s.normalizer.Normalize(data)
	key := storageKey(filename, norm.Format)

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(norm.Data),
		ContentType: contentTypeForFormat(norm.Format),
		Size:        int64(len(norm.Data)),
	})
	if err != nil {
		return nil, fmt.Errorf("ingestService.UploadAndProcess: %w", domain.ErrUploadFailed)
	}

	out, err := s.extractor.Extract(ctx, port.ExtractInput{
		ImageBytes:  norm.Data,
		ContentType: contentTypeForFormat(norm.Format),
	})
	if err != nil {
		return nil, fmt.Errorf("ingestService.UploadAndProcess: extract %s: %w", key, err)
	}

	extraction := s.repairer.Repair(out.RawText)
	return s.persist(ctx, extraction, filename, objectURI(s.bucket, key))
}

// DecodeObjectKey reverses the URL encoding event notifications apply to
// object keys, including the '+' for space convention.
func DecodeObjectKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}

func documentName(key string) string {
	return path.Base(key)
}

func objectURI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

func storageKey(filename, format string) string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	ext := "png"
	if format == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("uploads/%s.%s", base, ext)
}

func contentTypeForFormat(format string) string {
	if format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}
