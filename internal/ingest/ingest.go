// Package ingest runs the receipt workflow: store the image, extract its
// text, parse item drafts and insert them into the bill.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/billsplit/internal/blob"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/ocr"
	"github.com/mmynk/billsplit/internal/queue"
	"github.com/mmynk/billsplit/internal/receipt"
	"github.com/mmynk/billsplit/internal/storage"
)

// Store is the storage the workflow writes to.
type Store interface {
	GetBill(ctx context.Context, billID string) (*models.Bill, error)
	AttachReceipt(ctx context.Context, billID, receiptURL, rawText string) error
	InsertItems(ctx context.Context, billID string, drafts []models.ItemDraft) ([]models.Item, error)
}

// Upload is a receipt image sent by a user for one of their bills.
type Upload struct {
	UserID      string
	BillID      string
	ContentType string
	Data        []byte
}

// Result describes what an ingestion did.
type Result struct {
	ReceiptURL string

	// Items are the inserted items, empty when the job was queued or
	// extraction failed.
	Items []models.Item

	// Queued is true when extraction was handed to a worker.
	Queued bool

	// Warning is set when the image was stored but extraction failed. The
	// bill keeps its receipt URL.
	Warning string
}

// Service runs ingestions.
type Service struct {
	store     Store
	blobs     blob.Store
	extractor ocr.Extractor
	jobs      queue.Publisher
	onChange  func(billID string)
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher hands extraction to a worker through p instead of running it
// inline.
func WithPublisher(p queue.Publisher) Option {
	return func(s *Service) { s.jobs = p }
}

// WithChangeHook registers fn to run after items were inserted into a bill.
func WithChangeHook(fn func(billID string)) Option {
	return func(s *Service) { s.onChange = fn }
}

// NewService creates an ingestion service.
func NewService(store Store, blobs blob.Store, extractor ocr.Extractor, opts ...Option) *Service {
	s := &Service{
		store:     store,
		blobs:     blobs,
		extractor: extractor,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores the image and either queues it for a worker or extracts and
// parses it right away.
func (s *Service) Ingest(ctx context.Context, up Upload) (*Result, error) {
	ext, ok := blob.ExtensionFor(up.ContentType)
	if !ok {
		return nil, models.NewValidationError("content_type", fmt.Sprintf("%q is not an image", up.ContentType))
	}
	if len(up.Data) == 0 {
		return nil, models.NewValidationError("image", "must not be empty")
	}

	bill, err := s.store.GetBill(ctx, up.BillID)
	if err != nil {
		return nil, err
	}
	if bill.UserID != up.UserID {
		return nil, fmt.Errorf("bill %s: %w", up.BillID, storage.ErrNotFound)
	}

	key := blob.ReceiptKey(up.UserID, up.BillID, ext, s.now())
	url, err := s.blobs.Put(ctx, key, up.ContentType, up.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}
	if err := s.store.AttachReceipt(ctx, up.BillID, url, ""); err != nil {
		return nil, fmt.Errorf("failed to attach receipt: %w", err)
	}

	if s.jobs != nil {
		job := queue.NewReceiptJob(up.BillID, up.UserID, key, url)
		err := s.jobs.PublishReceiptJob(ctx, job)
		if err == nil {
			metrics.ReceiptsProcessed.WithLabelValues("queued").Inc()
			return &Result{ReceiptURL: url, Items: []models.Item{}, Queued: true}, nil
		}
		slog.Warn("Failed to queue receipt, processing inline", "bill_id", up.BillID, "error", err)
	}

	return s.process(ctx, up.BillID, url, up.Data)
}

// ProcessJob is the worker side of a queued ingestion.
// Errors are returned only when retrying could help.
func (s *Service) ProcessJob(ctx context.Context, job *queue.ReceiptJob) error {
	data, err := s.blobs.Get(ctx, job.ReceiptKey)
	if errors.Is(err, blob.ErrNotFound) {
		slog.Warn("Receipt image missing, dropping job", "bill_id", job.BillID, "key", job.ReceiptKey)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch receipt: %w", err)
	}

	res, err := s.process(ctx, job.BillID, job.ReceiptURL, data)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Bill deleted before receipt was processed", "bill_id", job.BillID)
		return nil
	}
	if errors.Is(err, models.ErrValidation) {
		slog.Error("Receipt job rejected, dropping", "bill_id", job.BillID, "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	if res.Warning != "" {
		slog.Warn("Receipt processed with warning", "bill_id", job.BillID, "warning", res.Warning)
	}
	return nil
}

func (s *Service) process(ctx context.Context, billID, url string, data []byte) (*Result, error) {
	res := &Result{ReceiptURL: url, Items: []models.Item{}}

	text, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		metrics.ReceiptsProcessed.WithLabelValues("extract_failed").Inc()
		slog.Warn("Receipt text extraction failed", "bill_id", billID, "error", err)
		res.Warning = fmt.Sprintf("receipt saved, but text extraction failed: %v", err)
		return res, nil
	}

	if err := s.store.AttachReceipt(ctx, billID, url, text); err != nil {
		return nil, fmt.Errorf("failed to save receipt text: %w", err)
	}

	drafts, stats := receipt.ParseItemsWithStats(text)
	metrics.ReceiptLinesParsed.Add(float64(stats.Lines))
	metrics.ReceiptLinesAccepted.Add(float64(stats.Accepted))

	items, err := s.store.InsertItems(ctx, billID, drafts)
	if err != nil {
		return nil, fmt.Errorf("failed to insert receipt items: %w", err)
	}
	res.Items = items
	metrics.ReceiptsProcessed.WithLabelValues("parsed").Inc()

	slog.Info("Receipt parsed", "bill_id", billID, "lines", stats.Lines, "items", len(items))
	if len(items) > 0 && s.onChange != nil {
		s.onChange(billID)
	}
	return res, nil
}
