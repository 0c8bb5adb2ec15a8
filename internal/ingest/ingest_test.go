package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/billsplit/internal/blob"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/ocr"
	"github.com/mmynk/billsplit/internal/queue"
	"github.com/mmynk/billsplit/internal/storage"
	"github.com/mmynk/billsplit/internal/storage/sqlstore"
)

type fixture struct {
	store *sqlstore.Store
	blobs *blob.LocalStore
	user  *models.User
	bill  *models.Bill
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlstore.OpenSQLite(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewLocalStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}

	ctx := context.Background()
	user := models.NewUser("ingest@example.com", "Ingest", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	bill := &models.Bill{UserID: user.ID, Title: "Groceries"}
	if err := store.CreateBill(ctx, bill); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	return &fixture{store: store, blobs: blobs, user: user, bill: bill}
}

func staticText(text string) ocr.Extractor {
	return ocr.Func(func(context.Context, []byte) (string, error) { return text, nil })
}

type recordingPublisher struct {
	jobs []*queue.ReceiptJob
	err  error
}

func (p *recordingPublisher) PublishReceiptJob(_ context.Context, job *queue.ReceiptJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func TestIngest_Inline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var changed []string
	svc := NewService(f.store, f.blobs, staticText("STORE\nMilk | $3.99\nSubtotal | $0.00\nBread | 2.50\n"),
		WithChangeHook(func(billID string) { changed = append(changed, billID) }))

	res, err := svc.Ingest(ctx, Upload{UserID: f.user.ID, BillID: f.bill.ID, ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Queued || res.Warning != "" {
		t.Errorf("result = %+v, want inline success", res)
	}
	if len(res.Items) != 2 || res.Items[0].Description != "Milk" || res.Items[1].Description != "Bread" {
		t.Errorf("items = %+v", res.Items)
	}
	if len(changed) != 1 || changed[0] != f.bill.ID {
		t.Errorf("change hook calls = %v", changed)
	}

	bill, err := f.store.GetBill(ctx, f.bill.ID)
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if bill.ReceiptURL != res.ReceiptURL || !strings.Contains(bill.RawReceiptText, "Milk") {
		t.Errorf("bill = %+v", bill)
	}
}

func TestIngest_ExtractionFailureKeepsReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	failing := ocr.Func(func(context.Context, []byte) (string, error) { return "", errors.New("tesseract not installed") })
	svc := NewService(f.store, f.blobs, failing)

	res, err := svc.Ingest(ctx, Upload{UserID: f.user.ID, BillID: f.bill.ID, ContentType: "image/jpeg", Data: []byte("jpg")})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Warning == "" || len(res.Items) != 0 {
		t.Errorf("result = %+v, want warning and no items", res)
	}

	bill, _ := f.store.GetBill(ctx, f.bill.ID)
	if bill.ReceiptURL == "" {
		t.Error("bill should keep its receipt URL")
	}
}

func TestIngest_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.store, f.blobs, staticText("Milk | $1"))

	_, err := svc.Ingest(ctx, Upload{UserID: f.user.ID, BillID: f.bill.ID, ContentType: "application/pdf", Data: []byte("%PDF")})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("pdf err = %v, want validation error", err)
	}

	_, err = svc.Ingest(ctx, Upload{UserID: "someone-else", BillID: f.bill.ID, ContentType: "image/png", Data: []byte("png")})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("foreign bill err = %v, want ErrNotFound", err)
	}
}

func TestIngest_QueuedThenProcessed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewService(f.store, f.blobs, staticText("Eggs | $4.20"), WithPublisher(pub))

	res, err := svc.Ingest(ctx, Upload{UserID: f.user.ID, BillID: f.bill.ID, ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !res.Queued || len(pub.jobs) != 1 {
		t.Fatalf("result = %+v, jobs = %d; want one queued job", res, len(pub.jobs))
	}

	items, _ := f.store.ListItems(ctx, f.bill.ID)
	if len(items) != 0 {
		t.Fatalf("items inserted before the worker ran: %+v", items)
	}

	if err := svc.ProcessJob(ctx, pub.jobs[0]); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}
	items, _ = f.store.ListItems(ctx, f.bill.ID)
	if len(items) != 1 || items[0].Description != "Eggs" {
		t.Errorf("items = %+v", items)
	}
}

func TestIngest_PublishFailureFallsBackInline(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{err: errors.New("connection refused")}
	svc := NewService(f.store, f.blobs, staticText("Tea | $2"), WithPublisher(pub))

	res, err := svc.Ingest(context.Background(), Upload{UserID: f.user.ID, BillID: f.bill.ID, ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Queued || len(res.Items) != 1 {
		t.Errorf("result = %+v, want inline processing", res)
	}
}

func TestProcessJob_MissingImageIsDropped(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, f.blobs, staticText("x"))
	job := queue.NewReceiptJob(f.bill.ID, f.user.ID, "receipts/nope.png", "file:///nope.png")
	if err := svc.ProcessJob(context.Background(), job); err != nil {
		t.Errorf("ProcessJob err = %v, want nil", err)
	}
}

func TestIngest_OverlongAmountKeepsOtherItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.store, f.blobs, staticText("Milk | $3.99\nBread | $2.50\nSmudge | $"+strings.Repeat("9", 400)))

	res, err := svc.Ingest(ctx, Upload{UserID: f.user.ID, BillID: f.bill.ID, ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Errorf("got %d items, want 2: %+v", len(res.Items), res.Items)
	}
}

// rejectingStore fails every bulk insert with a validation error.
type rejectingStore struct {
	Store
}

func (rejectingStore) InsertItems(context.Context, string, []models.ItemDraft) ([]models.Item, error) {
	return nil, models.NewValidationError("price", "must be greater than zero")
}

func TestProcessJob_ValidationErrorIsDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := "receipts/" + f.user.ID + "/bad.png"
	url, err := f.blobs.Put(ctx, key, "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	svc := NewService(rejectingStore{Store: f.store}, f.blobs, staticText("Milk | $3.99"))
	job := queue.NewReceiptJob(f.bill.ID, f.user.ID, key, url)
	if err := svc.ProcessJob(ctx, job); err != nil {
		t.Errorf("ProcessJob err = %v, want nil so the job is not requeued", err)
	}
}
