package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/ocr"
)

func TestParseReceipt(t *testing.T) {
	ts := setupTestServer(t)

	res := mustCall[ParseReceiptResponse](t, ts, ReceiptServiceName, "ParseReceipt", &ParseReceiptRequest{
		Text: "Milk | $3.99\nSubtotal | $0.00\nTHANK YOU\n\nBread | 2.50",
	})
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 drafts, got %d: %+v", len(res.Items), res.Items)
	}
	if res.Items[0].Description != "Milk" || res.Items[0].Price != 3.99 {
		t.Errorf("first draft = %+v, want Milk 3.99", res.Items[0])
	}
	if res.Items[1].Description != "Bread" || res.Items[1].Price != 2.5 {
		t.Errorf("second draft = %+v, want Bread 2.50", res.Items[1])
	}

	// Nothing is stored.
	bills := mustCall[ListBillsResponse](t, ts, BillServiceName, "ListBills", &ListBillsRequest{})
	if len(bills.Bills) != 0 {
		t.Errorf("expected no bills, got %d", len(bills.Bills))
	}
}

func TestUploadReceipt(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n fake image")

	tests := []struct {
		name         string
		extractor    ocr.Extractor
		contentType  string
		wantCode     connect.Code
		validateFunc func(t *testing.T, ts *testServer, billID string, res *UploadReceiptResponse)
	}{
		{
			name: "items inserted from extracted text",
			extractor: ocr.Func(func(context.Context, []byte) (string, error) {
				return "Apples | $4.00\nTotal | $0.00\nCheese | $6.50", nil
			}),
			contentType: "image/png",
			validateFunc: func(t *testing.T, ts *testServer, billID string, res *UploadReceiptResponse) {
				if res.Warning != "" || res.Queued {
					t.Errorf("unexpected warning %q or queued %v", res.Warning, res.Queued)
				}
				if len(res.Items) != 2 {
					t.Fatalf("expected 2 items, got %d", len(res.Items))
				}
				got := mustCall[GetBillResponse](t, ts, BillServiceName, "GetBill", &GetBillRequest{BillID: billID})
				if got.Bill.ReceiptURL != res.ReceiptURL || !strings.HasSuffix(res.ReceiptURL, ".png") {
					t.Errorf("receipt url = %q on bill, %q returned", got.Bill.ReceiptURL, res.ReceiptURL)
				}
				if len(got.Items) != 2 || got.Items[0].Description != "Apples" || got.Items[1].Description != "Cheese" {
					t.Errorf("bill items = %+v, want Apples then Cheese", got.Items)
				}
			},
		},
		{
			name: "extraction failure keeps the receipt",
			extractor: ocr.Func(func(context.Context, []byte) (string, error) {
				return "", errors.New("tesseract exploded")
			}),
			contentType: "image/jpeg",
			validateFunc: func(t *testing.T, ts *testServer, billID string, res *UploadReceiptResponse) {
				if res.Warning == "" {
					t.Error("expected a warning")
				}
				if len(res.Items) != 0 {
					t.Errorf("expected no items, got %d", len(res.Items))
				}
				got := mustCall[GetBillResponse](t, ts, BillServiceName, "GetBill", &GetBillRequest{BillID: billID})
				if got.Bill.ReceiptURL == "" {
					t.Error("bill lost its receipt url")
				}
			},
		},
		{
			name:        "non-image rejected",
			contentType: "application/pdf",
			wantCode:    connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []serverOption
			if tt.extractor != nil {
				opts = append(opts, withExtractor(tt.extractor))
			}
			ts := setupTestServer(t, opts...)
			bill := ts.createBill(t, "Market", 0, 0)

			res, err := call[UploadReceiptResponse](t, ts, ReceiptServiceName, "UploadReceipt", &UploadReceiptRequest{
				BillID:      bill.ID,
				ContentType: tt.contentType,
				Image:       png,
			})
			if tt.wantCode != 0 {
				expectCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("UploadReceipt failed: %v", err)
			}
			tt.validateFunc(t, ts, bill.ID, res)
		})
	}
}

func TestUploadReceipt_ForeignBill(t *testing.T) {
	ts := setupTestServer(t)
	bill := ts.createBill(t, "Mine", 0, 0)

	_, otherToken := ts.signIn(t, "mallory@example.com")
	_, err := callAs[UploadReceiptResponse](t, ts, otherToken, ReceiptServiceName, "UploadReceipt", &UploadReceiptRequest{
		BillID:      bill.ID,
		ContentType: "image/png",
		Image:       []byte("png"),
	})
	expectCode(t, err, connect.CodeNotFound)
}
