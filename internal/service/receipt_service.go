package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/ingest"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/receipt"
	"github.com/mmynk/billsplit/internal/rpc"
)

// ReceiptServiceName is the Connect service name of ReceiptService.
const ReceiptServiceName = "ReceiptService"

// ReceiptService turns receipt images and text into bill items.
type ReceiptService struct {
	ingest *ingest.Service
}

// NewReceiptService creates a ReceiptService.
func NewReceiptService(ingestor *ingest.Service) *ReceiptService {
	return &ReceiptService{ingest: ingestor}
}

// Handler returns the mount path and HTTP handler for the service.
func (s *ReceiptService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	proc := func(method string) string { return rpc.Procedure(ReceiptServiceName, method) }

	mux := http.NewServeMux()
	mux.Handle(proc("UploadReceipt"), connect.NewUnaryHandler(proc("UploadReceipt"), s.UploadReceipt, opts...))
	mux.Handle(proc("ParseReceipt"), connect.NewUnaryHandler(proc("ParseReceipt"), s.ParseReceipt, opts...))
	return rpc.ServicePath(ReceiptServiceName), mux
}

// UploadReceipt stores a receipt image on a bill and adds the items read
// from it. A failed text extraction still succeeds, with a warning.
func (s *ReceiptService) UploadReceipt(ctx context.Context, req *connect.Request[UploadReceiptRequest]) (*connect.Response[UploadReceiptResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.ingest.Ingest(ctx, ingest.Upload{
		UserID:      userID,
		BillID:      req.Msg.BillID,
		ContentType: req.Msg.ContentType,
		Data:        req.Msg.Image,
	})
	if err != nil {
		slog.Warn("Receipt upload failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, rpc.Error(err)
	}

	return connect.NewResponse(&UploadReceiptResponse{
		ReceiptURL: res.ReceiptURL,
		Items:      toItems(res.Items, nil),
		Queued:     res.Queued,
		Warning:    res.Warning,
	}), nil
}

// ParseReceipt parses receipt text into item drafts without storing anything.
func (s *ReceiptService) ParseReceipt(ctx context.Context, req *connect.Request[ParseReceiptRequest]) (*connect.Response[ParseReceiptResponse], error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	drafts, stats := receipt.ParseItemsWithStats(req.Msg.Text)
	metrics.ReceiptLinesParsed.Add(float64(stats.Lines))
	metrics.ReceiptLinesAccepted.Add(float64(stats.Accepted))

	return connect.NewResponse(&ParseReceiptResponse{Items: toDrafts(drafts)}), nil
}
