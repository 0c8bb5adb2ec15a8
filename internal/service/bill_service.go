package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/live"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/rpc"
	"github.com/mmynk/billsplit/internal/snapshot"
	"github.com/mmynk/billsplit/internal/storage"
)

// BillServiceName is the Connect service name of BillService.
const BillServiceName = "BillService"

// Change reasons published on the hub and echoed by WatchSplit.
const (
	ReasonInitial          = "initial"
	ReasonRefresh          = "refresh"
	ReasonTaxTip           = "tax_tip_changed"
	ReasonItemAdded        = "item_added"
	ReasonItemDeleted      = "item_deleted"
	ReasonAssignment       = "assignment_toggled"
	ReasonReceiptProcessed = "receipt_processed"
	ReasonPersonDeleted    = "person_deleted"
)

// DefaultWatchRefresh is how often WatchSplit recomputes without a change
// notification, to pick up writes made by other processes.
const DefaultWatchRefresh = 5 * time.Second

// BillService implements the BillService RPC interface.
type BillService struct {
	store   storage.Store
	hub     *live.Hub
	refresh time.Duration
	now     func() time.Time
}

// BillOption configures a BillService.
type BillOption func(*BillService)

// WithWatchRefresh sets the WatchSplit refresh interval. Zero disables it.
func WithWatchRefresh(d time.Duration) BillOption {
	return func(s *BillService) { s.refresh = d }
}

// NewBillService creates a BillService. Mutations are announced on hub.
func NewBillService(store storage.Store, hub *live.Hub, opts ...BillOption) *BillService {
	s := &BillService{
		store:   store,
		hub:     hub,
		refresh: DefaultWatchRefresh,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the mount path and HTTP handler for the service.
func (s *BillService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	proc := func(method string) string { return rpc.Procedure(BillServiceName, method) }

	mux := http.NewServeMux()
	mux.Handle(proc("CreateBill"), connect.NewUnaryHandler(proc("CreateBill"), s.CreateBill, opts...))
	mux.Handle(proc("GetBill"), connect.NewUnaryHandler(proc("GetBill"), s.GetBill, opts...))
	mux.Handle(proc("ListBills"), connect.NewUnaryHandler(proc("ListBills"), s.ListBills, opts...))
	mux.Handle(proc("DeleteBill"), connect.NewUnaryHandler(proc("DeleteBill"), s.DeleteBill, opts...))
	mux.Handle(proc("SetTaxTip"), connect.NewUnaryHandler(proc("SetTaxTip"), s.SetTaxTip, opts...))
	mux.Handle(proc("AddItem"), connect.NewUnaryHandler(proc("AddItem"), s.AddItem, opts...))
	mux.Handle(proc("DeleteItem"), connect.NewUnaryHandler(proc("DeleteItem"), s.DeleteItem, opts...))
	mux.Handle(proc("ToggleAssignment"), connect.NewUnaryHandler(proc("ToggleAssignment"), s.ToggleAssignment, opts...))
	mux.Handle(proc("GetSplit"), connect.NewUnaryHandler(proc("GetSplit"), s.GetSplit, opts...))
	mux.Handle(proc("SuggestTips"), connect.NewUnaryHandler(proc("SuggestTips"), s.SuggestTips, opts...))
	mux.Handle(proc("WatchSplit"), connect.NewServerStreamHandler(proc("WatchSplit"), s.WatchSplit, opts...))
	return rpc.ServicePath(BillServiceName), mux
}

// NotifyChanged announces a change to billID made outside the service, such
// as items inserted from a parsed receipt.
func (s *BillService) NotifyChanged(billID string) {
	s.hub.Publish(live.Change{BillID: billID, Reason: ReasonReceiptProcessed})
}

func (s *BillService) publish(billID, reason string) {
	s.hub.Publish(live.Change{BillID: billID, Reason: reason})
}

// CreateBill creates an empty bill. A blank title is replaced by one derived
// from the creation time.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	bill := &models.Bill{
		UserID: userID,
		Title:  req.Msg.Title,
		Tax:    req.Msg.Tax,
		Tip:    req.Msg.Tip,
	}
	if err := s.store.CreateBill(ctx, bill); err != nil {
		slog.Error("Failed to create bill", "user_id", userID, "error", err)
		return nil, rpc.Error(err)
	}

	slog.Info("Bill created", "bill_id", bill.ID, "title", bill.Title)
	return connect.NewResponse(&CreateBillResponse{Bill: toBill(bill)}), nil
}

// GetBill returns a bill with its items, their assignees and the people they
// can be assigned to.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.BillID == "" {
		return nil, rpc.Error(models.NewValidationError("bill_id", "is required"))
	}

	snap, err := snapshot.LoadBill(ctx, s.store, userID, req.Msg.BillID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return connect.NewResponse(&GetBillResponse{
		Bill:   toBill(&snap.Bill),
		Items:  toItems(snap.Items, snap.Assignments),
		People: toPeople(snap.People),
	}), nil
}

// ListBills returns the caller's bills, newest first.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	olderThan, err := dayCount("older_than_days", req.Msg.OlderThanDays)
	if err != nil {
		return nil, rpc.Error(err)
	}
	var filter storage.BillFilter
	if olderThan > 0 {
		filter.CreatedBefore = s.now().Add(-olderThan)
	}

	bills, err := s.store.ListBills(ctx, userID, filter)
	if err != nil {
		slog.Error("Failed to list bills", "user_id", userID, "error", err)
		return nil, rpc.Error(err)
	}
	return connect.NewResponse(&ListBillsResponse{Bills: toBills(bills)}), nil
}

// DeleteBill deletes a bill together with its items and assignments.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ownedBill(ctx, s.store, userID, req.Msg.BillID); err != nil {
		return nil, rpc.Error(err)
	}

	if err := s.store.DeleteBill(ctx, req.Msg.BillID); err != nil {
		slog.Error("Failed to delete bill", "bill_id", req.Msg.BillID, "error", err)
		return nil, rpc.Error(err)
	}
	slog.Info("Bill deleted", "bill_id", req.Msg.BillID)

	// Watchers find the bill gone on their next fetch and end the stream.
	s.publish(req.Msg.BillID, "bill_deleted")
	return connect.NewResponse(&DeleteBillResponse{}), nil
}

// SetTaxTip replaces the bill's tax and tip.
func (s *BillService) SetTaxTip(ctx context.Context, req *connect.Request[SetTaxTipRequest]) (*connect.Response[SetTaxTipResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateCharges(req.Msg.Tax, req.Msg.Tip); err != nil {
		return nil, rpc.Error(err)
	}
	bill, err := ownedBill(ctx, s.store, userID, req.Msg.BillID)
	if err != nil {
		return nil, rpc.Error(err)
	}

	if err := s.store.UpdateBillTaxTip(ctx, bill.ID, req.Msg.Tax, req.Msg.Tip); err != nil {
		slog.Error("Failed to update tax and tip", "bill_id", bill.ID, "error", err)
		return nil, rpc.Error(err)
	}
	bill.Tax, bill.Tip = req.Msg.Tax, req.Msg.Tip

	s.publish(bill.ID, ReasonTaxTip)
	return connect.NewResponse(&SetTaxTipResponse{Bill: toBill(bill)}), nil
}

// AddItem adds a manually entered item to a bill.
func (s *BillService) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	draft := models.ItemDraft{Description: req.Msg.Description, Price: req.Msg.Price}
	if err := draft.Validate(); err != nil {
		return nil, rpc.Error(err)
	}
	if _, err := ownedBill(ctx, s.store, userID, req.Msg.BillID); err != nil {
		return nil, rpc.Error(err)
	}

	item := &models.Item{
		BillID:      req.Msg.BillID,
		Description: draft.Description,
		Price:       draft.Price,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		slog.Error("Failed to add item", "bill_id", req.Msg.BillID, "error", err)
		return nil, rpc.Error(err)
	}
	slog.Debug("Item added", "bill_id", item.BillID, "item_id", item.ID, "price", item.Price)

	s.publish(item.BillID, ReasonItemAdded)
	return connect.NewResponse(&AddItemResponse{Item: toItems([]models.Item{*item}, nil)[0]}), nil
}

// DeleteItem removes an item and its assignments.
func (s *BillService) DeleteItem(ctx context.Context, req *connect.Request[DeleteItemRequest]) (*connect.Response[DeleteItemResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	item, err := ownedItem(ctx, s.store, userID, req.Msg.ItemID)
	if err != nil {
		return nil, rpc.Error(err)
	}

	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		slog.Error("Failed to delete item", "item_id", item.ID, "error", err)
		return nil, rpc.Error(err)
	}

	s.publish(item.BillID, ReasonItemDeleted)
	return connect.NewResponse(&DeleteItemResponse{}), nil
}

// ToggleAssignment assigns the person to the item, or unassigns them when
// they already share it.
func (s *BillService) ToggleAssignment(ctx context.Context, req *connect.Request[ToggleAssignmentRequest]) (*connect.Response[ToggleAssignmentResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	item, err := ownedItem(ctx, s.store, userID, req.Msg.ItemID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	if _, err := ownedPerson(ctx, s.store, userID, req.Msg.PersonID); err != nil {
		return nil, rpc.Error(err)
	}

	assigned, err := s.store.ToggleAssignment(ctx, item.ID, req.Msg.PersonID)
	if err != nil {
		slog.Error("Failed to toggle assignment", "item_id", item.ID, "person_id", req.Msg.PersonID, "error", err)
		return nil, rpc.Error(err)
	}

	s.publish(item.BillID, ReasonAssignment)
	return connect.NewResponse(&ToggleAssignmentResponse{Assigned: assigned}), nil
}

// GetSplit computes every person's share of a bill from a fresh snapshot.
func (s *BillService) GetSplit(ctx context.Context, req *connect.Request[GetSplitRequest]) (*connect.Response[GetSplitResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := calculator.ParsePolicy(req.Msg.Policy)
	if err != nil {
		return nil, rpc.Error(err)
	}
	if req.Msg.BillID == "" {
		return nil, rpc.Error(models.NewValidationError("bill_id", "is required"))
	}

	split, err := s.computeSplit(ctx, userID, req.Msg.BillID, policy)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return connect.NewResponse(&GetSplitResponse{Split: split}), nil
}

func (s *BillService) computeSplit(ctx context.Context, userID, billID string, policy calculator.Policy) (*SplitResult, error) {
	snap, err := snapshot.LoadBill(ctx, s.store, userID, billID)
	if err != nil {
		return nil, err
	}

	in := snap.SplitInput(policy)
	splits, err := calculator.CalculateSplit(in)
	if err != nil {
		return nil, err
	}
	metrics.SplitComputations.WithLabelValues(string(policy)).Inc()

	slog.Debug("Split computed", "bill_id", billID, "policy", policy, "people", len(splits))
	return toSplitResult(policy, splits, calculator.Summarize(in, splits)), nil
}

// SuggestTips suggests tip amounts from the bill's item subtotal.
func (s *BillService) SuggestTips(ctx context.Context, req *connect.Request[SuggestTipsRequest]) (*connect.Response[SuggestTipsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ownedBill(ctx, s.store, userID, req.Msg.BillID); err != nil {
		return nil, rpc.Error(err)
	}

	items, err := s.store.ListItems(ctx, req.Msg.BillID)
	if err != nil {
		return nil, rpc.Error(err)
	}

	res := &SuggestTipsResponse{}
	for _, item := range items {
		res.Subtotal += item.Price
	}
	for _, tip := range calculator.SuggestTips(items) {
		res.Suggestions = append(res.Suggestions, &TipSuggestion{Percent: tip.Percent, Amount: tip.Amount})
	}
	return connect.NewResponse(res), nil
}

type splitUpdate struct {
	generation uint64
	reason     string
	split      *SplitResult
	err        error
}

// WatchSplit streams the bill's split, recomputing it whenever the bill
// changes and on every refresh tick. A result is sent only while its
// generation is the latest started; older results are dropped. Refresh
// results identical to the last sent split are not resent.
func (s *BillService) WatchSplit(ctx context.Context, req *connect.Request[WatchSplitRequest], stream *connect.ServerStream[WatchSplitResponse]) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	policy, err := calculator.ParsePolicy(req.Msg.Policy)
	if err != nil {
		return rpc.Error(err)
	}
	billID := req.Msg.BillID
	if _, err := ownedBill(ctx, s.store, userID, billID); err != nil {
		return rpc.Error(err)
	}

	changes, unsubscribe := s.hub.Subscribe(billID)
	defer unsubscribe()

	computeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		tracker live.Tracker
		updates = make(chan splitUpdate)
		last    *SplitResult
		busy    bool
	)
	start := func(reason string) {
		busy = true
		gen := tracker.Next()
		go func() {
			split, err := s.computeSplit(computeCtx, userID, billID, policy)
			select {
			case updates <- splitUpdate{generation: gen, reason: reason, split: split, err: err}:
			case <-computeCtx.Done():
			}
		}()
	}

	var tick <-chan time.Time
	if s.refresh > 0 {
		ticker := time.NewTicker(s.refresh)
		defer ticker.Stop()
		tick = ticker.C
	}

	slog.Info("Watching split", "bill_id", billID, "policy", policy)
	start(ReasonInitial)
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			start(c.Reason)
		case <-tick:
			// Ticks never supersede a computation still in flight.
			if !busy {
				start(ReasonRefresh)
			}
		case u := <-updates:
			if !tracker.IsLatest(u.generation) {
				metrics.StaleSplitsDropped.Inc()
				slog.Debug("Dropped stale split", "bill_id", billID, "generation", u.generation)
				continue
			}
			busy = false
			if u.err != nil {
				if errors.Is(u.err, context.Canceled) {
					return nil
				}
				if !errors.Is(u.err, storage.ErrNotFound) {
					slog.Error("Failed to compute split", "bill_id", billID, "error", u.err)
				}
				return rpc.Error(u.err)
			}
			if u.reason == ReasonRefresh && reflect.DeepEqual(last, u.split) {
				continue
			}
			last = u.split
			if err := stream.Send(&WatchSplitResponse{Generation: u.generation, Reason: u.reason, Split: u.split}); err != nil {
				return err
			}
		}
	}
}
