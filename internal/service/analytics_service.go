package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/rpc"
	"github.com/mmynk/billsplit/internal/snapshot"
	"github.com/mmynk/billsplit/internal/storage"
)

// AnalyticsServiceName is the Connect service name of AnalyticsService.
const AnalyticsServiceName = "AnalyticsService"

// AnalyticsService reports spending across a user's bills.
type AnalyticsService struct {
	store       storage.Store
	reminderAge time.Duration
	now         func() time.Time
}

// NewAnalyticsService creates an AnalyticsService. Bills older than
// reminderAge are listed as reminders; zero selects the default age.
func NewAnalyticsService(store storage.Store, reminderAge time.Duration) *AnalyticsService {
	if reminderAge <= 0 {
		reminderAge = calculator.DefaultReminderAge
	}
	return &AnalyticsService{store: store, reminderAge: reminderAge, now: time.Now}
}

// Handler returns the mount path and HTTP handler for the service.
func (s *AnalyticsService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	proc := func(method string) string { return rpc.Procedure(AnalyticsServiceName, method) }

	mux := http.NewServeMux()
	mux.Handle(proc("GetSpendingHistory"), connect.NewUnaryHandler(proc("GetSpendingHistory"), s.GetSpendingHistory, opts...))
	mux.Handle(proc("GetPersonSpending"), connect.NewUnaryHandler(proc("GetPersonSpending"), s.GetPersonSpending, opts...))
	mux.Handle(proc("ListReminders"), connect.NewUnaryHandler(proc("ListReminders"), s.ListReminders, opts...))
	return rpc.ServicePath(AnalyticsServiceName), mux
}

// GetSpendingHistory totals the caller's bills per week since signup.
func (s *AnalyticsService) GetSpendingHistory(ctx context.Context, req *connect.Request[GetSpendingHistoryRequest]) (*connect.Response[GetSpendingHistoryResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	history, err := snapshot.LoadHistory(ctx, s.store, userID)
	if err != nil {
		slog.Error("Failed to load spending history", "user_id", userID, "error", err)
		return nil, rpc.Error(err)
	}

	summary := calculator.SummarizeSpending(user.CreatedAt, history.BillTotals())
	res := &GetSpendingHistoryResponse{
		Weeks:         make([]*WeeklySpending, len(summary.Weeks)),
		TotalSpending: summary.TotalSpending,
		Since:         summary.Since,
	}
	for i, w := range summary.Weeks {
		res.Weeks[i] = &WeeklySpending{
			WeekNumber: w.WeekNumber,
			WeekStart:  w.WeekStart,
			WeekEnd:    w.WeekEnd,
			Total:      w.Total,
		}
	}
	return connect.NewResponse(res), nil
}

// GetPersonSpending totals what each person owes across the selected bills.
// Bills the caller does not own are ignored.
func (s *AnalyticsService) GetPersonSpending(ctx context.Context, req *connect.Request[GetPersonSpendingRequest]) (*connect.Response[GetPersonSpendingResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	sel, err := snapshot.LoadSelection(ctx, s.store, userID, req.Msg.BillIDs)
	if err != nil {
		slog.Error("Failed to load bill selection", "user_id", userID, "error", err)
		return nil, rpc.Error(err)
	}

	spending := calculator.CalculatePersonSpending(sel.SpendingInput())
	res := &GetPersonSpendingResponse{People: make([]*PersonSpending, len(spending))}
	for i, p := range spending {
		res.People[i] = &PersonSpending{
			PersonID:    p.PersonID,
			PersonName:  p.PersonName,
			PersonColor: p.PersonColor,
			Total:       p.Total,
		}
	}
	return connect.NewResponse(res), nil
}

// ListReminders lists bills that have stayed open longer than the reminder age.
func (s *AnalyticsService) ListReminders(ctx context.Context, req *connect.Request[ListRemindersRequest]) (*connect.Response[ListRemindersResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	override, err := dayCount("min_age_days", req.Msg.MinAgeDays)
	if err != nil {
		return nil, rpc.Error(err)
	}

	minAge := s.reminderAge
	if override > 0 {
		minAge = override
	}
	now := s.now()

	bills, err := s.store.ListBills(ctx, userID, storage.BillFilter{CreatedBefore: now.Add(-minAge)})
	if err != nil {
		return nil, rpc.Error(err)
	}

	reminders := calculator.UnsettledBills(bills, now, minAge)
	res := &ListRemindersResponse{Reminders: make([]*Reminder, len(reminders))}
	for i, r := range reminders {
		res.Reminders[i] = &Reminder{Bill: toBill(&r.Bill), DaysOld: r.DaysOld}
	}
	return connect.NewResponse(res), nil
}
