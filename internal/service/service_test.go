package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/blob"
	"github.com/mmynk/billsplit/internal/ingest"
	"github.com/mmynk/billsplit/internal/live"
	"github.com/mmynk/billsplit/internal/middleware"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/ocr"
	"github.com/mmynk/billsplit/internal/rpc"
	"github.com/mmynk/billsplit/internal/storage/sqlstore"
)

const tolerance = 1e-9

type testServer struct {
	url   string
	store *sqlstore.Store
	hub   *live.Hub
	jwt   *auth.JWTManager
	bills *BillService
	user  *models.User
	token string
}

type serverOption func(*serverConfig)

type serverConfig struct {
	extractor   ocr.Extractor
	billOptions []BillOption
}

func withExtractor(e ocr.Extractor) serverOption {
	return func(c *serverConfig) { c.extractor = e }
}

func withBillOptions(opts ...BillOption) serverOption {
	return func(c *serverConfig) { c.billOptions = append(c.billOptions, opts...) }
}

// setupTestServer starts every service behind the real auth interceptor, on a
// temp SQLite database, and signs in a test user.
func setupTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := serverConfig{
		extractor: ocr.Func(func(context.Context, []byte) (string, error) { return "", ocr.ErrNoText }),
		// Tests that need the refresh tick turn it back on.
		billOptions: []BillOption{WithWatchRefresh(0)},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

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

	hub := live.NewHub()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bills := NewBillService(store, hub, cfg.billOptions...)
	ingestor := ingest.NewService(store, blobs, cfg.extractor, ingest.WithChangeHook(bills.NotifyChanged))

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, PublicProcedures...),
		middleware.NewLoggingInterceptor(),
	)
	mux := http.NewServeMux()
	for _, h := range []interface {
		Handler(...connect.HandlerOption) (string, http.Handler)
	}{
		NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger),
		bills,
		NewPeopleService(store, hub),
		NewAnalyticsService(store, 0),
		NewReceiptService(ingestor),
	} {
		path, handler := h.Handler(interceptors)
		mux.Handle(path, handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ts := &testServer{url: server.URL, store: store, hub: hub, jwt: jwtManager, bills: bills}
	ts.user, ts.token = ts.signIn(t, "alice@example.com")
	return ts
}

// signIn creates a user directly in the store and issues a token for them.
func (ts *testServer) signIn(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	user := models.NewUser(email, "", "unused")
	if err := ts.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	token, err := ts.jwt.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return user, token
}

// call invokes a unary procedure as the test user.
func call[Res, Req any](t *testing.T, ts *testServer, service, method string, req *Req) (*Res, error) {
	t.Helper()
	return callAs[Res](t, ts, ts.token, service, method, req)
}

func callAs[Res, Req any](t *testing.T, ts *testServer, token, service, method string, req *Req) (*Res, error) {
	t.Helper()
	client := connect.NewClient[Req, Res](http.DefaultClient, ts.url+rpc.Procedure(service, method), rpc.ClientOptions()...)
	r := connect.NewRequest(req)
	if token != "" {
		r.Header().Set("Authorization", "Bearer "+token)
	}
	resp, err := client.CallUnary(context.Background(), r)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// mustCall is call that fails the test on error.
func mustCall[Res, Req any](t *testing.T, ts *testServer, service, method string, req *Req) *Res {
	t.Helper()
	res, err := call[Res](t, ts, service, method, req)
	if err != nil {
		t.Fatalf("%s.%s failed: %v", service, method, err)
	}
	return res
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func (ts *testServer) createBill(t *testing.T, title string, tax, tip float64) *Bill {
	t.Helper()
	return mustCall[CreateBillResponse](t, ts, BillServiceName, "CreateBill", &CreateBillRequest{Title: title, Tax: tax, Tip: tip}).Bill
}

func (ts *testServer) addItem(t *testing.T, billID, description string, price float64) *Item {
	t.Helper()
	return mustCall[AddItemResponse](t, ts, BillServiceName, "AddItem", &AddItemRequest{BillID: billID, Description: description, Price: price}).Item
}

func (ts *testServer) addPerson(t *testing.T, name string) *Person {
	t.Helper()
	return mustCall[AddPersonResponse](t, ts, PeopleServiceName, "AddPerson", &AddPersonRequest{Name: name}).Person
}

func (ts *testServer) assign(t *testing.T, itemID, personID string) {
	t.Helper()
	res := mustCall[ToggleAssignmentResponse](t, ts, BillServiceName, "ToggleAssignment", &ToggleAssignmentRequest{ItemID: itemID, PersonID: personID})
	if !res.Assigned {
		t.Fatalf("expected item %s to become assigned to %s", itemID, personID)
	}
}

func splitFor(res *SplitResult, personID string) *PersonSplit {
	for _, s := range res.Splits {
		if s.PersonID == personID {
			return s
		}
	}
	return nil
}

func TestDayCount(t *testing.T) {
	tests := []struct {
		days    int
		want    time.Duration
		wantErr bool
	}{
		{days: 0, want: 0},
		{days: 3, want: 72 * time.Hour},
		{days: maxDayCount, want: time.Duration(maxDayCount) * 24 * time.Hour},
		{days: -1, wantErr: true},
		{days: maxDayCount + 1, wantErr: true},
		{days: 200000, wantErr: true},
	}
	for _, tt := range tests {
		got, err := dayCount("days", tt.days)
		if tt.wantErr {
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("dayCount(%d) err = %v, want validation error", tt.days, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("dayCount(%d) = %v, %v; want %v", tt.days, got, err, tt.want)
		}
	}
}
