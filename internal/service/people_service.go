package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/live"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/rpc"
	"github.com/mmynk/billsplit/internal/storage"
)

// PeopleServiceName is the Connect service name of PeopleService.
const PeopleServiceName = "PeopleService"

// PeopleService manages the people a user splits bills with.
type PeopleService struct {
	store storage.Store
	hub   *live.Hub
}

// NewPeopleService creates a PeopleService.
func NewPeopleService(store storage.Store, hub *live.Hub) *PeopleService {
	return &PeopleService{store: store, hub: hub}
}

// Handler returns the mount path and HTTP handler for the service.
func (s *PeopleService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	proc := func(method string) string { return rpc.Procedure(PeopleServiceName, method) }

	mux := http.NewServeMux()
	mux.Handle(proc("AddPerson"), connect.NewUnaryHandler(proc("AddPerson"), s.AddPerson, opts...))
	mux.Handle(proc("ListPeople"), connect.NewUnaryHandler(proc("ListPeople"), s.ListPeople, opts...))
	mux.Handle(proc("DeletePerson"), connect.NewUnaryHandler(proc("DeletePerson"), s.DeletePerson, opts...))
	return rpc.ServicePath(PeopleServiceName), mux
}

// AddPerson creates a person. Without a colour the next palette entry is used.
func (s *PeopleService) AddPerson(ctx context.Context, req *connect.Request[AddPersonRequest]) (*connect.Response[AddPersonResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	person := &models.Person{UserID: userID, Name: req.Msg.Name, Color: req.Msg.Color}
	if err := s.store.CreatePerson(ctx, person); err != nil {
		slog.Warn("Failed to add person", "user_id", userID, "error", err)
		return nil, rpc.Error(err)
	}

	slog.Info("Person added", "person_id", person.ID, "color", person.Color)
	return connect.NewResponse(&AddPersonResponse{Person: toPerson(person)}), nil
}

// ListPeople returns the caller's people in creation order.
func (s *PeopleService) ListPeople(ctx context.Context, req *connect.Request[ListPeopleRequest]) (*connect.Response[ListPeopleResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	people, err := s.store.ListPeople(ctx, userID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return connect.NewResponse(&ListPeopleResponse{People: toPeople(people)}), nil
}

// DeletePerson removes a person and every assignment to them. Splits of all
// the caller's bills are recomputed by their watchers.
func (s *PeopleService) DeletePerson(ctx context.Context, req *connect.Request[DeletePersonRequest]) (*connect.Response[DeletePersonResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ownedPerson(ctx, s.store, userID, req.Msg.PersonID); err != nil {
		return nil, rpc.Error(err)
	}

	if err := s.store.DeletePerson(ctx, req.Msg.PersonID); err != nil {
		slog.Error("Failed to delete person", "person_id", req.Msg.PersonID, "error", err)
		return nil, rpc.Error(err)
	}
	slog.Info("Person deleted", "person_id", req.Msg.PersonID)

	bills, err := s.store.ListBills(ctx, userID, storage.BillFilter{})
	if err != nil {
		slog.Warn("Failed to list bills for change notification", "user_id", userID, "error", err)
		return connect.NewResponse(&DeletePersonResponse{}), nil
	}
	for _, b := range bills {
		s.hub.Publish(live.Change{BillID: b.ID, Reason: ReasonPersonDeleted})
	}
	return connect.NewResponse(&DeletePersonResponse{}), nil
}
