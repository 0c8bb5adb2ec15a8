// Package rpc holds the Connect plumbing shared by every service: the JSON
// codec, procedure names and error mapping.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

// Package is the versioned API package every service lives under.
const Package = "billsplit.v1"

// Procedure returns the full Connect procedure name for a method.
func Procedure(service, method string) string {
	return fmt.Sprintf("/%s.%s/%s", Package, service, method)
}

// ServicePath returns the path prefix a service handler is mounted on.
func ServicePath(service string) string {
	return fmt.Sprintf("/%s.%s/", Package, service)
}

// JSONCodec encodes messages as plain JSON. Messages are ordinary Go
// structs, so the "json" codec name matches what Connect clients send for
// application/json and application/connect+json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// HandlerOptions are added to every handler: the JSON codec plus opts.
func HandlerOptions(opts ...connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// ClientOptions are added to every client.
func ClientOptions(opts ...connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// Error maps a domain error to a Connect error.
func Error(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, models.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
