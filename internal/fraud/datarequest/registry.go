// Package datarequest is the typed contract between fraud rules and the data
// they need. A rule declares its needs as request values; the worker registers
// one handler per request kind at startup; the registry dispatches a request to
// its handler and hands the rule a typed answer.
package datarequest

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrNoHandler is returned when no handler is registered for a request kind.
// This is a wiring mistake, not a transient failure: callers should fail fast
// at startup rather than retry.
var ErrNoHandler = errors.New("no handler registered for data request")

// Request is a typed, immutable query object. R is the response type the
// handler produces for it.
type Request[R any] interface {
	// RequestID is a stable identifier for the request kind. It doubles as
	// the registration key and shows up in diagnostics.
	RequestID() string
}

// Descriptor is the untyped view of a request, used where rules only declare
// needs (e.g. for pre-warming) without resolving them.
type Descriptor interface {
	RequestID() string
}

// HandlerFunc fetches the data a request describes. Handlers are stateless
// dispatch targets; per-call state travels in the request and context.
type HandlerFunc[TReq Request[R], R any] func(ctx context.Context, req TReq) (R, error)

// Registry maps request kinds to handlers captured at registration time.
// Reads vastly outnumber writes: registration happens once during wiring,
// resolution on every rule evaluation.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]func(ctx context.Context, req any) (any, error)
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]func(ctx context.Context, req any) (any, error))}
}

// Register binds a handler to the request kind of TReq. Each kind must have
// exactly one handler; a second registration is rejected.
func Register[R any, TReq Request[R]](r *Registry, h HandlerFunc[TReq, R]) error {
	var probe TReq
	key := probe.RequestID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[key]; exists {
		return errors.Errorf("handler already registered for request kind %q", key)
	}
	r.handlers[key] = func(ctx context.Context, req any) (any, error) {
		return h(ctx, req.(TReq))
	}
	return nil
}

// Resolve dispatches a request to its registered handler and returns the typed
// response. The response type is given explicitly at the call site, e.g.
// Resolve[int](ctx, reg, req); the request type is inferred.
func Resolve[R any, TReq Request[R]](ctx context.Context, r *Registry, req TReq) (R, error) {
	var zero R

	r.mu.RLock()
	h, ok := r.handlers[req.RequestID()]
	r.mu.RUnlock()
	if !ok {
		return zero, errors.Wrapf(ErrNoHandler, "request kind %q", req.RequestID())
	}

	out, err := h(ctx, req)
	if err != nil {
		return zero, err
	}
	return out.(R), nil
}
