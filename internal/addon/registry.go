package addon

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mailtothings/internal/card"
)

// ErrUnknownHandler is returned when dispatching a name nothing registered.
var ErrUnknownHandler = errors.New("unknown handler")

// HandlerFunc answers one add-on event.
type HandlerFunc func(ctx context.Context, req *Request) (card.Response, error)

// Registry maps handler names to functions. It is built once at startup and
// read-only afterwards.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register adds fn under name. Registering a name twice panics.
func (r *Registry) Register(name string, fn HandlerFunc) {
	if _, dup := r.handlers[name]; dup {
		panic("addon: duplicate handler " + name)
	}
	r.handlers[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Dispatch runs the named handler.
func (r *Registry) Dispatch(ctx context.Context, name string, req *Request) (card.Response, error) {
	fn, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
	return fn(ctx, req)
}

// Names lists registered handlers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry returns the table of the add-on's four handlers.
func (a *App) Registry() *Registry {
	r := NewRegistry()
	r.Register(OnEmailSelected, a.EmailSelected)
	r.Register(OnCreateTodoClicked, a.CreateTodo)
	r.Register(OnSettingsClicked, a.SettingsClicked)
	r.Register(OnSettingsSaveClicked, a.SettingsSaveClicked)
	return r
}
