package model

import (
	"sort"

	"github.com/livefir/objectmodel/dom"
)

// Instance is the reactive object built from a Template for one host node.
// Reads return the current cell value; writes fan out to bound nodes before
// the value is stored.
//
// Instances are not safe for concurrent use. The engine runs on a single
// event timeline, and handlers may write re-entrantly.
type Instance struct {
	id       string
	model    string
	cells    map[string]*Cell
	names    []string
	renderer dom.Renderer
	onWrite  func(name string, ops int)
}

// Option configures an Instance.
type Option func(*Instance)

// WithID records the external id of the host node.
func WithID(id string) Option {
	return func(in *Instance) { in.id = id }
}

// WithModelName records which model the instance was built from.
func WithModelName(name string) Option {
	return func(in *Instance) { in.model = name }
}

// WithWriteHook runs fn after every accepted write with the number of
// renderer calls the fan-out made.
func WithWriteHook(fn func(name string, ops int)) Option {
	return func(in *Instance) { in.onWrite = fn }
}

// New builds an instance. Handler entries are bound to the new instance.
func New(t Template, r dom.Renderer, opts ...Option) *Instance {
	in := &Instance{
		cells:    make(map[string]*Cell, len(t)),
		names:    make([]string, 0, len(t)),
		renderer: r,
	}
	for _, opt := range opts {
		opt(in)
	}

	for name, e := range t {
		in.names = append(in.names, name)
		if e.kind == KindHandler {
			fn := e.handler
			in.cells[name] = &Cell{
				name:    name,
				kind:    KindHandler,
				handler: func(ev dom.Event) { fn(in, ev) },
			}
			continue
		}
		in.cells[name] = newDataCell(name, e.value)
	}
	sort.Strings(in.names)
	return in
}

// ID returns the external id, or "" when the host node had none.
func (in *Instance) ID() string { return in.id }

// Model returns the model name the instance was built from.
func (in *Instance) Model() string { return in.model }

// Names returns the property names in sorted order.
func (in *Instance) Names() []string { return append([]string(nil), in.names...) }

// Cell returns the named cell, or nil.
func (in *Instance) Cell(name string) *Cell { return in.cells[name] }

// Get returns the current value of a property. Handler properties return
// their bound function.
func (in *Instance) Get(name string) (any, bool) {
	c, ok := in.cells[name]
	if !ok {
		return nil, false
	}
	if c.kind == KindHandler {
		return c.handler, true
	}
	return c.value, true
}

// Value is Get without the presence flag.
func (in *Instance) Value(name string) any {
	v, _ := in.Get(name)
	return v
}

// Set writes v to a data property: every bound node is updated first, then
// the value is stored. It returns false, changing nothing, when the name is
// unknown or refers to a handler. Handler cells are read-only; replace a
// handler by registering a new template.
func (in *Instance) Set(name string, v any) bool {
	c, ok := in.cells[name]
	if !ok || c.kind != KindData {
		return false
	}

	ops := 0
	if in.renderer != nil {
		ops = c.notify(in.renderer, v)
	}
	c.value = v
	c.ref = false

	if in.onWrite != nil {
		in.onWrite(name, ops)
	}
	return true
}

// Call invokes a handler property. It returns false when there is none.
func (in *Instance) Call(name string, ev dom.Event) bool {
	c, ok := in.cells[name]
	if !ok || c.kind != KindHandler {
		return false
	}
	c.handler(ev)
	return true
}

// Snapshot returns the data values keyed by name. Node references are left
// out.
func (in *Instance) Snapshot() map[string]any {
	out := make(map[string]any, len(in.cells))
	for name, c := range in.cells {
		if c.kind != KindData || c.ref {
			continue
		}
		out[name] = c.value
	}
	return out
}
