// Package model holds the reactive state of the binding engine: templates,
// property cells, reactive instances, the model registry and the instance
// store.
//
// Writes through Instance.Set fan out synchronously to every node bound to
// the cell, in a fixed order: content observers, attribute observers, then
// switch cases. The stored value is updated afterwards.
package model

import (
	"errors"
	"fmt"

	"github.com/livefir/objectmodel/dom"
)

// Kind tags a template entry and the cell built from it.
type Kind int

const (
	KindData Kind = iota
	KindHandler
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindHandler:
		return "handler"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// HandlerFunc is an event handler bound to the instance that owns it.
type HandlerFunc func(in *Instance, ev dom.Event)

// Entry is one property of a Template: either an initial value or a
// handler.
type Entry struct {
	kind    Kind
	value   any
	handler HandlerFunc
}

// Data declares a data property with an initial value.
func Data(v any) Entry { return Entry{kind: KindData, value: v} }

// Handler declares an event handler.
func Handler(fn HandlerFunc) Entry { return Entry{kind: KindHandler, handler: fn} }

func (e Entry) Kind() Kind { return e.kind }

// Value returns the initial value of a data entry.
func (e Entry) Value() any { return e.value }

// Template maps property names to entries. Registered templates are copied
// and never mutated afterwards.
type Template map[string]Entry

var (
	ErrNilTemplate  = errors.New("template is nil")
	ErrEmptyName    = errors.New("property name is empty")
	ErrNilHandler   = errors.New("handler is nil")
	ErrUnknownEntry = errors.New("entry kind is unknown")
	ErrNotATemplate = errors.New("value is not a template")
)

// Validate checks the template shape once, at registration.
func (t Template) Validate() error {
	if t == nil {
		return ErrNilTemplate
	}
	for name, e := range t {
		if name == "" {
			return ErrEmptyName
		}
		switch e.kind {
		case KindData:
		case KindHandler:
			if e.handler == nil {
				return fmt.Errorf("%q: %w", name, ErrNilHandler)
			}
		default:
			return fmt.Errorf("%q: %w", name, ErrUnknownEntry)
		}
	}
	return nil
}

// Clone returns a shallow copy.
func (t Template) Clone() Template {
	if t == nil {
		return nil
	}
	out := make(Template, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// FromMap builds a Template from a loosely typed property bag. Functions
// with a handler signature become handlers; everything else is data.
func FromMap(m map[string]any) Template {
	if m == nil {
		return nil
	}
	t := make(Template, len(m))
	for name, v := range m {
		switch fn := v.(type) {
		case Entry:
			t[name] = fn
		case HandlerFunc:
			t[name] = Handler(fn)
		case func(*Instance, dom.Event):
			t[name] = Handler(fn)
		case func(*Instance):
			t[name] = Handler(func(in *Instance, _ dom.Event) { fn(in) })
		default:
			t[name] = Data(v)
		}
	}
	return t
}

// AsTemplate converts the accepted template representations. It returns
// ErrNotATemplate for anything else.
func AsTemplate(v any) (Template, error) {
	switch t := v.(type) {
	case Template:
		if t == nil {
			return nil, ErrNilTemplate
		}
		return t, nil
	case map[string]Entry:
		if t == nil {
			return nil, ErrNilTemplate
		}
		return Template(t), nil
	case map[string]any:
		if t == nil {
			return nil, ErrNilTemplate
		}
		return FromMap(t), nil
	default:
		return nil, ErrNotATemplate
	}
}
