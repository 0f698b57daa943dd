package model

import (
	"sort"

	"github.com/livefir/objectmodel/dom"
)

// slot is a registry entry: pending host nodes until a template arrives,
// the template afterwards.
type slot struct {
	template Template
	pending  []dom.Node
	bound    bool
}

// Registry maps model names to templates, queueing host nodes that show up
// before their template is registered.
type Registry struct {
	slots map[string]*slot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) (Template, bool) {
	s, ok := r.slots[name]
	if !ok || !s.bound {
		return nil, false
	}
	return s.template, true
}

// Enqueue parks n until a template for name is registered. It returns false
// when n is already waiting or when the name is already bound.
func (r *Registry) Enqueue(name string, n dom.Node) bool {
	s, ok := r.slots[name]
	if !ok {
		r.slots[name] = &slot{pending: []dom.Node{n}}
		return true
	}
	if s.bound {
		return false
	}
	for _, p := range s.pending {
		if p == n {
			return false
		}
	}
	s.pending = append(s.pending, n)
	return true
}

// Register stores a copy of t under name and returns the nodes that were
// waiting for it, in arrival order. Re-registration replaces the template
// and returns nothing.
func (r *Registry) Register(name string, t Template) []dom.Node {
	var drained []dom.Node
	if s, ok := r.slots[name]; ok && !s.bound {
		drained = s.pending
	}
	r.slots[name] = &slot{template: t.Clone(), bound: true}
	return drained
}

// Pending returns the nodes waiting on name.
func (r *Registry) Pending(name string) []dom.Node {
	s, ok := r.slots[name]
	if !ok || s.bound {
		return nil
	}
	return append([]dom.Node(nil), s.pending...)
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	var names []string
	for name, s := range r.slots {
		if s.bound {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
