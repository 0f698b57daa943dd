package model

import (
	"sort"

	"github.com/livefir/objectmodel/dom"
)

// CaseEntry is one case node of a switch cell together with the anchor that
// marks its position.
type CaseEntry struct {
	Value  string
	Node   dom.Node
	Anchor dom.Node
}

// Cell is the reactive unit: a value plus the nodes observing it. Handler
// cells carry a bound function and no observers.
type Cell struct {
	name    string
	kind    Kind
	value   any
	handler func(ev dom.Event)
	ref     bool

	content    map[string][]dom.Node
	attributes map[string][]dom.Node
	cases      []CaseEntry
}

func newDataCell(name string, v any) *Cell {
	return &Cell{
		name:       name,
		kind:       KindData,
		value:      v,
		content:    make(map[string][]dom.Node),
		attributes: make(map[string][]dom.Node),
	}
}

func (c *Cell) Name() string { return c.name }
func (c *Cell) Kind() Kind   { return c.kind }
func (c *Cell) Value() any   { return c.value }

// Handler returns the bound handler of a handler cell, nil otherwise.
func (c *Cell) Handler() func(ev dom.Event) { return c.handler }

// IsRef reports whether the value is a node stored by a reference binding.
func (c *Cell) IsRef() bool { return c.ref }

// ObserveProperty registers n to receive writes into the display property
// prop.
func (c *Cell) ObserveProperty(prop string, n dom.Node) bool {
	if c.kind != KindData {
		return false
	}
	c.content[prop] = append(c.content[prop], n)
	return true
}

// ObserveAttribute registers n to receive writes into attribute attr.
func (c *Cell) ObserveAttribute(attr string, n dom.Node) bool {
	if c.kind != KindData {
		return false
	}
	c.attributes[attr] = append(c.attributes[attr], n)
	return true
}

// AddCase records a switch case.
func (c *Cell) AddCase(e CaseEntry) bool {
	if c.kind != KindData {
		return false
	}
	c.cases = append(c.cases, e)
	return true
}

// SetReference stores n as the value without fan-out.
func (c *Cell) SetReference(n dom.Node) {
	c.value = n
	c.ref = true
}

// Observers returns the nodes bound to display property prop.
func (c *Cell) Observers(prop string) []dom.Node {
	return append([]dom.Node(nil), c.content[prop]...)
}

// AttributeObservers returns the nodes bound to attribute attr.
func (c *Cell) AttributeObservers(attr string) []dom.Node {
	return append([]dom.Node(nil), c.attributes[attr]...)
}

// Cases returns the recorded switch cases in bind order.
func (c *Cell) Cases() []CaseEntry {
	return append([]CaseEntry(nil), c.cases...)
}

// Text is the string form of the current value used by fan-out and case
// matching. Stored node references render as empty.
func (c *Cell) Text() string {
	if c.ref {
		return ""
	}
	return Text(c.value)
}

// notify pushes v to every observer and returns the number of renderer
// calls made. The stored value is not touched.
func (c *Cell) notify(r dom.Renderer, v any) int {
	s := Text(v)
	ops := 0

	for _, prop := range sortedKeys(c.content) {
		for _, n := range c.content[prop] {
			r.SetProperty(n, prop, s)
			ops++
		}
	}
	for _, attr := range sortedKeys(c.attributes) {
		for _, n := range c.attributes[attr] {
			r.SetAttr(n, attr, s)
			ops++
		}
	}
	for _, e := range c.cases {
		if e.Value == s {
			r.InsertAfter(e.Node, e.Anchor)
		} else {
			r.Remove(e.Node)
		}
		ops++
	}
	return ops
}

func sortedKeys(m map[string][]dom.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
