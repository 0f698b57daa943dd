//go:build js && wasm

// Package jsdoc implements dom.Document over the browser DOM through
// syscall/js, for engines compiled to WebAssembly.
package jsdoc

import (
	"syscall/js"

	"github.com/livefir/objectmodel/dom"
)

// nodeKey is the expando property that maps a DOM node back to its handle.
const nodeKey = "__objectmodelNode"

// Node wraps a js.Value. Handles are interned so that == holds for the same
// DOM node.
type Node struct {
	v js.Value
}

// Value returns the underlying DOM node.
func (n *Node) Value() js.Value { return n.v }

// Document is the browser document.
type Document struct {
	doc     js.Value
	nodes   map[int]*Node
	nextID  int
	history *history
	funcs   []js.Func
}

// New wraps the global document.
func New() *Document {
	d := &Document{
		doc:   js.Global().Get("document"),
		nodes: make(map[int]*Node),
	}
	d.history = &history{win: js.Global()}
	return d
}

// Release frees every js.Func created for listeners.
func (d *Document) Release() {
	for _, f := range d.funcs {
		f.Release()
	}
	d.funcs = nil
}

func (d *Document) wrap(v js.Value) dom.Node {
	if !v.Truthy() {
		return nil
	}
	if id := v.Get(nodeKey); id.Type() == js.TypeNumber {
		if n, ok := d.nodes[id.Int()]; ok {
			return n
		}
	}
	d.nextID++
	v.Set(nodeKey, d.nextID)
	n := &Node{v: v}
	d.nodes[d.nextID] = n
	return n
}

func value(n dom.Node) (js.Value, bool) {
	w, ok := n.(*Node)
	if !ok || w == nil {
		return js.Undefined(), false
	}
	return w.v, true
}

func (d *Document) Root() dom.Node { return d.wrap(d.doc) }

func (d *Document) QueryAll(scope dom.Node, attr string) []dom.Node {
	s, ok := value(scope)
	if !ok {
		return nil
	}
	selector := "[" + js.Global().Get("CSS").Call("escape", attr).String() + "]"
	list := s.Call("querySelectorAll", selector)
	out := make([]dom.Node, 0, list.Length())
	for i := 0; i < list.Length(); i++ {
		out = append(out, d.wrap(list.Index(i)))
	}
	return out
}

func (d *Document) ElementByID(id string) dom.Node {
	return d.wrap(d.doc.Call("getElementById", id))
}

func (d *Document) Children(n dom.Node) []dom.Node {
	v, ok := value(n)
	if !ok {
		return nil
	}
	kids := v.Get("children")
	out := make([]dom.Node, 0, kids.Length())
	for i := 0; i < kids.Length(); i++ {
		out = append(out, d.wrap(kids.Index(i)))
	}
	return out
}

func (d *Document) Parent(n dom.Node) dom.Node {
	v, ok := value(n)
	if !ok {
		return nil
	}
	return d.wrap(v.Get("parentNode"))
}

func (d *Document) Attached(n dom.Node) bool {
	v, ok := value(n)
	return ok && d.doc.Call("contains", v).Bool()
}

func (d *Document) Attr(n dom.Node, name string) (string, bool) {
	v, ok := value(n)
	if !ok || !v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return v.Call("getAttribute", name).String(), true
}

func (d *Document) Attrs(n dom.Node) []dom.Attribute {
	v, ok := value(n)
	if !ok {
		return nil
	}
	attrs := v.Get("attributes")
	out := make([]dom.Attribute, 0, attrs.Length())
	for i := 0; i < attrs.Length(); i++ {
		a := attrs.Index(i)
		out = append(out, dom.Attribute{Name: a.Get("name").String(), Value: a.Get("value").String()})
	}
	return out
}

func (d *Document) SetAttr(n dom.Node, name, val string) {
	if v, ok := value(n); ok {
		v.Call("setAttribute", name, val)
	}
}

func (d *Document) RemoveAttr(n dom.Node, name string) {
	if v, ok := value(n); ok {
		v.Call("removeAttribute", name)
	}
}

func (d *Document) Text(n dom.Node) string {
	if v, ok := value(n); ok {
		return v.Get("textContent").String()
	}
	return ""
}

func (d *Document) SetProperty(n dom.Node, name, val string) {
	if v, ok := value(n); ok {
		v.Set(name, val)
	}
}

func (d *Document) CreateAnchor() dom.Node {
	return d.wrap(d.doc.Call("createComment", ""))
}

func (d *Document) InsertBefore(n, ref dom.Node) {
	v, ok1 := value(n)
	r, ok2 := value(ref)
	if !ok1 || !ok2 || !r.Get("parentNode").Truthy() {
		return
	}
	r.Get("parentNode").Call("insertBefore", v, r)
}

func (d *Document) InsertAfter(n, ref dom.Node) {
	v, ok1 := value(n)
	r, ok2 := value(ref)
	if !ok1 || !ok2 || !r.Get("parentNode").Truthy() {
		return
	}
	if r.Get("nextSibling").Equal(v) {
		return
	}
	r.Call("after", v)
}

func (d *Document) Remove(n dom.Node) {
	if v, ok := value(n); ok && v.Get("parentNode").Truthy() {
		v.Call("remove")
	}
}

func (d *Document) AddEventListener(n dom.Node, event string, l dom.Listener) {
	v, ok := value(n)
	if !ok || l == nil {
		return
	}
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		l(&Event{v: args[0], doc: d})
		return nil
	})
	d.funcs = append(d.funcs, f)
	v.Call("addEventListener", event, f)
}

// OnReady runs fn on DOMContentLoaded, or right away when the document has
// already left the loading state.
func (d *Document) OnReady(fn func()) func() {
	if d.doc.Get("readyState").String() != "loading" {
		fn()
		return func() {}
	}
	var f js.Func
	f = js.FuncOf(func(this js.Value, args []js.Value) any {
		d.doc.Call("removeEventListener", "DOMContentLoaded", f)
		f.Release()
		fn()
		return nil
	})
	d.doc.Call("addEventListener", "DOMContentLoaded", f)
	return func() {
		d.doc.Call("removeEventListener", "DOMContentLoaded", f)
	}
}

func (d *Document) History() dom.History { return d.history }

// Event wraps a browser event.
type Event struct {
	v   js.Value
	doc *Document
}

func (e *Event) Type() string           { return e.v.Get("type").String() }
func (e *Event) Target() dom.Node       { return e.doc.wrap(e.v.Get("target")) }
func (e *Event) PreventDefault()        { e.v.Call("preventDefault") }
func (e *Event) DefaultPrevented() bool { return e.v.Get("defaultPrevented").Bool() }

type history struct {
	win js.Value
}

func (h *history) Path() string {
	return h.win.Get("location").Get("pathname").String()
}

func (h *history) Push(title, path string) {
	h.win.Get("history").Call("pushState", nil, title, path)
}

func (h *history) OnPopState(fn func()) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	})
	h.win.Call("addEventListener", "popstate", f)
}
