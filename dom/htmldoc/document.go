// Package htmldoc implements dom.Document on top of golang.org/x/net/html.
//
// It is the server-side host for the binding engine: pages are parsed into an
// html.Node tree, bindings mutate that tree in place, and events are
// dispatched synchronously with Dispatch or Click. Session history is kept in
// memory (see History).
package htmldoc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/livefir/objectmodel/dom"
)

// ListenerIDAttr marks elements that carry at least one listener when the
// document tracks listeners (see WithListenerIDs). Live clients report
// events against this id.
const ListenerIDAttr = "data-om-listen"

// Document is an html.Node tree with listener, readiness and history state.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]dom.Listener
	ready     []*readyHook
	loaded    bool
	history   *History

	trackListeners bool
	listenerIDs    map[string]*html.Node
	nextListenerID int
}

type readyHook struct {
	fn        func()
	cancelled bool
}

// Option configures a Document.
type Option func(*Document)

// WithLocation sets the initial navigation path. Defaults to "/".
func WithLocation(path string) Option {
	return func(d *Document) {
		d.history = NewHistory(path)
	}
}

// WithListenerIDs stamps ListenerIDAttr on every element that receives a
// listener so remote clients can address it.
func WithListenerIDs() Option {
	return func(d *Document) {
		d.trackListeners = true
	}
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return newDocument(root, opts...), nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

func newDocument(root *html.Node, opts ...Option) *Document {
	d := &Document{
		root:        root,
		listeners:   make(map[*html.Node]map[string][]dom.Listener),
		history:     NewHistory("/"),
		listenerIDs: make(map[string]*html.Node),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load marks the document as loaded and runs the pending ready hooks in
// registration order. Calling it again does nothing.
func (d *Document) Load() {
	if d.loaded {
		return
	}
	d.loaded = true

	hooks := d.ready
	d.ready = nil
	for _, h := range hooks {
		if !h.cancelled {
			h.fn()
		}
	}
}

// Loaded reports whether Load has run.
func (d *Document) Loaded() bool { return d.loaded }

// OnReady implements dom.Document. Once the document is loaded, fn runs
// immediately.
func (d *Document) OnReady(fn func()) func() {
	h := &readyHook{fn: fn}
	if d.loaded {
		fn()
		return func() {}
	}
	d.ready = append(d.ready, h)
	return func() { h.cancelled = true }
}

// History returns the in-memory session history.
func (d *Document) History() dom.History { return d.history }

// Session returns the concrete history so callers can drive back/forward.
func (d *Document) Session() *History { return d.history }

func (d *Document) Root() dom.Node { return d.root }

// Body returns the <body> element, or nil for fragments without one.
func (d *Document) Body() *html.Node {
	var body *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return true
	})
	return body
}

func (d *Document) QueryAll(scope dom.Node, attr string) []dom.Node {
	s := node(scope)
	if s == nil {
		return nil
	}
	var out []dom.Node
	for c := s.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if n.Type == html.ElementNode && hasAttr(n, attr) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

func (d *Document) ElementByID(id string) dom.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := getAttr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil
	}
	return found
}

func (d *Document) Children(n dom.Node) []dom.Node {
	p := node(n)
	if p == nil {
		return nil
	}
	var out []dom.Node
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func (d *Document) Parent(n dom.Node) dom.Node {
	c := node(n)
	if c == nil || c.Parent == nil {
		return nil
	}
	return c.Parent
}

// Attached reports whether n is reachable from the document root.
func (d *Document) Attached(n dom.Node) bool {
	for c := node(n); c != nil; c = c.Parent {
		if c == d.root {
			return true
		}
	}
	return false
}

func (d *Document) Attr(n dom.Node, name string) (string, bool) {
	e := node(n)
	if e == nil {
		return "", false
	}
	return getAttr(e, name)
}

func (d *Document) Attrs(n dom.Node) []dom.Attribute {
	e := node(n)
	if e == nil {
		return nil
	}
	out := make([]dom.Attribute, 0, len(e.Attr))
	for _, a := range e.Attr {
		out = append(out, dom.Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

func (d *Document) SetAttr(n dom.Node, name, value string) {
	e := node(n)
	if e == nil {
		return
	}
	for i := range e.Attr {
		if e.Attr[i].Namespace == "" && e.Attr[i].Key == name {
			e.Attr[i].Val = value
			return
		}
	}
	e.Attr = append(e.Attr, html.Attribute{Key: name, Val: value})
}

func (d *Document) RemoveAttr(n dom.Node, name string) {
	e := node(n)
	if e == nil {
		return
	}
	kept := e.Attr[:0]
	for _, a := range e.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		kept = append(kept, a)
	}
	e.Attr = kept
}

// Text returns the concatenated text of n and its descendants.
func (d *Document) Text(n dom.Node) string {
	e := node(n)
	if e == nil {
		return ""
	}
	var b strings.Builder
	walk(e, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// SetProperty writes TextContent by replacing the children of n with a
// single text node. Any other property is reflected as an attribute.
func (d *Document) SetProperty(n dom.Node, name, value string) {
	e := node(n)
	if e == nil {
		return
	}
	if name != dom.TextContent {
		d.SetAttr(n, name, value)
		return
	}
	for c := e.FirstChild; c != nil; {
		next := c.NextSibling
		e.RemoveChild(c)
		c = next
	}
	if value != "" {
		e.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	}
}

// CreateAnchor returns an empty comment node.
func (d *Document) CreateAnchor() dom.Node {
	return &html.Node{Type: html.CommentNode}
}

func (d *Document) InsertBefore(n, ref dom.Node) {
	c, r := node(n), node(ref)
	if c == nil || r == nil || r.Parent == nil {
		return
	}
	if c.NextSibling == r && c.Parent == r.Parent {
		return
	}
	detach(c)
	r.Parent.InsertBefore(c, r)
}

func (d *Document) InsertAfter(n, ref dom.Node) {
	c, r := node(n), node(ref)
	if c == nil || r == nil || r.Parent == nil {
		return
	}
	if r.NextSibling == c {
		return
	}
	detach(c)
	r.Parent.InsertBefore(c, r.NextSibling)
}

func (d *Document) Remove(n dom.Node) {
	if c := node(n); c != nil {
		detach(c)
	}
}

func (d *Document) AddEventListener(n dom.Node, event string, l dom.Listener) {
	e := node(n)
	if e == nil || l == nil {
		return
	}
	byType, ok := d.listeners[e]
	if !ok {
		byType = make(map[string][]dom.Listener)
		d.listeners[e] = byType
	}
	byType[event] = append(byType[event], l)

	if d.trackListeners {
		if _, stamped := getAttr(e, ListenerIDAttr); !stamped {
			d.nextListenerID++
			id := strconv.Itoa(d.nextListenerID)
			d.listenerIDs[id] = e
			d.SetAttr(e, ListenerIDAttr, id)
		}
	}
}

// ListenerCount returns how many listeners of the given type n has.
func (d *Document) ListenerCount(n dom.Node, event string) int {
	e := node(n)
	if e == nil {
		return 0
	}
	return len(d.listeners[e][event])
}

// NodeByListenerID resolves an id stamped by WithListenerIDs.
func (d *Document) NodeByListenerID(id string) dom.Node {
	if n, ok := d.listenerIDs[id]; ok {
		return n
	}
	return nil
}

// Dispatch fires an event of the given type at target and bubbles it
// through the ancestors. The path is fixed before the first listener runs,
// so a listener that detaches the target does not cut bubbling short. It
// returns false when a listener prevented the default action.
func (d *Document) Dispatch(target dom.Node, eventType string) bool {
	t := node(target)
	if t == nil {
		return true
	}
	var path []*html.Node
	for cur := t; cur != nil; cur = cur.Parent {
		path = append(path, cur)
	}

	ev := &Event{typ: eventType, target: t}
	for _, cur := range path {
		for _, l := range d.listeners[cur][eventType] {
			l(ev)
		}
	}
	return !ev.prevented
}

// Click dispatches a click at the element with the given id.
func (d *Document) Click(id string) error {
	n := d.ElementByID(id)
	if n == nil {
		return fmt.Errorf("no element with id %q", id)
	}
	d.Dispatch(n, "click")
	return nil
}

// Event is the dom.Event delivered by Dispatch.
type Event struct {
	typ       string
	target    *html.Node
	prevented bool
}

func (e *Event) Type() string           { return e.typ }
func (e *Event) Target() dom.Node       { return e.target }
func (e *Event) PreventDefault()        { e.prevented = true }
func (e *Event) DefaultPrevented() bool { return e.prevented }

func node(n dom.Node) *html.Node {
	h, _ := n.(*html.Node)
	return h
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := getAttr(n, name)
	return ok
}

// walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		walk(c, fn)
		c = next
	}
}
