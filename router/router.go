// Package router shows and hides path-guarded subtrees according to the
// current navigation path.
//
// Every guarded node gets an anchor placeholder right before it when it is
// bound. Recompute walks the whole binding list and, for each binding,
// either reinserts the node after its anchor or detaches it, so the result
// depends only on the current path.
package router

import (
	"io"
	"log/slog"

	"github.com/livefir/objectmodel/binder"
	"github.com/livefir/objectmodel/dom"
)

// InitialPath selects where a router root gets its starting path.
type InitialPath int

const (
	// FromAttribute uses the value of the root's router directive.
	FromAttribute InitialPath = iota
	// FromLocation uses the live history path.
	FromLocation
)

func (p InitialPath) String() string {
	if p == FromLocation {
		return "location"
	}
	return "attribute"
}

// ParseInitialPath maps "attribute" and "location" to their values.
func ParseInitialPath(s string) (InitialPath, bool) {
	switch s {
	case "", "attribute":
		return FromAttribute, true
	case "location":
		return FromLocation, true
	}
	return FromAttribute, false
}

// Binding ties a guarded node to its path and anchor.
type Binding struct {
	Node   dom.Node
	Path   string
	Anchor dom.Node
}

// Router owns the binding list for every router root of one document.
type Router struct {
	doc      dom.Document
	vocab    binder.Vocabulary
	initial  InitialPath
	logger   *slog.Logger
	bindings []Binding

	onNavigate func(path string)
	popHooked  bool
}

// Option configures a Router.
type Option func(*Router)

// WithInitialPath selects the starting-path source for Bind.
func WithInitialPath(p InitialPath) Option {
	return func(r *Router) { r.initial = p }
}

// WithVocabulary overrides the directive names.
func WithVocabulary(v binder.Vocabulary) Option {
	return func(r *Router) { r.vocab = v }
}

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNavigateHook runs fn after every recompute triggered by navigation.
func WithNavigateHook(fn func(path string)) Option {
	return func(r *Router) { r.onNavigate = fn }
}

// New creates a Router for doc.
func New(doc dom.Document, opts ...Option) *Router {
	r := &Router{
		doc:    doc,
		vocab:  binder.NewVocabulary(binder.DefaultPrefix),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bindings returns the path bindings in registration order.
func (r *Router) Bindings() []Binding {
	return append([]Binding(nil), r.bindings...)
}

// CurrentPath returns the live history path, or "" without history.
func (r *Router) CurrentPath() string {
	if h := r.doc.History(); h != nil {
		return h.Path()
	}
	return ""
}

// Bind registers the path children of a router root. Children whose path
// differs from the root's starting path are detached.
func (r *Router) Bind(root dom.Node) {
	r.hookPopState()

	declared, _ := r.doc.Attr(root, r.vocab.Router())
	r.doc.RemoveAttr(root, r.vocab.Router())

	current := declared
	if r.initial == FromLocation {
		current = r.CurrentPath()
	}

	for _, child := range r.doc.Children(root) {
		path, ok := r.doc.Attr(child, r.vocab.Path())
		if !ok {
			continue
		}
		r.doc.RemoveAttr(child, r.vocab.Path())
		r.doc.RemoveAttr(child, "hidden")

		anchor := r.doc.CreateAnchor()
		r.doc.InsertBefore(anchor, child)
		if path != current {
			r.doc.Remove(child)
		}
		r.bindings = append(r.bindings, Binding{Node: child, Path: path, Anchor: anchor})
	}
	r.logger.Debug("router bound", "path", current, "bindings", len(r.bindings))
}

// BindLink intercepts clicks on a link node: the default navigation is
// prevented and the href is pushed instead.
func (r *Router) BindLink(n dom.Node) {
	r.hookPopState()

	title, _ := r.doc.Attr(n, r.vocab.Link())
	r.doc.RemoveAttr(n, r.vocab.Link())

	r.doc.AddEventListener(n, "click", func(ev dom.Event) {
		ev.PreventDefault()
		href, ok := r.doc.Attr(n, "href")
		if !ok {
			return
		}
		r.Navigate(title, href)
	})
}

// Navigate pushes path onto the history and recomputes.
func (r *Router) Navigate(title, path string) {
	if h := r.doc.History(); h != nil {
		h.Push(title, path)
	}
	r.logger.Debug("navigate", "path", path)
	r.Recompute()
}

// Recompute attaches exactly the bindings whose path equals the current
// path and detaches the rest.
func (r *Router) Recompute() {
	current := r.CurrentPath()
	for _, b := range r.bindings {
		if b.Path == current {
			r.doc.InsertAfter(b.Node, b.Anchor)
		} else {
			r.doc.Remove(b.Node)
		}
	}
	if r.onNavigate != nil {
		r.onNavigate(current)
	}
}

func (r *Router) hookPopState() {
	if r.popHooked {
		return
	}
	if h := r.doc.History(); h != nil {
		h.OnPopState(r.Recompute)
		r.popHooked = true
	}
}
