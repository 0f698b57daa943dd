package binder

import (
	"io"
	"log/slog"

	"github.com/livefir/objectmodel/dom"
	"github.com/livefir/objectmodel/model"
)

// Result counts what Materialize did.
type Result struct {
	Applied int
	Skipped int
}

// Binder materializes plans against one document.
type Binder struct {
	doc    dom.Document
	vocab  Vocabulary
	logger *slog.Logger
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger used for skipped bindings.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithVocabulary overrides the directive names.
func WithVocabulary(v Vocabulary) Option {
	return func(b *Binder) { b.vocab = v }
}

// New creates a Binder for doc.
func New(doc dom.Document, opts ...Option) *Binder {
	b := &Binder{
		doc:    doc,
		vocab:  NewVocabulary(DefaultPrefix),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Vocabulary returns the directive names in use.
func (b *Binder) Vocabulary() Vocabulary { return b.vocab }

// Declare reads the plan for root.
func (b *Binder) Declare(root dom.Node) *Plan {
	return Declare(b.doc, b.vocab, root)
}

// Bind declares and materializes root in one step.
func (b *Binder) Bind(root dom.Node, in *model.Instance) Result {
	return b.Materialize(b.Declare(root), in)
}

// Materialize attaches p to in. Switches go first, then content, attribute,
// event and reference bindings; the root's model marker is removed last.
// Bindings naming a missing property are dropped, but their directive is
// still removed.
func (b *Binder) Materialize(p *Plan, in *model.Instance) Result {
	var res Result
	count := func(ok bool) {
		if ok {
			res.Applied++
		} else {
			res.Skipped++
		}
	}

	for _, s := range p.Switches {
		count(b.bindSwitch(s, in))
	}
	for _, c := range p.Contents {
		count(b.bindContent(c, in))
	}
	for _, a := range p.Attrs {
		count(b.bindAttr(a, in))
	}
	// Several pairs in one js:attr share the directive; strip it once all
	// are bound.
	for _, a := range p.Attrs {
		b.doc.RemoveAttr(a.Node, b.vocab.Attr())
	}
	for _, e := range p.Events {
		count(b.bindEvent(e, in))
	}
	for _, r := range p.Refs {
		count(b.bindRef(r, in))
	}

	b.doc.RemoveAttr(p.Root, b.vocab.Model())
	return res
}

func (b *Binder) skip(kind, prop string) bool {
	b.logger.Debug("binding skipped", "kind", kind, "property", prop)
	return false
}

func dataCell(in *model.Instance, prop string) *model.Cell {
	c := in.Cell(prop)
	if c == nil || c.Kind() != model.KindData {
		return nil
	}
	return c
}

func (b *Binder) bindSwitch(s SwitchDecl, in *model.Instance) bool {
	b.doc.RemoveAttr(s.Node, b.vocab.Switch())
	for _, cs := range s.Cases {
		b.doc.RemoveAttr(cs.Node, b.vocab.Case())
	}

	cell := dataCell(in, s.Prop)
	if cell == nil {
		return b.skip("switch", s.Prop)
	}

	current := cell.Text()
	for _, cs := range s.Cases {
		anchor := b.doc.CreateAnchor()
		b.doc.InsertBefore(anchor, cs.Node)
		if cs.Value != current {
			b.doc.Remove(cs.Node)
		}
		cell.AddCase(model.CaseEntry{Value: cs.Value, Node: cs.Node, Anchor: anchor})
	}
	return true
}

func (b *Binder) bindContent(c ContentDecl, in *model.Instance) bool {
	b.doc.RemoveAttr(c.Node, b.vocab.Content())

	cell := dataCell(in, c.Prop)
	if cell == nil {
		return b.skip("content", c.Prop)
	}
	cell.ObserveProperty(dom.TextContent, c.Node)
	if model.Truthy(cell.Value()) {
		b.doc.SetProperty(c.Node, dom.TextContent, cell.Text())
	}
	return true
}

func (b *Binder) bindAttr(a AttrDecl, in *model.Instance) bool {
	cell := dataCell(in, a.Prop)
	if cell == nil {
		return b.skip("attr", a.Prop)
	}
	cell.ObserveAttribute(a.Name, a.Node)
	if model.Truthy(cell.Value()) {
		b.doc.SetAttr(a.Node, a.Name, cell.Text())
	}
	return true
}

func (b *Binder) bindEvent(e EventDecl, in *model.Instance) bool {
	b.doc.RemoveAttr(e.Node, b.vocab.On(e.Event))

	cell := in.Cell(e.Prop)
	if cell == nil || cell.Kind() != model.KindHandler {
		return b.skip("on-"+e.Event, e.Prop)
	}
	b.doc.AddEventListener(e.Node, e.Event, dom.Listener(cell.Handler()))
	return true
}

func (b *Binder) bindRef(r RefDecl, in *model.Instance) bool {
	b.doc.RemoveAttr(r.Node, b.vocab.Ref())

	cell := dataCell(in, r.Prop)
	if cell == nil {
		return b.skip("ref", r.Prop)
	}
	cell.SetReference(r.Node)
	return true
}
