package binder

import (
	"strings"

	"github.com/livefir/objectmodel/dom"
)

// SwitchDecl is a discriminant node and its case children.
type SwitchDecl struct {
	Node  dom.Node
	Prop  string
	Cases []CaseDecl
}

// CaseDecl is one child of a switch node.
type CaseDecl struct {
	Node  dom.Node
	Value string
}

// ContentDecl binds the text content of Node to Prop.
type ContentDecl struct {
	Node dom.Node
	Prop string
}

// AttrDecl binds attribute Name of Node to Prop.
type AttrDecl struct {
	Node dom.Node
	Name string
	Prop string
}

// EventDecl binds an event of Node to the handler Prop.
type EventDecl struct {
	Node  dom.Node
	Event string
	Prop  string
}

// RefDecl exposes Node as the value of Prop.
type RefDecl struct {
	Node dom.Node
	Prop string
}

// Plan is every binding declared under one model root, in document order
// per kind.
type Plan struct {
	Root     dom.Node
	Switches []SwitchDecl
	Contents []ContentDecl
	Attrs    []AttrDecl
	Events   []EventDecl
	Refs     []RefDecl
}

// Len returns the number of declarations.
func (p *Plan) Len() int {
	n := len(p.Contents) + len(p.Attrs) + len(p.Events) + len(p.Refs)
	for _, s := range p.Switches {
		n += 1 + len(s.Cases)
	}
	return n
}

// Declare reads the bindings below root. The root itself only contributes a
// switch declaration. Nested model roots are skipped together with their
// subtrees: they are bound to their own instance.
func Declare(doc dom.Document, v Vocabulary, root dom.Node) *Plan {
	p := &Plan{Root: root}
	if prop, ok := doc.Attr(root, v.Switch()); ok {
		p.Switches = append(p.Switches, declareSwitch(doc, v, root, prop))
	}
	for _, c := range doc.Children(root) {
		declare(doc, v, c, p)
	}
	return p
}

func declare(doc dom.Document, v Vocabulary, n dom.Node, p *Plan) {
	if _, nested := doc.Attr(n, v.Model()); nested {
		return
	}

	for _, a := range doc.Attrs(n) {
		switch {
		case a.Name == v.Switch():
			p.Switches = append(p.Switches, declareSwitch(doc, v, n, a.Value))
		case a.Name == v.Content():
			p.Contents = append(p.Contents, ContentDecl{Node: n, Prop: a.Value})
		case a.Name == v.Attr():
			for _, pair := range parseAttrList(a.Value) {
				p.Attrs = append(p.Attrs, AttrDecl{Node: n, Name: pair[0], Prop: pair[1]})
			}
		case a.Name == v.Ref():
			p.Refs = append(p.Refs, RefDecl{Node: n, Prop: a.Value})
		default:
			if event, ok := v.EventName(a.Name); ok {
				p.Events = append(p.Events, EventDecl{Node: n, Event: event, Prop: a.Value})
			}
		}
	}

	for _, c := range doc.Children(n) {
		declare(doc, v, c, p)
	}
}

func declareSwitch(doc dom.Document, v Vocabulary, n dom.Node, prop string) SwitchDecl {
	s := SwitchDecl{Node: n, Prop: prop}
	for _, c := range doc.Children(n) {
		if value, ok := doc.Attr(c, v.Case()); ok {
			s.Cases = append(s.Cases, CaseDecl{Node: c, Value: value})
		}
	}
	return s
}

// parseAttrList reads "name:prop, name:prop". Malformed pairs are dropped.
func parseAttrList(s string) [][2]string {
	var out [][2]string
	for _, part := range strings.Split(s, ",") {
		name, prop, ok := strings.Cut(strings.TrimSpace(part), ":")
		name, prop = strings.TrimSpace(name), strings.TrimSpace(prop)
		if !ok || name == "" || prop == "" {
			continue
		}
		out = append(out, [2]string{name, prop})
	}
	return out
}
