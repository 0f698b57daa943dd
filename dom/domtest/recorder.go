// Package domtest provides a recording dom.Document for tests.
package domtest

import (
	"fmt"

	"github.com/livefir/objectmodel/dom"
)

// Op is one mutating call observed by a Recorder.
type Op struct {
	Kind  string
	Node  string
	Name  string
	Value string
}

func (o Op) String() string {
	return fmt.Sprintf("%s(%s %s=%q)", o.Kind, o.Node, o.Name, o.Value)
}

// Recorder forwards every call to the wrapped Document and logs the
// mutating ones.
type Recorder struct {
	dom.Document
	ops []Op
}

// NewRecorder wraps doc.
func NewRecorder(doc dom.Document) *Recorder {
	return &Recorder{Document: doc}
}

// Ops returns the recorded operations.
func (r *Recorder) Ops() []Op { return append([]Op(nil), r.ops...) }

// Reset clears the log.
func (r *Recorder) Reset() { r.ops = nil }

// Label describes n by id, else by its first attribute, else "?".
func (r *Recorder) Label(n dom.Node) string {
	if n == nil {
		return "<nil>"
	}
	if id, ok := r.Document.Attr(n, "id"); ok {
		return "#" + id
	}
	if attrs := r.Document.Attrs(n); len(attrs) > 0 {
		return fmt.Sprintf("[%s=%s]", attrs[0].Name, attrs[0].Value)
	}
	return "?"
}

func (r *Recorder) record(kind string, n dom.Node, name, value string) {
	r.ops = append(r.ops, Op{Kind: kind, Node: r.Label(n), Name: name, Value: value})
}

func (r *Recorder) SetProperty(n dom.Node, name, value string) {
	r.record("prop", n, name, value)
	r.Document.SetProperty(n, name, value)
}

func (r *Recorder) SetAttr(n dom.Node, name, value string) {
	r.record("attr", n, name, value)
	r.Document.SetAttr(n, name, value)
}

func (r *Recorder) RemoveAttr(n dom.Node, name string) {
	r.record("unattr", n, name, "")
	r.Document.RemoveAttr(n, name)
}

func (r *Recorder) InsertBefore(n, ref dom.Node) {
	r.record("before", n, "", "")
	r.Document.InsertBefore(n, ref)
}

func (r *Recorder) InsertAfter(n, ref dom.Node) {
	r.record("after", n, "", "")
	r.Document.InsertAfter(n, ref)
}

func (r *Recorder) Remove(n dom.Node) {
	r.record("remove", n, "", "")
	r.Document.Remove(n)
}

func (r *Recorder) AddEventListener(n dom.Node, event string, l dom.Listener) {
	r.record("listen", n, event, "")
	r.Document.AddEventListener(n, event, l)
}

// Filter returns the recorded ops of the given kinds.
func (r *Recorder) Filter(kinds ...string) []Op {
	var out []Op
	for _, op := range r.ops {
		for _, k := range kinds {
			if op.Kind == k {
				out = append(out, op)
				break
			}
		}
	}
	return out
}
