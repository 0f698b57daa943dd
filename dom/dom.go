// Package dom describes the host document capabilities the binding engine
// consumes: attribute access, node insertion and removal, event
// subscription, document readiness and session history.
//
// A Document hands out opaque Node handles. Handles must be comparable and
// stable: asking twice for the same element yields values that are ==, which
// is what lets bindings track node identity across show/hide cycles.
package dom

// Node is an opaque, identity-comparable handle to a node of a Document.
type Node interface{}

// Attribute is a single name/value pair on an element.
type Attribute struct {
	Name  string
	Value string
}

// Event is delivered to listeners registered with AddEventListener.
type Event interface {
	Type() string
	Target() Node
	PreventDefault()
	DefaultPrevented() bool
}

// Listener handles an event.
type Listener func(ev Event)

// TextContent is the display property content bindings write to.
const TextContent = "textContent"

// Renderer is the subset of a Document that write fan-out needs.
type Renderer interface {
	// SetProperty sets a display property (TextContent, value, ...) of n.
	SetProperty(n Node, name, value string)
	SetAttr(n Node, name, value string)
	// InsertAfter places n immediately after ref. It is a no-op when n
	// already sits there.
	InsertAfter(n, ref Node)
	// Remove detaches n from its parent. Detached nodes are left alone.
	Remove(n Node)
}

// Document is the full capability set of a host document.
type Document interface {
	Renderer

	// Root returns the document node.
	Root() Node
	// QueryAll returns the elements below scope (scope excluded) that carry
	// the named attribute, in document order.
	QueryAll(scope Node, attr string) []Node
	ElementByID(id string) Node
	// Children returns the element children of n.
	Children(n Node) []Node
	Parent(n Node) Node
	Attached(n Node) bool

	Attr(n Node, name string) (string, bool)
	Attrs(n Node) []Attribute
	RemoveAttr(n Node, name string)
	Text(n Node) string

	// CreateAnchor returns a new detached placeholder that renders nothing.
	CreateAnchor() Node
	InsertBefore(n, ref Node)

	AddEventListener(n Node, event string, l Listener)
	// OnReady runs fn once the document has finished loading. The returned
	// func unregisters fn if it has not run yet.
	OnReady(fn func()) (cancel func())

	History() History
}

// History is the session-history capability used by the router.
type History interface {
	// Path returns the current navigation path.
	Path() string
	// Push appends a new entry and makes it current. It does not fire
	// pop-state listeners.
	Push(title, path string)
	// OnPopState registers fn to run after back/forward navigation.
	OnPopState(fn func())
}
