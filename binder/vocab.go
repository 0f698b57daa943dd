// Package binder turns declarative markup into bindings on a reactive
// instance. Binding is two-phase: Declare reads a model subtree into a Plan
// without touching it, Materialize attaches the Plan to an instance and
// strips the directives it consumed.
package binder

import "strings"

// DefaultPrefix is the attribute prefix of every directive.
const DefaultPrefix = "js:"

// Vocabulary names the directive attributes for a prefix.
type Vocabulary struct {
	Prefix string
}

// NewVocabulary returns the vocabulary for prefix, or DefaultPrefix when it
// is empty.
func NewVocabulary(prefix string) Vocabulary {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Vocabulary{Prefix: prefix}
}

func (v Vocabulary) Model() string   { return v.Prefix + "object-model" }
func (v Vocabulary) Content() string { return v.Prefix + "content" }
func (v Vocabulary) Ref() string     { return v.Prefix + "ref" }
func (v Vocabulary) Switch() string  { return v.Prefix + "switch" }
func (v Vocabulary) Case() string    { return v.Prefix + "case" }
func (v Vocabulary) Attr() string    { return v.Prefix + "attr" }
func (v Vocabulary) Router() string  { return v.Prefix + "router" }
func (v Vocabulary) Path() string    { return v.Prefix + "path" }
func (v Vocabulary) Link() string    { return v.Prefix + "link" }

// On returns the listener directive for an event type, e.g. "js:on-click".
func (v Vocabulary) On(event string) string { return v.Prefix + "on-" + event }

// EventName reports the event type of a listener directive.
func (v Vocabulary) EventName(attr string) (string, bool) {
	rest, ok := strings.CutPrefix(attr, v.Prefix+"on-")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}
