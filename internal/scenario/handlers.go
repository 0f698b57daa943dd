package scenario

import (
	"math"

	"github.com/livefir/objectmodel/dom"
	"github.com/livefir/objectmodel/model"
)

// Template builds the model template. Scripted handlers run their ops in
// order; navigate ops call nav.
func (m Model) Template(nav func(path string)) model.Template {
	t := make(model.Template, len(m.Data)+len(m.Handlers))
	for name, v := range m.Data {
		t[name] = model.Data(v)
	}
	for name, ops := range m.Handlers {
		ops := append([]Op(nil), ops...)
		t[name] = model.Handler(func(in *model.Instance, _ dom.Event) {
			for _, op := range ops {
				op.apply(in, nav)
			}
		})
	}
	return t
}

func (op Op) apply(in *model.Instance, nav func(string)) {
	switch op.Op {
	case "set":
		in.Set(op.Prop, op.Value)
	case "add":
		by := op.By
		if by == 0 {
			by = 1
		}
		in.Set(op.Prop, add(in.Value(op.Prop), by))
	case "toggle":
		in.Set(op.Prop, !model.Truthy(in.Value(op.Prop)))
	case "navigate":
		if nav != nil {
			nav(op.Path)
		}
	}
}

// add keeps integers integral when the step is integral.
func add(v any, by float64) any {
	whole := by == math.Trunc(by)
	switch n := v.(type) {
	case int:
		if whole {
			return n + int(by)
		}
		return float64(n) + by
	case int64:
		if whole {
			return n + int64(by)
		}
		return float64(n) + by
	case float64:
		return n + by
	case nil:
		if whole {
			return int(by)
		}
		return by
	default:
		return v
	}
}
