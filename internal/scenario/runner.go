package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/dom"
	"github.com/livefir/objectmodel/dom/htmldoc"
	"github.com/livefir/objectmodel/internal/ctxlog"
)

var (
	ErrUnknownNode     = errors.New("no element matches selector")
	ErrUnknownInstance = errors.New("no instance with id")
	ErrRejectedWrite   = errors.New("write rejected")
	ErrExpectation     = errors.New("expectation failed")
	ErrNoHistory       = errors.New("no history entry")
	ErrDone            = errors.New("scenario finished")
)

// Result is the outcome of one step.
type Result struct {
	Index int
	Step  Step
	Err   error
}

// Runner plays a scenario step by step against its own document.
type Runner struct {
	sc   *Scenario
	doc  *htmldoc.Document
	comp *objectmodel.Component
	next int
}

// NewRunner mounts sc. opts configure the Component.
func NewRunner(sc *Scenario, opts ...objectmodel.Option) (*Runner, error) {
	doc, comp, err := sc.Mount(nil, opts...)
	if err != nil {
		return nil, err
	}
	return &Runner{sc: sc, doc: doc, comp: comp}, nil
}

func (r *Runner) Document() *htmldoc.Document { return r.doc }

func (r *Runner) Component() *objectmodel.Component { return r.comp }

func (r *Runner) Scenario() *Scenario { return r.sc }

// Done reports whether every step has run.
func (r *Runner) Done() bool { return r.next >= len(r.sc.Steps) }

// Position returns the index of the next step.
func (r *Runner) Position() int { return r.next }

// Step runs the next step. It returns ErrDone when there is none.
func (r *Runner) Step() (Result, error) {
	if r.Done() {
		return Result{}, ErrDone
	}
	res := Result{Index: r.next, Step: r.sc.Steps[r.next]}
	r.next++
	res.Err = r.exec(res.Step)
	return res, nil
}

// Run plays the remaining steps and stops at the first failure.
func (r *Runner) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for !r.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.Step()
		if err != nil {
			return err
		}
		if res.Err != nil {
			logger.Error("step failed", "step", res.Index, "action", res.Step.String(), "error", res.Err)
			return fmt.Errorf("step %d (%s): %w", res.Index, res.Step, res.Err)
		}
		logger.Debug("step ok", "step", res.Index, "action", res.Step.String())
	}
	return nil
}

func (r *Runner) exec(s Step) error {
	switch s.Kind() {
	case "click":
		n, err := r.Find(s.Click)
		if err != nil {
			return err
		}
		r.doc.Dispatch(n, "click")
	case "navigate":
		r.comp.Navigate(s.Navigate)
	case "back":
		if !r.doc.Session().Back() {
			return ErrNoHistory
		}
	case "forward":
		if !r.doc.Session().Forward() {
			return ErrNoHistory
		}
	case "set":
		in := r.comp.GetInstanceByID(s.Set.Instance)
		if in == nil {
			return fmt.Errorf("%w %q", ErrUnknownInstance, s.Set.Instance)
		}
		if !in.Set(s.Set.Prop, s.Set.Value) {
			return fmt.Errorf("%w: %s.%s", ErrRejectedWrite, s.Set.Instance, s.Set.Prop)
		}
	case "expect":
		return r.expect(s.Expect)
	default:
		return errors.New("invalid step")
	}
	return nil
}

func (r *Runner) expect(e *Expect) error {
	want := e.Present == nil || *e.Present
	n, err := r.Find(e.Selector)
	if err != nil {
		if !want && errors.Is(err, ErrUnknownNode) {
			return nil
		}
		return err
	}
	if !want {
		return fmt.Errorf("%w: %s is present", ErrExpectation, e.Selector)
	}
	if e.Text != nil {
		got := strings.TrimSpace(r.doc.Text(n))
		if got != *e.Text {
			return fmt.Errorf("%w: %s text is %q, want %q", ErrExpectation, e.Selector, got, *e.Text)
		}
	}
	return nil
}

// Find resolves "#id" or a bare id to an attached element.
func (r *Runner) Find(selector string) (dom.Node, error) {
	id := strings.TrimPrefix(selector, "#")
	n := r.doc.ElementByID(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, selector)
	}
	return n, nil
}
