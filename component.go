package objectmodel

import (
	"fmt"
	"log/slog"

	"github.com/livefir/objectmodel/binder"
	"github.com/livefir/objectmodel/dom"
	"github.com/livefir/objectmodel/internal/metrics"
	"github.com/livefir/objectmodel/model"
	"github.com/livefir/objectmodel/router"
)

// Component is the binding engine for one document. It owns the model
// registry, the instance store and the router, and is the only surface host
// code needs: Initialize, CreateModel and GetInstanceByID.
//
// A Component is not safe for concurrent use; every call, write and event
// must come from the document's single event timeline.
type Component struct {
	doc      dom.Document
	vocab    binder.Vocabulary
	logger   *slog.Logger
	metrics  *metrics.Collector
	registry *model.Registry
	store    *model.Store
	binder   *binder.Binder
	router   *router.Router

	bound       map[dom.Node]*model.Instance
	initialized bool
}

// New creates a Component for doc. Construct it before the first sweep;
// there is no teardown.
func New(doc dom.Document, opts ...Option) *Component {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = defaultConfig().Logger
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}

	vocab := binder.NewVocabulary(cfg.Prefix)
	c := &Component{
		doc:      doc,
		vocab:    vocab,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		registry: model.NewRegistry(),
		store:    model.NewStore(),
		bound:    make(map[dom.Node]*model.Instance),
	}
	c.binder = binder.New(doc,
		binder.WithVocabulary(vocab),
		binder.WithLogger(cfg.Logger),
	)
	c.router = router.New(doc,
		router.WithVocabulary(vocab),
		router.WithInitialPath(cfg.InitialPath),
		router.WithLogger(cfg.Logger),
		router.WithNavigateHook(func(string) { c.metrics.IncrementNavigation() }),
	)
	return c
}

// Initialize registers a one-shot ready hook that runs Sweep. Calling it
// again does nothing.
func (c *Component) Initialize() {
	if c.initialized {
		return
	}
	c.initialized = true

	var cancel func()
	fired := false
	cancel = c.doc.OnReady(func() {
		fired = true
		c.Sweep()
		if cancel != nil {
			cancel()
		}
	})
	// Backends that run the hook synchronously return before cancel is set.
	if fired {
		cancel()
	}
}

// Sweep binds every model root of the document, then every router root,
// then every link. Nodes already bound lost their directives, and queued
// nodes are not queued twice, so sweeping again is harmless.
func (c *Component) Sweep() {
	root := c.doc.Root()
	for _, n := range c.doc.QueryAll(root, c.vocab.Model()) {
		c.bindNode(n)
	}

	before := len(c.router.Bindings())
	for _, n := range c.doc.QueryAll(root, c.vocab.Router()) {
		c.router.Bind(n)
	}
	c.metrics.AddPathBindings(len(c.router.Bindings()) - before)

	for _, n := range c.doc.QueryAll(root, c.vocab.Link()) {
		c.router.BindLink(n)
	}
}

// CreateModel registers tmpl under name. It returns false, changing nothing,
// when tmpl is not a template. Host nodes waiting for name are bound right
// away; re-registering replaces the template for future nodes only.
func (c *Component) CreateModel(name string, tmpl any) bool {
	return c.RegisterModel(name, tmpl) == nil
}

// RegisterModel is CreateModel with the failure reason.
func (c *Component) RegisterModel(name string, tmpl any) error {
	t, err := model.AsTemplate(tmpl)
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		c.metrics.IncrementRejection()
		return fmt.Errorf("%w: %q: %w", ErrInvalidTemplate, name, err)
	}

	pending := c.registry.Register(name, t)
	c.metrics.IncrementModelRegistered()
	c.logger.Debug("model registered", "model", name, "pending", len(pending))

	for _, n := range pending {
		c.bindNode(n)
	}
	return nil
}

// GetInstanceByID returns the instance bound to the host node with the
// given id, or nil.
func (c *Component) GetInstanceByID(id string) *model.Instance {
	return c.store.Get(id)
}

// InstanceFor returns the instance bound to host node n, or nil.
func (c *Component) InstanceFor(n dom.Node) *model.Instance {
	return c.bound[n]
}

// Navigate pushes path onto the session history and updates every router.
func (c *Component) Navigate(path string) {
	c.router.Navigate("", path)
}

// Router exposes the path router.
func (c *Component) Router() *router.Router { return c.router }

// Document returns the host document.
func (c *Component) Document() dom.Document { return c.doc }

// Registry exposes the model registry.
func (c *Component) Registry() *model.Registry { return c.registry }

// Metrics returns a snapshot of the engine counters.
func (c *Component) Metrics() metrics.ApplicationMetrics {
	return c.metrics.GetMetrics()
}

// bindNode binds host node n at most once. Without a template the node is
// parked in the registry until CreateModel supplies one.
func (c *Component) bindNode(n dom.Node) {
	if _, done := c.bound[n]; done {
		return
	}
	name, ok := c.doc.Attr(n, c.vocab.Model())
	if !ok {
		return
	}

	tmpl, ok := c.registry.Lookup(name)
	if !ok {
		if c.registry.Enqueue(name, n) {
			c.metrics.IncrementNodeQueued()
			c.logger.Debug("model pending", "model", name)
		}
		return
	}

	id, _ := c.doc.Attr(n, "id")
	in := model.New(tmpl, c.doc,
		model.WithID(id),
		model.WithModelName(name),
		model.WithWriteHook(func(_ string, ops int) { c.metrics.RecordWrite(ops) }),
	)
	c.bound[n] = in
	c.store.Put(id, in)

	res := c.binder.Bind(n, in)
	c.metrics.IncrementInstanceBound()
	c.metrics.RecordBindings(res.Applied, res.Skipped)
	c.logger.Debug("model bound", "model", name, "id", id,
		"applied", res.Applied, "skipped", res.Skipped)
}
