package bindkit

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/binding/handlers"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/expression"
)

// Runtime is the main bindkit entry point. It owns a binding engine with
// the core handlers installed and the component registry they resolve
// against.
//
// Create a Runtime with bindkit.New():
//
//	rt, err := bindkit.New(bindkit.Config{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	err = rt.ApplyBindings(vm, root)
type Runtime struct {
	engine     *binding.Engine
	components *component.Registry
	config     Config
	logger     *slog.Logger
}

// New creates a Runtime.
func New(cfg Config) (*Runtime, error) {
	if cfg.Components == nil {
		cfg.Components = component.NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := binding.NewRegistry()
	if !cfg.SkipCoreHandlers {
		if err := handlers.Register(reg, cfg.Components); err != nil {
			return nil, err
		}
	}

	opts := []binding.Option{
		binding.WithRegistry(reg),
		binding.WithPrefix(cfg.Prefix),
		binding.WithLogger(logger),
		binding.WithMetrics(cfg.Metrics),
		binding.WithTracer(cfg.Tracer),
	}
	if cfg.IgnoredTags != nil {
		opts = append(opts, binding.WithIgnoredTags(cfg.IgnoredTags...))
	}

	return &Runtime{
		engine:     binding.New(opts...),
		components: cfg.Components,
		config:     cfg,
		logger:     logger,
	}, nil
}

// ApplyBindings binds model to root and its subtree.
func (r *Runtime) ApplyBindings(model any, root *html.Node) error {
	return r.engine.ApplyBindings(model, root)
}

// CleanNode releases every binding on n and its subtree.
func (r *Runtime) CleanNode(n *html.Node) {
	r.engine.CleanNode(n)
}

// RegisterHandler adds or replaces a binding handler.
func (r *Runtime) RegisterHandler(d Descriptor) error {
	return r.engine.Registry().Register(d)
}

// RegisterComponent adds a component.
func (r *Runtime) RegisterComponent(d ComponentDescriptor) error {
	return r.components.Register(d)
}

// DataFor returns the view model n is bound against, or nil when n is not
// inside a bound tree.
func (r *Runtime) DataFor(n *html.Node) any {
	ctx := r.engine.DataContext(n)
	if ctx == nil {
		return nil
	}
	return ctx.Data()
}

// ContextFor returns the data context n is bound against, or nil.
func (r *Runtime) ContextFor(n *html.Node) *expression.Context {
	return r.engine.DataContext(n)
}

// Dispatch delivers ev to n and its ancestors and returns the number of
// listeners invoked.
func (r *Runtime) Dispatch(n *html.Node, ev dom.Event) int {
	return r.engine.Events().Dispatch(n, ev)
}

// Render parses markup, binds model to its first element and returns the
// serialized result. The bindings are released before returning, also when
// binding fails part way through the tree.
func (r *Runtime) Render(markup string, model any) (string, error) {
	root, err := dom.ParseElement(markup)
	if err != nil {
		return "", err
	}
	defer r.CleanNode(root)
	if err := r.ApplyBindings(model, root); err != nil {
		return "", err
	}
	return dom.Render(root), nil
}

// Engine returns the underlying binding engine.
func (r *Runtime) Engine() *binding.Engine { return r.engine }

// Components returns the component registry.
func (r *Runtime) Components() *component.Registry { return r.components }

// Config returns the runtime configuration.
func (r *Runtime) Config() Config { return r.config }
