package component

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
)

// Factory creates a view-model from the host's parameters.
type Factory func(params map[string]any) (any, error)

// Descriptor declares a component.
type Descriptor struct {
	// Name is the component name. It must contain a dash.
	Name string

	// Template is the component markup. It may be left empty and
	// supplied later by Preload.
	Template string

	// ViewModel is used as-is when Factory is nil.
	ViewModel any

	// Factory creates a fresh view-model per use.
	Factory Factory
}

// Definition is a registered component with its parsed template.
type Definition struct {
	Name      string
	ViewModel any
	Factory   Factory

	nodes []*html.Node
}

// Template returns a fresh copy of the template nodes.
func (d *Definition) Template() []*html.Node {
	out := make([]*html.Node, len(d.nodes))
	for i, n := range d.nodes {
		out[i] = dom.Clone(n)
	}
	return out
}

// Registry holds component definitions. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]*Definition)}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds d, replacing a component with the same name.
func (r *Registry) Register(d Descriptor) error {
	name := normalize(d.Name)
	if !strings.Contains(name, "-") {
		return errors.New(errors.CodeInvalidComponentName).
			WithDetailf("component name %q must contain a dash (-)", d.Name)
	}
	nodes, err := parseTemplate(d.Template)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = &Definition{
		Name:      name,
		ViewModel: d.ViewModel,
		Factory:   d.Factory,
		nodes:     nodes,
	}
	return nil
}

// SetTemplate replaces the template of name, registering a template-only
// component when name is unknown.
func (r *Registry) SetTemplate(name, markup string) error {
	key := normalize(name)
	nodes, err := parseTemplate(markup)
	if err != nil {
		return err
	}

	r.mu.Lock()
	def, ok := r.components[key]
	if ok {
		updated := *def
		updated.nodes = nodes
		r.components[key] = &updated
	}
	r.mu.Unlock()

	if !ok {
		return r.Register(Descriptor{Name: name, Template: markup})
	}
	return nil
}

// IsRegistered reports whether name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.components[normalize(name)]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns the definition registered under name.
func (r *Registry) Load(name string) (*Definition, error) {
	r.mu.RLock()
	def, ok := r.components[normalize(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.CodeComponentNotFound).
			WithDetailf("no component with name %q is registered", name)
	}
	return def, nil
}

// Initialize returns the view-model for one use of def. A non-nil override
// wins. Factory errors and panics are returned as ConstructorErrors.
func Initialize(def *Definition, params map[string]any, override any) (vm any, err error) {
	if override != nil {
		return override, nil
	}
	if def.Factory == nil {
		return def.ViewModel, nil
	}

	defer func() {
		if r := recover(); r != nil {
			vm = nil
			err = errors.New(errors.CodeConstructor).
				WithDetailf("component %q: panic: %v", def.Name, r)
		}
	}()
	vm, err = def.Factory(params)
	if err != nil {
		return nil, errors.New(errors.CodeConstructor).
			WithDetailf("component %q", def.Name).
			Wrap(err)
	}
	return vm, nil
}

func parseTemplate(markup string) ([]*html.Node, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, nil
	}
	nodes, err := dom.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("parse component template: %w", err)
	}
	return nodes, nil
}
