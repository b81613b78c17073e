package expression

import "maps"

// Context is the scope chain an expression is evaluated against. Contexts
// are immutable: Child and Extend return new values.
type Context struct {
	data   any
	root   any
	parent *Context
	ext    map[string]any
}

// NewContext creates a root context for model.
func NewContext(model any) *Context {
	return &Context{data: model, root: model}
}

// Child returns a context for model nested under c. Extension keys are
// inherited.
func (c *Context) Child(model any) *Context {
	return &Context{data: model, root: c.root, parent: c, ext: c.ext}
}

// Extend returns a copy of c with name bound to value.
func (c *Context) Extend(name string, value any) *Context {
	n := *c
	n.ext = maps.Clone(c.ext)
	if n.ext == nil {
		n.ext = make(map[string]any, 1)
	}
	n.ext[name] = value
	return &n
}

// Data returns $data.
func (c *Context) Data() any { return c.data }

// Root returns $root.
func (c *Context) Root() any { return c.root }

// Parent returns $parent, or nil for a root context.
func (c *Context) Parent() any {
	if c.parent == nil {
		return nil
	}
	return c.parent.data
}

// Parents returns $parents, nearest first.
func (c *Context) Parents() []any {
	var out []any
	for p := c.parent; p != nil; p = p.parent {
		out = append(out, p.data)
	}
	return out
}

// Index returns $index when the context belongs to a repeated item.
func (c *Context) Index() (int, bool) {
	i, ok := c.ext["$index"].(int)
	return i, ok
}

// Lookup resolves the context keys $data, $root, $parent, $parents,
// $context and extension names.
func (c *Context) Lookup(name string) (any, bool) {
	switch name {
	case "$data":
		return c.data, true
	case "$root":
		return c.root, true
	case "$parent":
		return c.Parent(), true
	case "$parents":
		return c.Parents(), true
	case "$context":
		return c, true
	}
	v, ok := c.ext[name]
	return v, ok
}
