package binding

import (
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/expression"
)

// DefaultPrefix is the attribute prefix that marks a binding.
const DefaultPrefix = "bind-"

// TextHandler is the handler interpolated text nodes bind to.
const TextHandler = "text"

// Attribute is one parsed binding declaration.
type Attribute struct {
	// Name is the handler name.
	Name string

	// Param is the text after the handler name, e.g. "click" in
	// bind-evt-click. Empty when absent.
	Param string

	// Text is the expression source.
	Text string

	// Expr is the compiled expression, nil for blank text.
	Expr *expression.Compiled
}

// provider parses binding attributes and caches compiled expressions by
// source text.
type provider struct {
	prefix string

	mu    sync.Mutex
	cache map[string]*expression.Compiled
}

func newProvider(prefix string) *provider {
	return &provider{prefix: prefix, cache: make(map[string]*expression.Compiled)}
}

// parse returns n's bindings grouped by handler name together with the
// names in order of first appearance. Attributes whose expression does not
// compile are reported and dropped.
func (p *provider) parse(n *html.Node) ([]string, map[string][]*Attribute) {
	var attrs []*Attribute
	switch n.Type {
	case html.TextNode:
		if text, ok := interpolation(n.Data); ok {
			attrs = p.add(attrs, TextHandler, "", text)
		}
	case html.ElementNode:
		for _, a := range n.Attr {
			if a.Namespace != "" || !strings.HasPrefix(a.Key, p.prefix) {
				continue
			}
			name, param, _ := strings.Cut(strings.TrimPrefix(a.Key, p.prefix), "-")
			if name == "" {
				continue
			}
			attrs = p.add(attrs, name, param, a.Val)
		}
	}
	if len(attrs) == 0 {
		return nil, nil
	}

	var names []string
	groups := make(map[string][]*Attribute)
	for _, a := range attrs {
		if _, ok := groups[a.Name]; !ok {
			names = append(names, a.Name)
		}
		groups[a.Name] = append(groups[a.Name], a)
	}
	return names, groups
}

func (p *provider) add(attrs []*Attribute, name, param, text string) []*Attribute {
	c, err := p.compile(text)
	if err != nil {
		exception.Report(err)
		return attrs
	}
	return append(attrs, &Attribute{Name: name, Param: param, Text: text, Expr: c})
}

func (p *provider) compile(text string) (*expression.Compiled, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.cache[text]; ok {
		return c, nil
	}
	c, err := expression.Compile(text)
	if err != nil {
		return nil, err
	}
	p.cache[text] = c
	return c, nil
}

// interpolation extracts the expression of a "{{ expr }}" text node.
func interpolation(data string) (string, bool) {
	s := strings.TrimSpace(data)
	if !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") || len(s) < 4 {
		return "", false
	}
	return strings.TrimSpace(s[2 : len(s)-2]), true
}
