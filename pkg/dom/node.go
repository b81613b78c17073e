package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoElement is returned by ParseElement when the markup has no element.
var ErrNoElement = errors.New("dom: markup contains no element")

// Kind is the node type discriminator.
type Kind uint8

const (
	KindOther Kind = iota
	KindElement
	KindText
	KindComment
	KindDocument
	KindDoctype
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindDocument:
		return "Document"
	case KindDoctype:
		return "Doctype"
	default:
		return "Other"
	}
}

// KindOf classifies n.
func KindOf(n *html.Node) Kind {
	if n == nil {
		return KindOther
	}
	switch n.Type {
	case html.ElementNode:
		return KindElement
	case html.TextNode:
		return KindText
	case html.CommentNode:
		return KindComment
	case html.DocumentNode:
		return KindDocument
	case html.DoctypeNode:
		return KindDoctype
	default:
		return KindOther
	}
}

// IsElement reports whether n is an element, optionally with one of tags.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(n.Data, t) {
			return true
		}
	}
	return false
}

// Parse parses markup as the content of a <body> element and returns the
// detached top-level nodes.
func Parse(markup string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(markup), context)
}

// ParseElement parses markup and returns its first top-level element.
func ParseElement(markup string) (*html.Node, error) {
	nodes, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, ErrNoElement
}

// Container parses markup into the children of a new <div>.
func Container(markup string) (*html.Node, error) {
	nodes, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	div := Element("div")
	for _, n := range nodes {
		div.AppendChild(n)
	}
	return div, nil
}

// Element creates a detached element.
func Element(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// TextNode creates a detached text node.
func TextNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// Comment creates a detached comment node.
func Comment(data string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: data}
}

// Children returns a snapshot of n's children. Mutating the tree while
// iterating the snapshot is safe.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ElementChildren returns a snapshot of n's element children.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of the attribute key.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds the attribute key.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the attribute key.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// Text returns the text content of n.
func Text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			return
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return b.String()
}

// SetText replaces the text content of n. Elements lose all children and get
// a single text child.
func SetText(n *html.Node, s string) {
	if n.Type == html.TextNode || n.Type == html.CommentNode {
		n.Data = s
		return
	}
	RemoveChildren(n)
	n.AppendChild(TextNode(s))
}

// RemoveChildren detaches and returns all children of n.
func RemoveChildren(n *html.Node) []*html.Node {
	children := Children(n)
	for _, c := range children {
		n.RemoveChild(c)
	}
	return children
}

// Remove detaches n from its parent, if any.
func Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertBefore inserts n into parent before ref, or appends when ref is nil.
// n is detached first if needed.
func InsertBefore(parent, n, ref *html.Node) {
	Remove(n)
	parent.InsertBefore(n, ref)
}

// Clone returns a detached deep copy of n.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(Clone(k))
	}
	return c
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Render serializes n.
func Render(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}
