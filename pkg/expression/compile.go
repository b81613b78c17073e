// Package expression compiles binding expressions and evaluates them against
// a data Context while recording the reactive sources they read.
//
// Expressions use the expr language (github.com/expr-lang/expr). At compile
// time every identifier and member read is rewritten into a call that
// resolves the name against the scope chain and, when the result is a
// reactive.Source, records it in the evaluation's Recorder and yields its
// current value. The Recorder is an explicit argument of every evaluation;
// there is no ambient tracking state.
package expression

import (
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/errors"
)

const (
	scopeVar    = "__scope"
	lookupFn    = "__lookup"
	lookupRefFn = "__lookupRef"
	memberFn    = "__member"
	memberRefFn = "__memberRef"
	unwrapFn    = "__unwrap"
	refMarker   = "__ref"
)

// Compiled is a compiled expression. It is immutable and safe to share
// between bindings.
type Compiled struct {
	text    string
	program *vm.Program

	targetOnce sync.Once
	target     *vm.Program
}

// Compile compiles text. Blank text yields (nil, nil). Malformed text yields
// a compilation error.
func Compile(text string) (*Compiled, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	program, err := expr.Compile(text, options()...)
	if err != nil {
		return nil, errors.New(errors.CodeCompilation).
			WithExpression(text).
			Wrap(err)
	}
	return &Compiled{text: text, program: program}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string) *Compiled {
	c, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return c
}

// Text returns the source text.
func (c *Compiled) Text() string {
	return c.text
}

// Eval runs the expression against ctx for element el. Reactive sources read
// along the way are added to rec when it is non-nil.
func (c *Compiled) Eval(ctx *Context, el *html.Node, rec *Recorder) (any, error) {
	return c.run(c.program, ctx, el, rec)
}

func (c *Compiled) run(p *vm.Program, ctx *Context, el *html.Node, rec *Recorder) (any, error) {
	if ctx == nil {
		ctx = NewContext(nil)
	}
	env := map[string]any{scopeVar: &scope{ctx: ctx, el: el, rec: rec}}
	out, err := expr.Run(p, env)
	if err != nil {
		return nil, errors.New(errors.CodeEvaluation).
			WithExpression(c.text).
			Wrap(err)
	}
	return out, nil
}

// targetProgram compiles the expression with its outermost read left
// unwrapped, so a name or member path yields the reactive value itself.
func (c *Compiled) targetProgram() *vm.Program {
	c.targetOnce.Do(func() {
		p, err := expr.Compile(refMarker+"("+c.text+")", options()...)
		if err == nil {
			c.target = p
		}
	})
	return c.target
}

func options() []expr.Option {
	return []expr.Option{
		expr.Function(lookupFn, callLookup(true)),
		expr.Function(lookupRefFn, callLookup(false)),
		expr.Function(memberFn, callMember(true)),
		expr.Function(memberRefFn, callMember(false)),
		expr.Function(unwrapFn, func(params ...any) (any, error) {
			return params[0].(*scope).unwrap(params[1]), nil
		}),
		expr.Function(refMarker, func(params ...any) (any, error) {
			return params[0], nil
		}),
		expr.Patch(&rewriter{}),
	}
}

// rewriter routes identifier and member reads through the scope.
type rewriter struct{}

func (*rewriter) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if strings.HasPrefix(n.Value, "__") {
			return
		}
		ast.Patch(node, call(lookupFn, &ast.StringNode{Value: n.Value}))

	case *ast.MemberNode:
		if prop, ok := n.Property.(*ast.StringNode); ok {
			if n.Method {
				keepRef(n.Node)
			}
			ast.Patch(node, call(memberFn, n.Node, &ast.StringNode{Value: prop.Value}, &ast.BoolNode{Value: n.Optional}))
			return
		}
		ast.Patch(node, call(unwrapFn, n))

	case *ast.CallNode:
		id, ok := n.Callee.(*ast.IdentifierNode)
		if !ok || id.Value != refMarker || len(n.Arguments) != 1 {
			return
		}
		arg := n.Arguments[0]
		keepRef(arg)
		ast.Patch(node, arg)
	}
}

// keepRef switches a rewritten read to its variant that returns reactive
// values as they are.
func keepRef(n ast.Node) {
	c, ok := n.(*ast.CallNode)
	if !ok {
		return
	}
	callee, ok := c.Callee.(*ast.IdentifierNode)
	if !ok {
		return
	}
	switch callee.Value {
	case lookupFn:
		callee.Value = lookupRefFn
	case memberFn:
		callee.Value = memberRefFn
	}
}

func call(fn string, args ...ast.Node) *ast.CallNode {
	return &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: fn},
		Arguments: append([]ast.Node{&ast.IdentifierNode{Value: scopeVar}}, args...),
	}
}
