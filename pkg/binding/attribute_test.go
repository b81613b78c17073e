package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/exception"
)

type parsed struct {
	Name, Param, Text string
	Compiled          bool
}

func flatten(names []string, groups map[string][]*Attribute) []parsed {
	var out []parsed
	for _, name := range names {
		for _, a := range groups[name] {
			out = append(out, parsed{a.Name, a.Param, a.Text, a.Expr != nil})
		}
	}
	return out
}

func TestProviderParseElement(t *testing.T) {
	col, restore := exception.Capture()
	defer restore()

	n := parse(t, `<input class="x" bind-value="name" bind-evt-click="save" bind-evt-key-down="onKey" bind-text="a +" bind-param="">`)
	got := flatten(newProvider(DefaultPrefix).parse(n))

	want := []parsed{
		{"value", "", "name", true},
		{"evt", "click", "save", true},
		{"evt", "key-down", "onKey", true},
		{"param", "", "", false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if n := col.Count(errors.KindCompilation); n != 1 {
		t.Errorf("compilation errors = %d, want 1", n)
	}
}

func TestProviderParseText(t *testing.T) {
	tests := []struct {
		data string
		want []parsed
	}{
		{"{{ user.name }}", []parsed{{"text", "", "user.name", true}}},
		{"  {{count}}\n", []parsed{{"text", "", "count", true}}},
		{"hello {{ name }}", nil},
		{"plain", nil},
		{"{{}}", []parsed{{"text", "", "", false}}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got := flatten(newProvider(DefaultPrefix).parse(dom.TextNode(tt.data)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProviderCachesCompiledExpressions(t *testing.T) {
	p := newProvider(DefaultPrefix)
	a, _ := p.compile("x + 1")
	b, _ := p.compile("x + 1")
	if a != b {
		t.Error("expected the cached expression to be reused")
	}
}
