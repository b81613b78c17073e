package handlers

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/reactive"
	"github.com/vango-dev/bindkit/pkg/stream"
)

func TestIf(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		initial bool
		shown   string
	}{
		{
			name:    "if",
			markup:  `<div bind-if="show"><span bind-text="label"></span></div>`,
			initial: true,
			shown:   `<span bind-text="label">hi</span>`,
		},
		{
			name:    "ifnot",
			markup:  `<div bind-ifnot="show"><span bind-text="label"></span></div>`,
			initial: false,
			shown:   `<span bind-text="label">hi</span>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, nil)
			show := reactive.NewProperty(tt.initial)
			root := parse(t, tt.markup)
			apply(t, e, map[string]any{"show": show, "label": "hi"}, root)

			if got := dom.InnerHTML(root); got != tt.shown {
				t.Fatalf("initial InnerHTML = %q, want %q", got, tt.shown)
			}
			before := root.FirstChild

			show.Set(!tt.initial)
			if got := dom.InnerHTML(root); got != "" {
				t.Errorf("hidden InnerHTML = %q, want empty", got)
			}

			show.Set(tt.initial)
			if got := dom.InnerHTML(root); got != tt.shown {
				t.Errorf("shown again InnerHTML = %q, want %q", got, tt.shown)
			}
			if root.FirstChild == before {
				t.Error("expected a fresh subtree after hide and show")
			}

			e.CleanNode(root)
			if got := dom.InnerHTML(root); got != `<span bind-text="label"></span>` {
				t.Errorf("InnerHTML after clean = %q, want the original children", got)
			}
			if got := e.StateCount(); got != 0 {
				t.Errorf("StateCount() = %d, want 0", got)
			}
			show.Set(!tt.initial)
			if got := dom.InnerHTML(root); got != `<span bind-text="label"></span>` {
				t.Errorf("cleaned node still updates: %q", got)
			}
		})
	}
}

func TestIfCollectionTruthiness(t *testing.T) {
	tests := []struct {
		name  string
		items any
		shown string
	}{
		{"empty slice", []string{}, "<i>list</i>"},
		{"empty map", map[string]int{}, "<i>list</i>"},
		{"nil slice", []string(nil), ""},
		{"nil value", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, nil)
			root := parse(t, `<div bind-if="items"><i>list</i></div>`)
			apply(t, e, map[string]any{"items": tt.items}, root)

			if got := dom.InnerHTML(root); got != tt.shown {
				t.Errorf("InnerHTML = %q, want %q", got, tt.shown)
			}
		})
	}
}

func TestIfFromSubjectStartsHidden(t *testing.T) {
	e := newEngine(t, nil)
	open := stream.NewSubject[bool]()
	root := parse(t, `<div bind-if="$data"><span>foo</span></div>`)
	apply(t, e, open, root)

	if got := dom.InnerHTML(root); got != "" {
		t.Errorf("InnerHTML before first value = %q, want empty", got)
	}
	open.Next(true)
	if got := dom.InnerHTML(root); got != "<span>foo</span>" {
		t.Errorf("InnerHTML = %q", got)
	}
}

func TestIfRebindHasNoDuplicateListeners(t *testing.T) {
	e := newEngine(t, nil)
	root := parse(t, `<div bind-if="show"><button bind-evt-click="inc">+</button></div>`)
	count := 0
	model := map[string]any{"show": true, "inc": func() { count++ }}

	apply(t, e, model, root)
	e.CleanNode(root)
	apply(t, e, model, root)

	button := dom.ElementChildren(root)[0]
	if got := e.Events().Trigger(button, dom.Click); got != 1 {
		t.Errorf("Trigger() invoked %d listeners, want 1", got)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestWith(t *testing.T) {
	e := newEngine(t, nil)
	user := reactive.NewProperty[any](map[string]any{"name": "Ada"})
	root := parse(t, `<div bind-with="user"><span bind-text="name"></span><em bind-text="$parent.title"></em></div>`)

	apply(t, e, map[string]any{"user": user, "title": "Users"}, root)
	if diff := cmp.Diff([]string{"Ada", "Users"}, texts(root)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}

	user.Set(map[string]any{"name": "Grace"})
	if diff := cmp.Diff([]string{"Grace", "Users"}, texts(root)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	if got := e.State(root).Model; cmp.Diff(map[string]any{"name": "Grace"}, got) != "" {
		t.Errorf("state model = %v", got)
	}
}

func TestAsAliasUpdates(t *testing.T) {
	e := newEngine(t, nil)
	current := reactive.NewProperty[any](map[string]any{"name": "Ada"})
	root := parse(t, `<div bind-as-person="current"><span bind-text="person.name"></span><em bind-text="title"></em></div>`)

	apply(t, e, map[string]any{"current": current, "title": "Team"}, root)
	if diff := cmp.Diff([]string{"Ada", "Team"}, texts(root)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}

	current.Set(map[string]any{"name": "Linus"})
	if diff := cmp.Diff([]string{"Linus", "Team"}, texts(root)); diff != "" {
		t.Errorf("texts after update mismatch (-want +got):\n%s", diff)
	}

	e.CleanNode(root)
	if got := current.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after clean = %d, want 0", got)
	}
}

func TestAsRequiresName(t *testing.T) {
	c, restore := exception.Capture()
	defer restore()

	e := newEngine(t, nil)
	root := parse(t, `<div><p bind-as="x"></p></div>`)
	apply(t, e, map[string]any{"x": 1}, root)

	if diff := cmp.Diff([]string{errors.CodeHandlerTarget}, codes(c)); diff != "" {
		t.Errorf("reported codes mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatIndex(t *testing.T) {
	e := newEngine(t, nil)
	root := parse(t, `<ul><li bind-repeat="src" bind-text="$index"></li></ul>`)
	apply(t, e, map[string]any{"src": []int{1, 5, 7}}, root)

	if diff := cmp.Diff([]string{"0", "1", "2"}, texts(root)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatListMutations(t *testing.T) {
	e := newEngine(t, nil)
	list := reactive.NewList(1, 3, 5)
	root := parse(t, `<ul><li bind-repeat="src" bind-text="$data"></li></ul>`)
	apply(t, e, map[string]any{"src": list}, root)

	check := func(step string, want []string) {
		t.Helper()
		if diff := cmp.Diff(want, texts(root)); diff != "" {
			t.Errorf("%s: texts mismatch (-want +got):\n%s", step, diff)
		}
	}
	check("initial", []string{"1", "3", "5"})

	list.Push(7)
	check("push", []string{"1", "3", "5", "7"})
	list.Pop()
	check("pop", []string{"1", "3", "5"})
	list.Shift()
	check("shift", []string{"3", "5"})
	list.Unshift(9)
	check("unshift", []string{"9", "3", "5"})

	if got := list.SubscriberCount(); got != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", got)
	}

	e.CleanNode(root)
	if got := dom.InnerHTML(root); got != `<li bind-repeat="src" bind-text="$data"></li>` {
		t.Errorf("InnerHTML after clean = %q, want the template", got)
	}
	if got := list.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after clean = %d, want 0", got)
	}
	if got := e.StateCount(); got != 0 {
		t.Errorf("StateCount() after clean = %d, want 0", got)
	}
}

func TestRepeatNestedReactiveItems(t *testing.T) {
	e := newEngine(t, nil)
	values := []*reactive.Property[int]{reactive.NewProperty(1), reactive.NewProperty(5)}
	list := reactive.NewList(
		map[string]any{"foo": values[0]},
		map[string]any{"foo": values[1]},
	)
	root := parse(t, `<ul><li bind-repeat="$data"><span bind-text="foo"></span></li></ul>`)
	apply(t, e, list, root)

	for _, v := range values {
		v.Set(33)
	}
	if diff := cmp.Diff([]string{"33", "33"}, texts(root)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatReapplyDoesNotDuplicate(t *testing.T) {
	e := newEngine(t, nil)
	root := parse(t, `<ul><li bind-repeat="src" bind-text="$data"></li></ul>`)
	model := map[string]any{"src": []string{"a", "b"}}

	apply(t, e, model, root)
	apply(t, e, model, root)

	if diff := cmp.Diff([]string{"a", "b"}, texts(root)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatRejectsScalars(t *testing.T) {
	c, restore := exception.Capture()
	defer restore()

	e := newEngine(t, nil)
	root := parse(t, `<ul><li bind-repeat="src"></li></ul>`)
	apply(t, e, map[string]any{"src": 42}, root)

	if diff := cmp.Diff([]string{errors.CodeHandlerTarget}, codes(c)); diff != "" {
		t.Errorf("reported codes mismatch (-want +got):\n%s", diff)
	}
	if got := len(texts(root)); got != 0 {
		t.Errorf("rendered %d items, want 0", got)
	}
}
