package reactive

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/bindkit/pkg/stream"
)

func TestMapArrayRecomputesWholesale(t *testing.T) {
	src := stream.NewSubject[[]int]()
	arr := NewArray[int](src)
	calls := 0
	doubled := MapArray(arr, func(v, _ int) int {
		calls++
		return v * 2
	})
	got, _ := collect[[]int](doubled)

	src.Next([]int{1, 2, 3})
	src.Next([]int{1, 2, 3, 4})

	want := [][]int{{}, {2, 4, 6}, {2, 4, 6, 8}}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("snapshots mismatch (-want +got):\n%s", diff)
	}
	if calls != 7 {
		t.Errorf("mapper calls = %d, want 7 (full recomputation)", calls)
	}
}

func TestFilterArrayIndex(t *testing.T) {
	l := NewList("a", "b", "c", "d")
	even := l.FilterArray(func(_ string, i int) bool { return i%2 == 0 })
	if diff := cmp.Diff([]string{"a", "c"}, even.Get()); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
	l.Push("e")
	if diff := cmp.Diff([]string{"a", "c", "e"}, even.Get()); diff != "" {
		t.Errorf("filter after push mismatch (-want +got):\n%s", diff)
	}
}

func TestSortArrayDoesNotMutateSource(t *testing.T) {
	l := NewList(3, 1, 2)
	var seenBySibling [][]int
	l.Subscribe(stream.NextFunc(func(items []int) { seenBySibling = append(seenBySibling, items) }))

	sorted := l.SortArray(func(a, b int) int { return a - b })
	l.Push(0)

	if diff := cmp.Diff([]int{0, 1, 2, 3}, sorted.Get()); diff != "" {
		t.Errorf("sorted mismatch (-want +got):\n%s", diff)
	}
	want := [][]int{{3, 1, 2}, {3, 1, 2, 0}}
	if diff := cmp.Diff(want, seenBySibling); diff != "" {
		t.Errorf("source snapshots were reordered (-want +got):\n%s", diff)
	}
}

func TestSortArrayStable(t *testing.T) {
	type item struct {
		key  int
		name string
	}
	l := NewList(item{2, "a"}, item{1, "b"}, item{2, "c"}, item{1, "d"})
	sorted := l.SortArray(func(x, y item) int { return x.key - y.key })

	var names []string
	for _, it := range sorted.Get() {
		names = append(names, it.name)
	}
	if diff := cmp.Diff([]string{"b", "d", "a", "c"}, names); diff != "" {
		t.Errorf("stable order mismatch (-want +got):\n%s", diff)
	}
}

func TestEverySome(t *testing.T) {
	l := NewList(2, 4)
	allEven := l.EveryArray(func(v, _ int) bool { return v%2 == 0 })
	anyOdd := l.SomeArray(func(v, _ int) bool { return v%2 == 1 })

	if !allEven.Get() || anyOdd.Get() {
		t.Fatalf("every=%v some=%v, want true false", allEven.Get(), anyOdd.Get())
	}
	l.Push(5)
	if allEven.Get() || !anyOdd.Get() {
		t.Errorf("every=%v some=%v after push, want false true", allEven.Get(), anyOdd.Get())
	}
}

func TestReduceAndFlatMap(t *testing.T) {
	l := NewList("ab", "c")
	total := ReduceArray(l.Array, func(acc int, s string, _ int) int { return acc + len(s) }, 0)
	letters := FlatMapArray(l.Array, func(s string) []string { return strings.Split(s, "") })

	if total.Get() != 3 {
		t.Errorf("reduce = %d, want 3", total.Get())
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, letters.Get()); diff != "" {
		t.Errorf("flatMap mismatch (-want +got):\n%s", diff)
	}

	l.Unshift("xyz")
	if total.Get() != 6 {
		t.Errorf("reduce after unshift = %d, want 6", total.Get())
	}
	if diff := cmp.Diff([]string{"x", "y", "z", "a", "b", "c"}, letters.Get()); diff != "" {
		t.Errorf("flatMap after unshift mismatch (-want +got):\n%s", diff)
	}
}

func TestWhenAnySwitchesMemberSet(t *testing.T) {
	a, b, c := NewProperty(1), NewProperty(2), NewProperty(3)
	members := stream.NewSubject[[]stream.Observable[int]]()
	combined := WhenAny[int](members)

	members.Next([]stream.Observable[int]{a, b})
	if diff := cmp.Diff([]int{1, 2}, combined.Get()); diff != "" {
		t.Fatalf("initial combine mismatch (-want +got):\n%s", diff)
	}
	b.Set(20)
	if diff := cmp.Diff([]int{1, 20}, combined.Get()); diff != "" {
		t.Errorf("after member emission (-want +got):\n%s", diff)
	}

	members.Next([]stream.Observable[int]{c})
	if a.SubscriberCount() != 0 || b.SubscriberCount() != 0 {
		t.Errorf("stale members still subscribed: a=%d b=%d", a.SubscriberCount(), b.SubscriberCount())
	}
	a.Set(100)
	if diff := cmp.Diff([]int{3}, combined.Get()); diff != "" {
		t.Errorf("stale member leaked into result (-want +got):\n%s", diff)
	}

	members.Next(nil)
	if diff := cmp.Diff([]int{}, combined.Get()); diff != "" {
		t.Errorf("empty member set (-want +got):\n%s", diff)
	}
}
