// Package binding applies declarative bindings to a node tree and keeps the
// tree synchronized with the reactive values the bindings read.
//
// Bindings are declared with prefixed attributes:
//
//	<span bind-text="user.name"></span>
//	<button bind-evt-click="save">Save</button>
//	<ul><li bind-repeat="items" bind-text="$data"></li></ul>
//
// and with interpolated text nodes:
//
//	<p>{{ greeting }}</p>
//
// An attribute name is split into a handler name and an optional parameter
// at the first dash after the prefix. Handler names are resolved against a
// Registry once per node and applied in descending priority order.
//
// Each Engine owns a side table from node identity to NodeState. Every
// subscription a handler creates for a node is added to that node's cleanup
// scope, so CleanNode releases everything a binding pass created.
//
// An Engine is not safe for concurrent use. All recomputation runs
// synchronously on the goroutine that delivered the triggering value.
package binding
