// Package handlers provides the standard binding handlers.
//
//	<span bind-text="user.name"></span>      one-way text, also {{ expr }}
//	<button bind-evt-click="save">           event listener, evaluated per event
//	<input bind-value="query">               two-way value (change by default)
//	<input bind-value-input="query">         two-way value on input events
//	<div bind-if="open">…</div>              fresh copy of the children while truthy
//	<div bind-ifnot="open">…</div>
//	<div bind-with="user">…</div>            children bound against user
//	<div bind-as-user="current">…</div>      children see current as user
//	<li bind-repeat="items">…</li>           one copy per item, $index in scope
//	<div bind-component="'user-card'" bind-param-id="id"></div>
//	<a bind-attr-href="url" bind-css-active="selected" bind-style-color="tint">
//	<div bind-html="markup"></div>
//
// Register installs all of them into a binding.Registry.
package handlers
