// Package dom adapts golang.org/x/net/html node trees for the binding engine.
//
// The engine never builds its own tree representation: it walks, reads and
// mutates *html.Node values owned by the caller. This package supplies the
// navigation, attribute, text and mutation helpers it needs, plus an event
// registry standing in for the host's event system.
package dom
