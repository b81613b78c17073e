// Package exception is the process-wide sink for recovered binding errors.
//
// Compilation, evaluation, registry and constructor failures never unwind the
// caller; they are reported here instead. The default handler logs through
// slog and continues. Replace it with SetHandler to collect, count or
// escalate errors.
package exception

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/bindkit/pkg/errors"
)

// Handler receives every reported error.
type Handler interface {
	HandleException(err error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(err error)

// HandleException calls f(err).
func (f HandlerFunc) HandleException(err error) { f(err) }

var (
	handlerMu sync.RWMutex
	current   Handler = &LogHandler{}
)

// SetHandler replaces the process-wide handler and returns the previous one.
// Pass nil to restore the default LogHandler.
func SetHandler(h Handler) Handler {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	prev := current
	if h == nil {
		current = &LogHandler{}
	} else {
		current = h
	}
	return prev
}

func getHandler() Handler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return current
}

// Report sends err to the current handler. A nil err is ignored.
func Report(err error) {
	if err == nil {
		return
	}
	if h := getHandler(); h != nil {
		h.HandleException(err)
	}
}

// Recover reports a recovered panic as a runtime error tagged with op.
// Usage: defer exception.Recover("repeat.render")
func Recover(op string) {
	if r := recover(); r != nil {
		Report(panicError(op, r))
	}
}

func panicError(op string, r any) error {
	if err, ok := r.(error); ok {
		return errors.Newf(errors.KindRuntime, "panic in %s", op).Wrap(err)
	}
	return errors.Newf(errors.KindRuntime, "panic in %s: %v", op, r)
}

// LogHandler logs each error at error level.
type LogHandler struct {
	// Logger is the destination. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// HandleException implements Handler.
func (h *LogHandler) HandleException(err error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"kind", string(errors.KindOf(err))}
	if code := errors.CodeOf(err); code != "" {
		attrs = append(attrs, "code", code)
	}
	logger.Error(err.Error(), attrs...)
}

// Collector records reported errors in memory. Useful in tests.
type Collector struct {
	mu   sync.Mutex
	errs []error
}

// HandleException implements Handler.
func (c *Collector) HandleException(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// Errors returns a copy of the collected errors.
func (c *Collector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Count returns the number of collected errors of the given kind.
func (c *Collector) Count(kind errors.Kind) int {
	n := 0
	for _, err := range c.Errors() {
		if errors.KindOf(err) == kind {
			n++
		}
	}
	return n
}

// Reset drops all collected errors.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.errs = nil
	c.mu.Unlock()
}

// Capture installs a fresh Collector and returns it together with a function
// restoring the previous handler.
func Capture() (*Collector, func()) {
	c := &Collector{}
	prev := SetHandler(c)
	return c, func() { SetHandler(prev) }
}

// String implements fmt.Stringer for debugging output.
func (c *Collector) String() string {
	return fmt.Sprintf("%d collected error(s): %v", len(c.Errors()), c.Errors())
}
