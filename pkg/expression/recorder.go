package expression

import "github.com/vango-dev/bindkit/pkg/reactive"

// Recorder collects the reactive sources read during one evaluation. A fresh
// Recorder is passed to every evaluation that needs dependency tracking.
type Recorder struct {
	sources []reactive.Source
	seen    map[uint64]struct{}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{seen: make(map[uint64]struct{})}
}

// Add records s once.
func (r *Recorder) Add(s reactive.Source) {
	if _, ok := r.seen[s.ID()]; ok {
		return
	}
	r.seen[s.ID()] = struct{}{}
	r.sources = append(r.sources, s)
}

// Has reports whether a source with the given id was recorded.
func (r *Recorder) Has(id uint64) bool {
	_, ok := r.seen[id]
	return ok
}

// Len returns the number of distinct sources recorded.
func (r *Recorder) Len() int {
	return len(r.sources)
}

// Sources returns the recorded sources in first-read order.
func (r *Recorder) Sources() []reactive.Source {
	return r.sources
}
