package result

import (
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// List is the ordered output of one recognition pass. It is never mutated
// after the Aggregator seals it.
type List struct {
	results []Result
}

// EmptyList returns a list with no results.
func EmptyList() *List { return &List{} }

// Len returns the number of results. A nil List has none.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.results)
}

// At returns the i-th result in dispatch order.
func (l *List) At(i int) (Result, error) {
	if i < 0 || i >= l.Len() {
		return Result{}, fmt.Errorf("result %d of %d: %w", i, l.Len(), status.ErrIndexOutOfRange)
	}
	return l.results[i], nil
}

// Results returns a copy of the results.
func (l *List) Results() []Result {
	if l == nil {
		return nil
	}
	out := make([]Result, len(l.results))
	copy(out, l.results)
	return out
}

// Kinds returns the kind of each result, in order.
func (l *List) Kinds() []Kind {
	kinds := make([]Kind, 0, l.Len())
	for _, r := range l.Results() {
		kinds = append(kinds, r.kind)
	}
	return kinds
}

// ValidCount counts the results that passed their consistency checks.
func (l *List) ValidCount() int {
	n := 0
	for _, r := range l.Results() {
		if r.IsValid() {
			n++
		}
	}
	return n
}

// MarshalJSON renders the list as a JSON array.
func (l *List) MarshalJSON() ([]byte, error) {
	rs := l.Results()
	if rs == nil {
		rs = []Result{}
	}
	return json.Marshal(rs)
}

// MarshalYAML implements yaml.Marshaler.
func (l *List) MarshalYAML() (any, error) {
	rs := l.Results()
	if rs == nil {
		rs = []Result{}
	}
	return rs, nil
}

// Aggregator collects back-end outcomes during a pass. It preserves
// insertion order and drops results whose kind and fingerprint repeat an
// earlier one. It is owned by a single pass and is not safe for concurrent use.
type Aggregator struct {
	results []Result
	seen    map[string]struct{}
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add appends r unless it is a zero Result or a duplicate. It reports
// whether r was kept.
func (a *Aggregator) Add(r Result) bool {
	if r.kind == KindUnknown {
		return false
	}
	fp := r.Fingerprint()
	if _, dup := a.seen[fp]; dup {
		return false
	}
	a.seen[fp] = struct{}{}
	a.results = append(a.results, r)
	return true
}

// Len returns the number of results collected so far.
func (a *Aggregator) Len() int { return len(a.results) }

// Discard drops everything collected so far.
func (a *Aggregator) Discard() {
	a.results = nil
	clear(a.seen)
}

// List seals the collected results into an immutable List.
func (a *Aggregator) List() *List {
	out := make([]Result, len(a.results))
	copy(out, a.results)
	return &List{results: out}
}
