// Package diagnostics implements the per-file diagnostic bucket queue (spec
// component C5): pure aggregation of the three tsserver diagnostic event
// kinds into a single publishable list per file. Debouncing and scheduling
// of geterr requests live in the dispatcher, not here.
package diagnostics

import (
	"sync"

	"tslsp/internal/convert"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

// Kind identifies which of the three tsserver diagnostic event kinds a
// bucket update came from.
type Kind int

const (
	Syntax Kind = iota
	Semantic
	Suggestion
)

// bucket holds the last-received diagnostics of each kind for one file.
type bucket struct {
	syntax     []rpc.Diagnostic
	semantic   []rpc.Diagnostic
	suggestion []rpc.Diagnostic
}

// merged concatenates the three kinds in the fixed publication order:
// syntax, semantic, suggestion.
func (b bucket) merged() []rpc.Diagnostic {
	out := make([]rpc.Diagnostic, 0, len(b.syntax)+len(b.semantic)+len(b.suggestion))
	out = append(out, b.syntax...)
	out = append(out, b.semantic...)
	out = append(out, b.suggestion...)
	return out
}

// Queue aggregates per-file, per-kind diagnostic buckets keyed by
// filesystem path.
type Queue struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{buckets: make(map[string]*bucket)}
}

// Update replaces the bucket of the given kind for file with diagnostics
// translated from ts, and returns the merged list to publish for that file.
func (q *Queue) Update(file string, kind Kind, ts []tsp.TSDiagnostic) []rpc.Diagnostic {
	diags := make([]rpc.Diagnostic, len(ts))
	for i, d := range ts {
		diags[i] = convert.ToDiagnostic(d)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	b, ok := q.buckets[file]
	if !ok {
		b = &bucket{}
		q.buckets[file] = b
	}
	switch kind {
	case Syntax:
		b.syntax = diags
	case Semantic:
		b.semantic = diags
	case Suggestion:
		b.suggestion = diags
	}
	return b.merged()
}

// Close removes file's bucket and returns an empty diagnostics list, to be
// published so the client clears any diagnostics it was showing (spec P2).
func (q *Queue) Close(file string) []rpc.Diagnostic {
	q.mu.Lock()
	delete(q.buckets, file)
	q.mu.Unlock()
	return []rpc.Diagnostic{}
}

// KindFromEvent maps a tsserver event name to its diagnostic Kind. ok is
// false if event is not one of the three diagnostic event kinds.
func KindFromEvent(event string) (Kind, bool) {
	switch event {
	case tsp.EventSyntaxDiag:
		return Syntax, true
	case tsp.EventSemanticDiag:
		return Semantic, true
	case tsp.EventSuggestionDiag:
		return Suggestion, true
	default:
		return 0, false
	}
}
