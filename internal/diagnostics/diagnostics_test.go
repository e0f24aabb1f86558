package diagnostics

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"tslsp/internal/tsp"
)

func TestQueueMergesInFixedOrder(t *testing.T) {
	q := New()

	syntaxErr := []tsp.TSDiagnostic{{Text: "syntax error", Category: "error"}}
	got := q.Update("/a.ts", Syntax, syntaxErr)
	require.Equal(t, len(got), 1)
	assert.Equal(t, got[0].Message, "syntax error")

	semanticErr := []tsp.TSDiagnostic{{Text: "semantic error", Category: "error"}}
	got = q.Update("/a.ts", Semantic, semanticErr)
	require.Equal(t, len(got), 2)
	assert.Equal(t, got[0].Message, "syntax error")
	assert.Equal(t, got[1].Message, "semantic error")

	suggestion := []tsp.TSDiagnostic{{Text: "prefer const", Category: "suggestion"}}
	got = q.Update("/a.ts", Suggestion, suggestion)
	require.Equal(t, len(got), 3)
	assert.Equal(t, got[2].Message, "prefer const")
}

func TestQueueReplacesBucketOnNewEventOfSameKind(t *testing.T) {
	q := New()
	q.Update("/a.ts", Semantic, []tsp.TSDiagnostic{{Text: "first"}})
	got := q.Update("/a.ts", Semantic, []tsp.TSDiagnostic{{Text: "second"}})
	require.Equal(t, len(got), 1)
	assert.Equal(t, got[0].Message, "second")
}

func TestQueueCloseClearsFile(t *testing.T) {
	q := New()
	q.Update("/a.ts", Semantic, []tsp.TSDiagnostic{{Text: "oops"}})

	got := q.Close("/a.ts")
	assert.Equal(t, len(got), 0)

	// a fresh update for the same file starts an empty bucket again
	got = q.Update("/a.ts", Semantic, []tsp.TSDiagnostic{{Text: "new issue"}})
	require.Equal(t, len(got), 1)
	assert.Equal(t, got[0].Message, "new issue")
}

func TestKindFromEvent(t *testing.T) {
	cases := []struct {
		event string
		want  Kind
		ok    bool
	}{
		{tsp.EventSyntaxDiag, Syntax, true},
		{tsp.EventSemanticDiag, Semantic, true},
		{tsp.EventSuggestionDiag, Suggestion, true},
		{tsp.EventRequestCompleted, 0, false},
	}
	for _, tc := range cases {
		kind, ok := KindFromEvent(tc.event)
		assert.Equal(t, ok, tc.ok)
		if ok {
			assert.Equal(t, kind, tc.want)
		}
	}
}
