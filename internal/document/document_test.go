package document

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"tslsp/internal/rpc"
)

func TestOpenDocumentSetOpenAndGet(t *testing.T) {
	s := NewOpenDocumentSet()

	ok := s.Open("/a.ts", rpc.TextDocumentItem{URI: "file:///a.ts", LanguageID: "typescript", Version: 1, Text: "x"})

	require.True(t, ok)
	doc := s.Get("/a.ts")
	require.NotNil(t, doc)
	assert.Equal(t, doc.Text(), "x")
}

func TestOpenDocumentSetReopenIsRejected(t *testing.T) {
	s := NewOpenDocumentSet()
	s.Open("/a.ts", rpc.TextDocumentItem{URI: "file:///a.ts", Version: 1, Text: "x"})

	ok := s.Open("/a.ts", rpc.TextDocumentItem{URI: "file:///a.ts", Version: 2, Text: "y"})

	assert.False(t, ok)
}

func TestOpenDocumentSetCloseRemoves(t *testing.T) {
	s := NewOpenDocumentSet()
	s.Open("/a.ts", rpc.TextDocumentItem{URI: "file:///a.ts", Version: 1, Text: "x"})

	closed := s.Close("/a.ts")

	require.NotNil(t, closed)
	assert.Nil(t, s.Get("/a.ts"))
}

func TestOpenDocumentSetMostRecentlyAccessed(t *testing.T) {
	s := NewOpenDocumentSet()
	s.Open("/a.ts", rpc.TextDocumentItem{URI: "file:///a.ts", Version: 1, Text: "a"})
	s.Open("/b.ts", rpc.TextDocumentItem{URI: "file:///b.ts", Version: 1, Text: "b"})

	assert.Equal(t, s.MostRecentlyAccessed(), "/b.ts")

	s.Get("/a.ts")

	assert.Equal(t, s.MostRecentlyAccessed(), "/a.ts")
}

func TestOpenDocumentSetMostRecentlyAccessedEmpty(t *testing.T) {
	s := NewOpenDocumentSet()

	assert.Equal(t, s.MostRecentlyAccessed(), "")
}

func TestDocumentApplyEditRange(t *testing.T) {
	doc := NewDocument("/a.ts", rpc.TextDocumentItem{Version: 1, Text: "let x = 1;"})

	doc.ApplyEdit(2, rpc.TextDocumentContentChangeEvent{
		Range: &rpc.Range{Start: rpc.Position{Line: 0, Character: 8}, End: rpc.Position{Line: 0, Character: 9}},
		Text:  "2",
	})

	assert.Equal(t, doc.Text(), "let x = 2;")
	assert.Equal(t, doc.Version, int32(2))
}

func TestDocumentApplyEditFullText(t *testing.T) {
	doc := NewDocument("/a.ts", rpc.TextDocumentItem{Version: 1, Text: "let x = 1;"})

	doc.ApplyEdit(2, rpc.TextDocumentContentChangeEvent{Text: "let y = 2;"})

	assert.Equal(t, doc.Text(), "let y = 2;")
}

func TestDocumentGetWordRangeAtPosition(t *testing.T) {
	doc := NewDocument("/a.ts", rpc.TextDocumentItem{Version: 1, Text: "let foobar = 1;"})

	r, ok := doc.GetWordRangeAtPosition(rpc.Position{Line: 0, Character: 6})

	require.True(t, ok)
	assert.Equal(t, r.Start.Character, uint32(4))
	assert.Equal(t, r.End.Character, uint32(10))
}

func TestDocumentGetWordRangeAtPositionOnWhitespace(t *testing.T) {
	doc := NewDocument("/a.ts", rpc.TextDocumentItem{Version: 1, Text: "let   x"})

	_, ok := doc.GetWordRangeAtPosition(rpc.Position{Line: 0, Character: 4})

	assert.False(t, ok)
}
