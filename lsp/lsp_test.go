package lsp

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"tslsp/internal/document"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

func TestNavTreeToSymbol(t *testing.T) {
	tree := tsp.NavTree{
		Text: "Foo",
		Kind: "class",
		Spans: []tsp.TextSpan{{
			Start: tsp.Location{Line: 1, Offset: 1},
			End:   tsp.Location{Line: 5, Offset: 2},
		}},
		NameSpan: &tsp.TextSpan{
			Start: tsp.Location{Line: 1, Offset: 7},
			End:   tsp.Location{Line: 1, Offset: 10},
		},
		ChildItems: []tsp.NavTree{{
			Text: "bar",
			Kind: "method",
			Spans: []tsp.TextSpan{{
				Start: tsp.Location{Line: 2, Offset: 3},
				End:   tsp.Location{Line: 2, Offset: 20},
			}},
		}},
	}

	sym := navTreeToSymbol(tree)

	assert.Equal(t, sym.Name, "Foo")
	assert.Equal(t, sym.Kind, rpc.SymbolKindClass)
	assert.Equal(t, sym.Range.Start.Line, uint32(0))
	assert.Equal(t, sym.SelectionRange.Start.Character, uint32(6))
	require.Equal(t, len(sym.Children), 1)
	assert.Equal(t, sym.Children[0].Name, "bar")
	assert.Equal(t, sym.Children[0].Kind, rpc.SymbolKindMethod)
}

func TestFlattenSymbolsCarriesContainerName(t *testing.T) {
	sym := rpc.DocumentSymbol{
		Name: "Foo",
		Kind: rpc.SymbolKindClass,
		Children: []rpc.DocumentSymbol{
			{Name: "bar", Kind: rpc.SymbolKindMethod},
			{Name: "baz", Kind: rpc.SymbolKindProperty},
		},
	}

	uri := rpc.DocumentURI("file:///a.ts")
	flat := flattenSymbols(sym, uri, "")

	require.Equal(t, len(flat), 3)
	assert.Equal(t, flat[0].Name, "Foo")
	assert.Equal(t, flat[0].ContainerName, "")
	assert.Equal(t, flat[1].Name, "bar")
	assert.Equal(t, flat[1].ContainerName, "Foo")
	assert.Equal(t, flat[2].Name, "baz")
	assert.Equal(t, flat[2].ContainerName, "Foo")
}

func newTestDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	docs := document.NewOpenDocumentSet()
	docs.Open("/a.ts", rpc.TextDocumentItem{URI: "file:///a.ts", Text: text})
	return docs.Get("/a.ts")
}

func TestEndsWithBrace(t *testing.T) {
	doc := newTestDoc(t, "function f() {\n  return 1;\n}\n")

	r := rpc.Range{
		Start: rpc.Position{Line: 0, Character: 13},
		End:   rpc.Position{Line: 2, Character: 1},
	}
	assert.Equal(t, endsWithBrace(doc, r), true)

	r.End = rpc.Position{Line: 1, Character: 12}
	assert.Equal(t, endsWithBrace(doc, r), false)
}

func TestIsEndRegionComment(t *testing.T) {
	doc := newTestDoc(t, "// #region foo\ncode();\n// #endregion\n")

	r := rpc.Range{Start: rpc.Position{Line: 2, Character: 0}, End: rpc.Position{Line: 2, Character: 14}}
	assert.Equal(t, isEndRegionComment(doc, r), true)

	r.Start.Line = 0
	assert.Equal(t, isEndRegionComment(doc, r), false)
}

func TestTsFixToCodeActionSplitsLocalAndDeferredEdits(t *testing.T) {
	fix := tsp.CodeActionTS{
		Description: "Add missing import",
		Changes: []tsp.FileCodeEdits{
			{
				FileName: "/a.ts",
				TextChanges: []tsp.CodeEdit{{
					Start:   tsp.Location{Line: 1, Offset: 1},
					End:     tsp.Location{Line: 1, Offset: 1},
					NewText: "import {x} from './x';\n",
				}},
			},
			{
				FileName: "/b.ts",
				TextChanges: []tsp.CodeEdit{{
					Start: tsp.Location{Line: 1, Offset: 1},
					End:   tsp.Location{Line: 1, Offset: 1},
				}},
			},
		},
	}

	action := tsFixToCodeAction("/a.ts", fix, "quickfix")

	require.NotNil(t, action.Edit)
	assert.Equal(t, len(action.Edit.Changes["file:///a.ts"]), 1)
	require.NotNil(t, action.Command)
	assert.Equal(t, action.Command.Command, "_typescript.applyCodeAction")
}

func TestErrorCodesFor(t *testing.T) {
	one := "2345"
	invalid := "not-a-number"
	diags := []rpc.Diagnostic{{Code: &one}, {Code: &invalid}, {Code: nil}}

	codes := errorCodesFor(diags)

	require.Equal(t, len(codes), 1)
	assert.Equal(t, codes[0], 2345)
}
