package completion

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

func TestBuildItemsFiltersWarningsWhenSuggestionsDisabled(t *testing.T) {
	info := tsp.CompletionInfo{Entries: []tsp.CompletionEntry{
		{Name: "foo", Kind: "warning"},
		{Name: "bar", Kind: "variableElement"},
	}}
	items := BuildItems(info, BuildParams{Options: Options{DisableSuggestions: true}})
	require.Equal(t, len(items), 1)
	assert.Equal(t, items[0].Label, "bar")
}

func TestBuildItemsSortTextPrefixedForAutoImport(t *testing.T) {
	info := tsp.CompletionInfo{Entries: []tsp.CompletionEntry{
		{Name: "Foo", Kind: "classElement", SortText: "1", Source: "./foo"},
	}}
	items := BuildItems(info, BuildParams{})
	require.Equal(t, len(items), 1)
	require.NotNil(t, items[0].SortText)
	assert.Equal(t, *items[0].SortText, "￿1")
}

func TestBuildItemsCommitCharacters(t *testing.T) {
	info := tsp.CompletionInfo{Entries: []tsp.CompletionEntry{
		{Name: "foo", Kind: "functionElement", SortText: "0"},
		{Name: "Bar", Kind: "interfaceElement", SortText: "0"},
		{Name: "x", Kind: "keyword", SortText: "0"},
	}}
	items := BuildItems(info, BuildParams{})
	require.Equal(t, len(items), 3)
	assert.EqualValues(t, items[0].CommitCharacters, []string{".", ",", "("})
	assert.EqualValues(t, items[1].CommitCharacters, []string{"."})
	assert.True(t, items[2].CommitCharacters == nil)
}

func TestBuildItemsSnippetFormatForFunctions(t *testing.T) {
	info := tsp.CompletionInfo{Entries: []tsp.CompletionEntry{
		{Name: "foo", Kind: "functionElement", SortText: "0"},
	}}
	items := BuildItems(info, BuildParams{})
	require.NotNil(t, items[0].InsertTextFormat)
	assert.Equal(t, *items[0].InsertTextFormat, rpc.InsertTextFormatSnippet)
}

func TestBackwardMatchRangeFindsLongestCaseInsensitivePrefix(t *testing.T) {
	// buffer: "obj.toStr|" cursor at character 9, typed "toStr" so far
	pos := rpc.Position{Line: 0, Character: 9}
	r, ok := backwardMatchRange(pos, "obj.toStr", "toString")
	require.True(t, ok)
	assert.Equal(t, r.Start.Character, uint32(4))
	assert.Equal(t, r.End.Character, uint32(9))
}

func TestBackwardMatchRangeFallsBackToCursorWhenNoPrefixMatches(t *testing.T) {
	pos := rpc.Position{Line: 2, Character: 3}
	r, ok := backwardMatchRange(pos, "xyz", "completelyDifferent")
	require.True(t, ok)
	assert.Equal(t, r.Start, pos)
	assert.Equal(t, r.End, pos)
}

func TestComputeFilterTextPrivateField(t *testing.T) {
	e := tsp.CompletionEntry{Name: "#count", InsertText: "this.#count"}
	got := computeFilterText(e, BuildParams{LineTextBeforeCursor: "this.#"})
	assert.Equal(t, got, "this.#count")

	got = computeFilterText(e, BuildParams{LineTextBeforeCursor: "this."})
	assert.Equal(t, got, "count")
}

func TestComputeFilterTextSuppressesThisPrefix(t *testing.T) {
	e := tsp.CompletionEntry{Name: "count", InsertText: "this.count"}
	got := computeFilterText(e, BuildParams{})
	assert.Equal(t, got, "")
}

func TestComputeFilterTextBracketAccessor(t *testing.T) {
	e := tsp.CompletionEntry{Name: "abc", InsertText: `["abc"]`}
	got := computeFilterText(e, BuildParams{})
	assert.Equal(t, got, ".abc")
}

func TestResolveItemAutoImportSplitsChanges(t *testing.T) {
	item := rpc.CompletionItem{Label: "Foo"}
	details := tsp.CompletionEntryDetails{
		Name:         "Foo",
		DisplayParts: []tsp.SymbolDisplayPart{{Text: "class Foo"}},
		Source:       []tsp.SymbolDisplayPart{{Text: "./foo"}},
		CodeActions: []tsp.CodeActionTS{
			{
				Description: "Add import",
				Changes: []tsp.FileCodeEdits{
					{FileName: "/a.ts", TextChanges: []tsp.CodeEdit{{NewText: "import { Foo } from './foo';\n"}}},
					{FileName: "/b.ts", TextChanges: []tsp.CodeEdit{{NewText: "export {};\n"}}},
				},
			},
		},
	}
	got := ResolveItem(item, "/a.ts", details)
	require.NotNil(t, got.Detail)
	assert.Equal(t, *got.Detail, "Auto import from './foo'\nclass Foo")
	require.Equal(t, len(got.AdditionalEdits), 1)
	require.NotNil(t, got.Command)
	assert.Equal(t, got.Command.Command, "_typescript.applyCompletionCodeAction")
}

func TestDataForRoundTrips(t *testing.T) {
	info := tsp.CompletionInfo{Entries: []tsp.CompletionEntry{
		{Name: "Foo", Kind: "classElement", SortText: "0", Source: "./foo"},
	}}
	items := BuildItems(info, BuildParams{File: "/a.ts", Position: rpc.Position{Line: 4, Character: 2}})
	file, line, offset, entryNames, ok := DataFor(items[0])
	require.True(t, ok)
	assert.Equal(t, file, "/a.ts")
	assert.Equal(t, line, 5)
	assert.Equal(t, offset, 3)
	require.Equal(t, len(entryNames), 1)
}
