package convert

import (
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

func TestToPosition(t *testing.T) {
	got := ToPosition(tsp.Location{Line: 3, Offset: 5})
	want := rpc.Position{Line: 2, Character: 4}
	require.Equal(t, got, want)
}

func TestFromPosition(t *testing.T) {
	got := FromPosition(rpc.Position{Line: 2, Character: 4})
	want := tsp.Location{Line: 3, Offset: 5}
	require.Equal(t, got, want)
}

func TestAsRange(t *testing.T) {
	got := AsRange(tsp.TextSpan{
		Start: tsp.Location{Line: 1, Offset: 1},
		End:   tsp.Location{Line: 1, Offset: 6},
	})
	want := rpc.Range{
		Start: rpc.Position{Line: 0, Character: 0},
		End:   rpc.Position{Line: 0, Character: 5},
	}
	require.Equal(t, got, want)
}

func TestPathToURIAndBack(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path shape differs on windows")
	}
	path := "/home/user/project/index.ts"
	uri := PathToURI(path)
	assert.Equal(t, string(uri), "file:///home/user/project/index.ts")

	got, ok := UriToPath(uri)
	require.True(t, ok)
	assert.Equal(t, got, path)
}

func TestUriToPathRejectsNonFileScheme(t *testing.T) {
	_, ok := UriToPath("untitled:Untitled-1")
	assert.False(t, ok)
}

func TestAsPlainText(t *testing.T) {
	got := AsPlainText([]tsp.SymbolDisplayPart{
		{Text: "function "},
		{Text: "foo"},
		{Text: "(): void"},
	})
	assert.Equal(t, got, "function foo(): void")
}

func TestAsDocumentationWithTags(t *testing.T) {
	doc := []tsp.SymbolDisplayPart{{Text: "does a thing"}}
	tags := []tsp.JSDocTagInfo{
		{Name: "param", Text: []tsp.SymbolDisplayPart{{Text: "x the input"}}},
		{Name: "returns"},
	}
	got := AsDocumentationWithTags(doc, tags)
	want := "does a thing\n\n*@param* — x the input\n\n*@returns*"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AsDocumentationWithTags() mismatch (-want +got):\n%s", diff)
	}
}

func TestToCompletionItemKind(t *testing.T) {
	cases := map[string]rpc.CompletionItemKind{
		"keyword":               rpc.CompletionItemKindKeyword,
		"memberFunctionElement": rpc.CompletionItemKindMethod,
		"classElement":          rpc.CompletionItemKindClass,
		"unknownWeirdKind":      rpc.CompletionItemKindProperty,
	}
	for kind, want := range cases {
		got := ToCompletionItemKind(kind)
		if got != want {
			t.Errorf("ToCompletionItemKind(%q) = %v, want %v", kind, got, want)
		}
	}
}

func TestToSymbolKind(t *testing.T) {
	cases := map[string]rpc.SymbolKind{
		"class":    rpc.SymbolKindClass,
		"method":   rpc.SymbolKindMethod,
		"variable": rpc.SymbolKindVariable,
	}
	for kind, want := range cases {
		got := ToSymbolKind(kind)
		if got != want {
			t.Errorf("ToSymbolKind(%q) = %v, want %v", kind, got, want)
		}
	}
}

func TestHasModifier(t *testing.T) {
	assert.True(t, HasModifier("private,static", "static"))
	assert.False(t, HasModifier("private,static", "readonly"))
	assert.False(t, HasModifier("", "static"))
}

func TestFileExtensionModifier(t *testing.T) {
	ext, ok := FileExtensionModifier("declare,.d.ts")
	require.True(t, ok)
	assert.Equal(t, ext, ".d.ts")

	_, ok = FileExtensionModifier("private")
	assert.False(t, ok)
}

func TestToDiagnostic(t *testing.T) {
	got := ToDiagnostic(tsp.TSDiagnostic{
		Start:    tsp.Location{Line: 1, Offset: 1},
		End:      tsp.Location{Line: 1, Offset: 4},
		Text:     "Cannot find name 'foo'.",
		Category: "error",
		Code:     2304,
	})
	require.NotNil(t, got.Severity)
	assert.Equal(t, *got.Severity, rpc.SeverityError)
	require.NotNil(t, got.Code)
	assert.Equal(t, *got.Code, "2304")
	require.NotNil(t, got.Source)
	assert.Equal(t, *got.Source, "typescript")
	assert.Equal(t, got.Message, "Cannot find name 'foo'.")
}

func TestScriptKindName(t *testing.T) {
	assert.Equal(t, ScriptKindName("typescriptreact"), "TSX")
	assert.Equal(t, ScriptKindName("javascript"), "JS")
	assert.Equal(t, ScriptKindName("plaintext"), "TS")
}
