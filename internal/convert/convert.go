// Package convert holds the pure, total functions that translate between
// LSP data shapes and tsserver data shapes (spec component C3). Every
// function here is side-effect free so it can be unit tested without a
// subprocess.
package convert

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

// ToPosition converts a 1-based tsserver location to a 0-based LSP position.
func ToPosition(l tsp.Location) rpc.Position {
	return rpc.Position{Line: uint32(l.Line - 1), Character: uint32(l.Offset - 1)}
}

// FromPosition converts a 0-based LSP position to a 1-based tsserver location.
func FromPosition(p rpc.Position) tsp.Location {
	return tsp.Location{Line: int(p.Line) + 1, Offset: int(p.Character) + 1}
}

// AsRange converts a tsserver TextSpan to an LSP range.
func AsRange(span tsp.TextSpan) rpc.Range {
	return rpc.Range{Start: ToPosition(span.Start), End: ToPosition(span.End)}
}

// ToLocation converts a tsserver file+span into an LSP Location.
func ToLocation(file string, start, end tsp.Location) rpc.Location {
	return rpc.Location{
		URI:   PathToURI(file),
		Range: rpc.Range{Start: ToPosition(start), End: ToPosition(end)},
	}
}

// ToTextEdit converts a tsserver CodeEdit to an LSP TextEdit.
func ToTextEdit(e tsp.CodeEdit) rpc.TextEdit {
	return rpc.TextEdit{
		Range:   rpc.Range{Start: ToPosition(e.Start), End: ToPosition(e.End)},
		NewText: e.NewText,
	}
}

// ToDocumentHighlight converts a tsserver HighlightSpan to an LSP DocumentHighlight.
func ToDocumentHighlight(s tsp.HighlightSpan) rpc.DocumentHighlight {
	kind := toHighlightKind(s.Kind)
	return rpc.DocumentHighlight{
		Range: rpc.Range{Start: ToPosition(s.Start), End: ToPosition(s.End)},
		Kind:  &kind,
	}
}

func toHighlightKind(kind string) rpc.DocumentHighlightKind {
	switch kind {
	case "writtenReference":
		return rpc.HighlightWrite
	case "reference":
		return rpc.HighlightRead
	default:
		return rpc.HighlightText
	}
}

// ToFileRangeRequestArgs emits the 1-based {file, startLine, startOffset,
// endLine, endOffset} shape tsserver requests expect.
func ToFileRangeRequestArgs(file string, r rpc.Range) tsp.FileRangeRequestArgs {
	start := FromPosition(r.Start)
	end := FromPosition(r.End)
	return tsp.FileRangeRequestArgs{
		File:        file,
		StartLine:   start.Line,
		StartOffset: start.Offset,
		EndLine:     end.Line,
		EndOffset:   end.Offset,
	}
}

// ToFileLocationRequestArgs emits the 1-based {file, line, offset} shape.
func ToFileLocationRequestArgs(file string, pos rpc.Position) tsp.FileLocationRequestArgs {
	loc := FromPosition(pos)
	return tsp.FileLocationRequestArgs{File: file, Line: loc.Line, Offset: loc.Offset}
}

// UriToPath converts a file:// URI to an OS-specific filesystem path. Only
// file:// URIs are supported; anything else returns ("", false).
func UriToPath(uri rpc.DocumentURI) (string, bool) {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	p := u.Path
	if runtime.GOOS == "windows" {
		p = strings.TrimPrefix(p, "/")
		p = filepath.FromSlash(p)
	}
	return p, true
}

// PathToURI converts an OS-specific filesystem path to a file:// URI.
func PathToURI(path string) rpc.DocumentURI {
	p := filepath.ToSlash(path)
	if runtime.GOOS == "windows" {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return rpc.DocumentURI(u.String())
}

// AsPlainText concatenates display parts with no separator, matching how
// tsserver renders signature/type text.
func AsPlainText(parts []tsp.SymbolDisplayPart) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// AsDocumentation concatenates documentation parts, separated by blank lines.
func AsDocumentation(parts []tsp.SymbolDisplayPart) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// AsTagsDocumentation renders each JSDoc tag as "*@tag*", followed by
// " — text" when the tag has text, with blank lines between tags.
func AsTagsDocumentation(tags []tsp.JSDocTagInfo) string {
	var sb strings.Builder
	for i, t := range tags {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("*@")
		sb.WriteString(t.Name)
		sb.WriteString("*")
		if text := AsPlainText(t.Text); text != "" {
			sb.WriteString(" — ")
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// AsDocumentationWithTags joins documentation and tag documentation with a
// blank line between, as used by hover and completion-resolve.
func AsDocumentationWithTags(doc []tsp.SymbolDisplayPart, tags []tsp.JSDocTagInfo) string {
	d := AsDocumentation(doc)
	t := AsTagsDocumentation(tags)
	switch {
	case d == "":
		return t
	case t == "":
		return d
	default:
		return d + "\n\n" + t
	}
}

// ToCompletionItemKind maps a tsserver entry kind to an LSP CompletionItemKind (§6.3).
func ToCompletionItemKind(kind string) rpc.CompletionItemKind {
	switch kind {
	case "primitiveType", "keyword":
		return rpc.CompletionItemKindKeyword
	case "constElement", "string":
		return rpc.CompletionItemKindConstant
	case "letElement", "variableElement", "localVariableElement", "alias":
		return rpc.CompletionItemKindVariable
	case "memberVariableElement", "memberGetAccessorElement", "memberSetAccessorElement":
		return rpc.CompletionItemKindField
	case "functionElement":
		return rpc.CompletionItemKindFunction
	case "memberFunctionElement", "constructSignatureElement", "callSignatureElement", "indexSignatureElement":
		return rpc.CompletionItemKindMethod
	case "enumElement":
		return rpc.CompletionItemKindEnum
	case "moduleElement", "externalModuleName":
		return rpc.CompletionItemKindModule
	case "classElement", "typeElement":
		return rpc.CompletionItemKindClass
	case "interfaceElement":
		return rpc.CompletionItemKindInterface
	case "warning", "scriptElement":
		return rpc.CompletionItemKindFile
	case "directory":
		return rpc.CompletionItemKindFolder
	default:
		return rpc.CompletionItemKindProperty
	}
}

// ToSymbolKind maps a tsserver navtree/navto kind to an LSP SymbolKind (§6.3).
func ToSymbolKind(kind string) rpc.SymbolKind {
	switch kind {
	case "class":
		return rpc.SymbolKindClass
	case "interface":
		return rpc.SymbolKindInterface
	case "enum":
		return rpc.SymbolKindEnum
	case "module", "externalModuleName":
		return rpc.SymbolKindModule
	case "method", "constructSignature", "callSignature", "indexSignature", "constructorImplementation":
		return rpc.SymbolKindMethod
	case "property", "getAccessor", "setAccessor", "memberVariable":
		return rpc.SymbolKindProperty
	case "memberGetAccessor", "memberSetAccessor":
		return rpc.SymbolKindField
	case "variable", "let", "const":
		return rpc.SymbolKindVariable
	case "function", "localFunction":
		return rpc.SymbolKindFunction
	case "script":
		return rpc.SymbolKindFile
	case "alias":
		return rpc.SymbolKindVariable
	default:
		return rpc.SymbolKindProperty
	}
}

// KindModifiers splits tsserver's comma-separated kindModifiers string.
func KindModifiers(modifiers string) []string {
	if modifiers == "" {
		return nil
	}
	return strings.Split(modifiers, ",")
}

// HasModifier reports whether modifiers contains m.
func HasModifier(modifiers string, m string) bool {
	for _, v := range KindModifiers(modifiers) {
		if v == m {
			return true
		}
	}
	return false
}

// fileExtensionModifiers are the kind-modifier values that disambiguate
// same-named script completion entries (§4.5 step 6).
var fileExtensionModifiers = []string{".d.ts", ".ts", ".tsx", ".js", ".jsx"}

// FileExtensionModifier returns the file-extension modifier present in
// modifiers, if any.
func FileExtensionModifier(modifiers string) (string, bool) {
	for _, v := range KindModifiers(modifiers) {
		for _, ext := range fileExtensionModifiers {
			if v == ext {
				return ext, true
			}
		}
	}
	return "", false
}

// ToDiagnostic converts a tsserver diagnostic into an LSP diagnostic.
func ToDiagnostic(d tsp.TSDiagnostic) rpc.Diagnostic {
	severity := toDiagnosticSeverity(d.Category)
	diag := rpc.Diagnostic{
		Range:    rpc.Range{Start: ToPosition(d.Start), End: ToPosition(d.End)},
		Severity: &severity,
		Message:  d.Text,
	}
	if d.Code != 0 {
		code := strconv.Itoa(d.Code)
		diag.Code = &code
		source := "typescript"
		diag.Source = &source
	}
	return diag
}

func toDiagnosticSeverity(category string) rpc.DiagnosticSeverity {
	switch category {
	case "error":
		return rpc.SeverityError
	case "warning":
		return rpc.SeverityWarning
	case "suggestion":
		return rpc.SeverityHint
	default:
		return rpc.SeverityInformation
	}
}

// ScriptKindName maps an LSP languageId to the scriptKindName tsserver's
// "open" request expects.
func ScriptKindName(languageID string) string {
	switch languageID {
	case "typescript":
		return "TS"
	case "typescriptreact":
		return "TSX"
	case "javascript":
		return "JS"
	case "javascriptreact":
		return "JSX"
	default:
		return "TS"
	}
}
