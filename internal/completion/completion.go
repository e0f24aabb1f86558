// Package completion implements the two-phase completion pipeline (spec
// component C6): building LSP completion items from a tsserver
// completionInfo response, and resolving a single item's details lazily on
// completionItem/resolve.
package completion

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tslsp/internal/convert"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

// foldCaser folds case the way tsserver's own fuzzy matcher does: Unicode
// simple case-folding rather than byte-wise ASCII comparison, so filter
// matching behaves correctly for non-ASCII identifiers too.
var foldCaser = cases.Fold()

// kindCaser normalizes a tsserver entry kind before it is looked up in the
// kind tables below; tsserver's kinds are always lowerCamelCase, but this
// guards against a future protocol version that doesn't agree.
var kindCaser = cases.Lower(language.Und)

var bracketAccessorRegex = regexp.MustCompile(`^\[['"](.+)['"]\]$`)

// DotAccessorRegex detects a member-completion trigger position: the cursor
// sits just after an (optional-chaining) dot.
var DotAccessorRegex = regexp.MustCompile(`\??\.\s*$`)

// DotAccessorContext describes a detected member-access trigger immediately
// preceding the cursor (spec §4.6 `completion`: "detects a dot-accessor
// context by regex ... on the current-line prefix").
type DotAccessorContext struct {
	Text  string
	Range rpc.Range
}

// Options mirrors the client-configurable completion toggles the dispatcher
// forwards into the build phase.
type Options struct {
	DisableSuggestions           bool
	DisablePathSuggestions       bool
	DisableAutoImportSuggestions bool
}

// BuildParams carries the request context needed to translate one
// completionInfo response into LSP completion items.
type BuildParams struct {
	File string
	// Position is the 0-based cursor position the completion was requested at.
	Position rpc.Position
	// LineTextBeforeCursor is the text of the current line up to (not
	// including) the cursor, used for the private-field and backward-scan
	// filter/range rules.
	LineTextBeforeCursor string
	// CurrentLineLength is the UTF-16 length of the cursor's line, used to
	// clamp multi-line replacementSpans.
	CurrentLineLength int
	DotAccessor       *DotAccessorContext
	Options           Options
}

// completionData is the exact shape persisted into CompletionItem.Data and
// later round-tripped to completionEntryDetails on resolve (spec §4.5 step 3).
type completionData struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Offset     int    `json:"offset"`
	EntryNames []any  `json:"entryNames"`
}

// BuildItems translates every entry of a completionInfo response into an
// LSP completion item, dropping entries the current Options suppress.
func BuildItems(info tsp.CompletionInfo, p BuildParams) []rpc.CompletionItem {
	items := make([]rpc.CompletionItem, 0, len(info.Entries))
	for _, e := range info.Entries {
		if shouldFilterEntry(e, p.Options) {
			continue
		}
		items = append(items, buildItem(e, info, p))
	}
	return items
}

func shouldFilterEntry(e tsp.CompletionEntry, o Options) bool {
	if o.DisableSuggestions && e.Kind == "warning" {
		return true
	}
	if o.DisablePathSuggestions {
		switch e.Kind {
		case "directory", "script", "scriptElement", "externalModuleName":
			return true
		}
	}
	if o.DisableAutoImportSuggestions && e.HasAction {
		return true
	}
	return false
}

func buildItem(e tsp.CompletionEntry, info tsp.CompletionInfo, p BuildParams) rpc.CompletionItem {
	kind := convert.ToCompletionItemKind(e.Kind)
	item := rpc.CompletionItem{
		Label:            decorateLabel(e.Name, e.KindModifiers),
		Kind:             &kind,
		CommitCharacters: commitCharacters(e.Kind),
	}

	sortText := e.SortText
	if e.Source != "" {
		sortText = "￿" + sortText
	}
	item.SortText = &sortText

	if e.IsRecommended {
		t := true
		item.Preselect = &t
	}

	if isFunctionLike(e.Kind) {
		f := rpc.InsertTextFormatSnippet
		item.InsertTextFormat = &f
	}

	insertText := e.InsertText
	if insertText == "" {
		insertText = e.Name
	}

	filterText := computeFilterText(e, p)
	replaceRange, hasRange := computeReplacementRange(e, e.Name, p)

	if p.DotAccessor != nil && info.IsMemberCompletion {
		filterText = p.DotAccessor.Text + filterText
		replaceRange = unionRange(replaceRange, p.DotAccessor.Range)
		hasRange = true
	}

	if filterText != "" {
		item.FilterText = &filterText
	}
	if hasRange {
		item.TextEdit = &rpc.TextEdit{Range: replaceRange, NewText: insertText}
	} else {
		item.InsertText = &insertText
	}

	if detail, ok := extensionDetail(e); ok {
		item.Detail = &detail
	}

	data := completionData{
		File:       p.File,
		Line:       int(p.Position.Line) + 1,
		Offset:     int(p.Position.Character) + 1,
		EntryNames: []any{entryNameArg(e)},
	}
	if raw, err := json.Marshal(data); err == nil {
		rm := json.RawMessage(raw)
		item.Data = &rm
	}

	return item
}

func entryNameArg(e tsp.CompletionEntry) any {
	if e.Source != "" {
		return map[string]string{"name": e.Name, "source": e.Source}
	}
	return e.Name
}

func decorateLabel(label, modifiers string) string {
	if convert.HasModifier(modifiers, "optional") {
		return label + "?"
	}
	return label
}

func extensionDetail(e tsp.CompletionEntry) (string, bool) {
	if e.Kind != "script" && e.Kind != "scriptElement" {
		return "", false
	}
	if ext, ok := convert.FileExtensionModifier(e.KindModifiers); ok {
		return e.Name + ext, true
	}
	return "", false
}

var memberKinds = map[string]bool{
	"membergetaccessorelement":  true,
	"membersetaccessorelement":  true,
	"callsignatureelement":      true,
	"constructsignatureelement": true,
	"indexsignatureelement":     true,
	"enumelement":               true,
	"interfaceelement":          true,
}

var expressionKinds = map[string]bool{
	"moduleelement":         true,
	"alias":                 true,
	"constelement":          true,
	"letelement":            true,
	"variableelement":       true,
	"localvariableelement":  true,
	"membervariableelement": true,
	"classelement":          true,
	"functionelement":       true,
	"memberfunctionelement": true,
}

func commitCharacters(kind string) []string {
	kind = kindCaser.String(kind)
	switch {
	case memberKinds[kind]:
		return []string{"."}
	case expressionKinds[kind]:
		return []string{".", ",", "("}
	default:
		return nil
	}
}

func isFunctionLike(kind string) bool {
	kind = kindCaser.String(kind)
	return kind == "functionelement" || kind == "memberfunctionelement"
}

// computeFilterText implements spec §4.5 step 4.
func computeFilterText(e tsp.CompletionEntry, p BuildParams) string {
	if strings.HasPrefix(e.Name, "#") {
		precededByHash := strings.HasSuffix(p.LineTextBeforeCursor, "#")
		if e.InsertText != "" {
			if strings.HasPrefix(e.InsertText, "this.#") {
				if precededByHash {
					return e.InsertText
				}
				return strings.TrimPrefix(e.InsertText, "this.#")
			}
			return e.InsertText
		}
		if precededByHash {
			return e.Name
		}
		return strings.TrimPrefix(e.Name, "#")
	}

	insertText := e.InsertText
	if insertText == "" {
		insertText = e.Name
	}
	if strings.HasPrefix(insertText, "this.") {
		return ""
	}
	if m := bracketAccessorRegex.FindStringSubmatch(insertText); m != nil {
		return "." + m[1]
	}
	return insertText
}

// computeReplacementRange implements spec §4.5 step 5, excluding the
// dot-accessor union which the caller applies afterwards.
func computeReplacementRange(e tsp.CompletionEntry, label string, p BuildParams) (rpc.Range, bool) {
	if e.ReplacementSpan != nil {
		r := convert.AsRange(*e.ReplacementSpan)
		if r.Start.Line != r.End.Line {
			r.End.Line = r.Start.Line
			r.End.Character = uint32(p.CurrentLineLength)
		}
		return r, true
	}
	return backwardMatchRange(p.Position, p.LineTextBeforeCursor, label)
}

func backwardMatchRange(pos rpc.Position, lineBeforeCursor, label string) (rpc.Range, bool) {
	before := []rune(lineBeforeCursor)
	n := len(before)
	labelRunes := []rune(label)

	for i := len(labelRunes); i >= 0; i-- {
		if i > n {
			continue
		}
		candidate := string(before[n-i:])
		prefix := string(labelRunes[:i])
		if foldCaser.String(candidate) == foldCaser.String(prefix) {
			start := pos.Character - uint32(i)
			return rpc.Range{
				Start: rpc.Position{Line: pos.Line, Character: start},
				End:   pos,
			}, true
		}
	}
	return rpc.Range{Start: pos, End: pos}, true
}

func unionRange(a, b rpc.Range) rpc.Range {
	start := a.Start
	if before(b.Start, start) {
		start = b.Start
	}
	end := a.End
	if before(end, b.End) {
		end = b.End
	}
	return rpc.Range{Start: start, End: end}
}

func before(a, b rpc.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

// ResolveItem applies a completionEntryDetails response to a previously
// built item (spec §4.5 "Resolve item").
func ResolveItem(item rpc.CompletionItem, file string, details tsp.CompletionEntryDetails) rpc.CompletionItem {
	displayParts := convert.AsPlainText(details.DisplayParts)
	var detail string
	if len(details.Source) > 0 {
		detail = fmt.Sprintf("Auto import from '%s'\n%s", convert.AsPlainText(details.Source), displayParts)
	} else {
		detail = displayParts
	}
	item.Detail = &detail

	if doc := convert.AsDocumentationWithTags(details.Documentation, details.Tags); doc != "" {
		item.Documentation = &rpc.MarkupContent{Kind: "markdown", Value: doc}
	}

	var additional []rpc.TextEdit
	var remaining []tsp.CodeActionTS
	for _, action := range details.CodeActions {
		var otherChanges []tsp.FileCodeEdits
		for _, ch := range action.Changes {
			if ch.FileName == file {
				for _, edit := range ch.TextChanges {
					additional = append(additional, convert.ToTextEdit(edit))
				}
			} else {
				otherChanges = append(otherChanges, ch)
			}
		}
		if len(otherChanges) > 0 || len(action.Commands) > 0 {
			remaining = append(remaining, tsp.CodeActionTS{
				Description: action.Description,
				Changes:     otherChanges,
				Commands:    action.Commands,
			})
		}
	}
	if len(additional) > 0 {
		item.AdditionalEdits = additional
	}
	if len(remaining) > 0 {
		item.Command = &rpc.Command{
			Title:     "Apply completion code action",
			Command:   "_typescript.applyCompletionCodeAction",
			Arguments: []any{file, remaining},
		}
	}
	return item
}

// DataFor decodes an item's stored Data into the arguments the resolve
// request must send as completionEntryDetails' entryNames/position.
func DataFor(item rpc.CompletionItem) (file string, line, offset int, entryNames []any, ok bool) {
	if item.Data == nil {
		return "", 0, 0, nil, false
	}
	var d completionData
	if err := json.Unmarshal(*item.Data, &d); err != nil {
		return "", 0, 0, nil, false
	}
	return d.File, d.Line, d.Offset, d.EntryNames, true
}
