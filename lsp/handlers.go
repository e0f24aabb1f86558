package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tslsp/internal/completion"
	"tslsp/internal/convert"
	"tslsp/internal/document"
	"tslsp/internal/rpc"
	"tslsp/internal/text"
	"tslsp/internal/tsp"
)

// errNoContentAvailable is tsserver's way of saying "nothing to show here"
// for quickinfo/completionInfo at a non-expression position; the dispatcher
// treats it the same as an empty, successful result (spec §7 kind 4).
var errNoContentAvailable = errors.New("tsserver: no content available")

func isNoContentAvailable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "No content available")
}

func (s *Server) completion(ctx context.Context, params rpc.CompletionParams) (*rpc.CompletionList, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return &rpc.CompletionList{Items: []rpc.CompletionItem{}}, nil
	}
	doc := s.docs.Get(path)
	if doc == nil {
		return &rpc.CompletionList{Items: []rpc.CompletionItem{}}, nil
	}

	line := doc.GetLine(int(params.Position.Line))
	lineStart := doc.OffsetAt(rpc.Position{Line: params.Position.Line, Character: 0})
	cursor := doc.OffsetAt(params.Position)
	prefix := ""
	if cursor > lineStart && cursor <= len(doc.Text()) {
		prefix = doc.Text()[lineStart:cursor]
	}

	var dotAccessor *completion.DotAccessorContext
	if loc := completion.DotAccessorRegex.FindStringIndex(prefix); loc != nil {
		matched := prefix[loc[0]:loc[1]]
		start := params.Position.Character - uint32(text.UTF16Len(matched))
		dotAccessor = &completion.DotAccessorContext{
			Text: matched,
			Range: rpc.Range{
				Start: rpc.Position{Line: params.Position.Line, Character: start},
				End:   params.Position,
			},
		}
	}

	var triggerChar string
	if params.Context != nil && params.Context.TriggerCharacter != nil {
		triggerChar = *params.Context.TriggerCharacter
	}

	reqArgs := tsp.CompletionsRequestArgs{
		FileLocationRequestArgs:      convert.ToFileLocationRequestArgs(path, params.Position),
		TriggerCharacter:             triggerChar,
		IncludeExternalModuleExports: true,
		IncludeInsertTextCompletions: true,
	}

	var info tsp.CompletionInfo
	var reqErr error
	s.interruptDiagnostics(func() {
		resp, err := s.ts.Request(ctx, tsp.CommandCompletionInfo, reqArgs)
		if err != nil {
			reqErr = err
			return
		}
		if !resp.Success {
			if isNoContentAvailable(errors.New(resp.Message)) {
				return
			}
			reqErr = fmt.Errorf("completionInfo: %s", resp.Message)
			return
		}
		_ = json.Unmarshal(resp.Body, &info)
	})
	if reqErr != nil {
		s.logger.WithError(reqErr).Warn("lsp: completion failed")
		return &rpc.CompletionList{Items: []rpc.CompletionItem{}}, nil
	}

	items := completion.BuildItems(info, completion.BuildParams{
		File:                 path,
		Position:             params.Position,
		LineTextBeforeCursor: prefix,
		CurrentLineLength:    text.UTF16Len(line),
		DotAccessor:          dotAccessor,
		Options:              s.completionOpts,
	})
	return &rpc.CompletionList{Items: items}, nil
}

func (s *Server) completionResolve(ctx context.Context, item rpc.CompletionItem) (*rpc.CompletionItem, error) {
	file, line, offset, entryNames, ok := completion.DataFor(item)
	if !ok {
		return &item, nil
	}

	reqArgs := tsp.CompletionDetailsRequestArgs{
		FileLocationRequestArgs: tsp.FileLocationRequestArgs{File: file, Line: line, Offset: offset},
		EntryNames:              entryNames,
	}

	var details []tsp.CompletionEntryDetails
	var reqErr error
	s.interruptDiagnostics(func() {
		resp, err := s.ts.Request(ctx, tsp.CommandCompletionEntryDetails, reqArgs)
		if err != nil {
			reqErr = err
			return
		}
		if !resp.Success {
			reqErr = fmt.Errorf("completionEntryDetails: %s", resp.Message)
			return
		}
		_ = json.Unmarshal(resp.Body, &details)
	})
	if reqErr != nil {
		s.logger.WithError(reqErr).Warn("lsp: completionItem/resolve failed")
		return &item, nil
	}
	if len(details) == 0 {
		return &item, nil
	}
	resolved := completion.ResolveItem(item, file, details[0])
	return &resolved, nil
}

func (s *Server) hover(ctx context.Context, params rpc.HoverParams) (*rpc.Hover, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	var info tsp.QuickInfo
	var found bool
	var reqErr error
	s.interruptDiagnostics(func() {
		resp, err := s.ts.Request(ctx, tsp.CommandQuickinfo, convert.ToFileLocationRequestArgs(path, params.Position))
		if err != nil {
			reqErr = err
			return
		}
		if !resp.Success {
			return
		}
		if err := json.Unmarshal(resp.Body, &info); err == nil {
			found = true
		}
	})
	if reqErr != nil {
		s.logger.WithError(reqErr).Warn("lsp: hover failed")
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	docText := convert.AsDocumentationWithTags(nil, info.Tags)
	if info.Documentation != "" {
		if docText != "" {
			docText = info.Documentation + "\n\n" + docText
		} else {
			docText = info.Documentation
		}
	}

	r := rpc.Range{Start: convert.ToPosition(info.Start), End: convert.ToPosition(info.End)}
	return &rpc.Hover{
		Contents: []rpc.MarkedString{
			{Language: "typescript", Value: info.DisplayString},
			{Value: docText},
		},
		Range: &r,
	}, nil
}

func (s *Server) definitionLike(ctx context.Context, command string, params rpc.DefinitionParams) ([]rpc.Location, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	resp, err := s.ts.Request(ctx, command, convert.ToFileLocationRequestArgs(path, params.Position))
	if err != nil {
		s.logger.WithError(err).WithField("command", command).Warn("lsp: definition-like request failed")
		return nil, nil
	}
	if !resp.Success {
		return nil, nil
	}
	var infos []tsp.DefinitionInfo
	if err := json.Unmarshal(resp.Body, &infos); err != nil {
		return nil, nil
	}
	locs := make([]rpc.Location, len(infos))
	for i, inf := range infos {
		locs[i] = convert.ToLocation(inf.File, inf.Start, inf.End)
	}
	return locs, nil
}

func (s *Server) references(ctx context.Context, params rpc.ReferenceParams) ([]rpc.Location, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	resp, err := s.ts.Request(ctx, tsp.CommandReferences, convert.ToFileLocationRequestArgs(path, params.Position))
	if err != nil {
		s.logger.WithError(err).Warn("lsp: references failed")
		return nil, nil
	}
	if !resp.Success {
		return nil, nil
	}
	var body tsp.ReferencesResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, nil
	}
	locs := make([]rpc.Location, len(body.Refs))
	for i, ref := range body.Refs {
		locs[i] = convert.ToLocation(ref.File, ref.Start, ref.End)
	}
	return locs, nil
}

func (s *Server) documentHighlight(ctx context.Context, params rpc.DocumentHighlightParams) ([]rpc.DocumentHighlight, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	args := struct {
		tsp.FileLocationRequestArgs
		FilesToSearch []string `json:"filesToSearch"`
	}{
		FileLocationRequestArgs: convert.ToFileLocationRequestArgs(path, params.Position),
		FilesToSearch:           []string{path},
	}
	resp, err := s.ts.Request(ctx, tsp.CommandDocumentHighlights, args)
	if err != nil {
		s.logger.WithError(err).Warn("lsp: documentHighlight failed")
		return nil, nil
	}
	if !resp.Success {
		return nil, nil
	}
	var items []tsp.DocumentHighlightsItem
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, nil
	}
	var out []rpc.DocumentHighlight
	for _, item := range items {
		if item.File != path {
			continue
		}
		for _, span := range item.HighlightSpans {
			out = append(out, convert.ToDocumentHighlight(span))
		}
	}
	return out, nil
}

func (s *Server) documentSymbol(ctx context.Context, params rpc.DocumentSymbolParams) (any, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return []rpc.DocumentSymbol{}, nil
	}
	resp, err := s.ts.Request(ctx, tsp.CommandNavTree, tsp.FileRequestArgs{File: path})
	if err != nil {
		s.logger.WithError(err).Warn("lsp: documentSymbol failed")
		return []rpc.DocumentSymbol{}, nil
	}
	if !resp.Success {
		return []rpc.DocumentSymbol{}, nil
	}
	var root tsp.NavTree
	if err := json.Unmarshal(resp.Body, &root); err != nil {
		return []rpc.DocumentSymbol{}, nil
	}

	symbols := make([]rpc.DocumentSymbol, 0, len(root.ChildItems))
	for _, c := range root.ChildItems {
		symbols = append(symbols, navTreeToSymbol(c))
	}

	if s.hierarchicalSymbols {
		return symbols, nil
	}
	flat := make([]rpc.SymbolInformation, 0, len(symbols))
	for _, sym := range symbols {
		flat = append(flat, flattenSymbols(sym, params.TextDocument.URI, "")...)
	}
	return flat, nil
}

func navTreeToSymbol(n tsp.NavTree) rpc.DocumentSymbol {
	var rng rpc.Range
	if len(n.Spans) > 0 {
		rng = convert.AsRange(n.Spans[0])
	}
	selRng := rng
	if n.NameSpan != nil {
		selRng = convert.AsRange(*n.NameSpan)
	}
	children := make([]rpc.DocumentSymbol, 0, len(n.ChildItems))
	for _, c := range n.ChildItems {
		children = append(children, navTreeToSymbol(c))
	}
	return rpc.DocumentSymbol{
		Name:           n.Text,
		Kind:           convert.ToSymbolKind(n.Kind),
		Range:          rng,
		SelectionRange: selRng,
		Children:       children,
	}
}

func flattenSymbols(sym rpc.DocumentSymbol, uri rpc.DocumentURI, container string) []rpc.SymbolInformation {
	out := []rpc.SymbolInformation{{
		Name:          sym.Name,
		Kind:          sym.Kind,
		Location:      rpc.Location{URI: uri, Range: sym.Range},
		ContainerName: container,
	}}
	for _, child := range sym.Children {
		out = append(out, flattenSymbols(child, uri, sym.Name)...)
	}
	return out
}

// documentFormatting sends tsserver its format options, then requests a
// format over the whole document. A tsfmt.json at the workspace root
// silently overrides the LSP-supplied options (spec §9 Open Question:
// resolved to "tsfmt.json wins").
func (s *Server) documentFormatting(ctx context.Context, params rpc.DocumentFormattingParams) ([]rpc.TextEdit, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	doc := s.docs.Get(path)
	if doc == nil {
		return nil, nil
	}

	settings := tsp.FormatCodeSettings{
		TabSize:             int(params.Options.TabSize),
		IndentSize:          int(params.Options.TabSize),
		ConvertTabsToSpaces: params.Options.InsertSpaces,
	}
	if override, ok := s.loadTsfmtJSON(); ok {
		settings = override
	}
	if _, err := s.ts.Request(ctx, tsp.CommandConfigure, tsp.ConfigureRequestArguments{FormatOptions: &settings}); err != nil {
		s.logger.WithError(err).Warn("lsp: documentFormatting configure failed")
		return nil, nil
	}

	end := doc.PositionAt(len(doc.Text()))
	resp, err := s.ts.Request(ctx, tsp.CommandFormat, tsp.FormatRequestArgs{
		FileRangeRequestArgs: convert.ToFileRangeRequestArgs(path, rpc.Range{Start: rpc.Position{}, End: end}),
	})
	if err != nil || !resp.Success {
		if err != nil {
			s.logger.WithError(err).Warn("lsp: documentFormatting failed")
		}
		return nil, nil
	}
	var edits []tsp.CodeEdit
	if err := json.Unmarshal(resp.Body, &edits); err != nil {
		return nil, nil
	}
	out := make([]rpc.TextEdit, len(edits))
	for i, e := range edits {
		out[i] = convert.ToTextEdit(e)
	}
	return out, nil
}

func (s *Server) loadTsfmtJSON() (tsp.FormatCodeSettings, bool) {
	if s.rootPath == "" {
		return tsp.FormatCodeSettings{}, false
	}
	data, err := os.ReadFile(filepath.Join(s.rootPath, "tsfmt.json"))
	if err != nil {
		return tsp.FormatCodeSettings{}, false
	}
	var settings tsp.FormatCodeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return tsp.FormatCodeSettings{}, false
	}
	return settings, true
}

func (s *Server) signatureHelp(ctx context.Context, params rpc.SignatureHelpParams) (*rpc.SignatureHelp, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	var items tsp.SignatureHelpItems
	var found bool
	var reqErr error
	s.interruptDiagnostics(func() {
		resp, err := s.ts.Request(ctx, tsp.CommandSignatureHelp, convert.ToFileLocationRequestArgs(path, params.Position))
		if err != nil {
			reqErr = err
			return
		}
		if !resp.Success {
			return
		}
		if err := json.Unmarshal(resp.Body, &items); err == nil {
			found = true
		}
	})
	if reqErr != nil {
		s.logger.WithError(reqErr).Warn("lsp: signatureHelp failed")
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	sigs := make([]rpc.SignatureInformation, len(items.Items))
	for i, it := range items.Items {
		label := convert.AsPlainText(it.PrefixDisplayParts)
		params2 := make([]rpc.ParameterInformation, len(it.Parameters))
		for j, p := range it.Parameters {
			pLabel := convert.AsPlainText(p.DisplayParts)
			params2[j] = rpc.ParameterInformation{Label: pLabel}
			if doc := convert.AsDocumentation(p.Documentation); doc != "" {
				params2[j].Documentation = &rpc.MarkupContent{Kind: "markdown", Value: doc}
			}
			label += pLabel
			if j < len(it.Parameters)-1 {
				label += convert.AsPlainText(it.SeparatorDisplayParts)
			}
		}
		label += convert.AsPlainText(it.SuffixDisplayParts)

		sig := rpc.SignatureInformation{Label: label, Parameters: params2}
		if doc := convert.AsDocumentation(it.Documentation); doc != "" {
			sig.Documentation = &rpc.MarkupContent{Kind: "markdown", Value: doc}
		}
		sigs[i] = sig
	}

	active := uint32(items.SelectedItemIndex)
	argIdx := uint32(items.ArgumentIndex)
	return &rpc.SignatureHelp{Signatures: sigs, ActiveSignature: &active, ActiveParameter: &argIdx}, nil
}

func (s *Server) workspaceSymbol(ctx context.Context, params rpc.WorkspaceSymbolParams) ([]rpc.SymbolInformation, error) {
	file := s.docs.MostRecentlyAccessed()
	if file == "" {
		file = s.rootPath
	}
	if file == "" {
		return nil, nil
	}
	resp, err := s.ts.Request(ctx, tsp.CommandNavTo, tsp.NavToRequestArgs{
		FileRequestArgs: tsp.FileRequestArgs{File: file},
		SearchValue:     params.Query,
	})
	if err != nil {
		s.logger.WithError(err).Warn("lsp: workspaceSymbol failed")
		return nil, nil
	}
	if !resp.Success {
		return nil, nil
	}
	var items []tsp.NavtoItem
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, nil
	}
	out := make([]rpc.SymbolInformation, len(items))
	for i, it := range items {
		out[i] = rpc.SymbolInformation{
			Name:          it.Name,
			Kind:          convert.ToSymbolKind(it.Kind),
			Location:      convert.ToLocation(it.File, it.Start, it.End),
			ContainerName: it.ContainerName,
		}
	}
	return out, nil
}

// foldingRange derives folding regions from tsserver's outlining spans,
// dropping "#endregion" marker comments and trimming a trailing closing
// brace line so the brace itself stays visible when collapsed (spec §4.6
// foldingRange).
func (s *Server) foldingRange(ctx context.Context, params rpc.FoldingRangeParams) ([]rpc.FoldingRange, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	doc := s.docs.Get(path)
	resp, err := s.ts.Request(ctx, tsp.CommandGetOutliningSpans, tsp.FileRequestArgs{File: path})
	if err != nil {
		s.logger.WithError(err).Warn("lsp: foldingRange failed")
		return nil, nil
	}
	if !resp.Success {
		return nil, nil
	}
	var spans []tsp.OutliningSpan
	if err := json.Unmarshal(resp.Body, &spans); err != nil {
		return nil, nil
	}

	out := make([]rpc.FoldingRange, 0, len(spans))
	for _, sp := range spans {
		r := convert.AsRange(sp.TextSpan)
		if doc != nil && isEndRegionComment(doc, r) {
			continue
		}
		endLine := r.End.Line
		if doc != nil && endLine > r.Start.Line && endsWithBrace(doc, r) {
			endLine--
		}
		out = append(out, rpc.FoldingRange{StartLine: r.Start.Line, EndLine: endLine})
	}
	return out, nil
}

func endsWithBrace(doc *document.Document, r rpc.Range) bool {
	line := []rune(doc.GetLine(int(r.End.Line)))
	idx := int(r.End.Character)
	if idx <= 0 || idx > len(line) {
		return false
	}
	return line[idx-1] == '}'
}

func isEndRegionComment(doc *document.Document, r rpc.Range) bool {
	line := strings.TrimSpace(doc.GetLine(int(r.Start.Line)))
	return strings.HasPrefix(line, "// #endregion")
}

func (s *Server) rename(ctx context.Context, params rpc.RenameParams) (*rpc.WorkspaceEdit, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("rename: unsupported document uri")
	}
	resp, err := s.ts.Request(ctx, tsp.CommandRename, tsp.RenameRequestArgs{
		FileLocationRequestArgs: convert.ToFileLocationRequestArgs(path, params.Position),
	})
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("rename: %s", resp.Message)
	}
	var body tsp.RenameResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("rename: decode response: %w", err)
	}
	if !body.Info.CanRename {
		return nil, fmt.Errorf("rename: %s", body.Info.LocalizedErrorMessage)
	}
	if len(body.Locs) == 0 {
		return nil, errors.New("rename: no locations found")
	}

	edit := rpc.WorkspaceEdit{Changes: make(map[rpc.DocumentURI][]rpc.TextEdit)}
	for _, group := range body.Locs {
		uri := convert.PathToURI(group.File)
		for _, loc := range group.Locs {
			edit.Changes[uri] = append(edit.Changes[uri], rpc.TextEdit{
				Range:   rpc.Range{Start: convert.ToPosition(loc.Start), End: convert.ToPosition(loc.End)},
				NewText: params.NewName,
			})
		}
	}
	return &edit, nil
}

func (s *Server) executeCommand(ctx context.Context, params rpc.ExecuteCommandParams) (any, error) {
	return s.cmds.Execute(ctx, params.Command, params.Arguments)
}
