package lsp

import (
	"context"
	"encoding/json"

	"tslsp/internal/convert"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

// calls implements the proposed textDocument/calls request (spec §4.6).
// Outgoing calls are computed from "definition" (the callee at the cursor);
// incoming calls are computed from "references" plus "navtree" (the
// function enclosing each reference). This predates tsserver's native call
// hierarchy trio and does not use it.
func (s *Server) calls(ctx context.Context, params rpc.CallsParams) (*rpc.CallsResult, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return &rpc.CallsResult{Calls: []rpc.CallHierarchyItem{}}, nil
	}

	var items []rpc.CallHierarchyItem
	var err error
	if params.Direction == "outgoing" {
		items, err = s.outgoingCalls(ctx, path, params.Position)
	} else {
		items, err = s.incomingCalls(ctx, path, params.Position)
	}
	if err != nil {
		s.logger.WithError(err).WithField("direction", params.Direction).Warn("lsp: calls failed")
		return &rpc.CallsResult{Calls: []rpc.CallHierarchyItem{}}, nil
	}
	if items == nil {
		items = []rpc.CallHierarchyItem{}
	}
	return &rpc.CallsResult{Calls: items}, nil
}

// outgoingCalls answers "what does the symbol under the cursor call" by
// resolving the callee at pos via "definition", then decorating each
// resolved location into a named item via that file's navtree.
func (s *Server) outgoingCalls(ctx context.Context, path string, pos rpc.Position) ([]rpc.CallHierarchyItem, error) {
	resp, err := s.ts.Request(ctx, tsp.CommandDefinition, convert.ToFileLocationRequestArgs(path, pos))
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, nil
	}
	var defs []tsp.DefinitionInfo
	if err := json.Unmarshal(resp.Body, &defs); err != nil {
		return nil, nil
	}

	trees := make(map[string]*tsp.NavTree)
	var out []rpc.CallHierarchyItem
	seen := make(map[string]struct{})
	for _, def := range defs {
		tree, err := s.navTreeFor(ctx, trees, def.File)
		if err != nil || tree == nil {
			continue
		}
		node := findEnclosing(tree, def.Start, preferNamed)
		if node == nil {
			continue
		}
		item := navTreeNodeToCallHierarchyItem(def.File, *node)
		key := string(item.URI) + "|" + rangeKey(item.SelectionRange)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

// incomingCalls answers "who calls the symbol under the cursor" by listing
// every reference to it, then for each reference walking that file's
// navtree to find the enclosing function-like node: the caller.
func (s *Server) incomingCalls(ctx context.Context, path string, pos rpc.Position) ([]rpc.CallHierarchyItem, error) {
	resp, err := s.ts.Request(ctx, tsp.CommandReferences, convert.ToFileLocationRequestArgs(path, pos))
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, nil
	}
	var body tsp.ReferencesResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, nil
	}

	trees := make(map[string]*tsp.NavTree)
	var out []rpc.CallHierarchyItem
	seen := make(map[string]struct{})
	for _, ref := range body.Refs {
		tree, err := s.navTreeFor(ctx, trees, ref.File)
		if err != nil || tree == nil {
			continue
		}
		node := findEnclosing(tree, ref.Start, requireNamed)
		if node == nil {
			continue
		}
		item := navTreeNodeToCallHierarchyItem(ref.File, *node)
		key := string(item.URI) + "|" + rangeKey(item.SelectionRange)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

// navTreeFor fetches and caches the navtree for file within one calls()
// invocation; repeated references into the same file are common.
func (s *Server) navTreeFor(ctx context.Context, cache map[string]*tsp.NavTree, file string) (*tsp.NavTree, error) {
	if tree, ok := cache[file]; ok {
		return tree, nil
	}
	resp, err := s.ts.Request(ctx, tsp.CommandNavTree, tsp.FileRequestArgs{File: file})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		cache[file] = nil
		return nil, nil
	}
	var root tsp.NavTree
	if err := json.Unmarshal(resp.Body, &root); err != nil {
		cache[file] = nil
		return nil, nil
	}
	cache[file] = &root
	return &root, nil
}

// callHierarchyKinds are the navtree node kinds treated as a call
// hierarchy's function-like boundary.
var callHierarchyKinds = map[string]bool{
	"function":       true,
	"localFunction":  true,
	"method":         true,
	"constructor":    true,
	"getAccessor":    true,
	"setAccessor":    true,
	"function expr":  true,
	"arrow function": true,
}

const (
	preferNamed  = false
	requireNamed = true
)

// findEnclosing walks n looking for the deepest descendant whose span
// contains loc. When onlyFunctions is true, only function-like nodes (see
// callHierarchyKinds) are considered, falling back to nil if none match;
// otherwise the deepest containing node of any kind is returned.
func findEnclosing(n *tsp.NavTree, loc tsp.Location, onlyFunctions bool) *tsp.NavTree {
	if n == nil || !anySpanContains(n.Spans, loc) {
		return nil
	}
	for i := range n.ChildItems {
		if found := findEnclosing(&n.ChildItems[i], loc, onlyFunctions); found != nil {
			return found
		}
	}
	if !onlyFunctions || callHierarchyKinds[n.Kind] {
		return n
	}
	return nil
}

func anySpanContains(spans []tsp.TextSpan, loc tsp.Location) bool {
	for _, span := range spans {
		if spanContains(span, loc) {
			return true
		}
	}
	return false
}

func spanContains(span tsp.TextSpan, loc tsp.Location) bool {
	return !locationLess(loc, span.Start) && !locationLess(span.End, loc)
}

func locationLess(a, b tsp.Location) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Offset < b.Offset
}

func navTreeNodeToCallHierarchyItem(file string, n tsp.NavTree) rpc.CallHierarchyItem {
	rng := convert.AsRange(firstSpan(n))
	selRng := rng
	if n.NameSpan != nil {
		selRng = convert.AsRange(*n.NameSpan)
	}
	return rpc.CallHierarchyItem{
		Name:           n.Text,
		Kind:           convert.ToSymbolKind(n.Kind),
		URI:            convert.PathToURI(file),
		Range:          rng,
		SelectionRange: selRng,
	}
}

func firstSpan(n tsp.NavTree) tsp.TextSpan {
	if len(n.Spans) == 0 {
		return tsp.TextSpan{}
	}
	return n.Spans[0]
}

func rangeKey(r rpc.Range) string {
	b, _ := json.Marshal(r)
	return string(b)
}
