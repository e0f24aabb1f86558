package lsp

import (
	"context"
	"encoding/json"
	"strconv"

	"tslsp/internal/command"
	"tslsp/internal/convert"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

// codeAction combines three tsserver sources into one LSP response: quick
// fixes for the diagnostics in range, applicable refactors, and a single
// "Organize Imports" action (spec §4.7 "codeAction").
func (s *Server) codeAction(ctx context.Context, params rpc.CodeActionParams) ([]rpc.CodeAction, error) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	var actions []rpc.CodeAction

	if codes := errorCodesFor(params.Context.Diagnostics); len(codes) > 0 {
		fixes, err := s.getCodeFixes(ctx, path, params.Range, codes)
		if err != nil {
			s.logger.WithError(err).Warn("lsp: getCodeFixes failed")
		} else {
			actions = append(actions, fixes...)
		}
	}

	refactors, err := s.getApplicableRefactors(ctx, path, params.Range)
	if err != nil {
		s.logger.WithError(err).Warn("lsp: getApplicableRefactors failed")
	} else {
		actions = append(actions, refactors...)
	}

	actions = append(actions, rpc.CodeAction{
		Title: "Organize Imports",
		Kind:  "source.organizeImports",
		Command: &rpc.Command{
			Title:     "Organize Imports",
			Command:   command.OrganizeImports,
			Arguments: []any{path},
		},
	})

	return actions, nil
}

func errorCodesFor(diags []rpc.Diagnostic) []int {
	var codes []int
	for _, d := range diags {
		if d.Code == nil {
			continue
		}
		if n, err := strconv.Atoi(*d.Code); err == nil {
			codes = append(codes, n)
		}
	}
	return codes
}

func (s *Server) getCodeFixes(ctx context.Context, path string, r rpc.Range, codes []int) ([]rpc.CodeAction, error) {
	resp, err := s.ts.Request(ctx, tsp.CommandGetCodeFixes, tsp.CodeFixRequestArgs{
		FileRangeRequestArgs: convert.ToFileRangeRequestArgs(path, r),
		ErrorCodes:           codes,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, nil
	}
	var fixes []tsp.CodeActionTS
	if err := json.Unmarshal(resp.Body, &fixes); err != nil {
		return nil, err
	}
	actions := make([]rpc.CodeAction, len(fixes))
	for i, fix := range fixes {
		actions[i] = tsFixToCodeAction(path, fix, "quickfix")
	}
	return actions, nil
}

func (s *Server) getApplicableRefactors(ctx context.Context, path string, r rpc.Range) ([]rpc.CodeAction, error) {
	resp, err := s.ts.Request(ctx, tsp.CommandGetApplicableRefactors, tsp.RefactorRequestArgs{
		FileRangeRequestArgs: convert.ToFileRangeRequestArgs(path, r),
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, nil
	}
	var infos []tsp.ApplicableRefactorInfo
	if err := json.Unmarshal(resp.Body, &infos); err != nil {
		return nil, err
	}

	var actions []rpc.CodeAction
	for _, info := range infos {
		for _, action := range info.Actions {
			reqArgs := tsp.GetEditsForRefactorRequestArgs{
				FileRangeRequestArgs: convert.ToFileRangeRequestArgs(path, r),
				RefactorName:         info.Name,
				ActionName:           action.Name,
			}
			actions = append(actions, rpc.CodeAction{
				Title: action.Description,
				Kind:  "refactor",
				Command: &rpc.Command{
					Title:     action.Description,
					Command:   command.ApplyRefactoring,
					Arguments: []any{reqArgs},
				},
			})
		}
	}
	return actions, nil
}

// tsFixToCodeAction converts a tsserver code fix into an LSP CodeAction,
// applying edits that land in the current file directly and deferring the
// rest (plus any attached commands) to _typescript.applyCodeAction, since
// LSP code actions can only carry a single document edit plus command (spec
// §4.7 "codeAction" step 3).
func tsFixToCodeAction(path string, fix tsp.CodeActionTS, kind string) rpc.CodeAction {
	edit := rpc.WorkspaceEdit{Changes: make(map[rpc.DocumentURI][]rpc.TextEdit)}
	var deferred []tsp.FileCodeEdits
	for _, ch := range fix.Changes {
		if ch.FileName == path {
			uri := convert.PathToURI(ch.FileName)
			for _, e := range ch.TextChanges {
				edit.Changes[uri] = append(edit.Changes[uri], convert.ToTextEdit(e))
			}
		} else {
			deferred = append(deferred, ch)
		}
	}

	action := rpc.CodeAction{Title: fix.Description, Kind: kind}
	if len(edit.Changes) > 0 {
		action.Edit = &edit
	}
	if len(deferred) > 0 || len(fix.Commands) > 0 {
		remaining := tsp.CodeActionTS{Description: fix.Description, Changes: deferred, Commands: fix.Commands}
		action.Command = &rpc.Command{
			Title:     fix.Description,
			Command:   command.ApplyCodeAction,
			Arguments: []any{path, remaining},
		}
	}
	return action
}
