package lsp

import (
	"context"
	"fmt"
	"time"

	"tslsp/internal/convert"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

// didOpen mirrors the document and opens it in tsserver. Re-opening an
// already-open document (some clients resend didOpen on focus) is
// downgraded to a full-text change instead of rejected (spec §4.6 didOpen).
func (s *Server) didOpen(params rpc.DidOpenTextDocumentParams) error {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil
	}
	item := params.TextDocument

	if !s.docs.Open(path, item) {
		doc := s.docs.Get(path)
		oldEnd := doc.GetLineRange(doc.LineCount() - 1).End
		rng := rpc.Range{Start: rpc.Position{}, End: rpc.Position{Line: uint32(doc.LineCount() - 1), Character: oldEnd.Character}}
		doc.ApplyEdit(item.Version, rpc.TextDocumentContentChangeEvent{Range: &rng, Text: item.Text})
		if err := s.ts.Notify(tsp.CommandChange, tsp.ChangeRequestArgs{
			FileRangeRequestArgs: convert.ToFileRangeRequestArgs(path, rng),
			InsertString:         item.Text,
		}); err != nil {
			return fmt.Errorf("didOpen: reopen change: %w", err)
		}
		s.scheduleDiagnostics(path)
		return nil
	}

	if err := s.ts.Notify(tsp.CommandOpen, tsp.OpenRequestArgs{
		File:            path,
		FileContent:     item.Text,
		ScriptKindName:  convert.ScriptKindName(item.LanguageID),
		ProjectRootPath: s.rootPath,
	}); err != nil {
		return fmt.Errorf("didOpen: %w", err)
	}
	s.scheduleDiagnostics(path)
	return nil
}

func (s *Server) didChange(params rpc.DidChangeTextDocumentParams) error {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return nil
	}
	doc := s.docs.Get(path)
	if doc == nil {
		return fmt.Errorf("didChange: %s is not open", path)
	}

	version := doc.Version
	if params.TextDocument.Version != nil {
		version = *params.TextDocument.Version
	}

	for _, change := range params.ContentChanges {
		var reqArgs tsp.FileRangeRequestArgs
		if change.Range != nil {
			reqArgs = convert.ToFileRangeRequestArgs(path, *change.Range)
		} else {
			end := doc.PositionAt(len(doc.Text()))
			reqArgs = convert.ToFileRangeRequestArgs(path, rpc.Range{Start: rpc.Position{}, End: end})
		}
		doc.ApplyEdit(version, change)
		if err := s.ts.Notify(tsp.CommandChange, tsp.ChangeRequestArgs{
			FileRangeRequestArgs: reqArgs,
			InsertString:         change.Text,
		}); err != nil {
			return fmt.Errorf("didChange: %w", err)
		}
	}
	s.scheduleDiagnostics(path)
	return nil
}

func (s *Server) didClose(params rpc.DidCloseTextDocumentParams) {
	path, ok := convert.UriToPath(params.TextDocument.URI)
	if !ok {
		return
	}
	s.docs.Close(path)
	if err := s.ts.Notify(tsp.CommandClose, tsp.CloseRequestArgs{File: path}); err != nil {
		s.logger.WithError(err).Warn("didClose: tsserver notify failed")
	}
	diags := s.diags.Close(path)
	s.publishDiagnostics(params.TextDocument.URI, diags)

	s.diagMu.Lock()
	delete(s.diagFiles, path)
	s.diagMu.Unlock()
}

// scheduleDiagnostics marks files as needing a diagnostics refresh and
// (re)starts the debounce timer (spec §5: 200ms after the last
// document-changing event).
func (s *Server) scheduleDiagnostics(files ...string) {
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	for _, f := range files {
		s.diagFiles[f] = struct{}{}
	}
	if s.diagTimer != nil {
		s.diagTimer.Stop()
	}
	s.diagTimer = time.AfterFunc(diagnosticsDebounce, s.runDiagnostics)
}

func (s *Server) runDiagnostics() {
	s.diagMu.Lock()
	if len(s.diagFiles) == 0 {
		s.diagMu.Unlock()
		return
	}
	files := make([]string, 0, len(s.diagFiles))
	for f := range s.diagFiles {
		files = append(files, f)
	}
	s.diagFiles = make(map[string]struct{})
	s.lastDiagFiles = files
	// At most one geterr may be outstanding at a time (spec P5): cancel
	// whichever one is still in flight before starting this one.
	if s.diagCancel != nil {
		s.diagCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.diagCancel = cancel
	s.diagGen++
	gen := s.diagGen
	s.diagMu.Unlock()

	defer func() {
		s.diagMu.Lock()
		if s.diagGen == gen {
			s.diagCancel = nil
		}
		s.diagMu.Unlock()
	}()

	if s.ts == nil {
		return
	}
	if _, err := s.ts.Request(ctx, tsp.CommandGeterr, tsp.GeterrRequestArgs{Files: files, Delay: 0}); err != nil && ctx.Err() == nil {
		s.logger.WithError(err).Warn("lsp: geterr failed")
	}
}

// interruptDiagnostics implements spec §5's "reads interrupt diagnostics"
// rule: cancel any in-flight geterr, run fn, then reschedule diagnostics
// for whichever files were in flight or pending.
func (s *Server) interruptDiagnostics(fn func()) {
	s.diagMu.Lock()
	if s.diagTimer != nil {
		s.diagTimer.Stop()
	}
	cancel := s.diagCancel
	touched := make(map[string]struct{}, len(s.diagFiles))
	for f := range s.diagFiles {
		touched[f] = struct{}{}
	}
	if cancel != nil {
		for _, f := range s.lastDiagFiles {
			touched[f] = struct{}{}
		}
	}
	s.diagMu.Unlock()

	if cancel != nil {
		cancel()
	}

	fn()

	if len(touched) == 0 {
		return
	}
	files := make([]string, 0, len(touched))
	for f := range touched {
		files = append(files, f)
	}
	s.scheduleDiagnostics(files...)
}
