package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

type clientResult struct {
	result json.RawMessage
	err    *rpc.Error
}

// tsServerAdapter forwards command.Handler's requests to the Server's
// tsserver.Client, which is not spawned until initialize.
type tsServerAdapter struct{ s *Server }

func (a tsServerAdapter) Request(ctx context.Context, command string, args any) (*tsp.Response, error) {
	if a.s.ts == nil {
		return nil, errors.New("lsp: tsserver not initialized")
	}
	return a.s.ts.Request(ctx, command, args)
}

// clientProxy implements command.Client by issuing server-to-client
// requests and notifications over the same connection the dispatcher reads
// requests from.
type clientProxy struct{ s *Server }

func (c clientProxy) ApplyWorkspaceEdit(ctx context.Context, edit rpc.WorkspaceEdit) error {
	raw, err := c.s.sendClientRequest(ctx, rpc.MethodWorkspaceApplyEdit, rpc.ApplyWorkspaceEditParams{Edit: edit})
	if err != nil {
		return fmt.Errorf("applyWorkspaceEdit: %w", err)
	}
	var result rpc.ApplyWorkspaceEditResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("applyWorkspaceEdit: decode result: %w", err)
	}
	if !result.Applied {
		return fmt.Errorf("applyWorkspaceEdit: client declined: %s", result.FailureReason)
	}
	return nil
}

// TriggerRename asks the client to start a rename UI session at pos. LSP
// has no standard server-to-client "start rename" request, so this is sent
// as a bridge-specific notification the client extension is expected to
// understand (spec §4.7 "Refactor-to-rename follow-up").
func (c clientProxy) TriggerRename(_ context.Context, uri rpc.DocumentURI, pos rpc.Position) error {
	return c.s.notifyClient("_typescript.triggerRename", map[string]any{"uri": uri, "position": pos})
}

func (s *Server) nextOutID() *rpc.ID {
	return rpc.NewIntID(atomic.AddInt64(&s.outSeq, 1))
}

func (s *Server) sendClientRequest(ctx context.Context, method string, params any) (json.RawMessage, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	rm := json.RawMessage(raw)
	id := s.nextOutID()
	key := id.String()
	ch := make(chan clientResult, 1)

	s.outMu.Lock()
	s.outPending[key] = ch
	s.outMu.Unlock()

	if err := s.writeMessage(rpc.Message{ID: id, Method: method, Params: &rm}); err != nil {
		s.outMu.Lock()
		delete(s.outPending, key)
		s.outMu.Unlock()
		return nil, err
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.result, nil
	case <-ctx.Done():
		s.outMu.Lock()
		delete(s.outPending, key)
		s.outMu.Unlock()
		return nil, ctx.Err()
	}
}

func (s *Server) notifyClient(method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	rm := json.RawMessage(raw)
	return s.writeMessage(rpc.Message{Method: method, Params: &rm})
}

func (s *Server) resolveClientResponse(msg *rpc.Message) {
	if msg.ID == nil {
		return
	}
	key := msg.ID.String()

	s.outMu.Lock()
	ch, ok := s.outPending[key]
	if ok {
		delete(s.outPending, key)
	}
	s.outMu.Unlock()
	if !ok {
		return
	}

	var res clientResult
	switch {
	case msg.Error != nil:
		res.err = msg.Error
	case msg.Result != nil:
		res.result = *msg.Result
	}
	ch <- res
}
