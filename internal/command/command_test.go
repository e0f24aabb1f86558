package command

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"

	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

type fakeTSServer struct {
	requests []fakeRequest
	response *tsp.Response
	err      error
}

type fakeRequest struct {
	command string
	args    any
}

func (f *fakeTSServer) Request(_ context.Context, command string, args any) (*tsp.Response, error) {
	f.requests = append(f.requests, fakeRequest{command: command, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeClient struct {
	edits   []rpc.WorkspaceEdit
	renamed *rpc.Position
}

func (f *fakeClient) ApplyWorkspaceEdit(_ context.Context, edit rpc.WorkspaceEdit) error {
	f.edits = append(f.edits, edit)
	return nil
}

func (f *fakeClient) TriggerRename(_ context.Context, uri rpc.DocumentURI, pos rpc.Position) error {
	f.renamed = &pos
	return nil
}

func responseBody(t *testing.T, v any) *tsp.Response {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &tsp.Response{Success: true, Body: raw}
}

func TestApplyWorkspaceEdit(t *testing.T) {
	ts := &fakeTSServer{}
	cl := &fakeClient{}
	h := New(ts, cl)

	edit := rpc.WorkspaceEdit{Changes: map[rpc.DocumentURI][]rpc.TextEdit{
		"file:///a.ts": {{NewText: "x"}},
	}}
	var arg any
	raw, err := json.Marshal(edit)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &arg))

	_, err = h.Execute(context.Background(), ApplyWorkspaceEdit, []any{arg})
	require.NoError(t, err)
	require.Equal(t, len(cl.edits), 1)
}

func TestOrganizeImportsAppliesReturnedEdits(t *testing.T) {
	ts := &fakeTSServer{response: responseBody(t, []tsp.FileCodeEdits{
		{FileName: "/a.ts", TextChanges: []tsp.CodeEdit{{NewText: "import x from 'x';\n"}}},
	})}
	cl := &fakeClient{}
	h := New(ts, cl)

	_, err := h.Execute(context.Background(), OrganizeImports, []any{"/a.ts"})
	require.NoError(t, err)
	require.Equal(t, len(ts.requests), 1)
	assert.Equal(t, ts.requests[0].command, tsp.CommandOrganizeImports)
	require.Equal(t, len(cl.edits), 1)
}

func TestApplyRefactoringTriggersRenameOnRenameLocation(t *testing.T) {
	loc := tsp.Location{Line: 2, Offset: 5}
	ts := &fakeTSServer{response: responseBody(t, tsp.RefactorEditInfo{
		Edits:          []tsp.FileCodeEdits{{FileName: "/a.ts", TextChanges: []tsp.CodeEdit{{NewText: "const x = 1;\n"}}}},
		RenameLocation: &loc,
	})}
	cl := &fakeClient{}
	h := New(ts, cl)

	args := tsp.GetEditsForRefactorRequestArgs{
		FileRangeRequestArgs: tsp.FileRangeRequestArgs{File: "/a.ts"},
		RefactorName:         "Extract Symbol",
		ActionName:           "Extract constant",
	}
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	var arg any
	require.NoError(t, json.Unmarshal(raw, &arg))

	_, err = h.Execute(context.Background(), ApplyRefactoring, []any{arg})
	require.NoError(t, err)
	require.Equal(t, len(cl.edits), 1)
	require.True(t, cl.renamed != nil)
	assert.Equal(t, cl.renamed.Line, uint32(1))
}

func TestApplyCompletionCodeActionRunsAttachedCommands(t *testing.T) {
	ts := &fakeTSServer{response: &tsp.Response{Success: true}}
	cl := &fakeClient{}
	h := New(ts, cl)

	actions := []tsp.CodeActionTS{
		{
			Description: "Add import",
			Changes:     []tsp.FileCodeEdits{{FileName: "/b.ts", TextChanges: []tsp.CodeEdit{{NewText: "x"}}}},
			Commands:    []any{map[string]any{"type": "install", "file": "/b.ts"}},
		},
	}

	_, err := h.Execute(context.Background(), ApplyCompletionCodeAction, []any{"/a.ts", actions})
	require.NoError(t, err)
	require.Equal(t, len(cl.edits), 1)
	require.Equal(t, len(ts.requests), 1)
	assert.Equal(t, ts.requests[0].command, tsp.CommandApplyCodeActionCommand)
}

func TestExecuteUnknownCommand(t *testing.T) {
	h := New(&fakeTSServer{}, &fakeClient{})
	_, err := h.Execute(context.Background(), "_typescript.doesNotExist", nil)
	require.True(t, err != nil)
}
