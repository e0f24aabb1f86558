// Package command implements the workspace/executeCommand handlers (spec
// component C8): the six `_typescript.*` commands the dispatcher advertises
// at initialize time.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"tslsp/internal/convert"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
)

const (
	ApplyWorkspaceEdit        = "_typescript.applyWorkspaceEdit"
	ApplyCodeAction           = "_typescript.applyCodeAction"
	ApplyRefactoring          = "_typescript.applyRefactoring"
	OrganizeImports           = "_typescript.organizeImports"
	ApplyRenameFile           = "_typescript.applyRenameFile"
	ApplyCompletionCodeAction = "_typescript.applyCompletionCodeAction"
)

// Names lists every command the dispatcher registers at initialize time.
var Names = []string{
	ApplyWorkspaceEdit,
	ApplyCodeAction,
	ApplyRefactoring,
	OrganizeImports,
	ApplyRenameFile,
	ApplyCompletionCodeAction,
}

// TSServer is the subset of [tslsp/internal/tsserver.Client] the command
// handlers need to issue follow-up requests.
type TSServer interface {
	Request(ctx context.Context, command string, args any) (*tsp.Response, error)
}

// Client is the subset of the LSP client proxy the command handlers call
// back into: applying edits client-side and triggering a rename UI.
type Client interface {
	ApplyWorkspaceEdit(ctx context.Context, edit rpc.WorkspaceEdit) error
	TriggerRename(ctx context.Context, uri rpc.DocumentURI, pos rpc.Position) error
}

// Handler dispatches executeCommand requests to the six `_typescript.*`
// commands.
type Handler struct {
	ts     TSServer
	client Client
}

// New creates a Handler.
func New(ts TSServer, client Client) *Handler {
	return &Handler{ts: ts, client: client}
}

// Execute runs the named command with its LSP-supplied arguments. An
// unrecognized command name is reported as an error, per spec §7
// ("mutating commands ... surface errors to the LSP client").
func (h *Handler) Execute(ctx context.Context, name string, args []any) (any, error) {
	switch name {
	case ApplyWorkspaceEdit:
		return nil, h.applyWorkspaceEdit(ctx, args)
	case ApplyCodeAction:
		return nil, h.applyCodeAction(ctx, args)
	case ApplyCompletionCodeAction:
		return nil, h.applyCompletionCodeAction(ctx, args)
	case ApplyRefactoring:
		return nil, h.applyRefactoring(ctx, args)
	case OrganizeImports:
		return nil, h.organizeImports(ctx, args)
	case ApplyRenameFile:
		return nil, h.applyRenameFile(ctx, args)
	default:
		return nil, fmt.Errorf("command: unknown command %q", name)
	}
}

func (h *Handler) applyWorkspaceEdit(ctx context.Context, args []any) error {
	var edit rpc.WorkspaceEdit
	if err := decodeArg(args, 0, &edit); err != nil {
		return fmt.Errorf("%s: %w", ApplyWorkspaceEdit, err)
	}
	return h.client.ApplyWorkspaceEdit(ctx, edit)
}

func (h *Handler) applyCodeAction(ctx context.Context, args []any) error {
	var file string
	if err := decodeArg(args, 0, &file); err != nil {
		return fmt.Errorf("%s: %w", ApplyCodeAction, err)
	}
	var action tsp.CodeActionTS
	if err := decodeArg(args, 1, &action); err != nil {
		return fmt.Errorf("%s: %w", ApplyCodeAction, err)
	}
	return h.runCodeAction(ctx, ApplyCodeAction, file, action)
}

// applyCompletionCodeAction runs the commands/out-of-file edits a completion
// resolve deferred (spec §4.5 "Resolve item": "a remaining-commands item
// becomes a single trailing command _typescript.applyCompletionCodeAction
// with arguments [file, remainingActions]").
func (h *Handler) applyCompletionCodeAction(ctx context.Context, args []any) error {
	var file string
	if err := decodeArg(args, 0, &file); err != nil {
		return fmt.Errorf("%s: %w", ApplyCompletionCodeAction, err)
	}
	var actions []tsp.CodeActionTS
	if err := decodeArg(args, 1, &actions); err != nil {
		return fmt.Errorf("%s: %w", ApplyCompletionCodeAction, err)
	}
	for _, action := range actions {
		if err := h.runCodeAction(ctx, ApplyCompletionCodeAction, file, action); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) runCodeAction(ctx context.Context, op, file string, action tsp.CodeActionTS) error {
	edit := changesToWorkspaceEdit(action.Changes)
	if len(edit.Changes) > 0 {
		if err := h.client.ApplyWorkspaceEdit(ctx, edit); err != nil {
			return fmt.Errorf("%s: apply edit: %w", op, err)
		}
	}
	for _, cmd := range action.Commands {
		args := tsp.ApplyCodeActionCommandRequestArgs{File: file, Command: cmd}
		if _, err := h.ts.Request(ctx, tsp.CommandApplyCodeActionCommand, args); err != nil {
			return fmt.Errorf("%s: applyCodeActionCommand: %w", op, err)
		}
	}
	return nil
}

func (h *Handler) applyRefactoring(ctx context.Context, args []any) error {
	var reqArgs tsp.GetEditsForRefactorRequestArgs
	if err := decodeArg(args, 0, &reqArgs); err != nil {
		return fmt.Errorf("%s: %w", ApplyRefactoring, err)
	}

	resp, err := h.ts.Request(ctx, tsp.CommandGetEditsForRefactor, reqArgs)
	if err != nil {
		return fmt.Errorf("%s: getEditsForRefactor: %w", ApplyRefactoring, err)
	}
	var body tsp.RefactorEditInfo
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return fmt.Errorf("%s: decode response: %w", ApplyRefactoring, err)
	}

	if err := ensureFilesExist(body.Edits); err != nil {
		return fmt.Errorf("%s: %w", ApplyRefactoring, err)
	}

	edit := changesToWorkspaceEdit(body.Edits)
	if err := h.client.ApplyWorkspaceEdit(ctx, edit); err != nil {
		return fmt.Errorf("%s: apply edit: %w", ApplyRefactoring, err)
	}

	if body.RenameLocation != nil {
		file := reqArgs.File
		if body.RenameFilename != nil {
			file = *body.RenameFilename
		}
		pos := convert.ToPosition(*body.RenameLocation)
		if err := h.client.TriggerRename(ctx, convert.PathToURI(file), pos); err != nil {
			return fmt.Errorf("%s: trigger rename: %w", ApplyRefactoring, err)
		}
	}
	return nil
}

func (h *Handler) organizeImports(ctx context.Context, args []any) error {
	var file string
	if err := decodeArg(args, 0, &file); err != nil {
		return fmt.Errorf("%s: %w", OrganizeImports, err)
	}

	reqArgs := tsp.OrganizeImportsRequestArgs{
		Scope: tsp.OrganizeImportsScope{
			Type: "file",
			Args: tsp.FileRequestArgs{File: file},
		},
	}
	resp, err := h.ts.Request(ctx, tsp.CommandOrganizeImports, reqArgs)
	if err != nil {
		return fmt.Errorf("%s: %w", OrganizeImports, err)
	}
	var edits []tsp.FileCodeEdits
	if err := json.Unmarshal(resp.Body, &edits); err != nil {
		return fmt.Errorf("%s: decode response: %w", OrganizeImports, err)
	}
	return h.client.ApplyWorkspaceEdit(ctx, changesToWorkspaceEdit(edits))
}

func (h *Handler) applyRenameFile(ctx context.Context, args []any) error {
	var names struct {
		OldPath string `json:"oldPath"`
		NewPath string `json:"newPath"`
	}
	if err := decodeArg(args, 0, &names); err != nil {
		return fmt.Errorf("%s: %w", ApplyRenameFile, err)
	}

	reqArgs := tsp.GetEditsForFileRenameRequestArgs{OldFilePath: names.OldPath, NewFilePath: names.NewPath}
	resp, err := h.ts.Request(ctx, tsp.CommandGetEditsForFileRename, reqArgs)
	if err != nil {
		return fmt.Errorf("%s: %w", ApplyRenameFile, err)
	}
	var edits []tsp.FileCodeEdits
	if err := json.Unmarshal(resp.Body, &edits); err != nil {
		return fmt.Errorf("%s: decode response: %w", ApplyRenameFile, err)
	}
	return h.client.ApplyWorkspaceEdit(ctx, changesToWorkspaceEdit(edits))
}

func changesToWorkspaceEdit(changes []tsp.FileCodeEdits) rpc.WorkspaceEdit {
	edit := rpc.WorkspaceEdit{Changes: make(map[rpc.DocumentURI][]rpc.TextEdit)}
	for _, ch := range changes {
		uri := convert.PathToURI(ch.FileName)
		edits := make([]rpc.TextEdit, len(ch.TextChanges))
		for i, e := range ch.TextChanges {
			edits[i] = convert.ToTextEdit(e)
		}
		edit.Changes[uri] = append(edit.Changes[uri], edits...)
	}
	return edit
}

// ensureFilesExist creates empty files for any edit target that does not
// yet exist on disk, so the client's apply-edit can target them (spec
// §4.7: "ensures every target file exists on disk").
func ensureFilesExist(edits []tsp.FileCodeEdits) error {
	for _, e := range edits {
		if _, err := os.Stat(e.FileName); os.IsNotExist(err) {
			f, err := os.Create(e.FileName)
			if err != nil {
				return fmt.Errorf("create %s: %w", e.FileName, err)
			}
			_ = f.Close()
		}
	}
	return nil
}

// decodeArg round-trips args[i] through JSON into out. Command arguments
// arrive already decoded as generic any values (maps, slices, scalars);
// this normalizes them back into the typed shape the handler expects.
func decodeArg(args []any, i int, out any) error {
	if i >= len(args) {
		return fmt.Errorf("missing argument %d", i)
	}
	raw, err := json.Marshal(args[i])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
