// Package lsp implements the dispatcher (spec component C7): the
// JSON-RPC/LSP-facing half of the bridge, sitting between an editor speaking
// the base protocol over stdio and a tsserver.Client.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tslsp/internal/command"
	"tslsp/internal/completion"
	"tslsp/internal/convert"
	"tslsp/internal/diagnostics"
	"tslsp/internal/document"
	"tslsp/internal/rpc"
	"tslsp/internal/tsp"
	"tslsp/internal/tsserver"
	"tslsp/internal/version"
)

// diagnosticsDebounce is how long the dispatcher waits after the last
// document-changing event before issuing geterr (spec §5).
const diagnosticsDebounce = 200 * time.Millisecond

// Config configures a Server.
type Config struct {
	In  io.Reader
	Out io.Writer

	Logger *logrus.Logger

	TSServerConfig    tsserver.Config
	CompletionOptions completion.Options
}

// Server is the stateful dispatcher that owns one editor connection, one
// tsserver.Client, the open document mirror and the diagnostic queue.
type Server struct {
	cfg    Config
	logger *logrus.Entry
	writer *rpc.Writer

	writeMu sync.Mutex

	ts    *tsserver.Client
	docs  *document.OpenDocumentSet
	diags *diagnostics.Queue
	cmds  *command.Handler

	rootPath            string
	hierarchicalSymbols bool
	completionOpts      completion.Options

	outMu      sync.Mutex
	outSeq     int64
	outPending map[string]chan clientResult

	diagMu        sync.Mutex
	diagFiles     map[string]struct{}
	diagTimer     *time.Timer
	diagCancel    context.CancelFunc
	diagGen       int64
	lastDiagFiles []string

	shuttingDown  bool
	exitRequested bool
}

// New creates a Server. The tsserver child process is not spawned until the
// client sends initialize.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		cfg:            cfg,
		logger:         logger.WithField("component", "lsp"),
		writer:         rpc.NewWriter(cfg.Out),
		docs:           document.NewOpenDocumentSet(),
		diags:          diagnostics.New(),
		diagFiles:      make(map[string]struct{}),
		outPending:     make(map[string]chan clientResult),
		completionOpts: cfg.CompletionOptions,
	}
	s.cmds = command.New(tsServerAdapter{s: s}, clientProxy{s: s})
	return s
}

// Serve reads base-protocol messages from cfg.In until the stream ends or
// the client sends exit.
func (s *Server) Serve(ctx context.Context) error {
	scanner := rpc.NewScanner(s.cfg.In)
	for !s.exitRequested && scanner.Scan() {
		var msg rpc.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.logger.WithError(err).Warn("lsp: malformed message")
			continue
		}
		switch {
		case msg.IsResponse():
			s.resolveClientResponse(&msg)
		case msg.IsRequest():
			s.handleRequest(ctx, &msg)
		case msg.IsNotification():
			s.handleNotification(ctx, &msg)
		}
	}
	return scanner.Err()
}

func decodeParams[T any](msg *rpc.Message) (T, error) {
	var v T
	if msg.Params == nil {
		return v, nil
	}
	if err := json.Unmarshal(*msg.Params, &v); err != nil {
		return v, fmt.Errorf("decode params for %s: %w", msg.Method, err)
	}
	return v, nil
}

func (s *Server) handleRequest(ctx context.Context, msg *rpc.Message) {
	result, rpcErr := s.dispatchRequest(ctx, msg)
	resp := rpc.Message{ID: msg.ID}
	if rpcErr != nil {
		if rErr, ok := rpcErr.(*rpc.Error); ok {
			resp.Error = rErr
		} else {
			resp.Error = &rpc.Error{Code: rpc.InternalError, Message: rpcErr.Error()}
		}
	} else {
		raw, err := json.Marshal(result)
		if err != nil {
			resp.Error = &rpc.Error{Code: rpc.InternalError, Message: err.Error()}
		} else {
			rm := json.RawMessage(raw)
			resp.Result = &rm
		}
	}
	if err := s.writeMessage(resp); err != nil {
		s.logger.WithError(err).Error("lsp: write response failed")
	}
}

func (s *Server) dispatchRequest(ctx context.Context, msg *rpc.Message) (any, error) {
	if s.ts == nil && msg.Method != rpc.MethodInitialize && msg.Method != rpc.MethodShutdown {
		return nil, &rpc.Error{Code: rpc.ServerNotInitialized, Message: "server not initialized"}
	}

	switch msg.Method {
	case rpc.MethodInitialize:
		params, err := decodeParams[rpc.InitializeParams](msg)
		if err != nil {
			return nil, err
		}
		return s.initialize(ctx, params)
	case rpc.MethodShutdown:
		return s.shutdown()
	case rpc.MethodCompletion:
		params, err := decodeParams[rpc.CompletionParams](msg)
		if err != nil {
			return nil, err
		}
		return s.completion(ctx, params)
	case rpc.MethodCompletionResolve:
		params, err := decodeParams[rpc.CompletionItem](msg)
		if err != nil {
			return nil, err
		}
		return s.completionResolve(ctx, params)
	case rpc.MethodHover:
		params, err := decodeParams[rpc.HoverParams](msg)
		if err != nil {
			return nil, err
		}
		return s.hover(ctx, params)
	case rpc.MethodDefinition:
		params, err := decodeParams[rpc.DefinitionParams](msg)
		if err != nil {
			return nil, err
		}
		return s.definitionLike(ctx, tsp.CommandDefinition, params)
	case rpc.MethodImplementation:
		params, err := decodeParams[rpc.DefinitionParams](msg)
		if err != nil {
			return nil, err
		}
		return s.definitionLike(ctx, tsp.CommandImplementation, params)
	case rpc.MethodTypeDefinition:
		params, err := decodeParams[rpc.DefinitionParams](msg)
		if err != nil {
			return nil, err
		}
		return s.definitionLike(ctx, tsp.CommandTypeDefinition, params)
	case rpc.MethodReferences:
		params, err := decodeParams[rpc.ReferenceParams](msg)
		if err != nil {
			return nil, err
		}
		return s.references(ctx, params)
	case rpc.MethodDocumentHighlight:
		params, err := decodeParams[rpc.DocumentHighlightParams](msg)
		if err != nil {
			return nil, err
		}
		return s.documentHighlight(ctx, params)
	case rpc.MethodDocumentSymbol:
		params, err := decodeParams[rpc.DocumentSymbolParams](msg)
		if err != nil {
			return nil, err
		}
		return s.documentSymbol(ctx, params)
	case rpc.MethodFormatting:
		params, err := decodeParams[rpc.DocumentFormattingParams](msg)
		if err != nil {
			return nil, err
		}
		return s.documentFormatting(ctx, params)
	case rpc.MethodSignatureHelp:
		params, err := decodeParams[rpc.SignatureHelpParams](msg)
		if err != nil {
			return nil, err
		}
		return s.signatureHelp(ctx, params)
	case rpc.MethodCodeAction:
		params, err := decodeParams[rpc.CodeActionParams](msg)
		if err != nil {
			return nil, err
		}
		return s.codeAction(ctx, params)
	case rpc.MethodFoldingRange:
		params, err := decodeParams[rpc.FoldingRangeParams](msg)
		if err != nil {
			return nil, err
		}
		return s.foldingRange(ctx, params)
	case rpc.MethodRename:
		params, err := decodeParams[rpc.RenameParams](msg)
		if err != nil {
			return nil, err
		}
		return s.rename(ctx, params)
	case rpc.MethodWorkspaceSymbol:
		params, err := decodeParams[rpc.WorkspaceSymbolParams](msg)
		if err != nil {
			return nil, err
		}
		return s.workspaceSymbol(ctx, params)
	case rpc.MethodWorkspaceExecuteCmd:
		params, err := decodeParams[rpc.ExecuteCommandParams](msg)
		if err != nil {
			return nil, err
		}
		return s.executeCommand(ctx, params)
	case rpc.MethodCalls:
		params, err := decodeParams[rpc.CallsParams](msg)
		if err != nil {
			return nil, err
		}
		return s.calls(ctx, params)
	default:
		return nil, &rpc.Error{Code: rpc.MethodNotFound, Message: fmt.Sprintf("unhandled method %q", msg.Method)}
	}
}

func (s *Server) handleNotification(ctx context.Context, msg *rpc.Message) {
	if s.ts == nil && msg.Method != rpc.MethodInitialized && msg.Method != rpc.MethodExit {
		s.logger.WithField("method", msg.Method).Debug("lsp: notification before initialize, dropped")
		return
	}

	switch msg.Method {
	case rpc.MethodInitialized:
	case rpc.MethodDidOpen:
		params, err := decodeParams[rpc.DidOpenTextDocumentParams](msg)
		if err != nil {
			s.logger.WithError(err).Warn("lsp: didOpen")
			return
		}
		if err := s.didOpen(params); err != nil {
			s.logger.WithError(err).Warn("lsp: didOpen")
		}
	case rpc.MethodDidChange:
		params, err := decodeParams[rpc.DidChangeTextDocumentParams](msg)
		if err != nil {
			s.logger.WithError(err).Warn("lsp: didChange")
			return
		}
		if err := s.didChange(params); err != nil {
			s.logger.WithError(err).Warn("lsp: didChange")
		}
	case rpc.MethodDidClose:
		params, err := decodeParams[rpc.DidCloseTextDocumentParams](msg)
		if err != nil {
			s.logger.WithError(err).Warn("lsp: didClose")
			return
		}
		s.didClose(params)
	case rpc.MethodDidSave:
	case rpc.MethodExit:
		s.exit()
	default:
		s.logger.WithField("method", msg.Method).Debug("lsp: unhandled notification")
	}
}

// initialize spawns tsserver, sends its startup configuration and returns
// the capability set this bridge supports (spec §4.6 "initialize").
func (s *Server) initialize(ctx context.Context, params rpc.InitializeParams) (*rpc.InitializeResult, error) {
	switch {
	case params.RootURI != nil:
		if p, ok := convert.UriToPath(*params.RootURI); ok {
			s.rootPath = p
		}
	case params.RootPath != nil:
		s.rootPath = *params.RootPath
	}

	if td := params.Capabilities.TextDocument; td != nil && td.DocumentSymbol != nil {
		s.hierarchicalSymbols = td.DocumentSymbol.HierarchicalDocumentSymbolSupport
	}

	cancelPrefix, err := s.newCancellationPipePrefix()
	if err != nil {
		return nil, fmt.Errorf("initialize: cancellation pipe dir: %w", err)
	}

	tsCfg := s.cfg.TSServerConfig
	tsCfg.CancellationPipeName = cancelPrefix
	if tsCfg.LogFile == "" {
		tsCfg.LogFile = s.resolveLogFile()
	}

	ts, err := tsserver.New(tsCfg, s.logger, s.onTSServerEvent)
	if err != nil {
		return nil, fmt.Errorf("initialize: spawn tsserver: %w", err)
	}
	s.ts = ts

	if err := s.ts.Notify(tsp.CommandConfigure, tsp.ConfigureRequestArguments{
		HostInfo: "tslsp",
		Preferences: &tsp.UserPreferences{
			ProvideRefactorNotApplicableReason: true,
			AllowRenameOfImportPath:            true,
		},
	}); err != nil {
		s.logger.WithError(err).Warn("initialize: configure failed")
	}

	if err := s.ts.Notify(tsp.CommandCompilerOptionsForInferredProjects, tsp.CompilerOptionsForInferredProjectsArgs{
		Options: tsp.CompilerOptions{
			Module:                       "commonjs",
			Target:                       "es2016",
			Jsx:                          "preserve",
			AllowJs:                      true,
			AllowSyntheticDefaultImports: true,
			AllowNonTsExtensions:         true,
			ResolveJsonModule:            true,
			SourceMap:                    true,
			StrictNullChecks:             true,
		},
	}); err != nil {
		s.logger.WithError(err).Warn("initialize: compilerOptionsForInferredProjects failed")
	}

	return &rpc.InitializeResult{
		ServerInfo: &rpc.ServerInfo{Name: "tslsp", Version: version.Version()},
		Capabilities: rpc.ServerCapabilities{
			TextDocumentSync:           rpc.SyncIncremental,
			CompletionProvider:         &rpc.CompletionOptions{ResolveProvider: true, TriggerCharacters: []string{".", "\"", "'", "/", "@", "<"}},
			SignatureHelpProvider:      &rpc.SignatureHelpOptions{TriggerCharacters: []string{"(", ",", "<"}},
			DefinitionProvider:         true,
			ImplementationProvider:     true,
			TypeDefinitionProvider:     true,
			ReferencesProvider:         true,
			HoverProvider:              true,
			RenameProvider:             true,
			DocumentHighlightProvider:  true,
			DocumentSymbolProvider:     true,
			WorkspaceSymbolProvider:    true,
			DocumentFormattingProvider: true,
			CodeActionProvider:         true,
			FoldingRangeProvider:       true,
			ExecuteCommandProvider:     &rpc.ExecuteCommandOptions{Commands: command.Names},
		},
	}, nil
}

func (s *Server) shutdown() (any, error) {
	s.shuttingDown = true
	return nil, nil
}

func (s *Server) exit() {
	if s.ts != nil {
		_ = s.ts.Close()
	}
	s.exitRequested = true
}

// newCancellationPipePrefix allocates a unique directory for this session's
// cancellation pipe files, named with a uuid to avoid colliding with any
// concurrently running bridge instance.
func (s *Server) newCancellationPipePrefix() (string, error) {
	dir := filepath.Join(os.TempDir(), "tslsp-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "cancel-"), nil
}

// resolveLogFile picks a tsserver log destination when none was configured
// on the command line: under the workspace root if we have one, otherwise a
// uniquely named file in the system temp directory.
func (s *Server) resolveLogFile() string {
	if s.rootPath != "" {
		dir := filepath.Join(s.rootPath, ".log")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, "tsserver.log")
		}
	}
	return filepath.Join(os.TempDir(), "tsserver-"+uuid.NewString()+".log")
}

func (s *Server) onTSServerEvent(evt *tsp.Event) {
	kind, ok := diagnostics.KindFromEvent(evt.Event)
	if !ok {
		s.logger.WithField("event", evt.Event).Debug("tsserver: unhandled event")
		return
	}
	var body tsp.DiagEventBody
	if err := json.Unmarshal(evt.Body, &body); err != nil {
		s.logger.WithError(err).Warn("tsserver: malformed diagnostic event")
		return
	}
	merged := s.diags.Update(body.File, kind, body.Diagnostics)
	s.publishDiagnostics(convert.PathToURI(body.File), merged)
}

func (s *Server) publishDiagnostics(uri rpc.DocumentURI, diags []rpc.Diagnostic) {
	if diags == nil {
		diags = []rpc.Diagnostic{}
	}
	if err := s.notifyClient(rpc.MethodPublishDiagnostics, rpc.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}); err != nil {
		s.logger.WithError(err).Warn("lsp: publishDiagnostics write failed")
	}
}

func (s *Server) writeMessage(msg rpc.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.Write(data)
}
