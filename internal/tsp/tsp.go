// Package tsp implements the JSON-over-stdio wire protocol spoken by the
// TypeScript language service subprocess ("tsserver").
//
// https://github.com/microsoft/TypeScript/wiki/Standalone-Server-(tsserver)
package tsp

import "encoding/json"

// MessageType discriminates the three tsserver message shapes.
type MessageType string

const (
	TypeRequest  MessageType = "request"
	TypeResponse MessageType = "response"
	TypeEvent    MessageType = "event"
)

// Request is an outbound message sent to tsserver on stdin, one per line.
type Request struct {
	Seq     int64       `json:"seq"`
	Type    MessageType `json:"type"`
	Command string      `json:"command"`
	Arguments any        `json:"arguments,omitempty"`
}

// Response is an inbound message read from tsserver's stdout.
type Response struct {
	Seq         int64           `json:"seq"`
	Type        MessageType     `json:"type"`
	RequestSeq  int64           `json:"request_seq"`
	Success     bool            `json:"success"`
	Command     string          `json:"command"`
	Message     string          `json:"message,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// Event is an unsolicited inbound message, not correlated to any request.
type Event struct {
	Seq   int64           `json:"seq"`
	Type  MessageType     `json:"type"`
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// envelope is decoded first to discover the message type before the body is
// interpreted as a Response or Event.
type envelope struct {
	Type MessageType `json:"type"`
}

// Decode inspects raw and returns either a *Response or an *Event, matching
// the tsserver message shapes described in §6.2 of the bridging spec.
func Decode(raw []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case TypeResponse:
		var r Response
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case TypeEvent:
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	default:
		return nil, &ErrUnknownMessageType{Type: string(env.Type)}
	}
}

// ErrUnknownMessageType is returned by Decode for any message type other
// than "response" or "event".
type ErrUnknownMessageType struct {
	Type string
}

func (e *ErrUnknownMessageType) Error() string {
	return "tsp: unknown message type " + e.Type
}

// Command names understood by tsserver that this bridge issues.
const (
	CommandOpen                                = "open"
	CommandClose                               = "close"
	CommandChange                              = "change"
	CommandSaveTo                              = "saveto"
	CommandConfigure                           = "configure"
	CommandCompilerOptionsForInferredProjects  = "compilerOptionsForInferredProjects"
	CommandGeterr                              = "geterr"
	CommandGeterrForProject                    = "geterrForProject"
	CommandCompletionInfo                      = "completionInfo"
	CommandCompletionEntryDetails              = "completionEntryDetails"
	CommandQuickinfo                           = "quickinfo"
	CommandDefinition                          = "definition"
	CommandImplementation                      = "implementation"
	CommandTypeDefinition                      = "typeDefinition"
	CommandReferences                          = "references"
	CommandDocumentHighlights                  = "documentHighlights"
	CommandNavTo                               = "navto"
	CommandNavTree                             = "navtree"
	CommandRename                              = "rename"
	CommandSignatureHelp                       = "signatureHelp"
	CommandFormat                              = "format"
	CommandGetCodeFixes                        = "getCodeFixes"
	CommandGetApplicableRefactors               = "getApplicableRefactors"
	CommandGetEditsForRefactor                 = "getEditsForRefactor"
	CommandOrganizeImports                     = "organizeImports"
	CommandGetEditsForFileRename                = "getEditsForFileRename"
	CommandGetOutliningSpans                   = "getOutliningSpans"
	CommandApplyCodeActionCommand              = "applyCodeActionCommand"

	// EventRequestCompleted resolves a pending request that produces no
	// direct response (e.g. geterr).
	EventRequestCompleted = "requestCompleted"
	EventSemanticDiag     = "semanticDiag"
	EventSyntaxDiag       = "syntaxDiag"
	EventSuggestionDiag   = "suggestionDiag"
)

// RequestCompletedBody is the body of a requestCompleted event.
type RequestCompletedBody struct {
	RequestSeq int64 `json:"request_seq"`
}

// FileRequestArgs identifies the file a request pertains to.
type FileRequestArgs struct {
	File string `json:"file"`
}

// FileLocationRequestArgs identifies a 1-based position in a file.
type FileLocationRequestArgs struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Offset int    `json:"offset"`
}

// FileRangeRequestArgs identifies a 1-based range in a file.
type FileRangeRequestArgs struct {
	File        string `json:"file"`
	StartLine   int    `json:"startLine"`
	StartOffset int    `json:"startOffset"`
	EndLine     int    `json:"endLine"`
	EndOffset   int    `json:"endOffset"`
}

// TextSpan is a 1-based range as returned by tsserver in response bodies.
type TextSpan struct {
	Start Location `json:"start"`
	End   Location `json:"end"`
}

// Location is a 1-based (line, offset) position.
type Location struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// OpenRequestArgs are the arguments of the "open" notification.
type OpenRequestArgs struct {
	File            string `json:"file"`
	FileContent     string `json:"fileContent,omitempty"`
	ScriptKindName  string `json:"scriptKindName,omitempty"`
	ProjectRootPath string `json:"projectRootPath,omitempty"`
}

// CloseRequestArgs are the arguments of the "close" notification.
type CloseRequestArgs struct {
	File string `json:"file"`
}

// ChangeRequestArgs are the arguments of the "change" notification.
type ChangeRequestArgs struct {
	FileRangeRequestArgs
	InsertString string `json:"insertString"`
}

// SaveToRequestArgs are the arguments of the "saveto" notification.
type SaveToRequestArgs struct {
	File     string `json:"file"`
	TmpFile  string `json:"tmpfile"`
}

// GeterrRequestArgs are the arguments of the "geterr" request.
type GeterrRequestArgs struct {
	Files []string `json:"files"`
	Delay int      `json:"delay"`
}

// DiagEventBody is the body of a {semantic,syntax,suggestion}Diag event.
type DiagEventBody struct {
	File        string           `json:"file"`
	Diagnostics []TSDiagnostic   `json:"diagnostics"`
}

// TSDiagnostic is a diagnostic as emitted by tsserver.
type TSDiagnostic struct {
	Start             Location `json:"start"`
	End               Location `json:"end"`
	Text              string   `json:"text"`
	Category          string   `json:"category"`
	Code              int      `json:"code,omitempty"`
	RelatedInformation []any   `json:"relatedInformation,omitempty"`
}

// CompletionsRequestArgs are the arguments of the "completionInfo" request.
type CompletionsRequestArgs struct {
	FileLocationRequestArgs
	Prefix              string `json:"prefix,omitempty"`
	IncludeExternalModuleExports bool `json:"includeExternalModuleExports"`
	IncludeInsertTextCompletions bool `json:"includeInsertTextCompletions"`
	TriggerCharacter    string `json:"triggerCharacter,omitempty"`
}

// CompletionInfo is the body of a completionInfo response.
type CompletionInfo struct {
	IsMemberCompletion    bool             `json:"isMemberCompletion"`
	IsNewIdentifierLocation bool           `json:"isNewIdentifierLocation"`
	OptionalReplacementSpan *TextSpan      `json:"optionalReplacementSpan,omitempty"`
	Entries               []CompletionEntry `json:"entries"`
}

// CompletionEntry is a single completion candidate from tsserver.
type CompletionEntry struct {
	Name            string     `json:"name"`
	Kind            string     `json:"kind"`
	KindModifiers   string     `json:"kindModifiers,omitempty"`
	SortText        string     `json:"sortText"`
	InsertText      string     `json:"insertText,omitempty"`
	FilterText      string     `json:"filterText,omitempty"`
	ReplacementSpan *TextSpan  `json:"replacementSpan,omitempty"`
	HasAction       bool       `json:"hasAction,omitempty"`
	Source          string     `json:"source,omitempty"`
	SourceDisplay   []SymbolDisplayPart `json:"sourceDisplay,omitempty"`
	IsRecommended   bool       `json:"isRecommended,omitempty"`
	IsSnippet       bool       `json:"isSnippet,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// SymbolDisplayPart is a piece of rendered display text with a classification tag.
type SymbolDisplayPart struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// JSDocTagInfo documents a single @tag in a doc comment.
type JSDocTagInfo struct {
	Name string              `json:"name"`
	Text []SymbolDisplayPart `json:"text,omitempty"`
}

// CompletionDetailsRequestArgs are the arguments of "completionEntryDetails".
type CompletionDetailsRequestArgs struct {
	FileLocationRequestArgs
	EntryNames []any `json:"entryNames"` // string or {name, source}
}

// CompletionEntryDetails is one element of a completionEntryDetails response body.
type CompletionEntryDetails struct {
	Name          string              `json:"name"`
	Kind          string              `json:"kind"`
	KindModifiers string              `json:"kindModifiers,omitempty"`
	DisplayParts  []SymbolDisplayPart `json:"displayParts"`
	Documentation []SymbolDisplayPart `json:"documentation,omitempty"`
	Tags          []JSDocTagInfo      `json:"tags,omitempty"`
	CodeActions   []CodeActionTS      `json:"codeActions,omitempty"`
	Source        []SymbolDisplayPart `json:"source,omitempty"`
}

// CodeActionTS is a code action as returned by tsserver (distinct shape from LSP's CodeAction).
type CodeActionTS struct {
	Description string         `json:"description"`
	Changes     []FileCodeEdits `json:"changes"`
	Commands    []any          `json:"commands,omitempty"`
}

// FileCodeEdits is the set of edits tsserver wants applied to a single file.
type FileCodeEdits struct {
	FileName    string     `json:"fileName"`
	TextChanges []CodeEdit `json:"textChanges"`
}

// CodeEdit is a single text replacement within a FileCodeEdits.
type CodeEdit struct {
	Start   Location `json:"start"`
	End     Location `json:"end"`
	NewText string   `json:"newText"`
}

// QuickInfo is the body of a "quickinfo" response.
type QuickInfo struct {
	Kind          string              `json:"kind"`
	KindModifiers string              `json:"kindModifiers"`
	Start         Location            `json:"start"`
	End           Location            `json:"end"`
	DisplayString string              `json:"displayString"`
	Documentation string              `json:"documentation,omitempty"`
	Tags          []JSDocTagInfo      `json:"tags,omitempty"`
}

// DefinitionInfo is one element of a "definition"/"implementation"/"typeDefinition" response body.
type DefinitionInfo struct {
	File  string `json:"file"`
	Start Location `json:"start"`
	End   Location `json:"end"`
}

// ReferencesResponseBody is the body of a "references" response.
type ReferencesResponseBody struct {
	Refs []ReferencesResponseItem `json:"refs"`
}

// ReferencesResponseItem is one reference location.
type ReferencesResponseItem struct {
	File  string   `json:"file"`
	Start Location `json:"start"`
	End   Location `json:"end"`
}

// DocumentHighlightsItem groups highlight spans for one file.
type DocumentHighlightsItem struct {
	File           string              `json:"file"`
	HighlightSpans []HighlightSpan     `json:"highlightSpans"`
}

// HighlightSpan is a single highlighted span with an access kind.
type HighlightSpan struct {
	Start Location `json:"start"`
	End   Location `json:"end"`
	Kind  string   `json:"kind"`
}

// NavTree is a node in the response body of "navtree".
type NavTree struct {
	Text          string     `json:"text"`
	Kind          string     `json:"kind"`
	KindModifiers string     `json:"kindModifiers,omitempty"`
	Spans         []TextSpan `json:"spans"`
	NameSpan      *TextSpan  `json:"nameSpan,omitempty"`
	ChildItems    []NavTree  `json:"childItems,omitempty"`
}

// NavtoItem is one element of a "navto" response body.
type NavtoItem struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	KindModifiers string   `json:"kindModifiers,omitempty"`
	File          string   `json:"file"`
	Start         Location `json:"start"`
	End           Location `json:"end"`
	ContainerName string   `json:"containerName,omitempty"`
}

// NavToRequestArgs are the arguments of the "navto" request.
type NavToRequestArgs struct {
	FileRequestArgs
	SearchValue string `json:"searchValue"`
}

// RenameRequestArgs are the arguments of the "rename" request.
type RenameRequestArgs struct {
	FileLocationRequestArgs
	FindInStrings  bool `json:"findInStrings"`
	FindInComments bool `json:"findInComments"`
}

// RenameResponseBody is the body of a "rename" response.
type RenameResponseBody struct {
	Info  RenameInfo            `json:"info"`
	Locs  []SpanGroup           `json:"locs"`
}

// RenameInfo reports whether a rename is possible at the requested location.
type RenameInfo struct {
	CanRename        bool   `json:"canRename"`
	LocalizedErrorMessage string `json:"localizedErrorMessage,omitempty"`
	DisplayName      string `json:"displayName,omitempty"`
	FullDisplayName  string `json:"fullDisplayName,omitempty"`
}

// SpanGroup groups rename locations by file.
type SpanGroup struct {
	File  string         `json:"file"`
	Locs  []RenameTextSpan `json:"locs"`
}

// RenameTextSpan is one rename edit location within a file.
type RenameTextSpan struct {
	Start Location `json:"start"`
	End   Location `json:"end"`
}

// SignatureHelpItems is the body of a "signatureHelp" response.
type SignatureHelpItems struct {
	Items               []SignatureHelpItem `json:"items"`
	SelectedItemIndex   int                 `json:"selectedItemIndex"`
	ArgumentIndex       int                 `json:"argumentIndex"`
}

// SignatureHelpItem is a single overload.
type SignatureHelpItem struct {
	PrefixDisplayParts    []SymbolDisplayPart `json:"prefixDisplayParts"`
	SuffixDisplayParts    []SymbolDisplayPart `json:"suffixDisplayParts"`
	SeparatorDisplayParts []SymbolDisplayPart `json:"separatorDisplayParts"`
	Parameters            []SignatureHelpParameter `json:"parameters"`
	Documentation         []SymbolDisplayPart `json:"documentation,omitempty"`
}

// SignatureHelpParameter describes one parameter of a SignatureHelpItem.
type SignatureHelpParameter struct {
	Name          string              `json:"name"`
	DisplayParts  []SymbolDisplayPart `json:"displayParts"`
	Documentation []SymbolDisplayPart `json:"documentation,omitempty"`
}

// FormatRequestArgs are the arguments of the "format" request.
type FormatRequestArgs struct {
	FileRangeRequestArgs
}

// ConfigureRequestArguments are the arguments of the "configure" request.
type ConfigureRequestArguments struct {
	HostInfo     string        `json:"hostInfo,omitempty"`
	FormatOptions *FormatCodeSettings `json:"formatOptions,omitempty"`
	Preferences  *UserPreferences    `json:"preferences,omitempty"`
}

// FormatCodeSettings mirrors tsserver's editor format options.
type FormatCodeSettings struct {
	TabSize             int  `json:"tabSize"`
	IndentSize          int  `json:"indentSize"`
	ConvertTabsToSpaces bool `json:"convertTabsToSpaces"`
}

// UserPreferences mirrors the subset of tsserver's user preferences this bridge sets.
type UserPreferences struct {
	ProvideRefactorNotApplicableReason bool   `json:"provideRefactorNotApplicableReason,omitempty"`
	AllowRenameOfImportPath            bool   `json:"allowRenameOfImportPath,omitempty"`
}

// CompilerOptions is the subset of tsserver's inferred-project compiler options this bridge pins.
type CompilerOptions struct {
	Module                       string `json:"module"`
	Target                       string `json:"target"`
	Jsx                          string `json:"jsx"`
	AllowJs                      bool   `json:"allowJs"`
	AllowSyntheticDefaultImports bool   `json:"allowSyntheticDefaultImports"`
	AllowNonTsExtensions         bool   `json:"allowNonTsExtensions"`
	ResolveJsonModule            bool   `json:"resolveJsonModule"`
	SourceMap                    bool   `json:"sourceMap"`
	StrictNullChecks             bool   `json:"strictNullChecks"`
}

// CompilerOptionsForInferredProjectsArgs are the arguments of
// "compilerOptionsForInferredProjects".
type CompilerOptionsForInferredProjectsArgs struct {
	Options CompilerOptions `json:"options"`
}

// CodeFixRequestArgs are the arguments of the "getCodeFixes" request.
type CodeFixRequestArgs struct {
	FileRangeRequestArgs
	ErrorCodes []int `json:"errorCodes"`
}

// RefactorRequestArgs are the arguments of "getApplicableRefactors"/"getEditsForRefactor".
type RefactorRequestArgs struct {
	FileRangeRequestArgs
}

// GetEditsForRefactorRequestArgs are the arguments of "getEditsForRefactor".
type GetEditsForRefactorRequestArgs struct {
	FileRangeRequestArgs
	RefactorName string `json:"refactorName"`
	ActionName   string `json:"actionName"`
}

// ApplicableRefactorInfo is one element of a "getApplicableRefactors" response body.
type ApplicableRefactorInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Actions     []RefactorActionInfo `json:"actions"`
}

// RefactorActionInfo is one action of an ApplicableRefactorInfo.
type RefactorActionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RefactorEditInfo is the body of a "getEditsForRefactor" response.
type RefactorEditInfo struct {
	Edits          []FileCodeEdits `json:"edits"`
	RenameFilename *string         `json:"renameFilename,omitempty"`
	RenameLocation *Location       `json:"renameLocation,omitempty"`
}

// OrganizeImportsRequestArgs are the arguments of the "organizeImports" request.
type OrganizeImportsRequestArgs struct {
	Scope OrganizeImportsScope `json:"scope"`
}

// OrganizeImportsScope describes what "organizeImports" should act on.
type OrganizeImportsScope struct {
	Type string          `json:"type"`
	Args FileRequestArgs `json:"args"`
}

// GetEditsForFileRenameRequestArgs are the arguments of "getEditsForFileRename".
type GetEditsForFileRenameRequestArgs struct {
	OldFilePath string `json:"oldFilePath"`
	NewFilePath string `json:"newFilePath"`
}

// OutliningSpan is one element of a "getOutliningSpans" response body.
type OutliningSpan struct {
	TextSpan TextSpan `json:"textSpan"`
	Kind     string   `json:"kind"`
}

// ApplyCodeActionCommandRequestArgs are the arguments of "applyCodeActionCommand".
type ApplyCodeActionCommandRequestArgs struct {
	File    string `json:"file"`
	Command any    `json:"command"`
}

