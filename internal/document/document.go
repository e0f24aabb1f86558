// Package document implements the in-memory mirror of open editor buffers
// (spec component C2): incremental edit application and an LRU-by-access
// open document set.
package document

import (
	"tslsp/internal/rpc"
	"tslsp/internal/text"
)

// Document is a mirror of one open text document.
type Document struct {
	Path       string
	URI        rpc.DocumentURI
	LanguageID string
	Version    int32
	text       string
}

// NewDocument creates a Document from an opened LSP text document item.
func NewDocument(path string, item rpc.TextDocumentItem) *Document {
	return &Document{
		Path:       path,
		URI:        item.URI,
		LanguageID: item.LanguageID,
		Version:    item.Version,
		text:       item.Text,
	}
}

// Text returns the document's current full text.
func (d *Document) Text() string { return d.text }

// ApplyEdit replaces the substring [offsetAt(range.start), offsetAt(range.end))
// with change.Text, or the whole document if change has no range, and
// advances the version to newVersion.
func (d *Document) ApplyEdit(newVersion int32, change rpc.TextDocumentContentChangeEvent) {
	if change.Range == nil {
		d.text = change.Text
		d.Version = newVersion
		return
	}
	start := text.OffsetAt(d.text, change.Range.Start)
	end := text.OffsetAt(d.text, change.Range.End)
	d.text = d.text[:start] + change.Text + d.text[end:]
	d.Version = newVersion
}

// PositionAt converts a byte offset into a 0-based LSP position.
func (d *Document) PositionAt(offset int) rpc.Position { return text.PositionAt(d.text, offset) }

// OffsetAt converts a 0-based LSP position into a byte offset.
func (d *Document) OffsetAt(pos rpc.Position) int { return text.OffsetAt(d.text, pos) }

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int { return text.LineCount(d.text) }

// GetLine returns the content of the given 0-based line, without its terminator.
func (d *Document) GetLine(line int) string { return text.Line(d.text, line) }

// GetLineRange returns the range spanning the given 0-based line.
func (d *Document) GetLineRange(line int) rpc.Range { return text.LineRange(d.text, line) }

// GetWordRangeAtPosition returns the range of the word surrounding pos, or
// false if pos stands on whitespace on both sides.
func (d *Document) GetWordRangeAtPosition(pos rpc.Position) (rpc.Range, bool) {
	return text.WordRangeAt(d.text, pos)
}

// OpenDocumentSet is a path→Document mapping with most-recently-accessed-first
// ordering (spec invariant I2/I3).
type OpenDocumentSet struct {
	docs   map[string]*Document
	access []string // most-recently-accessed first
}

// NewOpenDocumentSet creates an empty OpenDocumentSet.
func NewOpenDocumentSet() *OpenDocumentSet {
	return &OpenDocumentSet{docs: make(map[string]*Document)}
}

// Open inserts a document if path is not already present. Returns false
// (and does nothing) if it is already open — re-opening is the caller's
// responsibility to downgrade to a full-text change (spec §4.6 didOpen).
func (s *OpenDocumentSet) Open(path string, item rpc.TextDocumentItem) bool {
	if _, ok := s.docs[path]; ok {
		return false
	}
	s.docs[path] = NewDocument(path, item)
	s.touch(path)
	return true
}

// Close removes path from the set and returns the removed Document, or nil
// if it was not open.
func (s *OpenDocumentSet) Close(path string) *Document {
	doc, ok := s.docs[path]
	if !ok {
		return nil
	}
	delete(s.docs, path)
	for i, p := range s.access {
		if p == path {
			s.access = append(s.access[:i], s.access[i+1:]...)
			break
		}
	}
	return doc
}

// Get returns the document at path, moving it to the front of the access
// order. Returns nil if not open.
func (s *OpenDocumentSet) Get(path string) *Document {
	doc, ok := s.docs[path]
	if !ok {
		return nil
	}
	s.touch(path)
	return doc
}

// MostRecentlyAccessed returns the path of the most recently accessed open
// document, or "" if none are open.
func (s *OpenDocumentSet) MostRecentlyAccessed() string {
	if len(s.access) == 0 {
		return ""
	}
	return s.access[0]
}

func (s *OpenDocumentSet) touch(path string) {
	for i, p := range s.access {
		if p == path {
			s.access = append(s.access[:i], s.access[i+1:]...)
			break
		}
	}
	s.access = append([]string{path}, s.access...)
}
