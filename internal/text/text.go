// Package text provides pure arithmetic on LSP (line, character) coordinates,
// offsets and ranges. It holds no document state; [internal/document] builds
// the stateful mirror on top of it.
package text

import (
	"strings"
	"unicode/utf16"

	"tslsp/internal/rpc"
)

// lineBreak reports the byte length of the line terminator starting at s[0],
// or 0 if s does not start with one. \r\n, \n and \r each count as a single
// line break per the LSP specification.
func lineBreak(s string) int {
	if len(s) == 0 {
		return 0
	}
	switch s[0] {
	case '\n':
		return 1
	case '\r':
		if len(s) > 1 && s[1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}

// lineStarts returns the byte offset of the start of every line in text,
// beginning with 0.
func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); {
		if n := lineBreak(text[i:]); n > 0 {
			i += n
			starts = append(starts, i)
			continue
		}
		i++
	}
	return starts
}

// LineCount returns the number of lines in text. A text with no line breaks
// has one line; a trailing line break starts one further, empty, line.
func LineCount(text string) int {
	return len(lineStarts(text))
}

// Line returns the content of the given 0-based line, excluding its
// terminator. Returns "" if line is out of range.
func Line(text string, line int) string {
	starts := lineStarts(text)
	if line < 0 || line >= len(starts) {
		return ""
	}
	start := starts[line]
	end := len(text)
	if line+1 < len(starts) {
		end = starts[line+1]
	}
	lineText := text[start:end]
	for {
		n := 0
		if len(lineText) > 0 {
			if lineText[len(lineText)-1] == '\n' {
				n = 1
				if len(lineText) > 1 && lineText[len(lineText)-2] == '\r' {
					n = 2
				}
			} else if lineText[len(lineText)-1] == '\r' {
				n = 1
			}
		}
		if n == 0 {
			break
		}
		lineText = lineText[:len(lineText)-n]
	}
	return lineText
}

// LineRange returns the range spanning the given 0-based line, including its
// terminator, expressed in UTF-16 code units.
func LineRange(text string, line int) rpc.Range {
	starts := lineStarts(text)
	if line < 0 || line >= len(starts) {
		return rpc.Range{}
	}
	start := starts[line]
	end := len(text)
	if line+1 < len(starts) {
		end = starts[line+1]
	}
	return rpc.Range{
		Start: rpc.Position{Line: uint32(line), Character: 0},
		End:   rpc.Position{Line: uint32(line), Character: uint32(utf16Len(text[start:end]))},
	}
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	return utf16Len(s)
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

// byteOffsetInLine converts a UTF-16 character offset within a line into a
// byte offset into that line's text. Out-of-range offsets clamp to the line
// length.
func byteOffsetInLine(line string, character int) int {
	if character <= 0 {
		return 0
	}
	units := 0
	for i, r := range line {
		if units >= character {
			return i
		}
		units += len(utf16.Encode([]rune{r}))
	}
	return len(line)
}

// characterOffsetInLine converts a byte offset within a line into a UTF-16
// character offset.
func characterOffsetInLine(line string, byteOffset int) int {
	if byteOffset > len(line) {
		byteOffset = len(line)
	}
	return utf16Len(line[:byteOffset])
}

// OffsetAt converts a 0-based LSP position into an absolute byte offset into
// text. Positions past the end of the document clamp to len(text).
func OffsetAt(text string, pos rpc.Position) int {
	starts := lineStarts(text)
	line := int(pos.Line)
	if line < 0 {
		return 0
	}
	if line >= len(starts) {
		return len(text)
	}
	lineText := Line(text, line)
	return starts[line] + byteOffsetInLine(lineText, int(pos.Character))
}

// PositionAt converts an absolute byte offset in text into a 0-based LSP
// position.
func PositionAt(text string, offset int) rpc.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	starts := lineStarts(text)
	line := 0
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] <= offset {
			line = i
			break
		}
	}
	lineText := Line(text, line)
	byteInLine := offset - starts[line]
	if byteInLine > len(lineText) {
		byteInLine = len(lineText)
	}
	return rpc.Position{
		Line:      uint32(line),
		Character: uint32(characterOffsetInLine(lineText, byteInLine)),
	}
}

// isSpace reports whether r is whitespace for the purpose of word-range
// lookup.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// WordRangeAt returns the range of the maximal run of non-whitespace
// characters surrounding pos. Returns false if pos stands on whitespace on
// both sides (or the line is empty).
func WordRangeAt(text string, pos rpc.Position) (rpc.Range, bool) {
	line := Line(text, int(pos.Line))
	if line == "" {
		return rpc.Range{}, false
	}
	byteOffset := byteOffsetInLine(line, int(pos.Character))

	runes := []rune(line)
	runeIndex := 0
	bytePos := 0
	for bytePos < byteOffset && bytePos < len(line) {
		_, size := decodeRune(line[bytePos:])
		bytePos += size
		runeIndex++
	}

	before := runeIndex > 0 && !isSpace(runes[runeIndex-1])
	after := runeIndex < len(runes) && !isSpace(runes[runeIndex])
	if !before && !after {
		return rpc.Range{}, false
	}

	start := runeIndex
	for start > 0 && !isSpace(runes[start-1]) {
		start--
	}
	end := runeIndex
	for end < len(runes) && !isSpace(runes[end]) {
		end++
	}
	if start == end {
		return rpc.Range{}, false
	}

	startByte := runeByteOffset(line, start)
	endByte := runeByteOffset(line, end)
	return rpc.Range{
		Start: rpc.Position{Line: pos.Line, Character: uint32(characterOffsetInLine(line, startByte))},
		End:   rpc.Position{Line: pos.Line, Character: uint32(characterOffsetInLine(line, endByte))},
	}, true
}

func decodeRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}

func runeByteOffset(s string, runeIndex int) int {
	i := 0
	for b := range s {
		if i == runeIndex {
			return b
		}
		i++
	}
	return len(s)
}

// TrimTrailingNewlineCount reports how many bytes of trailing newline
// sequence s ends with (0, 1 or 2).
func TrimTrailingNewlineCount(s string) int {
	if strings.HasSuffix(s, "\r\n") {
		return 2
	}
	if strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "\r") {
		return 1
	}
	return 0
}
