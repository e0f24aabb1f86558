package text

import (
	"testing"

	"github.com/teleivo/assertive/assert"

	"tslsp/internal/rpc"
)

func TestLineCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 1},
		{name: "no break", text: "abc", want: 1},
		{name: "single break", text: "abc\ndef", want: 2},
		{name: "trailing break", text: "abc\n", want: 2},
		{name: "crlf", text: "abc\r\ndef", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, LineCount(tt.text), tt.want)
		})
	}
}

func TestLine(t *testing.T) {
	text := "func f() {\r\n  return 1\n}\n"

	assert.Equal(t, Line(text, 0), "func f() {")
	assert.Equal(t, Line(text, 1), "  return 1")
	assert.Equal(t, Line(text, 2), "}")
	assert.Equal(t, Line(text, 99), "")
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, UTF16Len("abc"), 3)
	assert.Equal(t, UTF16Len(""), 0)
	// an astral character like 😀 takes two UTF-16 code units.
	assert.Equal(t, UTF16Len("😀"), 2)
}

func TestOffsetAtAndPositionAtRoundTrip(t *testing.T) {
	text := "let x = 1;\nlet y = 😀;\n"

	pos := rpc.Position{Line: 1, Character: 8}
	offset := OffsetAt(text, pos)
	got := PositionAt(text, offset)

	assert.Equal(t, got.Line, pos.Line)
	assert.Equal(t, got.Character, pos.Character)
}

func TestWordRangeAt(t *testing.T) {
	text := "const value = 1;"

	r, ok := WordRangeAt(text, rpc.Position{Line: 0, Character: 8})
	assert.True(t, ok)
	assert.Equal(t, r.Start.Character, uint32(6))
	assert.Equal(t, r.End.Character, uint32(11))

	_, ok = WordRangeAt("   ", rpc.Position{Line: 0, Character: 1})
	assert.False(t, ok)
}

func TestTrimTrailingNewlineCount(t *testing.T) {
	assert.Equal(t, TrimTrailingNewlineCount("abc\r\n"), 2)
	assert.Equal(t, TrimTrailingNewlineCount("abc\n"), 1)
	assert.Equal(t, TrimTrailingNewlineCount("abc\r"), 1)
	assert.Equal(t, TrimTrailingNewlineCount("abc"), 0)
}
