// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pdiddy/notes-export/internal/codec"
)

// Fragment is a whitespace-bounded slice of note text with its formatting.
type Fragment struct {
	Attr codec.AttributeRun
	Text string
}

// spaceClass matches the same characters as isSpace.
const spaceClass = `[\t\n\v\f\r\x{2028}\x{2029}\x{feff}\p{Zs}]`

// fragmentBoundary splits merged run text at leading whitespace, trailing
// whitespace, and any whitespace run that contains a newline. Markdown does
// not allow inline markup to cross lines or to start or end on a space.
var fragmentBoundary = regexp.MustCompile(`^` + spaceClass + `+|` + spaceClass + `*\n` + spaceClass + `*|` + spaceClass + `+$`)

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// isBlank reports whether s has no visible characters.
func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !isSpace(r) }) < 0
}

// Tokenize merges consecutive runs with equal formatting and splits the
// merged text into fragments. Concatenating the fragment texts reproduces
// note.Text exactly, byte for byte. Run lengths count UTF-16 code units; a
// run boundary inside a surrogate pair moves to the end of that character.
func Tokenize(note *codec.Note) []Fragment {
	offsets := unitOffsets(note.Text)
	units := len(offsets) - 1
	runs := note.Runs

	var frags []Fragment
	offset := 0
	for i := 0; i < len(runs); {
		attr := runs[i]
		end := offset
		for {
			if n := int(runs[i].Length); n > 0 {
				end += n
			}
			i++
			if i >= len(runs) || !sameFormat(&attr, &runs[i]) {
				break
			}
		}
		end = min(end, units)
		frags = appendSplit(frags, attr, note.Text[offsets[offset]:offsets[end]])
		offset = end
	}

	// Text not covered by any run keeps body formatting.
	if offset < units {
		frags = appendSplit(frags, codec.AttributeRun{}, note.Text[offsets[offset]:])
	}
	return frags
}

// unitOffsets maps every UTF-16 unit index of s, plus the end, to a byte
// offset in s. The second unit of a surrogate pair maps to the end of its
// character. Invalid bytes count as one unit each, as the decoder that
// produced them would have seen a replacement character.
func unitOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		offsets = append(offsets, i)
		if utf16.RuneLen(r) == 2 {
			offsets = append(offsets, i+utf8.RuneLen(r))
		}
	}
	return append(offsets, len(s))
}

func appendSplit(frags []Fragment, attr codec.AttributeRun, text string) []Fragment {
	prev := 0
	for _, loc := range fragmentBoundary.FindAllStringIndex(text, -1) {
		if loc[0] > prev {
			frags = append(frags, Fragment{Attr: attr, Text: text[prev:loc[0]]})
		}
		frags = append(frags, Fragment{Attr: attr, Text: text[loc[0]:loc[1]]})
		prev = loc[1]
	}
	if prev < len(text) {
		frags = append(frags, Fragment{Attr: attr, Text: text[prev:]})
	}
	return frags
}

// sameFormat compares every formatting field of two runs, ignoring Length.
func sameFormat(a, b *codec.AttributeRun) bool {
	return a.Weight == b.Weight &&
		a.Underlined == b.Underlined &&
		a.Strikethrough == b.Strikethrough &&
		a.Baseline == b.Baseline &&
		a.Link == b.Link &&
		sameParagraph(a.Paragraph, b.Paragraph) &&
		sameFont(a.Font, b.Font) &&
		sameColor(a.Color, b.Color) &&
		sameAttachment(a.Attachment, b.Attachment)
}

func sameParagraph(a, b *codec.ParagraphStyle) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Style == b.Style &&
		a.Alignment == b.Alignment &&
		a.Indent == b.Indent &&
		a.Blockquote == b.Blockquote &&
		sameChecklist(a.Checklist, b.Checklist)
}

func sameChecklist(a, b *codec.Checklist) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Done == b.Done && bytes.Equal(a.UUID, b.UUID)
}

func sameFont(a, b *codec.Font) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameColor(a, b *codec.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameAttachment(a, b *codec.AttachmentInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
