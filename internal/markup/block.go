// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"fmt"
	"strings"

	"github.com/pdiddy/notes-export/internal/codec"
)

// block is the multi-line construct currently open.
type block int

const (
	blockNone block = iota
	blockList
	blockMonospaced
	blockAligned
)

// state is threaded through Render: every step takes the previous value and
// returns the next one.
type state struct {
	block      block
	ordered    bool // open list is numbered
	blockquote bool

	// Numbered list counter. Zero means no numbered item is open.
	listNumber int
	listIndent int32
}

// isBlockAttachment reports whether attr embeds an attachment that breaks
// the surrounding paragraph, as opposed to inline hashtags and mentions.
func isBlockAttachment(attr *codec.AttributeRun) bool {
	return attr.Attachment != nil &&
		!strings.Contains(attr.Attachment.TypeUTI, "com.apple.notes.inlinetextattachment")
}

// transition closes the open block when attr no longer belongs to it and
// opens the block attr starts, if any. lineStart reports whether the output
// so far ends a line.
func (f *formatter) transition(st state, attr *codec.AttributeRun, lineStart bool) (state, string) {
	style := attr.Style()
	var b strings.Builder

	switch st.block {
	case blockList:
		leaving := !style.IsList() && attr.Indent() == 0
		switched := style.IsList() && attr.Indent() == 0 && (style == codec.StyleNumberedList) != st.ordered
		if leaving || switched || isBlockAttachment(attr) {
			b.WriteString(f.closeBlock(st, lineStart))
			st.block = blockNone
		}
	case blockMonospaced:
		if style != codec.StyleMonospaced {
			b.WriteString(f.closeBlock(st, lineStart))
			st.block = blockNone
		}
	case blockAligned:
		if attr.Alignment() == codec.AlignLeft {
			b.WriteString(f.closeBlock(st, lineStart))
			st.block = blockNone
		}
	}

	if st.block != blockNone || isBlockAttachment(attr) {
		return st, b.String()
	}

	switch {
	case style == codec.StyleMonospaced:
		st.block = blockMonospaced
		if f.mode == HTML {
			b.WriteString("<pre>")
		} else {
			b.WriteString("\n```\n")
		}
	case style.IsList():
		st.block = blockList
		st.ordered = style == codec.StyleNumberedList
		switch {
		case f.mode == Markdown:
			b.WriteString("\n")
		case st.ordered:
			b.WriteString("<ol>")
		default:
			b.WriteString("<ul>")
		}
	case attr.Alignment() != codec.AlignLeft:
		st.block = blockAligned
		if f.mode == HTML {
			fmt.Fprintf(&b, `<div style="text-align:%s">`, cssAlignment(attr.Alignment()))
		}
	}
	return st, b.String()
}

func (f *formatter) closeBlock(st state, lineStart bool) string {
	switch st.block {
	case blockList:
		if f.mode == Markdown {
			return ""
		}
		if st.ordered {
			return "</ol>"
		}
		return "</ul>"
	case blockMonospaced:
		switch {
		case f.mode == HTML:
			return "</pre>"
		case lineStart:
			return "```\n"
		}
		return "\n```\n"
	case blockAligned:
		if f.mode == HTML {
			return "</div>"
		}
	}
	return ""
}

func (f *formatter) closeAll(st state, lineStart bool) string {
	out := f.closeBlock(st, lineStart)
	if st.blockquote && f.mode == HTML {
		out += "</blockquote>"
	}
	return out
}

func cssAlignment(a codec.Alignment) string {
	switch a {
	case codec.AlignCenter:
		return "center"
	case codec.AlignRight:
		return "right"
	case codec.AlignJustify:
		return "justify"
	}
	return "left"
}
