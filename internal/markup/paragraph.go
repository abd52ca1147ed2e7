// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"strconv"
	"strings"

	"github.com/pdiddy/notes-export/internal/codec"
)

// paragraph applies line-level markup to the first fragment of a line.
func (f *formatter) paragraph(st state, attr *codec.AttributeRun, text string) (state, string) {
	style := attr.Style()
	indent := int(max(attr.Indent(), 0))

	if style == codec.StyleNumberedList {
		if st.listNumber > 0 && st.listIndent == attr.Indent() {
			st.listNumber++
		} else {
			st.listNumber = 1
			st.listIndent = attr.Indent()
		}
	} else {
		st.listNumber = 0
	}

	if f.mode == HTML {
		return f.htmlParagraph(st, attr, text)
	}

	var prelude string
	if attr.Blockquote() {
		prelude = "> "
	}
	tabs := strings.Repeat("\t", indent)

	switch style {
	case codec.StyleTitle:
		return st, prelude + "# " + text
	case codec.StyleHeading:
		return st, prelude + "## " + text
	case codec.StyleSubheading:
		return st, prelude + "### " + text
	case codec.StyleDottedList, codec.StyleDashedList:
		return st, prelude + tabs + "- " + text
	case codec.StyleNumberedList:
		return st, prelude + tabs + strconv.Itoa(st.listNumber) + ". " + text
	case codec.StyleCheckbox:
		box := "- [ ] "
		if done(attr) {
			box = "- [x] "
		}
		return st, prelude + tabs + box + text
	}
	if st.block == blockList {
		prelude += tabs
	}
	return st, prelude + text
}

func (f *formatter) htmlParagraph(st state, attr *codec.AttributeRun, text string) (state, string) {
	var prefix string
	switch quote := attr.Blockquote(); {
	case quote && !st.blockquote:
		prefix = "<blockquote>"
		st.blockquote = true
	case !quote && st.blockquote:
		prefix = "</blockquote>"
		st.blockquote = false
	}

	switch attr.Style() {
	case codec.StyleTitle:
		return st, prefix + "<h1>" + text + "</h1>"
	case codec.StyleHeading:
		return st, prefix + "<h2>" + text + "</h2>"
	case codec.StyleSubheading:
		return st, prefix + "<h3>" + text + "</h3>"
	case codec.StyleDottedList, codec.StyleDashedList, codec.StyleNumberedList:
		return st, prefix + "<li>" + text + "</li>"
	case codec.StyleCheckbox:
		box := "☐ "
		if done(attr) {
			box = "☑ "
		}
		return st, prefix + "<li>" + box + text + "</li>"
	}
	return st, prefix + "<p>" + text + "</p>"
}

func done(attr *codec.AttributeRun) bool {
	return attr.Paragraph != nil && attr.Paragraph.Checklist != nil && attr.Paragraph.Checklist.Done
}
