// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/pdiddy/notes-export/internal/codec"
)

// emojiFont is the system font Notes records for emoji; it is never emitted.
const emojiFont = ".AppleColorEmojiUI"

func (f *formatter) weight(w codec.FontWeight, text string) string {
	if f.mode == HTML {
		switch w {
		case codec.WeightBold:
			return "<b>" + text + "</b>"
		case codec.WeightItalic:
			return "<i>" + text + "</i>"
		case codec.WeightBoldItalic:
			return "<b><i>" + text + "</i></b>"
		}
		return text
	}
	switch w {
	case codec.WeightBold:
		return "**" + text + "**"
	case codec.WeightItalic:
		return "*" + text + "*"
	case codec.WeightBoldItalic:
		return "***" + text + "***"
	}
	return text
}

func (f *formatter) strike(text string) string {
	if f.mode == HTML {
		return "<s>" + text + "</s>"
	}
	return "~~" + text + "~~"
}

func (f *formatter) link(href, text string) string {
	if f.mode == HTML {
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), text)
	}
	return fmt.Sprintf("[%s](%s)", text, href)
}

// plainAttr renders a fragment using only the inline markup the output
// format has natively.
func (f *formatter) plainAttr(st state, attr *codec.AttributeRun, raw string, lineStart bool) (state, string) {
	text := f.weight(attr.Weight, f.escape(raw))
	if attr.Strikethrough {
		text = f.strike(text)
	}
	if attr.Link != "" {
		switch {
		case noteLinkPattern.MatchString(attr.Link):
			text = f.noteLink(attr.Link, text)
		case attr.Link != raw || f.mode == HTML:
			text = f.link(attr.Link, text)
		}
	}
	if !lineStart {
		return st, text
	}
	return f.paragraph(st, attr, text)
}

// htmlAttr renders a fragment whose attributes need inline HTML: underline,
// baselines, fonts, colours, or an aligned block.
func (f *formatter) htmlAttr(st state, attr *codec.AttributeRun, raw string, lineStart bool) (state, string) {
	text := f.escape(raw)
	if attr.Strikethrough {
		text = "<s>" + text + "</s>"
	}
	if attr.Underlined {
		text = "<u>" + text + "</u>"
	}
	switch attr.Baseline {
	case codec.BaselineSuper:
		text = "<sup>" + text + "</sup>"
	case codec.BaselineSub:
		text = "<sub>" + text + "</sub>"
	}
	switch attr.Weight {
	case codec.WeightBold:
		text = "<b>" + text + "</b>"
	case codec.WeightItalic:
		text = "<i>" + text + "</i>"
	case codec.WeightBoldItalic:
		text = "<b><i>" + text + "</i></b>"
	}

	style := inlineStyle(attr)
	switch {
	case attr.Link != "" && !noteLinkPattern.MatchString(attr.Link):
		var styleAttr string
		if style != "" {
			styleAttr = fmt.Sprintf(` style="%s"`, style)
		}
		text = fmt.Sprintf(`<a href="%s" rel="noopener" class="external-link" target="_blank"%s>%s</a>`,
			html.EscapeString(attr.Link), styleAttr, text)
	default:
		if attr.Link != "" {
			text = f.noteLink(attr.Link, text)
		}
		if style != "" {
			text = fmt.Sprintf(`<span style="%s">%s</span>`, style, text)
		}
	}

	if !lineStart {
		return st, text
	}
	return f.paragraph(st, attr, text)
}

func inlineStyle(attr *codec.AttributeRun) string {
	var b strings.Builder
	if font := attr.Font; font != nil {
		if font.Name != "" && font.Name != emojiFont {
			fmt.Fprintf(&b, "font-family:%s;", html.EscapeString(font.Name))
		}
		if font.PointSize > 0 {
			fmt.Fprintf(&b, "font-size:%gpt;", font.PointSize)
		}
	}
	if attr.Color != nil {
		fmt.Fprintf(&b, "color:%s;", CSSColor(*attr.Color))
	}
	return b.String()
}

// CSSColor formats c as #rrggbb, or #rrggbbaa when it is translucent. An
// alpha of zero is treated as unset.
func CSSColor(c codec.Color) string {
	s := fmt.Sprintf("#%02x%02x%02x", channel(c.Red), channel(c.Green), channel(c.Blue))
	if c.Alpha > 0 && c.Alpha < 1 {
		s += fmt.Sprintf("%02x", channel(c.Alpha))
	}
	return s
}

func channel(v float32) int {
	n := int(math.Floor(float64(v) * 255))
	return max(0, min(255, n))
}
