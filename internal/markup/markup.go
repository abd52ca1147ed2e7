// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markup renders decoded note text as Markdown or HTML.
//
// Rendering is a single pass over fragments (see Tokenize). A small state
// value tracks the open multi-line block (list, monospaced block, aligned
// block) and the open blockquote; each fragment may close the current block,
// open a new one, and emit its own text. Whatever is still open at the end
// is closed exactly once.
package markup

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/pdiddy/notes-export/internal/codec"
)

// Mode selects the output markup.
type Mode int

const (
	Markdown Mode = iota
	HTML
)

func (m Mode) String() string {
	if m == HTML {
		return "html"
	}
	return "markdown"
}

// Options controls a single Render call.
type Options struct {
	Mode Mode
	// Embedded renders for a table cell: the result is trimmed, newlines
	// become <br> and Markdown pipes are escaped.
	Embedded bool
	// OmitFirstLine drops the first line of multi-line notes. The first line
	// normally repeats the note title.
	OmitFirstLine bool
}

// Resolver supplies markup for content that lives outside the note text.
type Resolver interface {
	// Attachment renders an embedded object. It never fails; problems are
	// rendered as placeholder text.
	Attachment(ctx context.Context, info codec.AttachmentInfo) string
	// NoteLink renders a link to another note. text is the already formatted
	// link text.
	NoteLink(ctx context.Context, uri, text string) string
}

var noteLinkPattern = regexp.MustCompile(`^applenotes:note/([-0-9a-fA-F]+)(?:\?ownerIdentifier=.*)?$`)

// NoteLinkIdentifier extracts the target note identifier from an internal
// note link.
func NoteLinkIdentifier(uri string) (string, bool) {
	m := noteLinkPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// UnknownAttachment is the placeholder for an attachment type that cannot
// be rendered.
func UnknownAttachment(mode Mode, uti string) string {
	if mode == HTML {
		return fmt.Sprintf("<span>(unknown attachment: %s)</span>", html.EscapeString(uti))
	}
	return fmt.Sprintf(" **(unknown attachment: %s)** ", uti)
}

// UnreadableAttachment is the placeholder for an attachment whose data
// could not be read.
func UnreadableAttachment(mode Mode) string {
	if mode == HTML {
		return "<span>(error reading attachment)</span>"
	}
	return " **(error reading attachment)**"
}

// Render converts note into markup. A nil resolver renders every attachment
// as unknown and leaves note links as plain text.
func Render(ctx context.Context, note *codec.Note, opts Options, r Resolver) string {
	f := &formatter{ctx: ctx, mode: opts.Mode, resolver: r}
	frags := Tokenize(note)

	skipping := opts.OmitFirstLine && !opts.Embedded && strings.Contains(note.Text, "\n")

	var b strings.Builder
	var st state
	for i := range frags {
		frag := &frags[i]
		if skipping {
			if !strings.Contains(frag.Text, "\n") && frag.Attr.Attachment == nil {
				continue
			}
			skipping = false
		}

		lineStart := i == 0 || strings.Contains(frags[i-1].Text, "\n")

		var out string
		st, out = f.transition(st, &frag.Attr, lineStart)
		b.WriteString(out)
		st, out = f.fragment(st, frag, lineStart)
		b.WriteString(out)
	}
	b.WriteString(f.closeAll(st, strings.HasSuffix(b.String(), "\n")))

	out := strings.TrimFunc(b.String(), isSpace)
	if opts.Embedded {
		out = strings.ReplaceAll(out, "\n", "<br>")
		if opts.Mode == Markdown {
			out = strings.ReplaceAll(out, "|", "&#124;")
		}
	}
	return out
}

type formatter struct {
	ctx      context.Context
	mode     Mode
	resolver Resolver
}

func (f *formatter) escape(s string) string {
	if f.mode == HTML {
		return html.EscapeString(s)
	}
	return s
}

func (f *formatter) attachment(info codec.AttachmentInfo) string {
	if f.resolver == nil {
		return UnknownAttachment(f.mode, info.TypeUTI)
	}
	return f.resolver.Attachment(f.ctx, info)
}

func (f *formatter) noteLink(uri, text string) string {
	if f.resolver == nil {
		return text
	}
	return f.resolver.NoteLink(f.ctx, uri, text)
}

// fragment renders one fragment. Attachments win over everything; blank
// fragments and monospaced blocks are emitted verbatim; runs with visual
// attributes Markdown lacks go through inline HTML.
func (f *formatter) fragment(st state, frag *Fragment, lineStart bool) (state, string) {
	attr := &frag.Attr
	switch {
	case attr.Attachment != nil:
		return st, f.attachment(*attr.Attachment)
	case isBlank(frag.Text) || st.block == blockMonospaced:
		return st, f.escape(frag.Text)
	case needsInlineHTML(attr, st):
		return f.htmlAttr(st, attr, frag.Text, lineStart)
	default:
		return f.plainAttr(st, attr, frag.Text, lineStart)
	}
}

func needsInlineHTML(attr *codec.AttributeRun, st state) bool {
	return attr.Baseline != codec.BaselineDefault ||
		attr.Underlined ||
		attr.Color != nil ||
		attr.Font != nil ||
		st.block == blockAligned
}
