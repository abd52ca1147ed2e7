// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package attachment

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pdiddy/notes-export/internal/codec"
	"github.com/pdiddy/notes-export/internal/markup"
	"github.com/pdiddy/notes-export/internal/table"
	"github.com/pdiddy/notes-export/pkg/types"
)

// Store is the part of the Notes database an attachment resolver reads.
// *notestore.Store satisfies it.
type Store interface {
	DataDir() string
	AltText(ctx context.Context, identifier string) (string, error)
	TokenContentIdentifier(ctx context.Context, identifier string) (string, error)
	URLCard(ctx context.Context, identifier string) (title, url string, err error)
	MergeableData(ctx context.Context, identifier string) ([]byte, error)
	AttachmentPK(ctx context.Context, identifier string) (int64, string, error)
	MediaPK(ctx context.Context, identifier string) (int64, error)
	ScanPDF(ctx context.Context, pk int64) (*types.AttachmentRow, error)
	ScanPage(ctx context.Context, pk int64) (*types.AttachmentRow, error)
	Drawing(ctx context.Context, pk int64) (*types.AttachmentRow, error)
	Media(ctx context.Context, pk int64) (*types.AttachmentRow, error)
}

// NoteLinker renders links to other notes. The conversion session
// implements it, since following a link may convert the target note.
type NoteLinker interface {
	NoteLink(ctx context.Context, uri, text string) string
}

// Resolver renders the attachments of one conversion session and records
// every file it references. It implements markup.Resolver. A Resolver is
// not safe for concurrent use.
type Resolver struct {
	store   Store
	account types.Account
	cfg     types.RenderConfig
	mode    markup.Mode
	links   NoteLinker

	paths  []string
	misses int
}

// NewResolver returns a resolver for attachments of notes in account.
// links may be nil, in which case note links render as their text.
func NewResolver(store Store, account types.Account, cfg types.RenderConfig, links NoteLinker) *Resolver {
	mode := markup.Markdown
	if cfg.Format == types.OutputHTML {
		mode = markup.HTML
	}
	return &Resolver{store: store, account: account, cfg: cfg, mode: mode, links: links}
}

// Mode returns the markup mode the resolver renders in.
func (r *Resolver) Mode() markup.Mode { return r.mode }

// Paths returns every attachment file referenced so far, in order.
func (r *Resolver) Paths() []string {
	return append([]string(nil), r.paths...)
}

// Misses returns how many attachments rendered as a placeholder.
func (r *Resolver) Misses() int { return r.misses }

// Reset clears the recorded paths and misses, e.g. between notes.
func (r *Resolver) Reset() {
	r.paths = nil
	r.misses = 0
}

// Attachment renders one embedded object.
func (r *Resolver) Attachment(ctx context.Context, info codec.AttachmentInfo) string {
	kind := Classify(info.TypeUTI)
	slog.DebugContext(ctx, "resolving attachment", "identifier", info.Identifier, "kind", kind)

	switch kind {
	case Hashtag, Mention:
		alt, err := r.store.AltText(ctx, info.Identifier)
		if err != nil {
			return r.unknown(ctx, info, err)
		}
		if r.mode == markup.HTML {
			return html.EscapeString(alt)
		}
		return alt

	case InternalLink:
		uri, err := r.store.TokenContentIdentifier(ctx, info.Identifier)
		if err != nil {
			return r.unknown(ctx, info, err)
		}
		return r.NoteLink(ctx, uri, "")

	case Table:
		return r.table(ctx, info)

	case URLCard:
		title, link, err := r.store.URLCard(ctx, info.Identifier)
		if err != nil {
			return r.unknown(ctx, info, err)
		}
		if title == "" {
			title = link
		}
		if r.mode == markup.HTML {
			return fmt.Sprintf(`<a href="%s" rel="noopener" class="external-link" target="_blank"><b>%s</b></a>`,
				html.EscapeString(link), html.EscapeString(title))
		}
		return fmt.Sprintf("[**%s**](%s)", title, link)

	case Scan:
		return r.gallery(ctx, info)

	case ModifiedScan, Drawing:
		pk, summary, err := r.store.AttachmentPK(ctx, info.Identifier)
		if err != nil {
			return r.unknown(ctx, info, err)
		}
		return r.file(ctx, kind, pk, summary)

	case Media:
		pk, err := r.store.MediaPK(ctx, info.Identifier)
		if err != nil {
			return r.unknown(ctx, info, err)
		}
		return r.file(ctx, kind, pk, "")
	}
	return r.unknown(ctx, info, nil)
}

// NoteLink delegates to the session's linker.
func (r *Resolver) NoteLink(ctx context.Context, uri, text string) string {
	if r.links == nil {
		if text == "" {
			return uri
		}
		return text
	}
	return r.links.NoteLink(ctx, uri, text)
}

func (r *Resolver) unknown(ctx context.Context, info codec.AttachmentInfo, err error) string {
	r.misses++
	slog.WarnContext(ctx, "unknown attachment", "identifier", info.Identifier, "uti", info.TypeUTI, "error", err)
	return markup.UnknownAttachment(r.mode, info.TypeUTI)
}

func (r *Resolver) unreadable(ctx context.Context, identifier string, err error) string {
	r.misses++
	slog.WarnContext(ctx, "attachment unreadable", "identifier", identifier, "error", err)
	return markup.UnreadableAttachment(r.mode)
}

// table renders a table attachment. Cells are rendered through this
// resolver so that hashtags and links inside cells resolve too.
func (r *Resolver) table(ctx context.Context, info codec.AttachmentInfo) string {
	raw, err := r.store.MergeableData(ctx, info.Identifier)
	if err != nil {
		return r.unknown(ctx, info, err)
	}
	data, err := codec.DecodeMergeable(raw)
	if err != nil {
		return r.unreadable(ctx, info.Identifier, err)
	}
	grid, err := table.Resolve(data, func(cell *codec.Note) string {
		return markup.Render(ctx, cell, markup.Options{Mode: r.mode, Embedded: true}, r)
	})
	if err != nil {
		return r.unreadable(ctx, info.Identifier, err)
	}
	if r.mode == markup.HTML {
		return table.HTML(grid)
	}
	return table.Markdown(grid)
}

// gallery renders every page of a scanned document. The gallery object
// lists its pages as custom maps whose first entry names the page
// attachment.
func (r *Resolver) gallery(ctx context.Context, info codec.AttachmentInfo) string {
	raw, err := r.store.MergeableData(ctx, info.Identifier)
	if err != nil {
		return r.unknown(ctx, info, err)
	}
	data, err := codec.DecodeMergeable(raw)
	if err != nil {
		return r.unreadable(ctx, info.Identifier, err)
	}

	var pages []string
	for _, e := range data.Entries {
		if e.CustomMap == nil || len(e.CustomMap.Entries) == 0 {
			continue
		}
		page := e.CustomMap.Entries[0].Value.String
		if page == "" {
			continue
		}
		pk, _, err := r.store.AttachmentPK(ctx, page)
		if err != nil {
			pages = append(pages, r.unreadable(ctx, page, err))
			continue
		}
		pages = append(pages, r.file(ctx, Scan, pk, ""))
	}
	if len(pages) == 0 {
		return r.unknown(ctx, info, fmt.Errorf("gallery %s has no pages", info.Identifier))
	}
	return "\n" + strings.Join(pages, "\n") + "\n"
}

// file renders a reference to an attachment's binary, preceded by its
// handwriting summary when one is wanted.
func (r *Resolver) file(ctx context.Context, kind Kind, pk int64, summary string) string {
	src, err := r.source(ctx, kind, pk)
	if err != nil {
		return r.unreadable(ctx, fmt.Sprint(pk), err)
	}
	path, err := r.place(src)
	if err != nil {
		return r.unreadable(ctx, src.identifier, err)
	}
	r.paths = append(r.paths, path)

	ref := (&url.URL{Scheme: "file", Path: path}).String()
	var link string
	if r.mode == markup.HTML {
		link = fmt.Sprintf("<img src='%s'>", html.EscapeString(ref))
	} else {
		link = fmt.Sprintf("![](%s)", ref)
	}

	if r.cfg.IncludeHandwriting && summary != "" {
		if r.mode == markup.HTML {
			quoted := strings.ReplaceAll(html.EscapeString(summary), "\n", "<br>")
			return "<blockquote>" + quoted + "</blockquote>" + link
		}
		return "\n> [!Handwriting]-\n> " + strings.ReplaceAll(summary, "\n", "\n> ") + link
	}
	return link
}
