// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/notes-export/internal/attachment"
	"github.com/pdiddy/notes-export/internal/codec"
	"github.com/pdiddy/notes-export/internal/markup"
	"github.com/pdiddy/notes-export/pkg/types"
)

const (
	// DefaultMaxLinkDepth bounds how far note links are followed from the
	// notes an export starts with.
	DefaultMaxLinkDepth = 8

	// unknownLink replaces a link whose target note cannot be found.
	unknownLink = "(unknown file link)"

	maxNameRunes = 120
)

var (
	errLinkDepth = errors.New("link depth exceeded")

	unsafeName = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]+`)
)

// Source is the database surface a conversion reads. *notestore.Store
// satisfies it.
type Source interface {
	attachment.Store
	GetNote(ctx context.Context, pk int64) (*types.NoteBlob, error)
	NotePKByIdentifier(ctx context.Context, identifier string) (int64, error)
	ListNotes(ctx context.Context, folderPK int64) ([]types.NoteBlob, error)
}

// Target is a note known to the session, with the file name its output
// is written to.
type Target struct {
	PK         int64
	Identifier string
	Title      string
	Modified   time.Time
	File       string
	// Depth counts note links followed from a starting note.
	Depth int
}

// Result is one converted note.
type Result struct {
	Target      Target
	Created     time.Time
	Content     string
	Attachments []string
	// Misses counts attachments rendered as placeholders.
	Misses int
}

// Session converts notes of one account. It remembers every note it has
// seen so each one gets a single, stable file name and is queued for
// conversion at most once, which also breaks link cycles. A Session is
// not safe for concurrent use.
type Session struct {
	src      Source
	cfg      types.RenderConfig
	resolver *attachment.Resolver

	targets map[int64]*Target
	names   map[string]int64
	pending []int64
	current *Target
}

// NewSession returns a session rendering notes of account with cfg.
func NewSession(src Source, account types.Account, cfg types.RenderConfig) *Session {
	if cfg.MaxLinkDepth <= 0 {
		cfg.MaxLinkDepth = DefaultMaxLinkDepth
	}
	s := &Session{
		src:     src,
		cfg:     cfg,
		targets: make(map[int64]*Target),
		names:   make(map[string]int64),
	}
	s.resolver = attachment.NewResolver(src, account, cfg, s)
	return s
}

// Add registers a starting note and queues it for conversion.
func (s *Session) Add(n types.NoteBlob) Target {
	return *s.register(n, 0)
}

// Next pops the next queued note. Notes reached through links are queued
// as they are discovered.
func (s *Session) Next() (Target, bool) {
	if len(s.pending) == 0 {
		return Target{}, false
	}
	pk := s.pending[0]
	s.pending = s.pending[1:]
	return *s.targets[pk], true
}

func (s *Session) register(n types.NoteBlob, depth int) *Target {
	if t, ok := s.targets[n.PK]; ok {
		return t
	}
	t := &Target{
		PK:         n.PK,
		Identifier: n.Identifier,
		Title:      n.Title,
		Modified:   n.Modified,
		File:       s.fileName(n),
		Depth:      depth,
	}
	s.targets[n.PK] = t
	s.pending = append(s.pending, n.PK)
	return t
}

// fileName derives a file name from the note title. Titles that collide
// with an earlier note get the primary key appended.
func (s *Session) fileName(n types.NoteBlob) string {
	base := strings.Trim(strings.TrimSpace(unsafeName.ReplaceAllString(n.Title, "-")), ".")
	if utf8.RuneCountInString(base) > maxNameRunes {
		base = string([]rune(base)[:maxNameRunes])
	}
	if base == "" {
		base = n.Identifier
	}
	ext := "." + s.cfg.Format.Extension()
	name := base + ext
	if _, taken := s.names[strings.ToLower(name)]; taken {
		name = fmt.Sprintf("%s (%d)%s", base, n.PK, ext)
	}
	s.names[strings.ToLower(name)] = n.PK
	return name
}

// ConvertNote renders the note pk. Errors are local to the note: the
// session stays usable for the rest of a batch.
func (s *Session) ConvertNote(ctx context.Context, pk int64) (*Result, error) {
	blob, err := s.src.GetNote(ctx, pk)
	if err != nil {
		return nil, err
	}
	doc, err := codec.DecodeNote(blob.Payload)
	if err != nil {
		return nil, fmt.Errorf("note %d: %w", pk, err)
	}

	t := s.register(*blob, 0)
	s.current = t
	defer func() { s.current = nil }()

	s.resolver.Reset()
	content := markup.Render(ctx, &doc.Note, markup.Options{
		Mode:          s.resolver.Mode(),
		OmitFirstLine: s.cfg.OmitFirstLine,
	}, s.resolver)
	slog.DebugContext(ctx, "note converted", "pk", pk, "title", t.Title, "misses", s.resolver.Misses())

	return &Result{
		Target:      *t,
		Created:     blob.CreatedAt(),
		Content:     content,
		Attachments: s.resolver.Paths(),
		Misses:      s.resolver.Misses(),
	}, nil
}

// NoteLink renders a link to the note named by uri and queues that note
// for conversion. text is the formatted link text; when empty the target's
// title is used.
func (s *Session) NoteLink(ctx context.Context, uri, text string) string {
	identifier, ok := markup.NoteLinkIdentifier(uri)
	if !ok {
		return text
	}
	t, err := s.follow(ctx, identifier)
	switch {
	case errors.Is(err, errLinkDepth):
		slog.DebugContext(ctx, "note link not followed", "identifier", identifier, "error", err)
		if text == "" {
			return unknownLink
		}
		return text
	case err != nil:
		slog.WarnContext(ctx, "note link unresolved", "identifier", identifier, "error", err)
		return unknownLink
	}

	asHTML := s.resolver.Mode() == markup.HTML
	if text == "" {
		text = t.Title
		if asHTML {
			text = html.EscapeString(text)
		}
	}
	href := (&url.URL{Path: t.File}).EscapedPath()
	if asHTML {
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), text)
	}
	return fmt.Sprintf("[%s](%s)", text, href)
}

// follow returns the target for a linked note, registering it one level
// deeper than the note being converted.
func (s *Session) follow(ctx context.Context, identifier string) (*Target, error) {
	pk, err := s.src.NotePKByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if t, ok := s.targets[pk]; ok {
		return t, nil
	}
	depth := 1
	if s.current != nil {
		depth = s.current.Depth + 1
	}
	if depth > s.cfg.MaxLinkDepth {
		return nil, fmt.Errorf("note %s at depth %d: %w", identifier, depth, errLinkDepth)
	}
	blob, err := s.src.GetNote(ctx, pk)
	if err != nil {
		return nil, err
	}
	return s.register(*blob, depth), nil
}
