// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/notes-export/internal/codec"
	"github.com/pdiddy/notes-export/internal/notestore"
	"github.com/pdiddy/notes-export/internal/notestore/notestoretest"
	"github.com/pdiddy/notes-export/pkg/types"
)

// --- test helpers ---

type run struct {
	text string
	attr codec.AttributeRun
}

func plain(s string) run { return run{text: s} }

func title(s string) run {
	return run{text: s, attr: codec.AttributeRun{Paragraph: &codec.ParagraphStyle{Style: codec.StyleTitle}}}
}

func linkTo(s, identifier string) run {
	return run{text: s, attr: codec.AttributeRun{Link: "applenotes:note/" + identifier}}
}

func attached(identifier, uti string) run {
	return run{text: "\ufffc", attr: codec.AttributeRun{Attachment: &codec.AttachmentInfo{Identifier: identifier, TypeUTI: uti}}}
}

// doc assembles a document from ASCII runs (one byte per UTF-16 unit) and
// attachment runs.
func doc(runs ...run) *codec.Document {
	d := &codec.Document{}
	for _, r := range runs {
		d.Note.Text += r.text
		r.attr.Length = int32(len([]rune(r.text)))
		d.Note.Runs = append(d.Note.Runs, r.attr)
	}
	return d
}

func openStore(t *testing.T, f *notestoretest.Fixture) (*notestore.Store, types.Account) {
	t.Helper()
	ctx := context.Background()
	s, err := notestore.Open(ctx, types.StoreConfig{DataDir: f.DataDir, SnapshotDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	account, err := s.ResolveAccount(ctx, "")
	require.NoError(t, err)
	return s, account
}

// linkedNotes builds Alpha -> Beta -> Gamma -> Alpha in folder "Work";
// Gamma lives in another folder.
type linkedNotes struct {
	f                  *notestoretest.Fixture
	work               int64
	alpha, beta, gamma int64
}

func newLinkedNotes(t *testing.T) *linkedNotes {
	t.Helper()
	f := notestoretest.New(t)
	f.Account("iCloud", "ACC")
	work := f.Folder("Work", false)
	other := f.Folder("Other", false)
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ln := &linkedNotes{f: f, work: work}
	ln.alpha = f.Note(notestoretest.Note{
		Folder: work, Identifier: "AAAA-0001", Title: "Alpha", Modified: modified,
		Doc: doc(title("Alpha"), plain("\nSee "), linkTo("B", "aaaa-0002")),
	})
	ln.beta = f.Note(notestoretest.Note{
		Folder: work, Identifier: "AAAA-0002", Title: "Beta", Modified: modified,
		Doc: doc(title("Beta"), plain("\nNext "), linkTo("gamma", "AAAA-0003")),
	})
	ln.gamma = f.Note(notestoretest.Note{
		Folder: other, Identifier: "AAAA-0003", Title: "Gamma", Modified: modified,
		Doc: doc(title("Gamma"), plain("\nBack to "), linkTo("start", "AAAA-0001")),
	})
	return ln
}

// --- ConvertNote ---

func TestConvertNote(t *testing.T) {
	f := notestoretest.New(t)
	f.Account("iCloud", "ACC")
	created := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	pk := f.Note(notestoretest.Note{
		Identifier: "N1", Title: "Title", Created: created,
		Doc: doc(title("Title"), plain("\nBody")),
	})
	src, account := openStore(t, f)
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  types.RenderConfig
		want string
	}{
		{"markdown", types.RenderConfig{Format: types.OutputMarkdown}, "# Title\nBody"},
		{"omit first line", types.RenderConfig{Format: types.OutputMarkdown, OmitFirstLine: true}, "Body"},
		{"html", types.RenderConfig{Format: types.OutputHTML}, "<h1>Title</h1>\n<p>Body</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(src, account, tt.cfg)
			res, err := s.ConvertNote(ctx, pk)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Content)
			assert.Equal(t, "Title."+tt.cfg.Format.Extension(), res.Target.File)
			assert.WithinDuration(t, created, res.Created, time.Millisecond)
			assert.Zero(t, res.Misses)
		})
	}
}

func TestConvertNote_Errors(t *testing.T) {
	f := notestoretest.New(t)
	f.Account("iCloud", "ACC")
	bad := f.Note(notestoretest.Note{Identifier: "BAD", Title: "Bad"})
	f.Exec(`UPDATE zicnotedata SET zdata = ? WHERE znote = ?`, []byte("not gzip"), bad)
	src, account := openStore(t, f)
	s := NewSession(src, account, types.RenderConfig{})
	ctx := context.Background()

	_, err := s.ConvertNote(ctx, bad)
	assert.ErrorIs(t, err, codec.ErrDecode)

	_, err = s.ConvertNote(ctx, 4242)
	assert.ErrorIs(t, err, notestore.ErrNotFound)
}

func TestConvertNote_Attachments(t *testing.T) {
	f := notestoretest.New(t)
	f.Account("iCloud", "ACC")
	f.Attachment(notestoretest.Attachment{Identifier: "TAG", AltText: "#work"})
	f.Attachment(notestoretest.Attachment{Identifier: "LNK", TokenContentID: "applenotes:note/aaaa-0009?ownerIdentifier=x"})
	f.Note(notestoretest.Note{Identifier: "AAAA-0009", Title: "Target"})
	pk := f.Note(notestoretest.Note{Identifier: "SRC", Title: "Source", Doc: doc(
		plain("Tagged "),
		attached("TAG", "com.apple.notes.inlinetextattachment.hashtag"),
		plain(" see "),
		attached("LNK", "com.apple.notes.inlinetextattachment.link"),
		plain(" and "),
		attached("GONE", "public.jpeg"),
	)})
	src, account := openStore(t, f)

	s := NewSession(src, account, types.RenderConfig{Format: types.OutputMarkdown})
	res, err := s.ConvertNote(context.Background(), pk)
	require.NoError(t, err)
	assert.Equal(t, "Tagged #work see [Target](Target.md) and  **(unknown attachment: public.jpeg)**", res.Content)
	assert.Equal(t, 1, res.Misses)
}

// --- links ---

func TestSession_FollowsLinksOnce(t *testing.T) {
	ln := newLinkedNotes(t)
	src, account := openStore(t, ln.f)
	ctx := context.Background()

	notes, err := src.ListNotes(ctx, ln.work)
	require.NoError(t, err)
	s := NewSession(src, account, types.RenderConfig{Format: types.OutputMarkdown})
	for _, n := range notes {
		s.Add(n)
	}

	got := map[string]string{}
	var order []string
	for tgt, ok := s.Next(); ok; tgt, ok = s.Next() {
		res, err := s.ConvertNote(ctx, tgt.PK)
		require.NoError(t, err)
		got[tgt.Title] = res.Content
		order = append(order, tgt.Title)
	}

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, order, "each note is converted once despite the cycle")
	assert.Equal(t, "# Alpha\nSee [B](Beta.md)", got["Alpha"])
	assert.Equal(t, "# Beta\nNext [gamma](Gamma.md)", got["Beta"])
	assert.Equal(t, "# Gamma\nBack to [start](Alpha.md)", got["Gamma"])
}

func TestSession_LinkDepth(t *testing.T) {
	ln := newLinkedNotes(t)
	src, account := openStore(t, ln.f)
	ctx := context.Background()

	alpha, err := src.GetNote(ctx, ln.alpha)
	require.NoError(t, err)
	s := NewSession(src, account, types.RenderConfig{Format: types.OutputMarkdown, MaxLinkDepth: 1})
	s.Add(*alpha)

	var titles []string
	contents := map[string]string{}
	for tgt, ok := s.Next(); ok; tgt, ok = s.Next() {
		res, err := s.ConvertNote(ctx, tgt.PK)
		require.NoError(t, err)
		titles = append(titles, tgt.Title)
		contents[tgt.Title] = res.Content
		if tgt.Title == "Beta" {
			assert.Equal(t, 1, tgt.Depth)
		}
	}
	assert.Equal(t, []string{"Alpha", "Beta"}, titles)
	assert.Equal(t, "# Beta\nNext gamma", contents["Beta"], "links past the depth limit keep their text")
}

func TestNoteLink(t *testing.T) {
	ln := newLinkedNotes(t)
	ln.f.Note(notestoretest.Note{Identifier: "AAAA-0004", Title: "Q&A: notes"})
	src, account := openStore(t, ln.f)
	ctx := context.Background()

	tests := []struct {
		name   string
		format types.OutputFormat
		uri    string
		text   string
		want   string
	}{
		{"titled", types.OutputMarkdown, "applenotes:note/aaaa-0002", "", "[Beta](Beta.md)"},
		{"own text", types.OutputMarkdown, "applenotes:note/AAAA-0002", "**b**", "[**b**](Beta.md)"},
		{"escaped name", types.OutputMarkdown, "applenotes:note/aaaa-0004", "", "[Q&A: notes](Q&A-%20notes.md)"},
		{"html", types.OutputHTML, "applenotes:note/aaaa-0004", "", `<a href="Q&amp;A-%20notes.html">Q&amp;A: notes</a>`},
		{"missing", types.OutputMarkdown, "applenotes:note/ffff-ffff", "x", unknownLink},
		{"not a note link", types.OutputMarkdown, "https://example.com", "x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(src, account, types.RenderConfig{Format: tt.format})
			assert.Equal(t, tt.want, s.NoteLink(ctx, tt.uri, tt.text))
		})
	}
}

func TestFileName(t *testing.T) {
	s := NewSession(nil, types.Account{}, types.RenderConfig{Format: types.OutputMarkdown})
	tests := []struct {
		note types.NoteBlob
		want string
	}{
		{types.NoteBlob{PK: 1, Identifier: "I1", Title: "Plan"}, "Plan.md"},
		{types.NoteBlob{PK: 2, Identifier: "I2", Title: "plan"}, "plan (2).md"},
		{types.NoteBlob{PK: 3, Identifier: "I3", Title: "a/b: c?"}, "a-b- c-.md"},
		{types.NoteBlob{PK: 4, Identifier: "I4", Title: "  ..  "}, "I4.md"},
		{types.NoteBlob{PK: 5, Identifier: "I5"}, "I5.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.fileName(tt.note), tt.note.Title)
	}
}
