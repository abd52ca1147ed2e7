// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notes-export/internal/notestore/notestoretest"
	"github.com/pdiddy/notes-export/pkg/types"
)

var exportedAt = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestExporter(t *testing.T, f *notestoretest.Fixture, cfg types.ExportConfig, w *bytes.Buffer) *Exporter {
	t.Helper()
	src, account := openStore(t, f)
	e := NewExporter(src, account, cfg, w)
	e.now = func() time.Time { return exportedAt }
	return e
}

// exportFixture is a folder with two good notes, one unreadable note, and a
// link from the folder to a note elsewhere.
func exportFixture(t *testing.T) (*linkedNotes, int64) {
	t.Helper()
	ln := newLinkedNotes(t)
	bad := ln.f.Note(notestoretest.Note{Folder: ln.work, Identifier: "BAD", Title: "Broken"})
	ln.f.Exec(`UPDATE zicnotedata SET zdata = ? WHERE znote = ?`, []byte("garbage"), bad)
	return ln, bad
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestExportFolder(t *testing.T) {
	ln, _ := exportFixture(t)
	out := t.TempDir()
	cfg := types.ExportConfig{OutputDir: out, Render: types.RenderConfig{Format: types.OutputMarkdown}}

	var log bytes.Buffer
	result, err := newTestExporter(t, ln.f, cfg, &log).ExportFolder(context.Background(), types.Folder{PK: ln.work, Title: "Work"})
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Converted: 3, Failed: 1}, result)
	assert.True(t, result.HasFailures())
	assert.Equal(t, 4, result.Total())

	assert.Equal(t, "# Alpha\nSee [B](Beta.md)\n", readFile(t, filepath.Join(out, "Alpha.md")))
	assert.Equal(t, "# Gamma\nBack to [start](Alpha.md)\n", readFile(t, filepath.Join(out, "Gamma.md")))
	assert.NoFileExists(t, filepath.Join(out, "Broken.md"))

	for _, want := range []string{"converted: Alpha", "converted: Gamma", "failed:  Broken", "Batch summary: 3 converted, 0 skipped, 1 failed (total: 4)"} {
		assert.Contains(t, log.String(), want)
	}

	m, err := LoadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, "iCloud", m.Account)
	assert.Equal(t, "Work", m.Folder)
	assert.Equal(t, types.OutputMarkdown, m.Format)
	assert.True(t, exportedAt.Equal(m.ExportedAt))
	require.Len(t, m.Notes, 4)
	assert.Equal(t, "Gamma.md", m.Notes["AAAA-0003"].Path)
	assert.Equal(t, types.ExportDone, m.Notes["AAAA-0003"].Status)
	assert.Equal(t, types.ExportFailed, m.Notes["BAD"].Status)
	assert.NotEmpty(t, m.Notes["BAD"].Error)
}

func TestExportFolder_SkipsUnchanged(t *testing.T) {
	ln, _ := exportFixture(t)
	out := t.TempDir()
	cfg := types.ExportConfig{OutputDir: out, Render: types.RenderConfig{Format: types.OutputMarkdown}}
	folder := types.Folder{PK: ln.work, Title: "Work"}
	ctx := context.Background()

	var first bytes.Buffer
	_, err := newTestExporter(t, ln.f, cfg, &first).ExportFolder(ctx, folder)
	require.NoError(t, err)

	var second bytes.Buffer
	result, err := newTestExporter(t, ln.f, cfg, &second).ExportFolder(ctx, folder)
	require.NoError(t, err)
	// Skipped notes are not scanned for links, so Gamma is not reached.
	assert.Equal(t, BatchResult{Skipped: 2, Failed: 1}, result)
	assert.Contains(t, second.String(), "skipped: Alpha (unchanged)")

	cfg.Force = true
	var third bytes.Buffer
	result, err = newTestExporter(t, ln.f, cfg, &third).ExportFolder(ctx, folder)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Converted: 3, Failed: 1}, result)
}

func TestExportFolder_Rename(t *testing.T) {
	ln, _ := exportFixture(t)
	out := t.TempDir()
	cfg := types.ExportConfig{OutputDir: out, Render: types.RenderConfig{Format: types.OutputMarkdown}}
	folder := types.Folder{PK: ln.work, Title: "Work"}
	ctx := context.Background()

	_, err := newTestExporter(t, ln.f, cfg, &bytes.Buffer{}).ExportFolder(ctx, folder)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "Beta.md"))

	ln.f.Exec(`UPDATE ziccloudsyncingobject SET ztitle1 = 'Beta Two', zmodificationdate1 = zmodificationdate1 + 60 WHERE z_pk = ?`, ln.beta)
	_, err = newTestExporter(t, ln.f, cfg, &bytes.Buffer{}).ExportFolder(ctx, folder)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(out, "Beta.md"))
	assert.FileExists(t, filepath.Join(out, "Beta Two.md"))
	m, err := LoadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, "Beta Two.md", m.Notes["AAAA-0002"].Path)
}

func TestExportFolder_RenameOntoPreviousName(t *testing.T) {
	ln, _ := exportFixture(t)
	out := t.TempDir()
	cfg := types.ExportConfig{OutputDir: out, Render: types.RenderConfig{Format: types.OutputMarkdown}}
	folder := types.Folder{PK: ln.work, Title: "Work"}
	ctx := context.Background()

	_, err := newTestExporter(t, ln.f, cfg, &bytes.Buffer{}).ExportFolder(ctx, folder)
	require.NoError(t, err)

	// Alpha takes Beta's old name and is written before Beta moves away.
	ln.f.Exec(`UPDATE ziccloudsyncingobject SET ztitle1 = 'Beta2', zmodificationdate1 = zmodificationdate1 + 60 WHERE z_pk = ?`, ln.beta)
	ln.f.Exec(`UPDATE ziccloudsyncingobject SET ztitle1 = 'Beta', zmodificationdate1 = zmodificationdate1 + 60 WHERE z_pk = ?`, ln.alpha)
	_, err = newTestExporter(t, ln.f, cfg, &bytes.Buffer{}).ExportFolder(ctx, folder)
	require.NoError(t, err)

	assert.Equal(t, "# Alpha\nSee [B](Beta2.md)\n", readFile(t, filepath.Join(out, "Beta.md")))
	assert.Equal(t, "# Beta\nNext [gamma](Gamma.md)\n", readFile(t, filepath.Join(out, "Beta2.md")))
	assert.NoFileExists(t, filepath.Join(out, "Alpha.md"))

	m, err := LoadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, "Beta.md", m.Notes["AAAA-0001"].Path)
	assert.Equal(t, "Beta2.md", m.Notes["AAAA-0002"].Path)
}

func TestExportFolder_Frontmatter(t *testing.T) {
	f := notestoretest.New(t)
	f.Account("iCloud", "ACC")
	work := f.Folder("Work", false)
	f.Note(notestoretest.Note{
		Folder: work, Identifier: "N1", Title: "Plan",
		Created:  time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Modified: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		Doc:      doc(title("Plan"), plain("\nShip it")),
	})
	out := t.TempDir()
	cfg := types.ExportConfig{
		OutputDir:   out,
		Frontmatter: true,
		Render:      types.RenderConfig{Format: types.OutputMarkdown, OmitFirstLine: true},
	}

	_, err := newTestExporter(t, f, cfg, &bytes.Buffer{}).ExportFolder(context.Background(), types.Folder{PK: work, Title: "Work"})
	require.NoError(t, err)

	content := readFile(t, filepath.Join(out, "Plan.md"))
	require.True(t, strings.HasPrefix(content, "---\n"))
	parts := strings.SplitN(content, "---\n", 3)
	require.Len(t, parts, 3)

	var fm noteFrontmatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "N1", fm.ID)
	assert.Equal(t, "Plan", fm.Title)
	assert.Equal(t, "iCloud", fm.Account)
	assert.WithinDuration(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), fm.Created, time.Millisecond)
	assert.True(t, exportedAt.Equal(fm.ExportedAt))
	assert.Equal(t, "\nShip it\n", parts[2])
}

func TestExportFolder_PartialAndAttachments(t *testing.T) {
	f := notestoretest.New(t)
	f.Account("iCloud", "ACC")
	work := f.Folder("Work", false)
	media := f.Media("MED", "pic.png", "")
	f.Attachment(notestoretest.Attachment{Identifier: "IMG", Media: media})
	f.File(filepath.Join("Accounts", "ACC", "Media", "MED", "pic.png"), []byte("png"))
	f.Note(notestoretest.Note{Folder: work, Identifier: "N1", Title: "Pics", Doc: doc(
		plain("Look\n"),
		attached("IMG", "public.png"),
		plain("\n"),
		attached("MISSING", "public.png"),
	)})
	out := t.TempDir()
	cfg := types.ExportConfig{OutputDir: out, Render: types.RenderConfig{Format: types.OutputHTML}}

	var log bytes.Buffer
	result, err := newTestExporter(t, f, cfg, &log).ExportFolder(context.Background(), types.Folder{PK: work, Title: "Work"})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Converted: 1}, result)
	assert.Contains(t, log.String(), "partial: Pics")

	copied := filepath.Join(out, "attachments", "MED", "pic.png")
	assert.FileExists(t, copied)
	assert.Contains(t, readFile(t, filepath.Join(out, "Pics.html")), "<img src='file://"+copied+"'>")

	m, err := LoadManifest(out)
	require.NoError(t, err)
	entry := m.Notes["N1"]
	assert.Equal(t, types.ExportPartial, entry.Status)
	assert.Equal(t, []string{"attachments/MED/pic.png"}, entry.Attachments)
}

func TestExportFolder_FormatChangeResetsManifest(t *testing.T) {
	ln, _ := exportFixture(t)
	out := t.TempDir()
	folder := types.Folder{PK: ln.work, Title: "Work"}
	ctx := context.Background()

	cfg := types.ExportConfig{OutputDir: out, Render: types.RenderConfig{Format: types.OutputMarkdown}}
	_, err := newTestExporter(t, ln.f, cfg, &bytes.Buffer{}).ExportFolder(ctx, folder)
	require.NoError(t, err)

	cfg.Render.Format = types.OutputHTML
	result, err := newTestExporter(t, ln.f, cfg, &bytes.Buffer{}).ExportFolder(ctx, folder)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Converted: 3, Failed: 1}, result)
	assert.FileExists(t, filepath.Join(out, "Alpha.html"))
}

func TestLoadManifest_Missing(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, m.Notes)
	assert.Empty(t, m.Notes)
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("notes: [unclosed"), 0o644))
	_, err := LoadManifest(dir)
	assert.Error(t, err)
}
