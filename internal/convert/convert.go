// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns notes into Markdown or HTML files. A Session
// converts single notes and follows the links between them; ExportFolder
// writes every note of a folder, plus the notes they link to, and records
// the outcome in a manifest next to the output.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/notes-export/pkg/types"
)

// attachmentsDir is the default attachment directory under the output
// directory.
const attachmentsDir = "attachments"

// BatchResult holds the outcome of a batch export run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of notes processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any notes failed to export.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Exporter writes converted notes to an output directory.
type Exporter struct {
	src     Source
	account types.Account
	cfg     types.ExportConfig
	w       io.Writer
	now     func() time.Time
}

// NewExporter returns an exporter for notes of account. Progress lines are
// written to w. An empty attachment directory defaults to an attachments
// directory inside the output directory, so the export is self-contained.
func NewExporter(src Source, account types.Account, cfg types.ExportConfig, w io.Writer) *Exporter {
	if cfg.Render.AttachmentDir == "" {
		cfg.Render.AttachmentDir = filepath.Join(cfg.OutputDir, attachmentsDir)
	}
	if !cfg.Render.Format.Valid() {
		cfg.Render.Format = types.OutputMarkdown
	}
	return &Exporter{src: src, account: account, cfg: cfg, w: w, now: time.Now}
}

// ExportFolder exports every titled note of folder and every note reached
// from them through note links. Per-note failures are counted and recorded
// in the manifest; only failures to list the folder or to write the
// manifest are returned as errors.
func (e *Exporter) ExportFolder(ctx context.Context, folder types.Folder) (BatchResult, error) {
	var result BatchResult

	notes, err := e.src.ListNotes(ctx, folder.PK)
	if err != nil {
		return result, fmt.Errorf("listing notes of %s: %w", folder.Title, err)
	}
	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("creating output directory: %w", err)
	}

	manifest, err := LoadManifest(e.cfg.OutputDir)
	if err != nil {
		return result, err
	}
	manifest.Account = e.account.Name
	manifest.Folder = folder.Title
	if manifest.Format != e.cfg.Render.Format {
		// Every file changes extension; nothing recorded can be skipped.
		manifest.Notes = map[string]types.ManifestEntry{}
	}
	manifest.Format = e.cfg.Render.Format

	session := NewSession(e.src, e.account, e.cfg.Render)
	for _, n := range notes {
		session.Add(n)
	}
	slog.InfoContext(ctx, "exporting folder", "folder", folder.Title, "notes", len(notes), "output", e.cfg.OutputDir)

	var stale []string
	for t, ok := session.Next(); ok; t, ok = session.Next() {
		switch status := e.exportNote(ctx, session, t, manifest, &stale); status {
		case types.ExportDone, types.ExportPartial:
			result.Converted++
		case types.ExportNone:
			result.Skipped++
		case types.ExportFailed:
			result.Failed++
		}
	}

	e.removeStale(ctx, manifest, stale)

	manifest.ExportedAt = e.now().UTC()
	if err := SaveManifest(e.cfg.OutputDir, manifest); err != nil {
		return result, err
	}

	fmt.Fprintf(e.w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// exportNote converts and writes one note, updating its manifest entry.
// Notes whose recorded modification time is unchanged and whose output
// still exists are skipped. The previous file of a renamed note is added
// to stale.
func (e *Exporter) exportNote(ctx context.Context, s *Session, t Target, m *types.Manifest, stale *[]string) types.ExportStatus {
	prev, seen := m.Notes[t.Identifier]
	path := filepath.Join(e.cfg.OutputDir, t.File)

	if seen && !e.cfg.Force && prev.Status == types.ExportDone &&
		prev.Path == t.File && prev.Modified.Equal(t.Modified) && fileExists(path) {
		fmt.Fprintf(e.w, "skipped: %s (unchanged)\n", t.Title)
		return types.ExportNone
	}

	entry := types.ManifestEntry{PK: t.PK, Title: t.Title, Modified: t.Modified}
	fail := func(err error) types.ExportStatus {
		fmt.Fprintf(e.w, "failed:  %s (%v)\n", t.Title, err)
		slog.WarnContext(ctx, "note export failed", "pk", t.PK, "title", t.Title, "error", err)
		entry.Status = types.ExportFailed
		entry.Error = err.Error()
		if seen {
			// Keep pointing at the last file that was written successfully.
			entry.Path = prev.Path
		}
		m.Notes[t.Identifier] = entry
		return types.ExportFailed
	}

	res, err := s.ConvertNote(ctx, t.PK)
	if err != nil {
		return fail(err)
	}

	body := res.Content + "\n"
	if e.cfg.Frontmatter && e.cfg.Render.Format == types.OutputMarkdown {
		fm, err := frontmatter(res, e.account, e.now())
		if err != nil {
			return fail(err)
		}
		body = fm + body
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fail(fmt.Errorf("writing %s: %w", t.File, err))
	}

	if seen && prev.Path != "" && prev.Path != t.File {
		// Renamed since the last export. Another note may take over the
		// old name in this run, so removal waits until the run is done.
		*stale = append(*stale, prev.Path)
	}

	entry.Path = t.File
	entry.Attachments = relativePaths(e.cfg.OutputDir, res.Attachments)
	entry.Status = types.ExportDone
	if res.Misses > 0 {
		entry.Status = types.ExportPartial
		entry.Error = fmt.Sprintf("%d attachment(s) could not be rendered", res.Misses)
	}
	m.Notes[t.Identifier] = entry

	if entry.Status == types.ExportPartial {
		fmt.Fprintf(e.w, "partial: %s (%s)\n", t.Title, entry.Error)
	} else {
		fmt.Fprintf(e.w, "converted: %s\n", t.Title)
	}
	return entry.Status
}

// removeStale deletes the previous outputs of renamed notes unless a
// manifest entry still points at them. Names are compared case-insensitively
// because the default macOS file system is.
func (e *Exporter) removeStale(ctx context.Context, m *types.Manifest, stale []string) {
	if len(stale) == 0 {
		return
	}
	live := make(map[string]bool, len(m.Notes))
	for _, entry := range m.Notes {
		if entry.Path != "" {
			live[strings.ToLower(entry.Path)] = true
		}
	}
	for _, p := range stale {
		if live[strings.ToLower(p)] {
			slog.DebugContext(ctx, "previous output reused by another note", "path", p)
			continue
		}
		if err := os.Remove(filepath.Join(e.cfg.OutputDir, p)); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "removing previous output", "path", p, "error", err)
		}
	}
}

// relativePaths expresses attachment paths relative to dir when they live
// inside it.
func relativePaths(dir string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p
		if rel, err := filepath.Rel(dir, p); err == nil && filepath.IsLocal(rel) {
			out[i] = filepath.ToSlash(rel)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
