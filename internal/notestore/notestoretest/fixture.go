// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notestoretest builds small Notes databases for tests. The schema
// is the subset of ZICCLOUDSYNCINGOBJECT the exporter reads; columns that
// only newer macOS releases have (second and third creation dates,
// handwriting summaries, fallback image generations) are left out so the
// fallbacks for older schemas are exercised.
package notestoretest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/notes-export/internal/codec"
	"github.com/pdiddy/notes-export/internal/notestore"
)

// Entity numbers as found on a recent macOS release.
const (
	EntAttachment = 5
	EntMedia      = 11
	EntNote       = 12
	EntAccount    = 14
	EntFolder     = 15
)

var schema = []string{
	`CREATE TABLE z_primarykey (z_ent INTEGER PRIMARY KEY, z_name VARCHAR, z_super INTEGER, z_max INTEGER)`,
	`CREATE TABLE ziccloudsyncingobject (
		z_pk INTEGER PRIMARY KEY,
		z_ent INTEGER,
		zidentifier VARCHAR,
		zname VARCHAR,
		ztitle VARCHAR,
		ztitle1 VARCHAR,
		ztitle2 VARCHAR,
		zfolder INTEGER,
		zmarkedfordeletion INTEGER DEFAULT 0,
		zcreationdate TIMESTAMP,
		zcreationdate1 TIMESTAMP,
		zmodificationdate TIMESTAMP,
		zmodificationdate1 TIMESTAMP,
		ztypeuti VARCHAR,
		zalttext VARCHAR,
		ztokencontentidentifier VARCHAR,
		zurlstring VARCHAR,
		zmergeabledata1 BLOB,
		zmedia INTEGER,
		znote INTEGER,
		zfilename VARCHAR,
		zgeneration1 VARCHAR,
		zfallbackpdfgeneration VARCHAR,
		zsizewidth INTEGER,
		zsizeheight INTEGER
	)`,
	`CREATE TABLE zicnotedata (z_pk INTEGER PRIMARY KEY, znote INTEGER, zdata BLOB)`,
}

// Fixture is a Notes data directory with a database under construction.
type Fixture struct {
	t       testing.TB
	db      *sql.DB
	DataDir string
}

// New creates an empty Notes data directory in t.TempDir.
func New(t testing.TB) *Fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "NoteStore.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	f := &Fixture{t: t, db: db, DataDir: dir}
	for _, stmt := range schema {
		f.exec(stmt)
	}
	for name, ent := range map[string]int{
		"ICAttachment": EntAttachment,
		"ICMedia":      EntMedia,
		"ICNote":       EntNote,
		"ICAccount":    EntAccount,
		"ICFolder":     EntFolder,
	} {
		f.exec(`INSERT INTO z_primarykey (z_ent, z_name) VALUES (?, ?)`, ent, name)
	}
	return f
}

func (f *Fixture) exec(query string, args ...any) int64 {
	f.t.Helper()
	res, err := f.db.Exec(query, args...)
	if err != nil {
		f.t.Fatalf("fixture: %v\n%s", err, query)
	}
	id, err := res.LastInsertId()
	if err != nil {
		f.t.Fatal(err)
	}
	return id
}

// Exec runs an arbitrary statement against the fixture database.
func (f *Fixture) Exec(query string, args ...any) {
	f.t.Helper()
	f.exec(query, args...)
}

// Account adds an account and returns its primary key.
func (f *Fixture) Account(name, identifier string) int64 {
	f.t.Helper()
	return f.exec(`INSERT INTO ziccloudsyncingobject (z_ent, zname, zidentifier) VALUES (?, ?, ?)`,
		EntAccount, name, identifier)
}

// Folder adds a folder and returns its primary key.
func (f *Fixture) Folder(title string, deleted bool) int64 {
	f.t.Helper()
	return f.exec(`INSERT INTO ziccloudsyncingobject (z_ent, ztitle2, zmarkedfordeletion) VALUES (?, ?, ?)`,
		EntFolder, title, deleted)
}

// Note describes a note row.
type Note struct {
	Folder     int64
	Identifier string
	Title      string
	Doc        *codec.Document
	Created    time.Time
	Modified   time.Time
}

// Note adds a note with its encoded document and returns its primary key.
func (f *Fixture) Note(n Note) int64 {
	f.t.Helper()
	doc := n.Doc
	if doc == nil {
		doc = &codec.Document{}
	}
	payload, err := codec.EncodeNote(doc)
	if err != nil {
		f.t.Fatal(err)
	}
	pk := f.exec(`INSERT INTO ziccloudsyncingobject
		(z_ent, zidentifier, ztitle1, zfolder, zcreationdate1, zmodificationdate1)
		VALUES (?, ?, ?, ?, ?, ?)`,
		EntNote, n.Identifier, nullString(n.Title), n.Folder, coreData(n.Created), coreData(n.Modified))
	f.exec(`INSERT INTO zicnotedata (znote, zdata) VALUES (?, ?)`, pk, payload)
	return pk
}

// Attachment describes an attachment row. Fields not relevant to the
// attachment's type stay zero.
type Attachment struct {
	Identifier     string
	TypeUTI        string
	Note           int64
	AltText        string
	TokenContentID string
	Mergeable      []byte
	Title          string
	URL            string
	Media          int64
	PDFGeneration  string
	Width, Height  int64
	Created        time.Time
	Modified       time.Time
}

// Attachment adds an attachment row and returns its primary key.
func (f *Fixture) Attachment(a Attachment) int64 {
	f.t.Helper()
	return f.exec(`INSERT INTO ziccloudsyncingobject
		(z_ent, zidentifier, ztypeuti, znote, zalttext, ztokencontentidentifier, zmergeabledata1,
		 ztitle, zurlstring, zmedia, zfallbackpdfgeneration, zsizewidth, zsizeheight,
		 zcreationdate, zmodificationdate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		EntAttachment, a.Identifier, a.TypeUTI, nullInt(a.Note), nullString(a.AltText),
		nullString(a.TokenContentID), a.Mergeable, nullString(a.Title), nullString(a.URL),
		nullInt(a.Media), nullString(a.PDFGeneration), a.Width, a.Height,
		coreData(a.Created), coreData(a.Modified))
}

// Media adds a media row and returns its primary key.
func (f *Fixture) Media(identifier, filename, generation string) int64 {
	f.t.Helper()
	return f.exec(`INSERT INTO ziccloudsyncingobject (z_ent, zidentifier, zfilename, zgeneration1) VALUES (?, ?, ?, ?)`,
		EntMedia, identifier, filename, nullString(generation))
}

// File writes data at rel inside the data directory and returns its path.
func (f *Fixture) File(rel string, data []byte) string {
	f.t.Helper()
	path := filepath.Join(f.DataDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.t.Fatal(err)
	}
	return path
}

func coreData(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return notestore.CoreDataTime(t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
