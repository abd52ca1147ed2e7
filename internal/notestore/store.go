// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notestore reads the Notes database. The live database is held
// open by the Notes application, so Open copies it (with its WAL siblings)
// into a snapshot directory and every query runs against that copy.
package notestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/notes-export/pkg/types"
)

const (
	dbFile      = "NoteStore.sqlite"
	accountsDir = "Accounts"

	// coreDataEpoch is 2001-01-01T00:00:00Z in Unix seconds.
	coreDataEpoch = 978307200
)

var (
	// ErrNotFound reports a missing row. It is local to the item requested.
	ErrNotFound = errors.New("not found")

	// ErrSourceMissing reports that the Notes database cannot be read at
	// all. No note can be exported when this occurs.
	ErrSourceMissing = errors.New("notes database unavailable")
)

// DefaultDataDir returns the Notes group container of the current user.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, "Library", "Group Containers", "group.com.apple.notes"), nil
}

// entityKeys are the Core Data entity numbers of this database. They differ
// between macOS releases and are read from z_primarykey.
type entityKeys struct {
	note       int64
	folder     int64
	account    int64
	attachment int64
	media      int64
}

// Store queries a snapshot of the Notes database.
type Store struct {
	db          *sql.DB
	dataDir     string
	snapshotDir string
	ownSnapshot bool
	keys        entityKeys
}

// Open snapshots the database found under cfg.DataDir and opens the copy
// read-only. A missing data directory or database wraps ErrSourceMissing.
// The caller must Close the store to remove the snapshot.
func Open(ctx context.Context, cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		var err error
		if dataDir, err = DefaultDataDir(); err != nil {
			return nil, err
		}
	}

	src := filepath.Join(dataDir, dbFile)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMissing, err)
	}

	s := &Store{dataDir: dataDir, snapshotDir: cfg.SnapshotDir}
	if s.snapshotDir == "" {
		dir, err := os.MkdirTemp("", "notes-export-*")
		if err != nil {
			return nil, fmt.Errorf("creating snapshot directory: %w", err)
		}
		s.snapshotDir = dir
		s.ownSnapshot = true
	} else if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	dst := filepath.Join(s.snapshotDir, dbFile)
	if err := snapshot(src, dst); err != nil {
		s.removeSnapshot()
		return nil, err
	}
	slog.DebugContext(ctx, "database snapshot created", "source", src, "snapshot", dst)

	db, err := sql.Open("sqlite3", "file:"+dst+"?_query_only=true")
	if err != nil {
		s.removeSnapshot()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.loadKeys(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// snapshot copies the database and whichever WAL siblings exist.
func snapshot(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("%w: copying database: %v", ErrSourceMissing, err)
	}
	for _, suffix := range []string{"-shm", "-wal"} {
		err := copyFile(src+suffix, dst+suffix)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("copying database%s: %w", suffix, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Close closes the database and removes a snapshot directory Open created.
func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	s.removeSnapshot()
	return err
}

func (s *Store) removeSnapshot() {
	if s.ownSnapshot {
		os.RemoveAll(s.snapshotDir)
	}
}

// DataDir returns the Notes data directory the snapshot was taken from.
func (s *Store) DataDir() string { return s.dataDir }

func (s *Store) loadKeys(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT z_ent, z_name FROM z_primarykey`)
	if err != nil {
		return fmt.Errorf("%w: reading entity keys: %v", ErrSourceMissing, err)
	}
	defer rows.Close()

	found := map[string]int64{}
	for rows.Next() {
		var ent int64
		var name string
		if err := rows.Scan(&ent, &name); err != nil {
			return fmt.Errorf("scanning entity key: %w", err)
		}
		found[name] = ent
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading entity keys: %w", err)
	}

	for name, dst := range map[string]*int64{
		"ICNote":       &s.keys.note,
		"ICFolder":     &s.keys.folder,
		"ICAccount":    &s.keys.account,
		"ICAttachment": &s.keys.attachment,
		"ICMedia":      &s.keys.media,
	} {
		ent, ok := found[name]
		if !ok {
			return fmt.Errorf("%w: entity %s missing from z_primarykey", ErrSourceMissing, name)
		}
		*dst = ent
	}
	return nil
}

// CoreDataTime converts t to seconds since 2001-01-01, the representation
// the Notes database uses.
func CoreDataTime(t time.Time) float64 {
	return float64(t.UnixNano())/1e9 - coreDataEpoch
}

func fromCoreData(v sql.NullFloat64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(coreDataEpoch, 0).Add(time.Duration(v.Float64 * float64(time.Second))).UTC()
}
