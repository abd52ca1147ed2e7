// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/notes-export/internal/codec"
	"github.com/pdiddy/notes-export/pkg/types"
)

// notFound converts sql.ErrNoRows into ErrNotFound.
func notFound(err error, what string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, key, ErrNotFound)
	}
	return fmt.Errorf("querying %s %v: %w", what, key, err)
}

func (s *Store) account(pk int64, name, identifier string) types.Account {
	return types.Account{
		PK:         pk,
		Name:       name,
		Identifier: identifier,
		Path:       filepath.Join(s.dataDir, accountsDir, identifier),
	}
}

// Accounts lists every account in primary key order.
func (s *Store) Accounts(ctx context.Context) ([]types.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT z_pk, zname, zidentifier FROM ziccloudsyncingobject WHERE z_ent = ? ORDER BY z_pk`,
		s.keys.account)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []types.Account
	for rows.Next() {
		var pk int64
		var name, identifier sql.NullString
		if err := rows.Scan(&pk, &name, &identifier); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, s.account(pk, name.String, identifier.String))
	}
	return accounts, rows.Err()
}

// ResolveAccount returns the account called name, or the first account
// when name is empty.
func (s *Store) ResolveAccount(ctx context.Context, name string) (types.Account, error) {
	if name != "" {
		return s.AccountByName(ctx, name)
	}
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return types.Account{}, err
	}
	if len(accounts) == 0 {
		return types.Account{}, fmt.Errorf("account: %w", ErrNotFound)
	}
	return accounts[0], nil
}

// AccountByName returns the account with the given display name.
func (s *Store) AccountByName(ctx context.Context, name string) (types.Account, error) {
	var pk int64
	var identifier sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT z_pk, zidentifier FROM ziccloudsyncingobject WHERE z_ent = ? AND zname = ?`,
		s.keys.account, name,
	).Scan(&pk, &identifier)
	if err != nil {
		return types.Account{}, notFound(err, "account", name)
	}
	return s.account(pk, name, identifier.String), nil
}

// Folders lists folders that are not marked for deletion, by title.
func (s *Store) Folders(ctx context.Context) ([]types.Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT z_pk, ztitle2 FROM ziccloudsyncingobject
		WHERE z_ent = ? AND ztitle2 IS NOT NULL AND zmarkedfordeletion = 0
		ORDER BY ztitle2, z_pk`,
		s.keys.folder)
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	var folders []types.Folder
	for rows.Next() {
		var f types.Folder
		if err := rows.Scan(&f.PK, &f.Title); err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// FolderByName returns the live folder titled name.
func (s *Store) FolderByName(ctx context.Context, name string) (types.Folder, error) {
	f := types.Folder{Title: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT z_pk FROM ziccloudsyncingobject
		WHERE z_ent = ? AND ztitle2 = ? AND zmarkedfordeletion = 0
		ORDER BY z_pk LIMIT 1`,
		s.keys.folder, name,
	).Scan(&f.PK)
	if err != nil {
		return types.Folder{}, notFound(err, "folder", name)
	}
	return f, nil
}

// ListNotes returns the titled notes of a folder without their payloads.
func (s *Store) ListNotes(ctx context.Context, folderPK int64) ([]types.NoteBlob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT z_pk, zidentifier, ztitle1, zfolder, CAST(zmodificationdate1 AS REAL)
		FROM ziccloudsyncingobject
		WHERE z_ent = ? AND ztitle1 IS NOT NULL AND zfolder = ?
		ORDER BY z_pk`,
		s.keys.note, folderPK)
	if err != nil {
		return nil, fmt.Errorf("querying notes of folder %d: %w", folderPK, err)
	}
	defer rows.Close()

	var notes []types.NoteBlob
	for rows.Next() {
		var n types.NoteBlob
		var identifier sql.NullString
		var modified sql.NullFloat64
		if err := rows.Scan(&n.PK, &identifier, &n.Title, &n.FolderPK, &modified); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		n.Identifier = identifier.String
		n.Modified = fromCoreData(modified)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetNote returns a note with its decoded-from-hex payload. Older schemas
// lack some creation date columns; the NULL aliases stand in for them.
// Date columns are declared TIMESTAMP, which the driver would turn into
// Unix times, so they are cast to REAL and converted from Core Data time.
func (s *Store) GetNote(ctx context.Context, pk int64) (*types.NoteBlob, error) {
	n := types.NoteBlob{PK: pk}
	var (
		identifier, title  sql.NullString
		folder             sql.NullInt64
		created3, created2 sql.NullFloat64
		created1, modified sql.NullFloat64
		hexPayload         sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT zcso.zidentifier, zcso.ztitle1, zcso.zfolder,
			CAST(zcso.zcreationdate3 AS REAL), CAST(zcso.zcreationdate2 AS REAL),
			CAST(zcso.zcreationdate1 AS REAL), CAST(zcso.zmodificationdate1 AS REAL),
			hex(nd.zdata)
		FROM zicnotedata AS nd,
			(SELECT *, NULL AS zcreationdate3, NULL AS zcreationdate2 FROM ziccloudsyncingobject) AS zcso
		WHERE zcso.z_pk = nd.znote AND zcso.z_pk = ?`,
		pk,
	).Scan(&identifier, &title, &folder, &created3, &created2, &created1, &modified, &hexPayload)
	if err != nil {
		return nil, notFound(err, "note", pk)
	}

	n.Identifier = identifier.String
	n.Title = title.String
	n.FolderPK = folder.Int64
	for _, c := range []sql.NullFloat64{created3, created2, created1} {
		if c.Valid {
			n.Created = append(n.Created, fromCoreData(c))
		}
	}
	n.Modified = fromCoreData(modified)

	if n.Payload, err = codec.FromHex(hexPayload.String); err != nil {
		return nil, fmt.Errorf("note %d payload: %w", pk, err)
	}
	return &n, nil
}

// NotePKByIdentifier resolves a note identifier (as found in note links).
func (s *Store) NotePKByIdentifier(ctx context.Context, identifier string) (int64, error) {
	var pk int64
	err := s.db.QueryRowContext(ctx,
		`SELECT z_pk FROM ziccloudsyncingobject WHERE z_ent = ? AND zidentifier = ?`,
		s.keys.note, identifier,
	).Scan(&pk)
	if err != nil {
		return 0, notFound(err, "note", identifier)
	}
	return pk, nil
}
