// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pdiddy/notes-export/internal/codec"
	"github.com/pdiddy/notes-export/pkg/types"
)

// stringColumn reads one text column of the object with the given
// identifier. A NULL value counts as not found.
func (s *Store) stringColumn(ctx context.Context, column, identifier string) (string, error) {
	var v sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT `+column+` FROM ziccloudsyncingobject WHERE zidentifier = ?`,
		identifier,
	).Scan(&v)
	if err != nil {
		return "", notFound(err, column+" of", identifier)
	}
	if !v.Valid {
		return "", fmt.Errorf("%s of %s: %w", column, identifier, ErrNotFound)
	}
	return v.String, nil
}

// AltText returns the display text of a hashtag or mention.
func (s *Store) AltText(ctx context.Context, identifier string) (string, error) {
	return s.stringColumn(ctx, "zalttext", identifier)
}

// TokenContentIdentifier returns the note link target of an inline link
// attachment.
func (s *Store) TokenContentIdentifier(ctx context.Context, identifier string) (string, error) {
	return s.stringColumn(ctx, "ztokencontentidentifier", identifier)
}

// URLCard returns the title and address of a URL card attachment.
func (s *Store) URLCard(ctx context.Context, identifier string) (title, url string, err error) {
	var t, u sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT ztitle, zurlstring FROM ziccloudsyncingobject WHERE zidentifier = ?`,
		identifier,
	).Scan(&t, &u)
	if err != nil {
		return "", "", notFound(err, "url card", identifier)
	}
	if !u.Valid {
		return "", "", fmt.Errorf("url card %s: %w", identifier, ErrNotFound)
	}
	return t.String, u.String, nil
}

// MergeableData returns the compressed embedded object of a table or scan
// gallery attachment.
func (s *Store) MergeableData(ctx context.Context, identifier string) ([]byte, error) {
	var hexData sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT hex(zmergeabledata1) FROM ziccloudsyncingobject WHERE zidentifier = ?`,
		identifier,
	).Scan(&hexData)
	if err != nil {
		return nil, notFound(err, "mergeable data of", identifier)
	}
	if hexData.String == "" {
		return nil, fmt.Errorf("mergeable data of %s: %w", identifier, ErrNotFound)
	}
	return codec.FromHex(hexData.String)
}

// AttachmentPK returns the primary key of the attachment with the given
// identifier and its handwriting summary, which older schemas lack.
func (s *Store) AttachmentPK(ctx context.Context, identifier string) (int64, string, error) {
	var pk int64
	var summary sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT z_pk, zhandwritingsummary
		FROM (SELECT *, NULL AS zhandwritingsummary FROM ziccloudsyncingobject)
		WHERE zidentifier = ?`,
		identifier,
	).Scan(&pk, &summary)
	if err != nil {
		return 0, "", notFound(err, "attachment", identifier)
	}
	return pk, summary.String, nil
}

// MediaPK returns the media row referenced by an attachment.
func (s *Store) MediaPK(ctx context.Context, identifier string) (int64, error) {
	var media sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT zmedia FROM ziccloudsyncingobject WHERE zidentifier = ?`,
		identifier,
	).Scan(&media)
	if err != nil {
		return 0, notFound(err, "attachment", identifier)
	}
	if !media.Valid || media.Int64 == 0 {
		return 0, fmt.Errorf("media of %s: %w", identifier, ErrNotFound)
	}
	return media.Int64, nil
}

// attachmentRow reads an attachment row. generation names the column
// holding the version directory, which may not exist in older schemas.
func (s *Store) attachmentRow(ctx context.Context, pk int64, generation string) (*types.AttachmentRow, error) {
	var (
		row               types.AttachmentRow
		identifier, gen   sql.NullString
		summary           sql.NullString
		width, height     sql.NullInt64
		note              sql.NullInt64
		created, modified sql.NullFloat64
	)
	query := fmt.Sprintf(
		`SELECT zidentifier, %[1]s, zsizewidth, zsizeheight, zhandwritingsummary,
			znote, CAST(zcreationdate AS REAL), CAST(zmodificationdate AS REAL)
		FROM (SELECT *, NULL AS %[1]s, NULL AS zhandwritingsummary FROM ziccloudsyncingobject)
		WHERE z_ent = ? AND z_pk = ?`, generation)
	err := s.db.QueryRowContext(ctx, query, s.keys.attachment, pk).
		Scan(&identifier, &gen, &width, &height, &summary, &note, &created, &modified)
	if err != nil {
		return nil, notFound(err, "attachment", pk)
	}
	row.PK = pk
	row.Identifier = identifier.String
	row.Generation = gen.String
	row.Width = width.Int64
	row.Height = height.Int64
	row.HandwritingSummary = summary.String
	row.NotePK = note.Int64
	row.Created = fromCoreData(created)
	row.Modified = fromCoreData(modified)
	return &row, nil
}

// ScanPDF returns the row of a modified scan, whose PDF lives under
// FallbackPDFs.
func (s *Store) ScanPDF(ctx context.Context, pk int64) (*types.AttachmentRow, error) {
	return s.attachmentRow(ctx, pk, "zfallbackpdfgeneration")
}

// ScanPage returns the row of one scanned page, whose preview image size is
// part of its file name.
func (s *Store) ScanPage(ctx context.Context, pk int64) (*types.AttachmentRow, error) {
	return s.attachmentRow(ctx, pk, "zfallbackimagegeneration")
}

// Drawing returns the row of a drawing, whose rendered image lives under
// FallbackImages.
func (s *Store) Drawing(ctx context.Context, pk int64) (*types.AttachmentRow, error) {
	return s.attachmentRow(ctx, pk, "zfallbackimagegeneration")
}

// Media returns a media row joined with the attachment that references it.
func (s *Store) Media(ctx context.Context, pk int64) (*types.AttachmentRow, error) {
	var (
		row                       types.AttachmentRow
		identifier, filename, gen sql.NullString
		note                      sql.NullInt64
		created, modified         sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT a.zidentifier, a.zfilename, a.zgeneration1, b.znote,
			CAST(b.zcreationdate AS REAL), CAST(b.zmodificationdate AS REAL)
		FROM (SELECT *, NULL AS zgeneration1 FROM ziccloudsyncingobject) AS a,
			ziccloudsyncingobject AS b
		WHERE a.z_ent = ? AND a.z_pk = ? AND a.z_pk = b.zmedia`,
		s.keys.media, pk,
	).Scan(&identifier, &filename, &gen, &note, &created, &modified)
	if err != nil {
		return nil, notFound(err, "media", pk)
	}
	row.PK = pk
	row.Identifier = identifier.String
	row.Filename = filename.String
	row.Generation = gen.String
	row.NotePK = note.Int64
	row.Created = fromCoreData(created)
	row.Modified = fromCoreData(modified)
	return &row, nil
}
