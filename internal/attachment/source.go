// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/notes-export/pkg/types"
)

var (
	// ErrFileMissing reports that an attachment's binary is in neither the
	// account directory nor the data directory.
	ErrFileMissing = errors.New("attachment file missing")

	// ErrUnsafeName reports a database value that cannot be used as a
	// single path element.
	ErrUnsafeName = errors.New("unsafe attachment path element")
)

// source locates an attachment binary relative to an account directory and
// names the copy made of it.
type source struct {
	identifier string
	rel        string
	name       string
	ext        string
}

// source reads the row for pk and derives where Notes keeps its file. The
// layout differs per kind and, for drawings, per macOS release.
func (r *Resolver) source(ctx context.Context, kind Kind, pk int64) (source, error) {
	src, err := r.layout(ctx, kind, pk)
	if err != nil {
		return source{}, err
	}
	if err := pathElements(src.identifier, src.name+"."+src.ext); err != nil {
		return source{}, err
	}
	return src, nil
}

// pathElements checks that every value names one entry inside a directory.
// Identifiers, generations and file names come from the database and end up
// in paths on both the read and the copy side.
func pathElements(values ...string) error {
	for _, v := range values {
		if v == "" {
			continue
		}
		if !filepath.IsLocal(v) || filepath.Base(v) != v {
			return fmt.Errorf("%q: %w", v, ErrUnsafeName)
		}
	}
	return nil
}

func (r *Resolver) layout(ctx context.Context, kind Kind, pk int64) (source, error) {
	var (
		row *types.AttachmentRow
		err error
	)
	switch kind {
	case ModifiedScan:
		if row, err = r.store.ScanPDF(ctx, pk); err != nil {
			return source{}, err
		}
		if err := pathElements(row.Generation); err != nil {
			return source{}, err
		}
		return source{
			identifier: row.Identifier,
			rel:        filepath.Join("FallbackPDFs", row.Identifier, row.Generation, "FallbackPDF.pdf"),
			name:       "Scan",
			ext:        "pdf",
		}, nil

	case Scan:
		if row, err = r.store.ScanPage(ctx, pk); err != nil {
			return source{}, err
		}
		return source{
			identifier: row.Identifier,
			rel:        filepath.Join("Previews", fmt.Sprintf("%s-1-%dx%d-0.jpeg", row.Identifier, row.Width, row.Height)),
			name:       "Scan Page",
			ext:        "jpg",
		}, nil

	case Drawing:
		if row, err = r.store.Drawing(ctx, pk); err != nil {
			return source{}, err
		}
		if err := pathElements(row.Generation); err != nil {
			return source{}, err
		}
		src := source{identifier: row.Identifier, name: "Drawing"}
		if row.Generation != "" {
			src.rel = filepath.Join("FallbackImages", row.Identifier, row.Generation, "FallbackImage.png")
			src.ext = "png"
		} else {
			src.rel = filepath.Join("FallbackImages", row.Identifier+".jpg")
			src.ext = "jpg"
		}
		return src, nil

	case Media:
		if row, err = r.store.Media(ctx, pk); err != nil {
			return source{}, err
		}
		if row.Filename == "" {
			return source{}, fmt.Errorf("media %d has no file name: %w", pk, ErrFileMissing)
		}
		if err := pathElements(row.Generation, row.Filename); err != nil {
			return source{}, err
		}
		ext := filepath.Ext(row.Filename)
		return source{
			identifier: row.Identifier,
			rel:        filepath.Join("Media", row.Identifier, row.Generation, row.Filename),
			name:       strings.TrimSuffix(row.Filename, ext),
			ext:        strings.TrimPrefix(ext, "."),
		}, nil
	}
	return source{}, fmt.Errorf("no file layout for %s attachments", kind)
}

// locate finds src under the account directory, then under the data
// directory.
func (r *Resolver) locate(src source) (string, error) {
	for _, root := range []string{r.account.Path, r.store.DataDir()} {
		if root == "" {
			continue
		}
		path := filepath.Join(root, src.rel)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", src.rel, ErrFileMissing)
}

// place returns the path the rendered note should reference: the located
// file itself, or its copy under the attachment directory.
func (r *Resolver) place(src source) (string, error) {
	path, err := r.locate(src)
	if err != nil {
		return "", err
	}
	if r.cfg.AttachmentDir == "" {
		return path, nil
	}

	name := src.name
	if src.ext != "" {
		name += "." + src.ext
	}
	dst := filepath.Join(r.cfg.AttachmentDir, src.identifier, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating attachment directory: %w", err)
	}
	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("copying %s: %w", src.rel, err)
	}
	return dst, nil
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
