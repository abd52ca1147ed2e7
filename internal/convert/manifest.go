// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notes-export/pkg/types"
)

// ManifestFile is the name of the manifest written into the output
// directory.
const ManifestFile = "manifest.yaml"

// LoadManifest reads the manifest in dir. A missing manifest yields an
// empty one.
func LoadManifest(dir string) (*types.Manifest, error) {
	m := &types.Manifest{Notes: map[string]types.ManifestEntry{}}
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Notes == nil {
		m.Notes = map[string]types.ManifestEntry{}
	}
	return m, nil
}

// SaveManifest writes m into dir.
func SaveManifest(dir string, m *types.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// noteFrontmatter is the YAML header of an exported Markdown note.
type noteFrontmatter struct {
	ID         string    `yaml:"id"`
	Title      string    `yaml:"title"`
	Account    string    `yaml:"account,omitempty"`
	Created    time.Time `yaml:"created,omitempty"`
	Modified   time.Time `yaml:"modified,omitempty"`
	ExportedAt time.Time `yaml:"exported_at"`
}

// frontmatter renders the YAML frontmatter block for a converted note.
func frontmatter(res *Result, account types.Account, now time.Time) (string, error) {
	data, err := yaml.Marshal(noteFrontmatter{
		ID:         res.Target.Identifier,
		Title:      res.Target.Title,
		Account:    account.Name,
		Created:    res.Created,
		Modified:   res.Target.Modified,
		ExportedAt: now.UTC().Truncate(time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	return b.String(), nil
}
