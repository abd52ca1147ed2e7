// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExportStatus indicates the outcome of exporting one note.
type ExportStatus string

const (
	ExportNone    ExportStatus = "none"
	ExportDone    ExportStatus = "exported"
	ExportPartial ExportStatus = "partial"
	ExportFailed  ExportStatus = "failed"
)

// ManifestEntry records where a note was last written.
type ManifestEntry struct {
	PK          int64        `json:"pk" yaml:"pk"`
	Title       string       `json:"title" yaml:"title"`
	Path        string       `json:"path,omitempty" yaml:"path,omitempty"`
	Attachments []string     `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	Status      ExportStatus `json:"status" yaml:"status"`
	Modified    time.Time    `json:"modified" yaml:"modified"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Manifest is written next to the exported notes. Notes are keyed by their
// Notes identifier so a later export can find the local file it produced.
type Manifest struct {
	Account    string                   `json:"account" yaml:"account"`
	Folder     string                   `json:"folder" yaml:"folder"`
	Format     OutputFormat             `json:"format" yaml:"format"`
	ExportedAt time.Time                `json:"exported_at" yaml:"exported_at"`
	Notes      map[string]ManifestEntry `json:"notes" yaml:"notes"`
}
