// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the notes-export pipeline:
// rows read from the Notes database snapshot, configuration, and the export
// manifest.
package types

import "time"

// Account is a Notes account and the directory holding its attachment files.
type Account struct {
	PK         int64  `json:"pk" yaml:"pk"`
	Name       string `json:"name" yaml:"name"`
	Identifier string `json:"identifier" yaml:"identifier"`

	// Path is DataDir/Accounts/<Identifier>.
	Path string `json:"path" yaml:"path"`
}

// Folder is a Notes folder.
type Folder struct {
	PK    int64  `json:"pk" yaml:"pk"`
	Title string `json:"title" yaml:"title"`
}

// NoteBlob is one note row joined with its compressed document payload.
type NoteBlob struct {
	PK         int64
	Identifier string
	Title      string
	FolderPK   int64

	// Created holds every creation timestamp column that is set, most
	// recent schema first.
	Created  []time.Time
	Modified time.Time

	// Payload is the gzip-compressed Document message.
	Payload []byte
}

// CreatedAt returns the first known creation time, or the zero time.
func (n NoteBlob) CreatedAt() time.Time {
	if len(n.Created) == 0 {
		return time.Time{}
	}
	return n.Created[0]
}

// AttachmentRow carries the columns needed to locate an attachment's binary.
// Which fields are populated depends on the attachment kind.
type AttachmentRow struct {
	PK         int64
	Identifier string

	// Filename is the original media filename (media only).
	Filename string

	// Generation is the version directory component of the on-disk path
	// (media generation, fallback PDF or fallback image generation).
	Generation string

	Width  int64
	Height int64

	HandwritingSummary string

	NotePK   int64
	Created  time.Time
	Modified time.Time
}
