// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package attachment renders the objects embedded in a note: inline tokens
// (hashtags, mentions, note links), tables, URL cards, scans, drawings and
// media files. Every failure is absorbed into placeholder markup so that a
// broken attachment never stops the note around it from rendering.
package attachment

import "strings"

// Kind is the closed set of attachment kinds this package knows how to
// render. Any type identifier outside the set maps to Media when it may
// carry a file, and to Unknown otherwise.
type Kind int

const (
	Unknown Kind = iota
	Hashtag
	Mention
	InternalLink
	Table
	URLCard
	Scan
	ModifiedScan
	Drawing
	Media
)

const (
	utiHashtag        = "com.apple.notes.inlinetextattachment.hashtag"
	utiMention        = "com.apple.notes.inlinetextattachment.mention"
	utiInternalLink   = "com.apple.notes.inlinetextattachment.link"
	utiTable          = "com.apple.notes.table"
	utiURLCard        = "public.url"
	utiScan           = "com.apple.notes.gallery"
	utiModifiedScan   = "com.apple.paper.doc.scan"
	utiDrawing        = "com.apple.paper"
	utiDrawingLegacy  = "com.apple.drawing"
	utiDrawingLegacy2 = "com.apple.drawing.2"

	// Notes-internal identifiers never have a media file behind them.
	notesPrefix = "com.apple.notes."
)

var kinds = map[string]Kind{
	utiHashtag:        Hashtag,
	utiMention:        Mention,
	utiInternalLink:   InternalLink,
	utiTable:          Table,
	utiURLCard:        URLCard,
	utiScan:           Scan,
	utiModifiedScan:   ModifiedScan,
	utiDrawing:        Drawing,
	utiDrawingLegacy:  Drawing,
	utiDrawingLegacy2: Drawing,
}

// Classify maps a type identifier to its Kind. Media covers the hundreds of
// file types (images, audio, PDFs, vCards) Notes stores as plain files.
func Classify(uti string) Kind {
	if k, ok := kinds[uti]; ok {
		return k
	}
	if uti == "" || strings.HasPrefix(uti, notesPrefix) {
		return Unknown
	}
	return Media
}

func (k Kind) String() string {
	switch k {
	case Hashtag:
		return "hashtag"
	case Mention:
		return "mention"
	case InternalLink:
		return "internal-link"
	case Table:
		return "table"
	case URLCard:
		return "url-card"
	case Scan:
		return "scan"
	case ModifiedScan:
		return "modified-scan"
	case Drawing:
		return "drawing"
	case Media:
		return "media"
	}
	return "unknown"
}
