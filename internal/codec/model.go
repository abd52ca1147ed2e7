// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package codec

// StyleType is the paragraph style of an attribute run.
type StyleType int32

const (
	StyleBody         StyleType = -1
	StyleTitle        StyleType = 0
	StyleHeading      StyleType = 1
	StyleSubheading   StyleType = 2
	StyleMonospaced   StyleType = 4
	StyleDottedList   StyleType = 100
	StyleDashedList   StyleType = 101
	StyleNumberedList StyleType = 102
	StyleCheckbox     StyleType = 103
)

// IsList reports whether s is one of the list paragraph styles.
func (s StyleType) IsList() bool {
	switch s {
	case StyleDottedList, StyleDashedList, StyleNumberedList, StyleCheckbox:
		return true
	}
	return false
}

// FontWeight encodes bold and italic together.
type FontWeight int32

const (
	WeightRegular    FontWeight = 0
	WeightBold       FontWeight = 1
	WeightItalic     FontWeight = 2
	WeightBoldItalic FontWeight = 3
)

// Baseline is the vertical offset of a run.
type Baseline int32

const (
	BaselineSub     Baseline = -1
	BaselineDefault Baseline = 0
	BaselineSuper   Baseline = 1
)

// Alignment is the horizontal alignment of a paragraph.
type Alignment int32

const (
	AlignLeft    Alignment = 0
	AlignCenter  Alignment = 1
	AlignRight   Alignment = 2
	AlignJustify Alignment = 3
)

// Color channels are in [0, 1].
type Color struct {
	Red, Green, Blue, Alpha float32
}

type Font struct {
	Name      string
	PointSize float32
	Hints     int32
}

type Checklist struct {
	UUID []byte
	Done bool
}

type ParagraphStyle struct {
	Style      StyleType
	Alignment  Alignment
	Indent     int32
	Checklist  *Checklist
	Blockquote bool
}

// AttachmentInfo points at a row of the attachment table.
type AttachmentInfo struct {
	Identifier string
	TypeUTI    string
}

// AttributeRun formats the next Length UTF-16 code units of the note text.
type AttributeRun struct {
	Length        int32
	Paragraph     *ParagraphStyle
	Font          *Font
	Weight        FontWeight
	Underlined    bool
	Strikethrough bool
	Baseline      Baseline
	Link          string
	Color         *Color
	Attachment    *AttachmentInfo
}

// Style returns the run's paragraph style, StyleBody when none is set.
func (r *AttributeRun) Style() StyleType {
	if r.Paragraph == nil {
		return StyleBody
	}
	return r.Paragraph.Style
}

// Indent returns the run's indent level.
func (r *AttributeRun) Indent() int32 {
	if r.Paragraph == nil {
		return 0
	}
	return r.Paragraph.Indent
}

// Alignment returns the run's paragraph alignment.
func (r *AttributeRun) Alignment() Alignment {
	if r.Paragraph == nil {
		return AlignLeft
	}
	return r.Paragraph.Alignment
}

// Blockquote reports whether the run's paragraph is quoted.
func (r *AttributeRun) Blockquote() bool {
	return r.Paragraph != nil && r.Paragraph.Blockquote
}

// Note is rich text: the full text plus positional attribute runs.
type Note struct {
	Text string
	Runs []AttributeRun
}

// Document is the top-level message stored for every note.
type Document struct {
	Version int32
	Note    Note
}

// Index types into the interning tables of a MergeableData. They are never
// used as plain integers outside the arena that validates them.
type (
	ObjectIndex int32
	KeyIndex    int32
	TypeIndex   int32
	UUIDIndex   uint64
)

// ObjectID is a CRDT reference. Which field is meaningful depends on the
// referencing structure.
type ObjectID struct {
	UnsignedInteger uint64
	String          string
	Object          ObjectIndex
}

// UUIDIndex interprets the unsigned integer value as an index into the
// uuid interning table.
func (o ObjectID) UUIDIndex() UUIDIndex {
	return UUIDIndex(o.UnsignedInteger)
}

type DictionaryElement struct {
	Key   ObjectID
	Value ObjectID
}

type Dictionary struct {
	Elements []DictionaryElement
}

type MapEntry struct {
	Key   KeyIndex
	Value ObjectID
}

type CustomMap struct {
	Type    TypeIndex
	Entries []MapEntry
}

// OrderingAttachment is one slot of an ordered set's explicit ordering.
type OrderingAttachment struct {
	Index int32
	UUID  []byte
}

// OrderedSet pairs an explicit ordering array with a contents dictionary
// mapping CRDT keys to values.
type OrderedSet struct {
	Ordering []OrderingAttachment
	Contents Dictionary
	Elements Dictionary
}

// Entry is one object of a mergeable data object. At most one of the
// payload pointers is usually set.
type Entry struct {
	RegisterLatest *ObjectID
	Dictionary     *Dictionary
	Note           *Note
	CustomMap      *CustomMap
	OrderedSet     *OrderedSet
}

// MergeableData is a decoded mergeable data object: interning tables for
// keys, types and uuids plus the object arena that references them by index.
type MergeableData struct {
	Version int32
	Entries []Entry
	Keys    []string
	Types   []string
	UUIDs   [][]byte
}
