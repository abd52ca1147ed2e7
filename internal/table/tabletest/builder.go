// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabletest builds table objects laid out the way Notes stores
// them, for tests of code that consumes tables.
package tabletest

import (
	"github.com/google/uuid"

	"github.com/pdiddy/notes-export/internal/codec"
)

// RootType is the type name of a table's root object.
const RootType = "com.apple.notes.ICTable"

// Pos is a zero-based (row, column) cell position.
type Pos struct{ Row, Col int }

type builder struct {
	data codec.MergeableData
}

func (b *builder) add(e codec.Entry) codec.ObjectIndex {
	b.data.Entries = append(b.data.Entries, e)
	return codec.ObjectIndex(len(b.data.Entries) - 1)
}

// ref adds a uuid reference object for id.
func (b *builder) ref(id uuid.UUID) codec.ObjectID {
	b.data.UUIDs = append(b.data.UUIDs, id[:])
	obj := b.add(codec.Entry{CustomMap: &codec.CustomMap{Type: 0, Entries: []codec.MapEntry{
		{Key: 0, Value: codec.ObjectID{UnsignedInteger: uint64(len(b.data.UUIDs) - 1)}},
	}}})
	return codec.ObjectID{Object: obj}
}

// orderedSet lays out ids in order. Ordering slots get their own uuids so
// the contents indirection is exercised.
func (b *builder) orderedSet(ids []uuid.UUID) codec.ObjectIndex {
	set := &codec.OrderedSet{}
	for i, id := range ids {
		slot := uuid.New()
		set.Ordering = append(set.Ordering, codec.OrderingAttachment{Index: int32(i), UUID: slot[:]})
		set.Contents.Elements = append(set.Contents.Elements, codec.DictionaryElement{Key: b.ref(slot), Value: b.ref(id)})
	}
	return b.add(codec.Entry{OrderedSet: set})
}

func newUUIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

// Build returns a rows x cols table. Each cell present in cells holds a
// note with that text; the root object is the last entry.
func Build(rows, cols int, cells map[Pos]*codec.Note) *codec.MergeableData {
	b := &builder{data: codec.MergeableData{
		Keys:  []string{"UUIDIndex", "crRows", "crColumns", "cellColumns", "self"},
		Types: []string{"com.apple.CRDT.NSUUID", RootType},
	}}
	rowIDs := newUUIDs(rows)
	colIDs := newUUIDs(cols)

	rowSet := b.orderedSet(rowIDs)
	colSet := b.orderedSet(colIDs)

	outer := &codec.Dictionary{}
	for c, colID := range colIDs {
		inner := &codec.Dictionary{}
		for r, rowID := range rowIDs {
			n, ok := cells[Pos{r, c}]
			if !ok {
				continue
			}
			note := b.add(codec.Entry{Note: n})
			inner.Elements = append(inner.Elements, codec.DictionaryElement{Key: b.ref(rowID), Value: codec.ObjectID{Object: note}})
		}
		innerObj := b.add(codec.Entry{Dictionary: inner})
		outer.Elements = append(outer.Elements, codec.DictionaryElement{Key: b.ref(colID), Value: codec.ObjectID{Object: innerObj}})
	}
	cellObj := b.add(codec.Entry{Dictionary: outer})

	b.add(codec.Entry{CustomMap: &codec.CustomMap{Type: 1, Entries: []codec.MapEntry{
		{Key: 4, Value: codec.ObjectID{String: "ignored"}},
		{Key: 1, Value: codec.ObjectID{Object: rowSet}},
		{Key: 2, Value: codec.ObjectID{Object: colSet}},
		{Key: 3, Value: codec.ObjectID{Object: cellObj}},
	}}})
	return &b.data
}

// Text returns a cell note of plain text.
func Text(s string) *codec.Note {
	return &codec.Note{Text: s, Runs: []codec.AttributeRun{{Length: int32(len(s))}}}
}
