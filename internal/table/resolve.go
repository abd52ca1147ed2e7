// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table resolves the CRDT structure of an embedded Notes table into
// a grid of cell strings and renders grids as Markdown or HTML tables.
//
// A table is stored as a mergeable data object. Every reference in it goes
// through an interning table (keys, types, uuids) or the object arena, so
// resolution is a sequence of validated index lookups.
package table

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/notes-export/internal/codec"
)

// ErrStructure reports a table whose indices or references do not line up.
var ErrStructure = errors.New("malformed table structure")

// Well-known key and type names of the table format.
const (
	rootType       = "com.apple.notes.ICTable"
	keyRows        = "crRows"
	keyColumns     = "crColumns"
	keyCellColumns = "cellColumns"
)

// Grid is a row-major table of rendered cells. Cells without a value are
// empty strings.
type Grid [][]string

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Columns returns the number of columns.
func (g Grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// CellFunc renders the rich text of one cell.
type CellFunc func(note *codec.Note) string

// arena wraps a decoded object with checked index lookups.
type arena struct {
	data *codec.MergeableData
}

func structuref(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructure, fmt.Sprintf(format, args...))
}

func (a arena) object(i codec.ObjectIndex) (*codec.Entry, error) {
	if i < 0 || int(i) >= len(a.data.Entries) {
		return nil, structuref("object index %d out of range (%d objects)", i, len(a.data.Entries))
	}
	return &a.data.Entries[i], nil
}

func (a arena) key(i codec.KeyIndex) (string, error) {
	if i < 0 || int(i) >= len(a.data.Keys) {
		return "", structuref("key index %d out of range (%d keys)", i, len(a.data.Keys))
	}
	return a.data.Keys[i], nil
}

func (a arena) typeName(i codec.TypeIndex) (string, bool) {
	if i < 0 || int(i) >= len(a.data.Types) {
		return "", false
	}
	return a.data.Types[i], true
}

func (a arena) uuid(i codec.UUIDIndex) (uuid.UUID, error) {
	if i >= codec.UUIDIndex(len(a.data.UUIDs)) {
		return uuid.Nil, structuref("uuid index %d out of range (%d uuids)", i, len(a.data.UUIDs))
	}
	id, err := uuid.FromBytes(a.data.UUIDs[i])
	if err != nil {
		return uuid.Nil, structuref("uuid %d: %v", i, err)
	}
	return id, nil
}

// target follows ref to the object holding a uuid reference and returns
// the uuid it points at.
func (a arena) target(ref codec.ObjectID) (uuid.UUID, error) {
	obj, err := a.object(ref.Object)
	if err != nil {
		return uuid.Nil, err
	}
	if obj.CustomMap == nil || len(obj.CustomMap.Entries) == 0 {
		return uuid.Nil, structuref("object %d is not a uuid reference", ref.Object)
	}
	return a.uuid(obj.CustomMap.Entries[0].Value.UUIDIndex())
}

// Resolve builds the cell grid of a decoded table. cell renders each cell
// sub-document. Cells whose row or column position cannot be determined
// are skipped.
func Resolve(data *codec.MergeableData, cell CellFunc) (Grid, error) {
	a := arena{data: data}

	root, err := a.root()
	if err != nil {
		return nil, err
	}

	var (
		rows, columns locations
		cells         *codec.Entry
	)
	for _, entry := range root.Entries {
		name, err := a.key(entry.Key)
		if err != nil {
			return nil, err
		}
		switch name {
		case keyRows, keyColumns, keyCellColumns:
		default:
			continue
		}
		obj, err := a.object(entry.Value.Object)
		if err != nil {
			return nil, err
		}
		switch name {
		case keyRows:
			if rows, err = a.locations(obj); err != nil {
				return nil, fmt.Errorf("resolving rows: %w", err)
			}
		case keyColumns:
			if columns, err = a.locations(obj); err != nil {
				return nil, fmt.Errorf("resolving columns: %w", err)
			}
		case keyCellColumns:
			cells = obj
		}
	}
	if cells == nil {
		return nil, structuref("table has no cell data")
	}

	grid := make(Grid, rows.count)
	for r := range grid {
		grid[r] = make([]string, columns.count)
	}
	if err := a.fill(grid, cells, rows, columns, cell); err != nil {
		return nil, err
	}
	return grid, nil
}

func (a arena) root() (*codec.CustomMap, error) {
	for i := range a.data.Entries {
		cm := a.data.Entries[i].CustomMap
		if cm == nil {
			continue
		}
		if name, ok := a.typeName(cm.Type); ok && name == rootType {
			return cm, nil
		}
	}
	return nil, structuref("no %s root object", rootType)
}

// locations maps row or column identities to positions.
type locations struct {
	index map[uuid.UUID]int
	count int
}

// locations reads an ordered set: the ordering array fixes positions by
// uuid, and the contents dictionary maps each ordering uuid to the identity
// uuid that cells refer to.
func (a arena) locations(obj *codec.Entry) (locations, error) {
	set := obj.OrderedSet
	if set == nil {
		return locations{}, structuref("expected an ordered set")
	}

	position := make(map[uuid.UUID]int, len(set.Ordering))
	for i, att := range set.Ordering {
		id, err := uuid.FromBytes(att.UUID)
		if err != nil {
			return locations{}, structuref("ordering uuid %d: %v", i, err)
		}
		if _, dup := position[id]; !dup {
			position[id] = i
		}
	}

	loc := locations{index: make(map[uuid.UUID]int, len(set.Contents.Elements)), count: len(set.Ordering)}
	for _, el := range set.Contents.Elements {
		key, err := a.target(el.Key)
		if err != nil {
			return locations{}, err
		}
		value, err := a.target(el.Value)
		if err != nil {
			return locations{}, err
		}
		if pos, ok := position[key]; ok {
			loc.index[value] = pos
		}
	}
	return loc, nil
}

func (l locations) at(id uuid.UUID) (int, bool) {
	pos, ok := l.index[id]
	return pos, ok && pos >= 0 && pos < l.count
}

// fill walks the cell dictionary: column uuid to a dictionary of row uuid
// to cell note.
func (a arena) fill(grid Grid, cells *codec.Entry, rows, columns locations, cell CellFunc) error {
	if cells.Dictionary == nil {
		return structuref("cell data is not a dictionary")
	}
	for _, column := range cells.Dictionary.Elements {
		colID, err := a.target(column.Key)
		if err != nil {
			return err
		}
		c, ok := columns.at(colID)
		if !ok {
			continue
		}
		rowData, err := a.object(column.Value.Object)
		if err != nil {
			return err
		}
		if rowData.Dictionary == nil {
			return structuref("column %s is not a dictionary", colID)
		}
		for _, row := range rowData.Dictionary.Elements {
			rowID, err := a.target(row.Key)
			if err != nil {
				return err
			}
			r, ok := rows.at(rowID)
			if !ok {
				continue
			}
			content, err := a.object(row.Value.Object)
			if err != nil {
				return err
			}
			if content.Note == nil {
				continue
			}
			grid[r][c] = cell(content.Note)
		}
	}
	return nil
}
