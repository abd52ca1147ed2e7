// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"pgregory.net/rapid"

	"github.com/pdiddy/notes-export/internal/codec"
	"github.com/pdiddy/notes-export/internal/table/tabletest"
)

type cellPos = tabletest.Pos

func buildTable(rows, cols int, cells map[cellPos]string) *codec.MergeableData {
	notes := make(map[tabletest.Pos]*codec.Note, len(cells))
	for pos, v := range cells {
		notes[pos] = tabletest.Text(v)
	}
	return tabletest.Build(rows, cols, notes)
}

func plainCell(n *codec.Note) string { return n.Text }

func TestResolve_TwoByTwo(t *testing.T) {
	data := buildTable(2, 2, map[cellPos]string{{Row: 0, Col: 0}: "A"})

	grid, err := Resolve(data, plainCell)
	require.NoError(t, err)
	assert.Equal(t, Grid{{"A", ""}, {"", ""}}, grid)
	assert.Equal(t, 2, grid.Rows())
	assert.Equal(t, 2, grid.Columns())
	assert.Equal(t, "\n| A |  |\n| -- | -- |\n|  |  |\n\n", Markdown(grid))
}

func TestResolve_FullGrid(t *testing.T) {
	cells := map[cellPos]string{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			cells[cellPos{Row: r, Col: c}] = fmt.Sprintf("r%dc%d", r, c)
		}
	}
	grid, err := Resolve(buildTable(3, 2, cells), plainCell)
	require.NoError(t, err)
	assert.Equal(t, Grid{{"r0c0", "r0c1"}, {"r1c0", "r1c1"}, {"r2c0", "r2c1"}}, grid)
}

func TestResolve_StructureErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*codec.MergeableData)
	}{
		{"no root", func(d *codec.MergeableData) { d.Types[1] = "com.example.Other" }},
		{"root key out of range", func(d *codec.MergeableData) {
			root := d.Entries[len(d.Entries)-1].CustomMap
			root.Entries[1].Key = 99
		}},
		{"object index out of range", func(d *codec.MergeableData) {
			root := d.Entries[len(d.Entries)-1].CustomMap
			root.Entries[1].Value.Object = codec.ObjectIndex(len(d.Entries) + 5)
		}},
		{"uuid index out of range", func(d *codec.MergeableData) { d.UUIDs = d.UUIDs[:1] }},
		{"no cell data", func(d *codec.MergeableData) {
			root := d.Entries[len(d.Entries)-1].CustomMap
			root.Entries = root.Entries[:3]
		}},
		{"rows not an ordered set", func(d *codec.MergeableData) {
			root := d.Entries[len(d.Entries)-1].CustomMap
			root.Entries[1].Value.Object = root.Entries[3].Value.Object
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildTable(2, 2, map[cellPos]string{{Row: 0, Col: 0}: "A", {Row: 1, Col: 1}: "B"})
			tt.mutate(data)
			_, err := Resolve(data, plainCell)
			assert.ErrorIs(t, err, ErrStructure)
		})
	}
}

func TestResolve_SkipsUnknownPositions(t *testing.T) {
	data := buildTable(1, 1, map[cellPos]string{{Row: 0, Col: 0}: "A"})
	// Drop the row's contents mapping: the cell's row no longer has a position.
	for i := range data.Entries {
		if s := data.Entries[i].OrderedSet; s != nil {
			s.Contents.Elements = nil
			break
		}
	}
	grid, err := Resolve(data, plainCell)
	require.NoError(t, err)
	assert.Equal(t, Grid{{""}}, grid)
}

func TestRenderHTML(t *testing.T) {
	assert.Equal(t, "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td></td></tr></table>",
		HTML(Grid{{"a", "b"}, {"c", ""}}))
	assert.Empty(t, HTML(nil))
	assert.Empty(t, Markdown(Grid{}))
}

func TestMarkdown_ParsesAsTable(t *testing.T) {
	grid := Grid{{"Name", "Qty"}, {"apples", "3"}, {"pears", ""}}
	src := []byte(Markdown(grid))

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var tables, headers, rows, cells int
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *east.Table:
			tables++
		case *east.TableHeader:
			headers++
		case *east.TableRow:
			rows++
		case *east.TableCell:
			cells++
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tables)
	assert.Equal(t, 1, headers)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 6, cells)
}

// permute reorders the object arena and every dictionary, rewriting object
// references so the table is semantically unchanged.
func permute(t *rapid.T, data *codec.MergeableData) *codec.MergeableData {
	n := len(data.Entries)
	order := rapid.Permutation(identity(n)).Draw(t, "order")
	newIndex := make([]codec.ObjectIndex, n)
	for to, from := range order {
		newIndex[from] = codec.ObjectIndex(to)
	}
	remap := func(o codec.ObjectID) codec.ObjectID {
		o.Object = newIndex[o.Object]
		return o
	}
	shuffle := func(d codec.Dictionary) codec.Dictionary {
		els := rapid.Permutation(d.Elements).Draw(t, "elements")
		for i := range els {
			els[i].Key = remap(els[i].Key)
			els[i].Value = remap(els[i].Value)
		}
		return codec.Dictionary{Elements: els}
	}

	out := &codec.MergeableData{Keys: data.Keys, Types: data.Types, UUIDs: data.UUIDs, Entries: make([]codec.Entry, n)}
	for to, from := range order {
		e := data.Entries[from]
		if e.Dictionary != nil {
			d := shuffle(*e.Dictionary)
			e.Dictionary = &d
		}
		if e.OrderedSet != nil {
			s := *e.OrderedSet
			s.Contents = shuffle(s.Contents)
			e.OrderedSet = &s
		}
		// Only the root map holds object references; uuid references hold
		// interning indices.
		if e.CustomMap != nil && e.CustomMap.Type == 1 {
			cm := *e.CustomMap
			cm.Entries = append([]codec.MapEntry(nil), cm.Entries...)
			for i := range cm.Entries {
				cm.Entries[i].Value = remap(cm.Entries[i].Value)
			}
			e.CustomMap = &cm
		}
		out.Entries[to] = e
	}
	return out
}

func identity(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func testResolve_PermutationInvariant(t *rapid.T) {
	rows := rapid.IntRange(1, 4).Draw(t, "rows")
	cols := rapid.IntRange(1, 4).Draw(t, "cols")
	cells := map[cellPos]string{}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if rapid.Bool().Draw(t, "filled") {
				cells[cellPos{Row: r, Col: c}] = fmt.Sprintf("%d/%d", r, c)
			}
		}
	}
	data := buildTable(rows, cols, cells)

	want, err := Resolve(data, plainCell)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := Resolve(permute(t, data), plainCell)
	if err != nil {
		t.Fatalf("resolve permuted: %v", err)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if got[r][c] != want[r][c] || want[r][c] != cells[cellPos{Row: r, Col: c}] {
				t.Fatalf("cell (%d,%d): got %q, want %q", r, c, got[r][c], cells[cellPos{Row: r, Col: c}])
			}
		}
	}
}

func TestResolve_PermutationInvariant(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testResolve_PermutationInvariant)
}
