// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import "strings"

// Markdown renders g as a pipe table whose first row is the header. The
// result is surrounded by blank lines so it stands as its own block.
func Markdown(g Grid) string {
	if g.Rows() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for i, row := range g {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
		if i == 0 {
			b.WriteString("|")
			b.WriteString(strings.Repeat(" -- |", len(row)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// HTML renders g as a table element. Cells are expected to be HTML already.
func HTML(g Grid) string {
	if g.Rows() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<table>")
	for _, row := range g {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(cell)
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}
