package render

import (
	"strings"

	"github.com/mkondo/notionsync/internal/recordmap"
)

// table renders a simple table block (row children, no collection id)
// as a real <table>, honoring the column/row header format flags. A
// table block that is actually a database view gets a placeholder card.
func (r *renderer) table(b *recordmap.Block, depth int) string {
	if b.CollectionID != "" {
		return r.collectionPlaceholder(b)
	}
	if len(b.Content) == 0 {
		return ""
	}

	f := b.FormatView()
	columns := f.TableBlockColumnOrder

	var rows []*recordmap.Block
	for _, id := range b.Content {
		row := r.rm.BlockByID(id)
		if row == nil || row.Type != "table_row" {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return ""
	}

	// column order may be missing on partial blocks; fall back to the
	// first row's property keys
	if len(columns) == 0 {
		for key := range rows[0].Properties {
			columns = append(columns, key)
		}
	}

	var sb strings.Builder
	sb.WriteString("<table>")
	start := 0
	if f.TableBlockColumnHeader {
		sb.WriteString("<thead>" + tableRow(rows[0], columns, true, false) + "</thead>")
		start = 1
	}
	sb.WriteString("<tbody>")
	for _, row := range rows[start:] {
		sb.WriteString(tableRow(row, columns, false, f.TableBlockRowHeader))
	}
	sb.WriteString("</tbody></table>")
	return sb.String()
}

func tableRow(row *recordmap.Block, columns []string, headerRow, headerFirstCol bool) string {
	var sb strings.Builder
	sb.WriteString("<tr>")
	for i, col := range columns {
		cell := row.Properties[col].PlainEscaped()
		switch {
		case headerRow:
			sb.WriteString(`<th scope="col">` + cell + "</th>")
		case headerFirstCol && i == 0:
			sb.WriteString(`<th scope="row">` + cell + "</th>")
		default:
			sb.WriteString("<td>" + cell + "</td>")
		}
	}
	sb.WriteString("</tr>")
	return sb.String()
}
