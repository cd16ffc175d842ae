package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TableRow is one row of a lifecycle table, cells in document order.
type TableRow []string

// Cell returns the i-th cell or "" when the row is too short. Vendor
// tables drop columns without warning; parsers must not index past the end.
func (r TableRow) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Tables extracts every <table> in the document as trimmed text rows,
// header rows included. Returns nil when the document has no tables.
func Tables(doc *goquery.Document) [][]TableRow {
	var tables [][]TableRow
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows []TableRow
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var row TableRow
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, normalizeCell(cell.Text()))
			})
			if len(row) > 0 {
				rows = append(rows, row)
			}
		})
		if len(rows) > 0 {
			tables = append(tables, rows)
		}
	})
	return tables
}

// FindRow scans all tables for the first data row whose first cell
// satisfies match. Header rows (first row of each table) are skipped.
func FindRow(doc *goquery.Document, match func(firstCell string) bool) TableRow {
	for _, rows := range Tables(doc) {
		for i, row := range rows {
			if i == 0 {
				continue
			}
			if match(row.Cell(0)) {
				return row
			}
		}
	}
	return nil
}

// HeaderIndex locates a column by fuzzy header match within a table's
// first row. Needles are tried in order and the first one matching any
// header wins, so callers list the most specific needle first; a broad
// needle like "end date" must not claim a column while "extended end
// date" is still unchecked. Returns -1 when no header contains any of
// the needles (case-insensitive).
func HeaderIndex(header TableRow, needles ...string) int {
	for _, needle := range needles {
		lowerNeedle := strings.ToLower(needle)
		for i, cell := range header {
			if strings.Contains(strings.ToLower(cell), lowerNeedle) {
				return i
			}
		}
	}
	return -1
}

func normalizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
