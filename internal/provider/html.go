package provider

import (
	"io"
	"strings"

	"github.com/GarnettJZ/makan-apa/schema"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// table is the text grid of one HTML table, row by row.
type table [][]string

// parseTables extracts every table in the document as a text grid.
// Rows of nested tables belong to the nested table only.
func parseTables(r io.Reader) ([]table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var tables []table
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, collectRows(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tables, nil
}

// collectRows gathers the rows of t without descending into nested tables.
func collectRows(t *html.Node) table {
	var rows table
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				rows = append(rows, collectCells(c))
			default:
				walk(c)
			}
		}
	}
	walk(t)
	return rows
}

func collectCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, nodeText(c))
		}
	}
	return cells
}

// nodeText returns the whitespace-collapsed text under n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// columns holds the indexes of the timetable columns, -1 when absent.
type columns struct {
	date, time, module, room, lecturer int
}

// findColumns maps a header row onto timetable columns.
func findColumns(header []string) (columns, bool) {
	cols := columns{date: -1, time: -1, module: -1, room: -1, lecturer: -1}
	for i, raw := range header {
		h := strings.ToUpper(strings.TrimSpace(raw))
		switch {
		case cols.date < 0 && strings.Contains(h, "DATE"):
			cols.date = i
		case cols.time < 0 && strings.Contains(h, "TIME"):
			cols.time = i
		case cols.module < 0 && (strings.Contains(h, "MODULE") || strings.Contains(h, "SUBJECT")):
			cols.module = i
		case cols.room < 0 && (strings.Contains(h, "ROOM") || strings.Contains(h, "LOCATION") || strings.Contains(h, "VENUE")):
			cols.room = i
		case cols.lecturer < 0 && strings.Contains(h, "LECTURER"):
			cols.lecturer = i
		}
	}
	return cols, cols.date >= 0
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// eventsFromTables turns the first table with a DATE header into raw events.
// The header may be the first row or, when the table has a caption row, the second.
func eventsFromTables(personID string, tables []table) ([]schema.RawEvent, bool) {
	for _, t := range tables {
		for h := 0; h < len(t) && h < 2; h++ {
			cols, ok := findColumns(t[h])
			if !ok {
				continue
			}
			events := make([]schema.RawEvent, 0, len(t)-h-1)
			for _, row := range t[h+1:] {
				date, span := cell(row, cols.date), cell(row, cols.time)
				if date == "" && span == "" {
					continue
				}
				events = append(events, schema.RawEvent{
					PersonID:  personID,
					Day:       date,
					TimeRange: span,
					ModuleID:  cell(row, cols.module),
					Room:      cell(row, cols.room),
					Lecturer:  cell(row, cols.lecturer),
				})
			}
			return events, true
		}
	}
	return nil, false
}
