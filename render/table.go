package render

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/width"
)

// renderTable renders structural values as markdown.
//
//   - a sequence of mappings becomes a table over the union of keys,
//     with missing cells empty
//   - a single mapping becomes a key-value list
//   - any other sequence becomes a bullet list
//   - scalars fall back to their raw representation
func renderTable(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return renderKeyValueList(val)
	case []any:
		if rows, ok := asMappingRows(val); ok {
			return renderMappingTable(rows)
		}
		return renderBulletList(val)
	default:
		return renderRaw(v)
	}
}

func asMappingRows(items []any) ([]map[string]any, bool) {
	if len(items) == 0 {
		return nil, false
	}
	rows := make([]map[string]any, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows[i] = m
	}
	return rows, true
}

func renderMappingTable(rows []map[string]any) string {
	keySet := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for k := range row {
			if !keySet[k] {
				keySet[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, keys)
	for _, row := range rows {
		line := make([]string, len(keys))
		for i, k := range keys {
			if cell, ok := row[k]; ok {
				line[i] = cellText(cell)
			}
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(keys))
	for _, line := range cells {
		for i, cell := range line {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow(&b, cells[0], widths)
	sep := make([]string, len(keys))
	for i := range sep {
		sep[i] = strings.Repeat("-", max(widths[i], 3))
	}
	writeRow(&b, sep, widths)
	for _, line := range cells[1:] {
		writeRow(&b, line, widths)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	b.WriteString("|")
	for i, cell := range cells {
		pad := widths[i] - displayWidth(cell)
		if pad < 0 {
			pad = 0
		}
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func renderKeyValueList(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, cellText(m[k]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBulletList(items []any) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", cellText(item))
	}
	return strings.TrimRight(b.String(), "\n")
}

// cellText renders a single cell. Nested structures collapse to compact
// JSON so a table stays one line per row.
func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		s, err := marshalJSON(val, "")
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return s
	default:
		return fmt.Sprintf("%v", val)
	}
}

// displayWidth measures terminal display columns, counting East Asian
// wide and fullwidth runes as two.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}
