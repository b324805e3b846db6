package grid

import "strings"

// Search keeps the records where any searchable column contains term,
// case-insensitively. Empty values are matched through their placeholder
// text. A blank term returns rows itself.
func Search(rows []Record, term string, columns []Column, empty EmptyText) []Record {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return rows
	}

	searchable := make([]Column, 0, len(columns))
	for _, col := range columns {
		if col.Searchable() {
			searchable = append(searchable, col)
		}
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		for _, col := range searchable {
			if containsFold(cellSearchText(row, col.Accessor, empty), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// cellSearchText is the text search and text filters match against.
func cellSearchText(row Record, accessor string, empty EmptyText) string {
	v := Resolve(row, accessor)
	if IsEmpty(v) {
		return empty.For(accessor)
	}
	return Stringify(v)
}

// containsFold reports whether lowered needle occurs in s, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
