package grid

import "strconv"

// maxWindowLinks is the number of page links shown before gaps kick in.
const maxWindowLinks = 5

// TotalPages returns ceil(count/perPage), never less than 1.
func TotalPages(count, perPage int) int {
	if perPage <= 0 || count <= 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}

// ClampPage bounds page to [1, max(1, total)].
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Paginate returns the records of the given 1-based page.
func Paginate(rows []Record, page, perPage int) []Record {
	if perPage <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(rows) {
		return []Record{}
	}
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end:end]
}

// ShowPagination reports whether navigation controls are needed.
func ShowPagination(count, perPage int) bool {
	return count > perPage
}

// PageLink is one entry of the page window: a page number or a gap.
type PageLink struct {
	Number int
	Gap    bool
}

func (l PageLink) String() string {
	if l.Gap {
		return "..."
	}
	return strconv.Itoa(l.Number)
}

// PageWindow returns the page links to render for the current page:
//
//	total <= 5:           1..total
//	current <= 3:         1..5 ... total
//	current >= total-2:   1 ... total-4..total
//	otherwise:            1 ... current-1 current current+1 ... total
func PageWindow(current, total int) []PageLink {
	var links []PageLink
	pages := func(from, to int) {
		for p := from; p <= to; p++ {
			links = append(links, PageLink{Number: p})
		}
	}
	gap := func() { links = append(links, PageLink{Gap: true}) }

	switch {
	case total <= maxWindowLinks:
		pages(1, total)
	case current <= 3:
		pages(1, min(maxWindowLinks, total))
		gap()
		pages(total, total)
	case current >= total-2:
		pages(1, 1)
		gap()
		pages(max(total-4, 2), total)
	default:
		pages(1, 1)
		gap()
		pages(current-1, current+1)
		gap()
		pages(total, total)
	}
	return links
}

// WindowStrings renders a page window as text, gaps as "...".
func WindowStrings(links []PageLink) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.String()
	}
	return out
}
