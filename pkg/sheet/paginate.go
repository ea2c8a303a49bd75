package sheet

// PlaceholderCode is the sample value shown on an empty preview.
const PlaceholderCode = "EXAMPLE"

// Page is a contiguous slice of the code list destined for one sheet.
// Pages are views: Codes aliases the input slice and must not be modified.
type Page struct {
	Index       int      `json:"index"`
	Codes       []string `json:"codes"`
	Placeholder bool     `json:"placeholder,omitempty"`
}

// Paginate partitions codes into pages of columns×rows cells.
//
// Page k holds codes[k*n : (k+1)*n] with n = columns*rows, for
// k = 0 … ceil(len(codes)/n)-1. Order is preserved and concatenating the pages
// reproduces codes exactly. Columns and rows below 1 are treated as 1.
// An empty list yields no pages.
func Paginate(codes []string, columns, rows int) []Page {
	if columns < 1 {
		columns = 1
	}
	if rows < 1 {
		rows = 1
	}
	n := columns * rows
	if len(codes) == 0 {
		return nil
	}

	count := (len(codes) + n - 1) / n
	pages := make([]Page, 0, count)
	for k := 0; k < count; k++ {
		start := k * n
		end := start + n
		if end > len(codes) {
			end = len(codes)
		}
		pages = append(pages, Page{Index: k, Codes: codes[start:end:end]})
	}
	return pages
}

// Preview paginates like [Paginate], except that an empty list yields one
// placeholder page holding [PlaceholderCode].
func Preview(codes []string, columns, rows int) []Page {
	if len(codes) == 0 {
		return []Page{{Index: 0, Codes: []string{PlaceholderCode}, Placeholder: true}}
	}
	return Paginate(codes, columns, rows)
}

// PageCount returns the number of pages Paginate would produce.
func PageCount(codeCount, columns, rows int) int {
	if codeCount <= 0 {
		return 0
	}
	if columns < 1 {
		columns = 1
	}
	if rows < 1 {
		rows = 1
	}
	n := columns * rows
	return (codeCount + n - 1) / n
}
