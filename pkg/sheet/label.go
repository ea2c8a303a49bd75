package sheet

// Box is a rectangle on the page in millimetres, measured from the top-left
// corner of the sheet.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.Left + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Top + b.Height }

// CenterX returns the horizontal center point of the box.
func (b Box) CenterX() float64 { return b.Left + b.Width/2 }

// CenterY returns the vertical center point of the box.
func (b Box) CenterY() float64 { return b.Top + b.Height/2 }

// Label describes one occupied grid cell. Labels are produced per render and
// are not retained.
type Label struct {
	Code        string `json:"code"`
	Page        int    `json:"page"`
	Cell        int    `json:"cell"`
	Row         int    `json:"row"`
	Column      int    `json:"column"`
	Arrow       Arrow  `json:"arrow,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
	Box         Box    `json:"box"`
}

// Labels returns one descriptor per code on page, filled row-major.
// Cell i sits at row i/Columns and column i%Columns. Unused cells of a partial
// page are omitted.
func Labels(page Page, grid Grid) []Label {
	g := grid.Normalize()
	w := g.CellWidth()

	labels := make([]Label, len(page.Codes))
	for i, code := range page.Codes {
		row, col := i/g.Columns, i%g.Columns
		labels[i] = Label{
			Code:        code,
			Page:        page.Index,
			Cell:        i,
			Row:         row,
			Column:      col,
			Arrow:       g.Arrow,
			Placeholder: page.Placeholder,
			Box: Box{
				Left:   g.MarginLeft + float64(col)*w,
				Top:    g.MarginTop + float64(row)*g.RowHeight,
				Width:  w,
				Height: g.RowHeight,
			},
		}
	}
	return labels
}

// Sheet is a page together with its label descriptors.
type Sheet struct {
	Page   Page    `json:"page"`
	Labels []Label `json:"labels"`
}

// Layout paginates codes with grid and computes the labels of every page.
// When preview is set, an empty list yields the placeholder sheet.
func Layout(codes []string, grid Grid, preview bool) []Sheet {
	g := grid.Normalize()
	var pages []Page
	if preview {
		pages = Preview(codes, g.Columns, g.Rows)
	} else {
		pages = Paginate(codes, g.Columns, g.Rows)
	}

	sheets := make([]Sheet, len(pages))
	for i, p := range pages {
		sheets[i] = Sheet{Page: p, Labels: Labels(p, g)}
	}
	return sheets
}
