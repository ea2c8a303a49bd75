package render

import (
	"fmt"
	"image"
	"math"

	"github.com/boombuler/barcode"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

// Base symbol sizes in pixels at scale 1.
const (
	ModuleWidth   = 2
	LinearHeight  = 50
	MatrixSize    = 100
	DefaultScale  = 1.0
	minScaleRatio = 0.1
)

// Renderer produces the image for one label cell.
type Renderer interface {
	Render(label sheet.Label) (image.Image, error)
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc func(label sheet.Label) (image.Image, error)

// Render calls f.
func (f RendererFunc) Render(label sheet.Label) (image.Image, error) { return f(label) }

// BarcodeRenderer renders labels as barcodes of one symbology.
//
// Linear symbols are scaled to ModuleWidth·Scale pixels per module and
// LinearHeight·Scale pixels high. Matrix symbols are scaled to a
// MatrixSize·Scale pixel square. The returned image is a [*Symbol].
type BarcodeRenderer struct {
	Symbology Symbology
	Scale     float64
	ShowText  bool
}

// Render encodes label.Code and scales the symbol.
func (r BarcodeRenderer) Render(label sheet.Label) (image.Image, error) {
	sym := r.Symbology
	if sym == "" {
		sym = DefaultSymbology
	}
	scale := r.Scale
	if scale < minScaleRatio {
		scale = DefaultScale
	}

	bc, err := Encode(sym, label.Code)
	if err != nil {
		return nil, err
	}

	b := bc.Bounds()
	var w, h int
	if sym.TwoD() {
		side := max(int(math.Round(MatrixSize*scale)), b.Dx(), b.Dy())
		w, h = side, side
	} else {
		w = max(int(math.Round(float64(b.Dx())*ModuleWidth*scale)), b.Dx())
		h = max(int(math.Round(LinearHeight*scale)), 1)
	}

	scaled, err := barcode.Scale(bc, w, h)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSymbology, err, "scale %s symbol", sym)
	}
	s := &Symbol{Barcode: scaled}
	if r.ShowText && !sym.TwoD() {
		s.Text = bc.Content()
	}
	return s, nil
}

// Symbol is a scaled barcode together with the human-readable text printed
// under it. Text is empty when no caption should be drawn.
type Symbol struct {
	barcode.Barcode
	Text string
}

// Caption returns the text to print under the symbol.
func (s *Symbol) Caption() string { return s.Text }

type captioner interface {
	Caption() string
}

// Cell is the outcome of rendering one label.
type Cell struct {
	Label sheet.Label
	Image image.Image
	// Text is the caption under the symbol. Empty means none.
	Text string
	Err  error
}

// OK reports whether the cell rendered successfully.
func (c Cell) OK() bool { return c.Err == nil && c.Image != nil }

// RenderPage renders every label with r. A failure, including a panic inside
// the renderer, is recorded on its cell and rendering continues.
func RenderPage(r Renderer, labels []sheet.Label) []Cell {
	cells := make([]Cell, len(labels))
	for i, l := range labels {
		cells[i] = renderCell(r, l)
	}
	return cells
}

func renderCell(r Renderer, l sheet.Label) (c Cell) {
	c = Cell{Label: l}
	defer func() {
		if p := recover(); p != nil {
			c.Image = nil
			c.Err = errors.New(errors.ErrCodeInvalidSymbology, "render %q: %v", l.Code, p)
		}
	}()

	img, err := r.Render(l)
	if err != nil {
		c.Err = err
		return c
	}
	if img == nil {
		c.Err = errors.New(errors.ErrCodeInternal, "render %q: no image", l.Code)
		return c
	}
	c.Image = img
	if s, ok := img.(captioner); ok {
		c.Text = s.Caption()
	}
	return c
}

// CellErrors collects the failed cells of a page as readable messages.
func CellErrors(cells []Cell) []string {
	var out []string
	for _, c := range cells {
		if c.Err != nil {
			out = append(out, fmt.Sprintf("page %d cell %d (%q): %s",
				c.Label.Page+1, c.Label.Cell+1, c.Label.Code, errors.UserMessage(c.Err)))
		}
	}
	return out
}
