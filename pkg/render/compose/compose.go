// Package compose rasterises rendered label cells onto an A4 page.
//
// Each cell image is fitted into its label box and centred, with its caption
// underneath. Failed cells get a red ERROR marker in place of the symbol,
// placeholder cells are drawn faded, and arrow markers go in the top-left
// corner of the box.
package compose

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/labelsheet/pkg/fonts"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

const (
	// DefaultDPI is the page resolution when none is set.
	DefaultDPI = 150.0
	// PlaceholderOpacity is the opacity of placeholder cells.
	PlaceholderOpacity = 0.3

	mmPerInch   = 25.4
	paddingMM   = 1.5
	captionPt   = 8.0
	markerPt    = 10.0
	arrowSizeMM = 4.0
)

// Options configures page composition.
type Options struct {
	DPI float64
	// Guides outlines every label box, which helps when aligning a printer.
	Guides bool
}

func (o Options) dpi() float64 {
	if o.DPI <= 0 {
		return DefaultDPI
	}
	return o.DPI
}

// PageSize returns the pixel dimensions of an A4 page at dpi.
func PageSize(dpi float64) (int, int) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return px(sheet.PageWidthMM, dpi), px(sheet.PageHeightMM, dpi)
}

func px(mm, dpi float64) int {
	return int(math.Round(mm / mmPerInch * dpi))
}

// Page draws cells onto a white A4 canvas.
func Page(cells []render.Cell, opts Options) (image.Image, error) {
	dpi := opts.dpi()
	w, h := PageSize(dpi)

	regular, err := fonts.Regular()
	if err != nil {
		return nil, err
	}
	mono, err := fonts.Mono()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	captionFace := fonts.Face(mono, captionPt, dpi)
	markerFace := fonts.Face(regular, markerPt, dpi)

	for _, c := range cells {
		box := pixelBox(c.Label.Box, dpi)
		if opts.Guides {
			drawGuide(dc, box)
		}
		if !c.OK() {
			dc.SetFontFace(markerFace)
			drawError(dc, box)
			continue
		}

		pad := float64(px(paddingMM, dpi))
		inner := box.Inset(pad)
		captionH := 0.0
		if c.Text != "" {
			captionH = float64(captionFace.Metrics().Height.Ceil())
		}

		fw, fh := int(inner.W), int(inner.H-captionH)
		if fw < 1 || fh < 1 {
			continue
		}
		fitted := imaging.Fit(c.Image, fw, fh, imaging.NearestNeighbor)
		if c.Label.Placeholder {
			fitted = fade(fitted, PlaceholderOpacity)
		}
		fb := fitted.Bounds()
		x := inner.X + (inner.W-float64(fb.Dx()))/2
		y := inner.Y + (inner.H-captionH-float64(fb.Dy()))/2
		dc.DrawImage(fitted, int(math.Round(x)), int(math.Round(y)))

		if c.Text != "" {
			dc.SetFontFace(captionFace)
			if c.Label.Placeholder {
				dc.SetRGBA(0, 0, 0, PlaceholderOpacity)
			} else {
				dc.SetRGB(0, 0, 0)
			}
			dc.DrawStringAnchored(c.Text, box.CenterX(), y+float64(fb.Dy())+captionH/2, 0.5, 0.5)
		}

		if c.Label.Arrow.Visible() {
			drawArrow(dc, c.Label.Arrow, box, float64(px(arrowSizeMM, dpi)), pad)
		}
	}
	return dc.Image(), nil
}

// rect is a label box in pixels.
type rect struct{ X, Y, W, H float64 }

func pixelBox(b sheet.Box, dpi float64) rect {
	s := dpi / mmPerInch
	return rect{X: b.Left * s, Y: b.Top * s, W: b.Width * s, H: b.Height * s}
}

func (r rect) Inset(d float64) rect {
	return rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

func (r rect) CenterX() float64 { return r.X + r.W/2 }
func (r rect) CenterY() float64 { return r.Y + r.H/2 }

// fade blends img onto white at the given opacity.
func fade(img *image.NRGBA, opacity float64) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), opacity)
}

func drawGuide(dc *gg.Context, r rect) {
	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(1)
	dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	dc.Stroke()
}

func drawError(dc *gg.Context, r rect) {
	dc.SetRGB(0.85, 0.1, 0.1)
	dc.SetLineWidth(2)
	dc.DrawRectangle(r.X+2, r.Y+2, r.W-4, r.H-4)
	dc.Stroke()
	dc.DrawStringAnchored("ERROR", r.CenterX(), r.CenterY(), 0.5, 0.5)
}

// drawArrow draws a filled triangle of the given size in the top-left corner
// of r, pointing in direction a.
func drawArrow(dc *gg.Context, a sheet.Arrow, r rect, size, pad float64) {
	x0, y0 := r.X+pad, r.Y+pad
	x1, y1 := x0+size, y0+size
	cx, cy := x0+size/2, y0+size/2

	switch a {
	case sheet.ArrowUp:
		dc.MoveTo(cx, y0)
		dc.LineTo(x1, y1)
		dc.LineTo(x0, y1)
	case sheet.ArrowDown:
		dc.MoveTo(x0, y0)
		dc.LineTo(x1, y0)
		dc.LineTo(cx, y1)
	case sheet.ArrowLeft:
		dc.MoveTo(x0, cy)
		dc.LineTo(x1, y0)
		dc.LineTo(x1, y1)
	case sheet.ArrowRight:
		dc.MoveTo(x0, y0)
		dc.LineTo(x1, cy)
		dc.LineTo(x0, y1)
	default:
		return
	}
	dc.ClosePath()
	dc.SetRGB(0, 0, 0)
	dc.Fill()
}
