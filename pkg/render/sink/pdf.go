package sink

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

// Document is a paged output being assembled.
type Document interface {
	// PageBreak starts a new page.
	PageBreak() error
	// AddImage places img over the whole current page.
	AddImage(img image.Image) error
	// Bytes finalises the document.
	Bytes() ([]byte, error)
}

// PDFOption configures a [PDFDocument].
type PDFOption func(*PDFDocument)

// WithTitle sets the document title metadata.
func WithTitle(title string) PDFOption {
	return func(d *PDFDocument) { d.title = title }
}

// WithCreationDate fixes the creation timestamp, which makes the output
// byte-for-byte reproducible.
func WithCreationDate(t time.Time) PDFOption {
	return func(d *PDFDocument) { d.created = t }
}

// PDFDocument is an A4 portrait PDF built with fpdf. Each page holds one
// full-bleed raster image.
type PDFDocument struct {
	pdf     *fpdf.Fpdf
	title   string
	created time.Time
	images  int
	pages   int
}

// NewPDFDocument creates a document with its first page already open.
func NewPDFDocument(opts ...PDFOption) *PDFDocument {
	d := &PDFDocument{title: "Label sheet"}
	for _, opt := range opts {
		opt(d)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(d.title, true)
	pdf.SetCreator("labelsheet", true)
	if !d.created.IsZero() {
		pdf.SetCreationDate(d.created)
		pdf.SetModificationDate(d.created)
		pdf.SetCatalogSort(true)
	}
	pdf.AddPage()

	d.pdf = pdf
	d.pages = 1
	return d
}

// PageBreak opens a new page.
func (d *PDFDocument) PageBreak() error {
	d.pdf.AddPage()
	d.pages++
	return d.pdf.Error()
}

// AddImage draws img stretched over the current page.
func (d *PDFDocument) AddImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "encode page image")
	}

	name := fmt.Sprintf("page-%d", d.images)
	d.images++
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.ImageOptions(name, 0, 0, sheet.PageWidthMM, sheet.PageHeightMM, false, opts, 0, "")
	if err := d.pdf.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "add page image")
	}
	return nil
}

// Pages returns the number of pages opened so far.
func (d *PDFDocument) Pages() int { return d.pages }

// Bytes renders the PDF.
func (d *PDFDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "write pdf")
	}
	return buf.Bytes(), nil
}

// Assemble adds pages to doc in order. The first page is drawn onto the
// document's initial page; each later page is preceded by one PageBreak.
// The context is checked before every page.
func Assemble(ctx context.Context, doc Document, pages []image.Image) error {
	if len(pages) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no pages to assemble")
	}
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			if err := doc.PageBreak(); err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
		}
		if err := doc.AddImage(p); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return nil
}

// RenderPDF assembles pages into a new [PDFDocument] and returns its bytes.
func RenderPDF(ctx context.Context, pages []image.Image, opts ...PDFOption) ([]byte, error) {
	doc := NewPDFDocument(opts...)
	if err := Assemble(ctx, doc, pages); err != nil {
		return nil, err
	}
	return doc.Bytes()
}
