package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

// recordingDoc records the sequence of calls made on it.
type recordingDoc struct {
	calls   []string
	failOn  int
	counter int
}

func (d *recordingDoc) PageBreak() error {
	d.calls = append(d.calls, "break")
	return nil
}

func (d *recordingDoc) AddImage(img image.Image) error {
	d.counter++
	d.calls = append(d.calls, fmt.Sprintf("image:%d", img.Bounds().Dx()))
	if d.failOn == d.counter {
		return fmt.Errorf("disk full")
	}
	return nil
}

func (d *recordingDoc) Bytes() ([]byte, error) { return nil, nil }

// pagesOfWidth returns n images whose widths 1…n identify their order.
func pagesOfWidth(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = image.NewGray(image.Rect(0, 0, i+1, 1))
	}
	return out
}

func TestAssembleOrder(t *testing.T) {
	tests := []struct {
		pages int
		want  []string
	}{
		{1, []string{"image:1"}},
		{2, []string{"image:1", "break", "image:2"}},
		{4, []string{"image:1", "break", "image:2", "break", "image:3", "break", "image:4"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d pages", tt.pages), func(t *testing.T) {
			doc := &recordingDoc{}
			if err := Assemble(context.Background(), doc, pagesOfWidth(tt.pages)); err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, doc.calls); diff != "" {
				t.Errorf("call order mismatch (-want +got):\n%s", diff)
			}

			breaks := 0
			for _, c := range doc.calls {
				if c == "break" {
					breaks++
				}
			}
			if breaks != tt.pages-1 {
				t.Errorf("page breaks = %d, want %d", breaks, tt.pages-1)
			}
		})
	}
}

func TestAssembleErrors(t *testing.T) {
	t.Run("no pages", func(t *testing.T) {
		err := Assemble(context.Background(), &recordingDoc{}, nil)
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
		}
	})

	t.Run("add image fails", func(t *testing.T) {
		doc := &recordingDoc{failOn: 2}
		err := Assemble(context.Background(), doc, pagesOfWidth(3))
		if err == nil || !strings.Contains(err.Error(), "page 2") {
			t.Fatalf("error = %v, want page 2 failure", err)
		}
		if len(doc.calls) != 3 {
			t.Errorf("kept going after failure: %v", doc.calls)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		doc := &recordingDoc{}
		if err := Assemble(ctx, doc, pagesOfWidth(2)); err != context.Canceled {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if len(doc.calls) != 0 {
			t.Errorf("calls after cancel: %v", doc.calls)
		}
	})
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)
	return img
}

func TestPDFDocument(t *testing.T) {
	doc := NewPDFDocument(WithTitle("Test"), WithCreationDate(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	if doc.Pages() != 1 {
		t.Fatalf("new document has %d pages, want 1", doc.Pages())
	}
	if err := Assemble(context.Background(), doc, []image.Image{solid(40, 56), solid(40, 56), solid(40, 56)}); err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if doc.Pages() != 3 {
		t.Errorf("Pages() = %d, want 3", doc.Pages())
	}

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", data[:min(8, len(data))])
	}
	if got := bytes.Count(data, []byte("/Type /Page\n")); got != 3 {
		t.Errorf("PDF has %d page objects, want 3", got)
	}
}

func TestRenderPDFReproducible(t *testing.T) {
	when := WithCreationDate(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	pages := []image.Image{solid(20, 28)}
	a, err := RenderPDF(context.Background(), pages, when)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RenderPDF(context.Background(), pages, when)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("same input produced different PDFs")
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(solid(7, 5))
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 7 || b.Dy() != 5 {
		t.Errorf("bounds = %v, want 7x5", b)
	}
}

func TestRenderJSON(t *testing.T) {
	g := sheet.Grid{MarginTop: 10, MarginLeft: 5, Columns: 2, Rows: 1, RowHeight: 40}
	sheets := sheet.Layout([]string{"A", "B", "C"}, g, false)

	data, err := RenderJSON(sheets, WithJSONSymbology("CODE128"), WithJSONGrid(g))
	if err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}

	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if out.Unit != "mm" || out.Width != 210 || out.Height != 297 {
		t.Errorf("page = %s %vx%v", out.Unit, out.Width, out.Height)
	}
	if out.Symbology != "CODE128" || out.Grid == nil || out.Grid.Columns != 2 {
		t.Errorf("metadata = %q %+v", out.Symbology, out.Grid)
	}
	if len(out.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(out.Pages))
	}
	if l := out.Pages[1].Labels[0]; l.Code != "C" || l.Box.Left != 5 {
		t.Errorf("second page first label = %+v", l)
	}
}

func TestRenderJSONEmpty(t *testing.T) {
	data, err := RenderJSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"pages": []`)) {
		t.Errorf("empty layout should encode pages as []: %s", data)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		prefix, stamp, ext string
		want               string
		wantErr            bool
	}{
		{"planche", "20240102-030405", "pdf", "planche_20240102-030405.pdf", false},
		{"", "1", ".png", "labels_1.png", false},
		{"sheet", "", "json", "sheet.json", false},
		{"a/b", "1", "pdf", "", true},
		{"..", "1", "pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.prefix+"_"+tt.stamp, func(t *testing.T) {
			got, err := FileName(tt.prefix, tt.stamp, tt.ext)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FileName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}
