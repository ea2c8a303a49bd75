package render

import (
	"image"
	"strings"
	"testing"

	"github.com/boombuler/barcode"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

func TestParseSymbology(t *testing.T) {
	tests := []struct {
		in      string
		want    Symbology
		wantErr bool
	}{
		{"", CODE128, false},
		{"code128", CODE128, false},
		{"Code-39", CODE39, false},
		{"ean", EAN13, false},
		{"EAN13", EAN13, false},
		{"ean-8", EAN8, false},
		{"qr", QRCODE, false},
		{" QRCODE ", QRCODE, false},
		{"datamatrix", DATAMATRIX, false},
		{"itf", ITF, false},
		{"pdf417", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSymbology(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSymbology(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidSymbology) {
				t.Errorf("error code = %s", errors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("ParseSymbology(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEveryEncoderRegistered(t *testing.T) {
	for _, s := range Symbologies {
		if _, ok := encoders[s]; !ok {
			t.Errorf("no encoder for %s", s)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		sym         Symbology
		value       string
		wantContent string
		wantErr     bool
	}{
		{CODE128, "ABC-123", "ABC-123", false},
		{CODE39, "HELLO", "HELLO", false},
		{EAN13, "400638133393", "4006381333931", false},
		{EAN13, "4006381333931", "4006381333931", false},
		{EAN13, "400-638-133-393", "4006381333931", false},
		{EAN13, "4006381333932", "", true},
		{EAN13, "12345", "", true},
		{EAN8, "9638507", "96385074", false},
		{ITF, "123", "0123", false},
		{ITF, "12a4", "", true},
		{QRCODE, "https://example.com/item/42", "https://example.com/item/42", false},
		{CODE128, "", "", true},
		{Symbology("PDF417"), "x", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.sym)+"/"+tt.value, func(t *testing.T) {
			bc, err := Encode(tt.sym, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Encode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidSymbology) {
					t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidSymbology)
				}
				return
			}
			if got := bc.Content(); got != tt.wantContent {
				t.Errorf("Content() = %q, want %q", got, tt.wantContent)
			}
		})
	}
}

// countEncoder replaces the EAN-13 encoder for the duration of the test and
// returns a pointer to its call count.
func countEncoder(t *testing.T) *int {
	t.Helper()
	orig := encoders[EAN13]
	calls := 0
	encoders[EAN13] = func(v string) (barcode.Barcode, error) {
		calls++
		return orig(v)
	}
	t.Cleanup(func() { encoders[EAN13] = orig })
	return &calls
}

func TestEAN13BadLengthNeverReachesEncoder(t *testing.T) {
	calls := countEncoder(t)

	for _, v := range []string{"1", "12345678901", "12345678901234", "abc", "978-0-201-3796", strings.Repeat("9", 20)} {
		if _, err := Encode(EAN13, v); err == nil {
			t.Errorf("Encode(EAN13, %q) succeeded", v)
		}
	}
	if *calls != 0 {
		t.Errorf("encoder called %d times for invalid lengths", *calls)
	}

	if _, err := Encode(EAN13, "590123412345"); err != nil {
		t.Fatalf("Encode(valid) error = %v", err)
	}
	if *calls != 1 {
		t.Errorf("encoder called %d times, want 1", *calls)
	}
}

func TestBarcodeRendererSizes(t *testing.T) {
	tests := []struct {
		name  string
		r     BarcodeRenderer
		code  string
		wantW func(modules int) int
		wantH int
	}{
		{"linear scale 1", BarcodeRenderer{Symbology: CODE128, Scale: 1}, "ABC", func(m int) int { return 2 * m }, 50},
		{"linear scale 2", BarcodeRenderer{Symbology: CODE128, Scale: 2}, "ABC", func(m int) int { return 4 * m }, 100},
		{"zero scale defaults", BarcodeRenderer{Symbology: CODE128}, "ABC", func(m int) int { return 2 * m }, 50},
		{"qr", BarcodeRenderer{Symbology: QRCODE, Scale: 1}, "hello", func(int) int { return 100 }, 100},
		{"qr scale 1.5", BarcodeRenderer{Symbology: QRCODE, Scale: 1.5}, "hello", func(int) int { return 150 }, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym := tt.r.Symbology
			raw, err := Encode(sym, tt.code)
			if err != nil {
				t.Fatal(err)
			}
			img, err := tt.r.Render(sheet.Label{Code: tt.code})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			b := img.Bounds()
			if want := tt.wantW(raw.Bounds().Dx()); b.Dx() != want {
				t.Errorf("width = %d, want %d", b.Dx(), want)
			}
			if b.Dy() != tt.wantH {
				t.Errorf("height = %d, want %d", b.Dy(), tt.wantH)
			}
		})
	}
}

func TestBarcodeRendererCaption(t *testing.T) {
	img, err := BarcodeRenderer{Symbology: EAN13, Scale: 1, ShowText: true}.Render(sheet.Label{Code: "400638133393"})
	if err != nil {
		t.Fatal(err)
	}
	if got := img.(*Symbol).Caption(); got != "4006381333931" {
		t.Errorf("Caption() = %q, want completed code", got)
	}

	img, err = BarcodeRenderer{Symbology: QRCODE, ShowText: true}.Render(sheet.Label{Code: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got := img.(*Symbol).Caption(); got != "" {
		t.Errorf("matrix caption = %q, want none", got)
	}
}

func TestRenderPageContainsFailures(t *testing.T) {
	labels := []sheet.Label{
		{Code: "400638133393", Cell: 0},
		{Code: "bad", Cell: 1},
		{Code: "590123412345", Cell: 2},
	}
	cells := RenderPage(BarcodeRenderer{Symbology: EAN13, ShowText: true}, labels)
	if len(cells) != 3 {
		t.Fatalf("got %d cells, want 3", len(cells))
	}
	if !cells[0].OK() || !cells[2].OK() {
		t.Errorf("good cells failed: %v, %v", cells[0].Err, cells[2].Err)
	}
	if cells[1].OK() || cells[1].Image != nil {
		t.Error("bad cell rendered")
	}
	if cells[2].Text != "5901234123457" {
		t.Errorf("Text = %q", cells[2].Text)
	}

	msgs := CellErrors(cells)
	if len(msgs) != 1 || !strings.Contains(msgs[0], `"bad"`) {
		t.Errorf("CellErrors() = %v", msgs)
	}
}

func TestRenderPageRecoversPanic(t *testing.T) {
	r := RendererFunc(func(l sheet.Label) (image.Image, error) {
		if l.Code == "boom" {
			panic("encoder exploded")
		}
		return image.NewGray(image.Rect(0, 0, 1, 1)), nil
	})
	cells := RenderPage(r, []sheet.Label{{Code: "ok"}, {Code: "boom"}, {Code: "ok2"}})
	if !cells[0].OK() || !cells[2].OK() {
		t.Error("cells around the panic failed")
	}
	if cells[1].Err == nil || !strings.Contains(cells[1].Err.Error(), "encoder exploded") {
		t.Errorf("panic not converted: %v", cells[1].Err)
	}
}

func TestRenderPageNilImage(t *testing.T) {
	r := RendererFunc(func(sheet.Label) (image.Image, error) { return nil, nil })
	cells := RenderPage(r, []sheet.Label{{Code: "x"}})
	if !errors.Is(cells[0].Err, errors.ErrCodeInternal) {
		t.Errorf("Err = %v, want internal", cells[0].Err)
	}
}
