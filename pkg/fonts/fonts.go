// Package fonts provides the typefaces used for text printed on labels.
//
// The Go font family is bundled with golang.org/x/image, so no font files
// need to be installed on the host.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Parsed fonts (computed once on first access).
var (
	regular, mono       *truetype.Font
	regularErr, monoErr error
	regularOnce         sync.Once
	monoOnce            sync.Once
)

// Regular returns the parsed Go Regular font.
func Regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = truetype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// Mono returns the parsed Go Mono font, used for human-readable barcode text.
func Mono() (*truetype.Font, error) {
	monoOnce.Do(func() {
		mono, monoErr = truetype.Parse(gomono.TTF)
	})
	return mono, monoErr
}

// Face returns a face of f at size points for the given resolution.
func Face(f *truetype.Font, size, dpi float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}
