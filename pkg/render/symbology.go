package render

import (
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// Symbology names a barcode standard.
type Symbology string

// Supported symbologies.
const (
	CODE128    Symbology = "CODE128"
	CODE39     Symbology = "CODE39"
	CODE93     Symbology = "CODE93"
	EAN13      Symbology = "EAN13"
	EAN8       Symbology = "EAN8"
	ITF        Symbology = "ITF"
	CODABAR    Symbology = "CODABAR"
	QRCODE     Symbology = "QRCODE"
	DATAMATRIX Symbology = "DATAMATRIX"
)

// DefaultSymbology is used when none is configured.
const DefaultSymbology = CODE128

// Symbologies lists every supported symbology in display order.
var Symbologies = []Symbology{CODE128, CODE39, CODE93, EAN13, EAN8, ITF, CODABAR, QRCODE, DATAMATRIX}

var symbologyAliases = map[string]Symbology{
	"QR":       QRCODE,
	"EAN":      EAN13,
	"CODE-128": CODE128,
	"CODE-39":  CODE39,
	"CODE-93":  CODE93,
	"EAN-13":   EAN13,
	"EAN-8":    EAN8,
	"I25":      ITF,
}

// ParseSymbology parses a symbology name case-insensitively.
// An empty string yields [DefaultSymbology].
func ParseSymbology(s string) (Symbology, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return DefaultSymbology, nil
	}
	if sym, ok := symbologyAliases[name]; ok {
		return sym, nil
	}
	for _, sym := range Symbologies {
		if string(sym) == name {
			return sym, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidSymbology, "unknown barcode type: %q", s)
}

// TwoD reports whether the symbology is a square matrix code.
func (s Symbology) TwoD() bool {
	return s == QRCODE || s == DATAMATRIX
}

func (s Symbology) String() string { return string(s) }
