package render

import (
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/datamatrix"
	bcean "github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
	"github.com/boombuler/barcode/twooffive"

	"github.com/matzehuels/labelsheet/pkg/ean"
	"github.com/matzehuels/labelsheet/pkg/errors"
)

type encodeFunc func(value string) (barcode.Barcode, error)

// encoders maps each symbology to its library encoder. Values reaching an
// encoder have already passed prepare.
var encoders = map[Symbology]encodeFunc{
	CODE128: func(v string) (barcode.Barcode, error) { return code128.Encode(v) },
	CODE39:  func(v string) (barcode.Barcode, error) { return code39.Encode(v, false, true) },
	CODE93:  func(v string) (barcode.Barcode, error) { return code93.Encode(v, true, true) },
	EAN13:   func(v string) (barcode.Barcode, error) { return bcean.Encode(v) },
	EAN8:    func(v string) (barcode.Barcode, error) { return bcean.Encode(v) },
	ITF:     func(v string) (barcode.Barcode, error) { return twooffive.Encode(v, true) },
	CODABAR: func(v string) (barcode.Barcode, error) { return codabar.Encode(v) },
	QRCODE:  func(v string) (barcode.Barcode, error) { return qr.Encode(v, qr.M, qr.Auto) },
	DATAMATRIX: func(v string) (barcode.Barcode, error) {
		return datamatrix.Encode(v)
	},
}

// Encode validates value for sym and encodes it at module resolution
// (one pixel per bar or cell).
func Encode(sym Symbology, value string) (barcode.Barcode, error) {
	enc, ok := encoders[sym]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidSymbology, "unknown barcode type: %q", sym)
	}
	v, err := prepare(sym, value)
	if err != nil {
		return nil, err
	}
	bc, err := enc(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSymbology, err, "encode %s %q", sym, value)
	}
	return bc, nil
}

// prepare normalizes value for sym and rejects values the encoder cannot
// represent.
func prepare(sym Symbology, value string) (string, error) {
	if value == "" {
		return "", errors.New(errors.ErrCodeInvalidSymbology, "empty value")
	}
	switch sym {
	case EAN13:
		return ean.Complete(value)
	case EAN8:
		d := ean.Digits(value)
		if len(d) != 7 && len(d) != 8 {
			return "", errors.New(errors.ErrCodeInvalidSymbology,
				"EAN-8 needs 7 or 8 digits, got %d in %q", len(d), value)
		}
		return d, nil
	case ITF:
		d := ean.Digits(value)
		if d != value {
			return "", errors.New(errors.ErrCodeInvalidSymbology, "ITF accepts digits only: %q", value)
		}
		if len(d)%2 != 0 {
			d = "0" + d
		}
		return d, nil
	case CODABAR:
		v := strings.ToUpper(value)
		if !isCodabarGuard(v[0]) {
			v = "A" + v + "A"
		}
		return v, nil
	}
	return value, nil
}

func isCodabarGuard(c byte) bool {
	return c >= 'A' && c <= 'D'
}
