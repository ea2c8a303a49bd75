package sink

import (
	"bytes"
	"image"
	"image/png"
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// RenderPNG encodes one composed page as PNG.
func RenderPNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "encode png")
	}
	return buf.Bytes(), nil
}

// DefaultPrefix is the file name prefix used when none is given.
const DefaultPrefix = "labels"

// FileName returns "<prefix>_<stamp>.<ext>". An empty prefix becomes
// [DefaultPrefix] and an empty stamp is left out. The prefix must not
// contain path separators.
func FileName(prefix, stamp, ext string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := errors.ValidatePrefix(prefix); err != nil {
		return "", err
	}
	ext = strings.TrimPrefix(ext, ".")

	name := prefix
	if stamp != "" {
		name += "_" + stamp
	}
	if ext != "" {
		name += "." + ext
	}
	return name, nil
}
