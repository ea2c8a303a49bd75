// Package render turns label descriptors into barcode images.
//
// # Overview
//
// A [Symbology] names a barcode standard. [Encode] validates and encodes a
// value with that standard, and a [Renderer] produces the image for one
// label cell. [RenderPage] renders every cell of a page, containing failures
// per cell so that one bad code never aborts the sheet.
//
//	r := render.BarcodeRenderer{Symbology: render.EAN13, Scale: 1}
//	cells := render.RenderPage(r, sheet.Labels(page, grid))
//
// EAN-13 values of 12 digits are completed with their check digit before
// encoding. Values of any other length than 12 or 13 digits are rejected
// without calling the encoder.
//
// # Subpackages
//
// The [compose] subpackage rasterises rendered cells onto an A4 page and the
// [sink] subpackage writes pages out as PNG, PDF or JSON.
//
// [compose]: github.com/matzehuels/labelsheet/pkg/render/compose
// [sink]: github.com/matzehuels/labelsheet/pkg/render/sink
package render
