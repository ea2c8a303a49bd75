// Package sink writes composed label sheets out as files.
//
// # Formats
//
//   - PDF: one A4 page per sheet, assembled through [Document] and [Assemble]
//   - PNG: one image per sheet via [RenderPNG]
//   - JSON: the label layout (codes and boxes in millimetres) via [RenderJSON]
//
// Multi-page PDFs are built strictly in page order. The first page exists
// when the document is created; every further page is opened with exactly
// one [Document.PageBreak] before its image is added.
//
//	doc := sink.NewPDFDocument(sink.WithTitle("Labels"))
//	if err := sink.Assemble(ctx, doc, pages); err != nil {
//		return err
//	}
//	data, err := doc.Bytes()
package sink
