// Package sheet computes label sheet geometry: grid configuration, the preset
// catalog, pagination of codes into pages, and per-label descriptors.
//
// # Overview
//
// A sheet is one printable A4 page holding a grid of labels. Given an ordered
// list of codes and a [Grid], the package:
//
//  1. Partitions the codes into pages of Columns×Rows cells ([Paginate])
//  2. Emits one [Label] per occupied cell, with its position in millimetres
//     ([Labels])
//
// Everything here is pure and deterministic: the same codes and grid always
// produce the same pages and labels. Nothing is retained between calls, so a
// grid change simply re-runs pagination on the same code list.
//
// # Fill Order
//
// Cells fill row-major: left to right, then top to bottom, one page at a time.
// The last page may be partial; its unused cells are omitted rather than
// emitted as empty placeholders.
//
// # Empty State
//
// [Paginate] returns no pages for an empty list. [Preview] instead returns a
// single placeholder page holding [PlaceholderCode], which renderers draw
// faded to show what a label will look like.
//
// # Presets
//
// [Presets] lists named layouts for common commercial label sheets. Applying a
// preset overwrites margins, columns, rows and row height, and keeps the code
// scale and arrow marker.
package sheet
