// Package source owns the list of codes printed on a label sheet and decides
// where it comes from.
//
// Codes arrive either from manual entry (an ordered set of text fields) or
// from a spreadsheet import. The two sources are mutually exclusive: once a
// file has been imported, manual entry is disabled until [Store.Clear] is
// called. Import always replaces the whole list and discards manual entries.
//
// # Reading input
//
// [ParseManual] and [ReadLines] turn free-form fields into codes.
// [ReadSpreadsheet] reads the first column of the first worksheet of an
// Excel workbook. [LoadFile] picks the right reader by file extension.
//
// # Header rows
//
// Row 1 of a spreadsheet is treated as data. Set
// [SpreadsheetOptions.SkipHeader] to drop it.
package source
