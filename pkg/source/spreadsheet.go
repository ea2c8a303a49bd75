package source

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// SpreadsheetOptions controls how a workbook is read.
type SpreadsheetOptions struct {
	// SkipHeader drops row 1 of the sheet. By default row 1 is data.
	SkipHeader bool
}

// ReadSpreadsheet reads codes from the first column of the first worksheet
// of an Excel workbook. Rows are read in order; blank cells are skipped.
//
// It returns an [errors.ErrCodeImportFailed] error if the workbook cannot be
// parsed or if the column holds no codes. ReadSpreadsheet does not close r.
func ReadSpreadsheet(r io.Reader, opts SpreadsheetOptions) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImportFailed, err, "open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeImportFailed, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImportFailed, err, "read sheet %q", sheets[0])
	}
	if opts.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	var codes []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(row[0]); v != "" {
			codes = append(codes, v)
		}
	}
	if len(codes) == 0 {
		return nil, errors.New(errors.ErrCodeImportFailed, "sheet %q has no codes in column A", sheets[0])
	}
	return codes, nil
}

// OpenSpreadsheet reads the workbook at path with [ReadSpreadsheet].
func OpenSpreadsheet(path string, opts SpreadsheetOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	return ReadSpreadsheet(f, opts)
}

// IsSpreadsheet reports whether path has an Excel workbook extension.
func IsSpreadsheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// LoadFile reads codes from path. Workbooks go through [ReadSpreadsheet];
// anything else is read as one code per line.
func LoadFile(path string, opts SpreadsheetOptions) ([]string, error) {
	if IsSpreadsheet(path) {
		return OpenSpreadsheet(path, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	return ReadLines(f)
}

func openError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	return errors.Wrap(errors.ErrCodeImportFailed, err, "open %s", path)
}
