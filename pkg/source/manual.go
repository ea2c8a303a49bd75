package source

import (
	"bufio"
	"io"
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// ParseManual trims each field and drops empty ones, keeping field order.
func ParseManual(fields []string) []string {
	var codes []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			codes = append(codes, f)
		}
	}
	return codes
}

// ReadLines reads one field per line from r and returns the parsed codes.
// Both \n and \r\n line endings are accepted. ReadLines does not close r.
func ReadLines(r io.Reader) ([]string, error) {
	var fields []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		fields = append(fields, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read codes")
	}
	return ParseManual(fields), nil
}
