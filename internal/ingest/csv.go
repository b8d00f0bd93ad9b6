package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// headerAliases maps headers seen in published datasets onto the canonical
// column names.
var headerAliases = map[string]string{
	"runtime (minutes)":  ColRuntime,
	"revenue (millions)": ColRevenue,
}

// ReadCSV parses delimited text with a header row. Columns are matched by
// name, case-insensitively, in any order; unknown columns are ignored.
// Stray quotes are accepted as literal text. A record that still cannot be
// parsed is returned in skipped and reading continues; only a bad header or
// an I/O failure is fatal.
func ReadCSV(r io.Reader) (rows []Row, skipped []Failure, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv header: %w", err)
	}
	cols := mapHeader(header)
	hasTitle := false
	for _, c := range cols {
		if c == ColTitle {
			hasTitle = true
			break
		}
	}
	if !hasTitle {
		return nil, nil, fmt.Errorf("csv header: missing %q column", ColTitle)
	}

	skipped = []Failure{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped = append(skipped, Failure{
				Identifier: fmt.Sprintf("line %d", perr.StartLine),
				Reason:     perr.Err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if col == "" || i >= len(rec) {
				continue
			}
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func mapHeader(header []string) []string {
	canonical := make(map[string]string, len(Columns)+len(headerAliases))
	for _, c := range Columns {
		canonical[strings.ToLower(c)] = c
	}
	for k, v := range headerAliases {
		canonical[k] = v
	}
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = canonical[strings.ToLower(strings.TrimSpace(h))]
	}
	return out
}
