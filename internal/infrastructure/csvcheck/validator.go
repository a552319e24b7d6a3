// Package csvcheck runs the structural checks applied to uploaded CSV
// files before their rows are persisted.
package csvcheck

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/onecore/docintake/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate parses the raw bytes and reports structural findings. Rows
// with empty values and exact duplicate rows are surfaced as issues but
// do not fail the upload; only an unreadable file or an empty header
// does.
func (v *Validator) Validate(data []byte) (domain.CSVValidation, []map[string]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.CSVValidation{}, nil, errors.New("file has no header row")
		}
		return domain.CSVValidation{}, nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
		if columns[i] == "" {
			return domain.CSVValidation{}, nil, fmt.Errorf("header column %d is empty", i+1)
		}
	}

	var (
		records []map[string]string
		issues  []string
		seen    = map[string]int{}
	)
	for rowNumber := 1; ; rowNumber++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.CSVValidation{}, nil, fmt.Errorf("read row %d: %w", rowNumber, err)
		}

		row := make(map[string]string, len(columns))
		empty := 0
		for i, name := range columns {
			value := strings.TrimSpace(record[i])
			if value == "" {
				empty++
			}
			row[name] = value
		}
		if empty > 0 {
			issues = append(issues, fmt.Sprintf("row %d has %d empty value(s)", rowNumber, empty))
		}

		key := strings.Join(record, "\x1f")
		if first, ok := seen[key]; ok {
			issues = append(issues, fmt.Sprintf("row %d duplicates row %d", rowNumber, first))
		} else {
			seen[key] = rowNumber
		}

		records = append(records, row)
	}

	validation := domain.CSVValidation{
		RowCount: len(records),
		Columns:  columns,
		Issues:   issues,
	}
	return validation, records, nil
}
