package csvmap

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Parse reads CSV bytes into a trimmed header row and one map per data
// row keyed by header. Cells are trimmed, quoted cells are accepted,
// blank lines are skipped, and rows may have fewer cells than headers.
func Parse(data []byte) ([]string, []map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row: %w", err)
		}

		row := make(map[string]string, len(header))
		empty := true
		for i, h := range header {
			if i >= len(record) {
				break
			}
			cell := strings.TrimSpace(record[i])
			row[h] = cell
			if cell != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}
