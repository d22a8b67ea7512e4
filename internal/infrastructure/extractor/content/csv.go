package content

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// flattenCSV renders rows as readable lines; structural parsing lives in
// the structured extractor, which works from the same raw bytes.
func flattenCSV(raw []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	var b strings.Builder
	for _, record := range records {
		b.WriteString(strings.Join(record, ", "))
		b.WriteByte('\n')
	}
	return b.String(), nil
}
