package importer

import (
	"encoding/csv"
	"strings"

	"github.com/dkovalev/docximport/internal/docx"
)

// Delimiter separates cell values in the intermediate CSV text. Cell text
// routinely contains commas, so the converter uses a semicolon.
const Delimiter = ';'

// ConvertToCSV flattens extracted table rows into CSV text. Values
// containing the delimiter or quotes are quoted by the encoder; no other
// escaping is applied.
func ConvertToCSV(rows []docx.Row) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = Delimiter

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// parseCSV reads the intermediate CSV text back into raw rows. Field
// counts are not enforced here; width validation happens per row during
// import so a bad row skips instead of failing the whole document.
func parseCSV(csvText string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(csvText))
	r.Comma = Delimiter
	r.FieldsPerRecord = -1

	return r.ReadAll()
}
