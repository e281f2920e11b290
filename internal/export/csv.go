package export

import (
	"encoding/csv"
	"io"
	"strings"

	nxerrors "nxmeta/internal/errors"
)

// BOM marks CSV output as UTF-8 for spreadsheet applications.
const BOM = "\ufeff"

// EscapeCSVField quotes a value containing a comma, quote or line break and
// doubles embedded quotes. Other values pass through unchanged.
func EscapeCSVField(field string) string {
	if strings.ContainsAny(field, "\",\n\r") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// UnescapeCSVField reverses EscapeCSVField for a single field.
func UnescapeCSVField(field string) string {
	if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
		return strings.ReplaceAll(field[1:len(field)-1], `""`, `"`)
	}
	return field
}

// CSVOptions tunes WriteCSV.
type CSVOptions struct {
	BOM bool
}

// WriteCSV writes the header row then every data row, each terminated by
// "\n". Short rows are padded to the header width.
func WriteCSV(w io.Writer, s Sheet, opts CSVOptions) error {
	var b strings.Builder
	if opts.BOM {
		b.WriteString(BOM)
	}
	writeCSVLine(&b, s.Headers, len(s.Headers))
	for _, row := range s.Rows {
		writeCSVLine(&b, row, len(s.Headers))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return nxerrors.New(nxerrors.ExportFailed, "writing CSV "+s.Name, err)
	}
	return nil
}

func writeCSVLine(b *strings.Builder, cells []string, width int) {
	if width < len(cells) {
		width = len(cells)
	}
	for i := 0; i < width; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if i < len(cells) {
			b.WriteString(EscapeCSVField(cells[i]))
		}
	}
	b.WriteByte('\n')
}

// ReadCSV parses a CSV file written by WriteCSV (or any RFC 4180 file).
// The first record becomes the header row.
func ReadCSV(r io.Reader, name string) (Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Sheet{}, nxerrors.New(nxerrors.StructuralParse, "reading CSV "+name, err)
	}
	cr := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), BOM)))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return Sheet{}, nxerrors.New(nxerrors.StructuralParse, "parsing CSV "+name, err)
	}

	s := Sheet{Name: name, Rows: [][]string{}}
	if len(records) == 0 {
		return s, nil
	}
	s.Headers = records[0]
	s.Rows = append(s.Rows, records[1:]...)
	return s, nil
}
