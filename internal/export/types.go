// Package export writes tabular results as CSV files, XLSX workbooks or
// aligned text, and reads workbooks back.
package export

// Sheet is one named table: a header row plus data rows. Rows may be
// shorter than Headers; missing cells are empty.
type Sheet struct {
	Name    string     `json:"name" yaml:"name"`
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Cell returns the value at row r under header h, or "".
func (s Sheet) Cell(r int, h string) string {
	if r < 0 || r >= len(s.Rows) {
		return ""
	}
	for i, name := range s.Headers {
		if name == h {
			if i < len(s.Rows[r]) {
				return s.Rows[r][i]
			}
			return ""
		}
	}
	return ""
}

// Find returns the sheet called name.
func Find(sheets []Sheet, name string) (Sheet, bool) {
	for _, s := range sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// Format selects a file format for Write.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatText Format = "text"
)

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}
