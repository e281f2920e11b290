package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText renders sheets as aligned plain-text tables, one titled block
// per sheet. Line breaks inside cells are shown as spaces.
func WriteText(w io.Writer, sheets []Sheet) error {
	for i, s := range sheets {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "## %s (%d rows)\n", s.Name, len(s.Rows)); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(flatten(s.Headers), "\t"))
		for _, row := range s.Rows {
			fmt.Fprintln(tw, strings.Join(flatten(row), "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func flatten(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(c)
	}
	return out
}

// Write dispatches to the writer for format. CSV output supports a single
// sheet only; extra sheets are an error.
func Write(w io.Writer, format Format, sheets []Sheet) error {
	switch format {
	case FormatCSV:
		if len(sheets) != 1 {
			return fmt.Errorf("csv output needs exactly one sheet, got %d", len(sheets))
		}
		return WriteCSV(w, sheets[0], CSVOptions{BOM: true})
	case FormatXLSX:
		return WriteXLSX(w, sheets)
	case FormatText, "":
		return WriteText(w, sheets)
	}
	return fmt.Errorf("unknown export format %q", format)
}
