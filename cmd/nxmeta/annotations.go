package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nxmeta/internal/dataset"
	"nxmeta/internal/export"
	"nxmeta/internal/report"
)

var (
	annotationsQuery  string
	annotationsExport string
	annotationsOut    string
)

var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Show annotation comments found by the source parser",
	Long: `Show the TODO/FIXME style annotations recorded per source file of the
work version. Files without annotations are left out. A missing or broken
annotation bundle is reported, not treated as an error.`,
	Args: cobra.NoArgs,
	RunE: runAnnotations,
}

func init() {
	rootCmd.AddCommand(annotationsCmd)
	annotationsCmd.Flags().StringVarP(&annotationsQuery, "query", "q", "", "Filter files by component name")
	annotationsCmd.Flags().StringVar(&annotationsExport, "export", "", "Write the rows as csv or xlsx")
	annotationsCmd.Flags().StringVarP(&annotationsOut, "out", "o", "", "Output file for --export (default stdout)")
}

// AnnotationsResult is the output of the annotations command.
type AnnotationsResult struct {
	Version                  string `json:"version" yaml:"version"`
	Query                    string `json:"query,omitempty" yaml:"query,omitempty"`
	dataset.AnnotationStatus `yaml:",inline"`
}

func (r AnnotationsResult) human() string {
	if !r.Available {
		return fmt.Sprintf("%s: annotation data unavailable (%s)", r.Version, r.Error)
	}
	if len(r.Files) == 0 {
		return fmt.Sprintf("%s: no annotations", r.Version)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d annotations in %d files\n", r.Version, r.Total, len(r.Files))
	for _, f := range r.Files {
		fmt.Fprintf(&b, "\n%s (%d)\n", f.Component, f.Count)
		rows := make([][]string, 0, len(f.Annotations))
		for _, a := range f.Annotations {
			rows = append(rows, []string{strconv.Itoa(a.Line), a.Type, a.Content})
		}
		table(&b, []string{"LINE", "TYPE", "CONTENT"}, rows)
	}
	return b.String()
}

func runAnnotations(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	_, snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	status := snap.Annotations.Filter(annotationsQuery)

	if annotationsExport != "" {
		format, err := parseExport(annotationsExport, export.FormatCSV, export.FormatXLSX)
		if err != nil {
			return err
		}
		return writeOutput(cmd, annotationsOut, func(w io.Writer) error {
			return export.Write(w, format, report.AnnotationSheets(status.Files))
		})
	}

	return printResponse(cmd, AnnotationsResult{
		Version:          snap.Version,
		Query:            annotationsQuery,
		AnnotationStatus: status,
	})
}
