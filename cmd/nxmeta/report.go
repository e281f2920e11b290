package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
	"nxmeta/internal/report"
)

var (
	reportRoot   string
	reportExport string
	reportSheet  string
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report <target>",
	Short: "Build the lineage report of a component",
	Long: `Build the lineage report of target: its inheritance path and the
properties and events each ancestor declares in the codebase.

Without --export the report is printed. --export xlsx writes the three-sheet
workbook (default <target>_analysis.xlsx); --export csv writes the sheet
chosen with --sheet.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportRoot, "root", "", "Root of the chain (default from config)")
	reportCmd.Flags().StringVar(&reportExport, "export", "", "Write the report as xlsx or csv")
	reportCmd.Flags().StringVar(&reportSheet, "sheet", report.SheetInheritancePath, "Sheet written by --export csv")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file for --export")
}

// ReportResult wraps a lineage report for printing.
type ReportResult struct {
	report.LineageReport `yaml:",inline"`
}

func (r ReportResult) human() string {
	var b strings.Builder
	if err := export.WriteText(&b, r.Sheets()); err != nil {
		return err.Error()
	}
	return b.String()
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	cfg, snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	root := reportRoot
	if root == "" {
		root = cfg.Lineage.Root
	}

	target := args[0]
	path, found := snap.Resolver.Path(target, root)
	if !found {
		return nxerrors.New(nxerrors.NotFound, "no inheritance structure for "+target, nil)
	}
	rep := report.BuildLineageReport(path, snap.CodebaseProperties, snap.CodebaseEvents)

	switch reportExport {
	case "":
		return printResponse(cmd, ReportResult{rep})
	case string(export.FormatXLSX):
		out := reportOut
		if out == "" {
			out = rep.FileName()
		}
		if err := writeOutput(cmd, out, func(w io.Writer) error {
			return export.WriteXLSX(w, rep.Sheets())
		}); err != nil {
			return err
		}
		if out != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
		}
		return nil
	case string(export.FormatCSV):
		sheet, ok := export.Find(rep.Sheets(), reportSheet)
		if !ok {
			return nxerrors.Newf(nxerrors.InvalidArgument, "unknown sheet %q, use %s, %s or %s",
				reportSheet, report.SheetInheritancePath, report.SheetProperties, report.SheetEvents)
		}
		return writeOutput(cmd, reportOut, func(w io.Writer) error {
			return export.Write(w, export.FormatCSV, []export.Sheet{sheet})
		})
	}
	return nxerrors.Newf(nxerrors.InvalidArgument, "unsupported export format %q", reportExport)
}
