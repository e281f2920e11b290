package main

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nxmeta/internal/crosscheck"
	"nxmeta/internal/export"
)

var (
	crosscheckExport string
	crosscheckOut    string
)

var crosscheckCmd = &cobra.Command{
	Use:   "crosscheck <file.info> <file.js>",
	Short: "Check an INFO document against its component source",
	Long: `Compare the methods and properties an INFO document declares with the
handlers and property references of the component JavaScript source.`,
	Args: cobra.ExactArgs(2),
	RunE: runCrosscheck,
}

func init() {
	rootCmd.AddCommand(crosscheckCmd)
	crosscheckCmd.Flags().StringVar(&crosscheckExport, "export", "", "Write the result as csv or xlsx")
	crosscheckCmd.Flags().StringVarP(&crosscheckOut, "out", "o", "", "Output file for --export (default stdout)")
}

// CrosscheckResult wraps a cross-check for printing.
type CrosscheckResult struct {
	crosscheck.Result `yaml:",inline"`
}

func (r CrosscheckResult) human() string {
	var b strings.Builder
	b.WriteString(r.Component + "\n\n")
	s := r.Sheets()[0]
	table(&b, []string{"KIND", "NAME", "STATUS"}, s.Rows)
	return b.String()
}

func runCrosscheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	info, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	src, err := readInput(cmd, args[1])
	if err != nil {
		return err
	}
	res, err := crosscheck.Run(ctx, string(info), filepath.Base(args[1]), src)
	if err != nil {
		return err
	}

	if crosscheckExport != "" {
		format, err := parseExport(crosscheckExport, export.FormatCSV, export.FormatXLSX)
		if err != nil {
			return err
		}
		return writeOutput(cmd, crosscheckOut, func(w io.Writer) error {
			return export.Write(w, format, res.Sheets())
		})
	}
	return printResponse(cmd, CrosscheckResult{res})
}
