package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
	"nxmeta/internal/infodoc"
)

var (
	infoOut      string
	infoExport   string
	infoReport   string
	infoTrailing string
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Convert INFO metadata documents",
	Long: `Parse INFO documents, export their sections as workbook sheets or CSV
tables, and build INFO documents back from an edited workbook. A file
argument of "-" reads stdin.`,
}

var infoParseCmd = &cobra.Command{
	Use:   "parse <file.info>",
	Short: "Parse an INFO document",
	Long: `Parse an INFO document and print its section counts, or the whole
document with --format json. --export xlsx writes one sheet per section.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfoParse,
}

var infoCSVCmd = &cobra.Command{
	Use:   "csv <file.info>",
	Short: "Export one section report as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfoCSV,
}

var infoBuildCmd = &cobra.Command{
	Use:   "build <workbook.xlsx>",
	Short: "Build an INFO document from a workbook",
	Long: `Rebuild an INFO document from a workbook written by "info parse --export
xlsx". Content after </MetaInfo> can be carried over from the original
document with --trailing-from.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfoBuild,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.AddCommand(infoParseCmd)
	infoCmd.AddCommand(infoCSVCmd)
	infoCmd.AddCommand(infoBuildCmd)

	infoParseCmd.Flags().StringVar(&infoExport, "export", "", "Write the sections as xlsx")
	infoParseCmd.Flags().StringVarP(&infoOut, "out", "o", "", "Output file (default stdout, or <object>.xlsx with --export)")

	kinds := make([]string, len(infodoc.ReportKinds))
	for i, k := range infodoc.ReportKinds {
		kinds[i] = string(k)
	}
	infoCSVCmd.Flags().StringVar(&infoReport, "report", string(infodoc.EventsReport), "Report kind ("+strings.Join(kinds, ", ")+")")
	infoCSVCmd.Flags().StringVarP(&infoOut, "out", "o", "", "Output file (default stdout)")

	infoBuildCmd.Flags().StringVar(&infoTrailing, "trailing-from", "", "INFO document whose trailing content is kept")
	infoBuildCmd.Flags().StringVarP(&infoOut, "out", "o", "", "Output file (default stdout)")
}

// InfoParseResult is the output of info parse.
type InfoParseResult struct {
	ObjectID string            `json:"objectId" yaml:"objectId"`
	Counts   map[string]int    `json:"counts" yaml:"counts"`
	Document *infodoc.Document `json:"document" yaml:"document"`
}

func (r InfoParseResult) human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", r.ObjectID)
	sections := make([]string, 0, len(r.Counts))
	for s := range r.Counts {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, []string{s, strconv.Itoa(r.Counts[s])})
	}
	table(&b, []string{"SECTION", "RECORDS"}, rows)
	return b.String()
}

func runInfoParse(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	doc, err := infodoc.Parse(string(data))
	if err != nil {
		return err
	}

	switch infoExport {
	case "":
		return printResponse(cmd, InfoParseResult{ObjectID: doc.ObjectID, Counts: doc.Counts(), Document: doc})
	case string(export.FormatXLSX):
		out := infoOut
		if out == "" {
			out = doc.ObjectID + ".xlsx"
		}
		return writeOutput(cmd, out, func(w io.Writer) error {
			return export.WriteXLSX(w, infodoc.ToSheets(doc))
		})
	}
	return nxerrors.Newf(nxerrors.InvalidArgument, "unsupported export format %q, an INFO workbook needs xlsx", infoExport)
}

func runInfoCSV(cmd *cobra.Command, args []string) error {
	kind := infodoc.ReportKind(infoReport)
	known := false
	for _, k := range infodoc.ReportKinds {
		known = known || k == kind
	}
	if !known {
		return nxerrors.Newf(nxerrors.InvalidArgument, "unknown report %q", infoReport)
	}

	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	sheet, err := infodoc.BuildReport(string(data), kind)
	if err != nil {
		return err
	}
	return writeOutput(cmd, infoOut, func(w io.Writer) error {
		return export.WriteCSV(w, sheet, export.CSVOptions{BOM: true})
	})
}

func runInfoBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	sheets, err := export.ReadXLSX(bytes.NewReader(data))
	if err != nil {
		return err
	}

	trailing := ""
	if infoTrailing != "" {
		orig, err := readInput(cmd, infoTrailing)
		if err != nil {
			return err
		}
		trailing = infodoc.TrailingContent(string(orig))
	}

	doc, err := infodoc.FromSheets(sheets, trailing)
	if err != nil {
		return err
	}
	text := infodoc.Serialize(doc, serializeOptions(cfg))
	return writeOutput(cmd, infoOut, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}
