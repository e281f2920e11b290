package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nxmeta/internal/config"
	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/logging"
	"nxmeta/internal/xfdl"
)

var (
	xfdlAuthor  string
	xfdlDate    string
	xfdlNewName string

	xfdlRewriteOut string
	xfdlBatchOut   string
)

// now is replaced in tests.
var now = time.Now

var xfdlCmd = &cobra.Command{
	Use:   "xfdl",
	Short: "Inspect and rewrite XFDL sample forms",
}

var xfdlExtractCmd = &cobra.Command{
	Use:   "extract <file.xfdl>",
	Short: "Print the script block of a form",
	Args:  cobra.ExactArgs(1),
	RunE:  runXfdlExtract,
}

var xfdlRewriteCmd = &cobra.Command{
	Use:   "rewrite <file.xfdl>",
	Short: "Rewrite the header of one sample form",
	Long: `Rewrite the author, date and component name of one sample form. The
component name is taken from the file name (A_<name>_*.xfdl); --new-name
renames it. The result goes to stdout unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runXfdlRewrite,
}

var xfdlBatchCmd = &cobra.Command{
	Use:   "batch <file.xfdl>...",
	Short: "Rewrite several sample forms into a zip archive",
	Long: `Rewrite every form and store the successful ones in a zip archive
named after the new component names. Files that fail are reported and
skipped; the command fails only when no file could be rewritten.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runXfdlBatch,
}

func init() {
	rootCmd.AddCommand(xfdlCmd)
	xfdlCmd.AddCommand(xfdlExtractCmd)
	xfdlCmd.AddCommand(xfdlRewriteCmd)
	xfdlCmd.AddCommand(xfdlBatchCmd)

	for _, c := range []*cobra.Command{xfdlRewriteCmd, xfdlBatchCmd} {
		c.Flags().StringVar(&xfdlAuthor, "author", "", "Author written into the header")
		c.Flags().StringVar(&xfdlDate, "date", "", "Date written into the header, YYYY.MM.DD (default today)")
		c.Flags().StringVar(&xfdlNewName, "new-name", "", "New component name")
	}
	xfdlRewriteCmd.Flags().StringVarP(&xfdlRewriteOut, "out", "o", "", "Output file (default stdout)")
	xfdlBatchCmd.Flags().StringVarP(&xfdlBatchOut, "out", "o", xfdl.ArchiveName, "Output archive")
}

// ExtractResult is the output of xfdl extract.
type ExtractResult struct {
	File   string `json:"file" yaml:"file"`
	Found  bool   `json:"found" yaml:"found"`
	Script string `json:"script" yaml:"script"`
}

func (r ExtractResult) human() string {
	return r.Script
}

func runXfdlExtract(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	script, found := xfdl.ExtractScript(string(data))
	return printResponse(cmd, ExtractResult{File: args[0], Found: found, Script: script})
}

func batchOptions(cfg *config.Config) xfdl.BatchOptions {
	date := xfdlDate
	if date == "" {
		date = xfdl.Today(now())
	}
	return xfdl.BatchOptions{
		Author:     xfdlAuthor,
		Date:       date,
		NewName:    xfdlNewName,
		Convention: convention(cfg),
	}
}

func runXfdlRewrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rw, err := newRewriter(cfg)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	res := rw.RewriteFile(xfdl.File{Name: filepath.Base(args[0]), Content: string(data)}, batchOptions(cfg))
	if !res.OK() {
		return res.Err
	}
	if err := writeOutput(cmd, xfdlRewriteOut, func(w io.Writer) error {
		_, err := io.WriteString(w, res.Content)
		return err
	}); err != nil {
		return err
	}
	if xfdlRewriteOut != "" && xfdlRewriteOut != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (suggested name %s)\n", xfdlRewriteOut, res.OutputName)
	}
	return nil
}

// BatchSummary is the output of xfdl batch.
type BatchSummary struct {
	RunID     string            `json:"runId" yaml:"runId"`
	Archive   string            `json:"archive,omitempty" yaml:"archive,omitempty"`
	Succeeded int               `json:"succeeded" yaml:"succeeded"`
	Failed    int               `json:"failed" yaml:"failed"`
	Files     []BatchFileStatus `json:"files" yaml:"files"`
}

// BatchFileStatus is one file of a BatchSummary.
type BatchFileStatus struct {
	Name       string `json:"name" yaml:"name"`
	OutputName string `json:"outputName,omitempty" yaml:"outputName,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (s BatchSummary) human() string {
	var b strings.Builder
	for _, f := range s.Files {
		if f.Error != "" {
			fmt.Fprintf(&b, "FAIL %s: %s\n", f.Name, f.Error)
			continue
		}
		fmt.Fprintf(&b, "ok   %s -> %s\n", f.Name, f.OutputName)
	}
	fmt.Fprintf(&b, "\n%d rewritten, %d failed", s.Succeeded, s.Failed)
	if s.Archive != "" {
		fmt.Fprintf(&b, ", archive %s", s.Archive)
	}
	b.WriteString("\n")
	return b.String()
}

func runXfdlBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rw, err := newRewriter(cfg)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, logging.WarnLevel)

	// Unreadable inputs become failed results in their input position.
	files := make([]xfdl.File, 0, len(args))
	unreadable := map[int]xfdl.FileResult{}
	for i, name := range args {
		data, err := readInput(cmd, name)
		if err != nil {
			unreadable[i] = xfdl.FileResult{
				Name: filepath.Base(name),
				Err:  nxerrors.New(nxerrors.BatchFileFailed, "reading "+name, err),
			}
			continue
		}
		files = append(files, xfdl.File{Name: filepath.Base(name), Content: string(data)})
	}

	batch := rw.RewriteBatch(files, batchOptions(cfg))
	batch.Results = mergeUnreadable(batch.Results, unreadable, len(args))
	summary := BatchSummary{RunID: batch.RunID, Succeeded: batch.Succeeded()}
	for _, res := range batch.Results {
		st := BatchFileStatus{Name: res.Name, OutputName: res.OutputName}
		if !res.OK() {
			st.Error = res.Err.Error()
			logger.Warn("Skipping form", logging.Fields{"file": res.Name, "runId": batch.RunID, "error": st.Error})
		}
		summary.Files = append(summary.Files, st)
	}
	summary.Failed = len(summary.Files) - summary.Succeeded

	if summary.Succeeded == 0 {
		if err := printResponse(cmd, summary); err != nil {
			return err
		}
		return nxerrors.Newf(nxerrors.BatchFileFailed, "none of %d files could be rewritten", len(args))
	}
	if err := writeOutput(cmd, xfdlBatchOut, func(w io.Writer) error {
		return xfdl.WriteZip(w, batch.Results)
	}); err != nil {
		return err
	}
	if xfdlBatchOut != "-" {
		summary.Archive = xfdlBatchOut
		return printResponse(cmd, summary)
	}
	return nil
}

// mergeUnreadable interleaves the failed reads with the rewritten results
// so the combined slice follows argument order.
func mergeUnreadable(rewritten []xfdl.FileResult, unreadable map[int]xfdl.FileResult, n int) []xfdl.FileResult {
	if len(unreadable) == 0 {
		return rewritten
	}
	out := make([]xfdl.FileResult, 0, n)
	next := 0
	for i := 0; i < n; i++ {
		if r, ok := unreadable[i]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, rewritten[next])
		next++
	}
	return out
}
