package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/jsscan"
	"nxmeta/internal/lineage"
)

var scanOut string

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Scan component JavaScript sources",
	Long: `Read every .js file below dir, collect the prototype declarations and
property tables, and print the resulting inheritance tree. --out writes the
edge and property bundles in the layout the dataset loader reads from
<version>/codebase.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "", "Directory receiving the codebase bundles")
}

// ScanResult is the output of the scan command.
type ScanResult struct {
	Files     int                          `json:"files" yaml:"files"`
	Roots     []string                     `json:"roots" yaml:"roots"`
	Leaves    []string                     `json:"leaves" yaml:"leaves"`
	Edges     []lineage.Edge               `json:"edges" yaml:"edges"`
	Inherited []jsscan.ComponentProperties `json:"inherited" yaml:"inherited"`
	Tree      *lineage.Node                `json:"tree" yaml:"tree"`
	Written   []string                     `json:"written,omitempty" yaml:"written,omitempty"`
}

func (r ScanResult) human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files, %d edges, %d leaves\n\n", r.Files, len(r.Edges), len(r.Leaves))
	writeTree(&b, r.Tree, 0)
	for _, p := range r.Written {
		fmt.Fprintf(&b, "\nwrote %s", p)
	}
	if len(r.Written) > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func writeTree(b *strings.Builder, n *lineage.Node, depth int) {
	if n == nil {
		return
	}
	fmt.Fprintf(b, "%s%s\n", strings.Repeat("  ", depth), n.Name)
	for _, c := range n.Children {
		writeTree(b, c, depth+1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	files, err := jsscan.ReadDir(args[0])
	if err != nil {
		return nxerrors.New(nxerrors.NotFound, "reading "+args[0], err)
	}
	if len(files) == 0 {
		return nxerrors.New(nxerrors.NotFound, "no .js files below "+args[0], nil)
	}
	h, _, err := jsscan.Scan(ctx, files)
	if err != nil {
		return err
	}

	res := ScanResult{
		Files:     len(files),
		Roots:     h.Roots(),
		Leaves:    h.Leaves(),
		Edges:     h.Edges(),
		Inherited: h.InheritedProperties(),
		Tree:      h.Tree(),
	}
	if scanOut != "" {
		written, err := h.WriteBundles(scanOut)
		if err != nil {
			return err
		}
		res.Written = written
	}
	return printResponse(cmd, res)
}
