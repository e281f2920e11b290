package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/grouping"
	"nxmeta/internal/lineage"
)

var lineageRoot string

var lineageCmd = &cobra.Command{
	Use:   "lineage <target>",
	Short: "Show the inheritance chain of a component",
	Long: `Resolve the chain from the lineage root down to target. A target that is
not connected to the root prints an empty lineage rather than failing.`,
	Args: cobra.ExactArgs(1),
	RunE: runLineage,
}

var childrenCmd = &cobra.Command{
	Use:   "children <name>",
	Short: "List the direct children of a component",
	Args:  cobra.ExactArgs(1),
	RunE:  runChildren,
}

func init() {
	rootCmd.AddCommand(lineageCmd)
	rootCmd.AddCommand(childrenCmd)
	lineageCmd.Flags().StringVar(&lineageRoot, "root", "", "Root of the chain (default from config)")
}

// LineageResult is the output of the lineage command.
type LineageResult struct {
	Target   string            `json:"target" yaml:"target"`
	Root     string            `json:"root" yaml:"root"`
	Found    bool              `json:"found" yaml:"found"`
	Category grouping.Category `json:"category,omitempty" yaml:"category,omitempty"`
	Path     []string          `json:"path" yaml:"path"`
	Tree     *lineage.Node     `json:"tree" yaml:"tree"`
}

func (r LineageResult) human() string {
	if !r.Found {
		return fmt.Sprintf("%s: no inheritance structure below %s\n", r.Target, r.Root)
	}
	var b strings.Builder
	for i, name := range r.Path {
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", i), name)
	}
	if r.Category != "" {
		fmt.Fprintf(&b, "\ncategory: %s\n", r.Category)
	}
	return b.String()
}

func runLineage(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	cfg, snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	root := lineageRoot
	if root == "" {
		root = cfg.Lineage.Root
	}

	target := args[0]
	path, found := snap.Resolver.Path(target, root)
	if path == nil {
		path = []string{}
	}
	res := LineageResult{
		Target: target,
		Root:   root,
		Found:  found,
		Path:   path,
		Tree:   snap.Resolver.Resolve(target, root),
	}
	if c, ok := snap.Groups.CategoryOf(target); ok {
		res.Category = c
	}
	return printResponse(cmd, res)
}

// ChildrenResult is the output of the children command.
type ChildrenResult struct {
	Name     string   `json:"name" yaml:"name"`
	Children []string `json:"children" yaml:"children"`
}

func (r ChildrenResult) human() string {
	if len(r.Children) == 0 {
		return r.Name + " has no children\n"
	}
	return r.Name + "\n  " + strings.Join(r.Children, "\n  ") + "\n"
}

func runChildren(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	_, snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	name := args[0]
	if !snap.Resolver.Contains(name) {
		return nxerrors.New(nxerrors.NotFound, "unknown component: "+name, nil)
	}
	return printResponse(cmd, ChildrenResult{Name: name, Children: snap.Resolver.ChildrenOf(name)})
}
