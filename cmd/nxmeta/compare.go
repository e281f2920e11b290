package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nxmeta/internal/export"
	"nxmeta/internal/reconcile"
	"nxmeta/internal/report"
)

var (
	reconcileOut    string
	reconcileExport string
)

var compareCmd = &cobra.Command{
	Use:   "compare <component>",
	Short: "Compare codebase and metainfo names of one component",
	Long: `Compare the properties and events the parsed codebase records for a
component with the ones its metainfo documents. A is the codebase side, B
the metainfo side. A component without any recorded names has empty buckets.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile every component of the work version",
	Long: `Compare codebase and metainfo names of every component and print a
summary, or write the full table with --export csv|xlsx.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().StringVar(&reconcileExport, "export", "", "Write the table as csv or xlsx")
	reconcileCmd.Flags().StringVarP(&reconcileOut, "out", "o", "", "Output file for --export (default stdout)")
}

// CompareResult wraps a comparison for printing.
type CompareResult struct {
	reconcile.ComponentComparison `yaml:",inline"`
}

func (r CompareResult) human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Component)
	for _, k := range []struct {
		label string
		c     reconcile.Comparison
	}{{"properties", r.Properties}, {"events", r.Events}} {
		fmt.Fprintf(&b, "\n%s\n", k.label)
		fmt.Fprintf(&b, "  %-15s%s\n", "common:", listOrNone(k.c.Common))
		fmt.Fprintf(&b, "  %-15s%s\n", "codebase only:", listOrNone(k.c.OnlyInA))
		fmt.Fprintf(&b, "  %-15s%s\n", "metainfo only:", listOrNone(k.c.OnlyInB))
	}
	return b.String()
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	_, snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	res := reconcile.ComponentComparison{
		Component:  args[0],
		Properties: reconcile.Compare(nil, nil),
		Events:     reconcile.Compare(nil, nil),
	}
	if results := reconcile.CompareAll([]string{args[0]}, snap.Sources()); len(results) == 1 {
		res = results[0]
	}
	return printResponse(cmd, CompareResult{res})
}

// ReconcileResult is the summary output of the reconcile command.
type ReconcileResult struct {
	Version    string                     `json:"version" yaml:"version"`
	Rows       []report.ReconciliationRow `json:"rows" yaml:"rows"`
	Properties reconcile.Summary          `json:"properties" yaml:"properties"`
	Events     reconcile.Summary          `json:"events" yaml:"events"`
}

func (r ReconcileResult) human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d rows\n\n", r.Version, len(r.Rows))
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.Component,
			string(row.Kind),
			strconv.Itoa(row.Common),
			strconv.Itoa(row.OnlyInA),
			strconv.Itoa(row.OnlyInB),
		})
	}
	table(&b, []string{"COMPONENT", "KIND", "COMMON", "CODEBASE", "METAINFO"}, rows)
	fmt.Fprintf(&b, "\nproperties: %d components, %d common, %d codebase only, %d metainfo only\n",
		r.Properties.Components, r.Properties.Common, r.Properties.OnlyInA, r.Properties.OnlyInB)
	fmt.Fprintf(&b, "events:     %d components, %d common, %d codebase only, %d metainfo only\n",
		r.Events.Components, r.Events.Common, r.Events.OnlyInA, r.Events.OnlyInB)
	return b.String()
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	_, snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	components := snap.Components()
	rows := report.BuildFullReconciliationReport(components, snap.Sources())

	if reconcileExport != "" {
		format, err := parseExport(reconcileExport, export.FormatCSV, export.FormatXLSX)
		if err != nil {
			return err
		}
		return writeOutput(cmd, reconcileOut, func(w io.Writer) error {
			return export.Write(w, format, report.ReconciliationSheets(rows))
		})
	}

	results := reconcile.CompareAll(components, snap.Sources())
	return printResponse(cmd, ReconcileResult{
		Version:    snap.Version,
		Rows:       rows,
		Properties: reconcile.Summarize(results, reconcile.Properties),
		Events:     reconcile.Summarize(results, reconcile.Events),
	})
}
