package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nxmeta/internal/grouping"
)

var groupsQuery string

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List components by category",
	Long: `List every name of the inheritance graph sorted into the Component,
Control, EventInfo and ETC categories. --query keeps the names containing the
term, case-insensitively.`,
	Args: cobra.NoArgs,
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.Flags().StringVarP(&groupsQuery, "query", "q", "", "Filter names by substring")
}

// GroupsResult is the output of the groups command.
type GroupsResult struct {
	Version string          `json:"version" yaml:"version"`
	Query   string          `json:"query,omitempty" yaml:"query,omitempty"`
	Groups  grouping.Groups `json:"groups" yaml:"groups"`
	Total   int             `json:"total" yaml:"total"`
}

func (r GroupsResult) human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d names", r.Version, r.Total)
	if r.Query != "" {
		fmt.Fprintf(&b, " matching %q", r.Query)
	}
	b.WriteString("\n")
	for _, c := range grouping.Order {
		names := r.Groups[c]
		fmt.Fprintf(&b, "\n%s (%d)\n", c, len(names))
		for _, n := range names {
			fmt.Fprintf(&b, "  %s\n", n)
		}
	}
	return b.String()
}

func runGroups(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	_, snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	groups := snap.Groups.Filter(groupsQuery)
	return printResponse(cmd, GroupsResult{
		Version: snap.Version,
		Query:   groupsQuery,
		Groups:  groups,
		Total:   groups.Len(),
	})
}
