package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/infodoc"
	"nxmeta/internal/testgen"
)

var (
	testgenSelect []string
	testgenAll    bool
	testgenName   string
	testgenList   bool
	testgenOut    string
)

var testgenCmd = &cobra.Command{
	Use:   "testgen <file.info>",
	Short: "Generate a test form script from an INFO document",
	Long: `Generate the script of a test form exercising the selected properties of
the component an INFO document describes. --list prints the property groups
to choose from.`,
	Args: cobra.ExactArgs(1),
	RunE: runTestgen,
}

func init() {
	rootCmd.AddCommand(testgenCmd)
	testgenCmd.Flags().StringSliceVarP(&testgenSelect, "select", "s", nil, "Properties to exercise, in order")
	testgenCmd.Flags().BoolVar(&testgenAll, "all", false, "Exercise every property")
	testgenCmd.Flags().BoolVar(&testgenList, "list", false, "List property groups instead of generating")
	testgenCmd.Flags().StringVar(&testgenName, "name", "", "Object name (default from the file name)")
	testgenCmd.Flags().StringVarP(&testgenOut, "out", "o", "", "Output file (default stdout)")
}

// GroupList is the output of testgen --list.
type GroupList struct {
	Object string          `json:"object" yaml:"object"`
	Groups []testgen.Group `json:"groups" yaml:"groups"`
}

func (l GroupList) human() string {
	var b strings.Builder
	b.WriteString(l.Object + "\n")
	for _, g := range l.Groups {
		fmt.Fprintf(&b, "\n%s\n", g.Name)
		for _, p := range g.Properties {
			if p.Readonly {
				fmt.Fprintf(&b, "  %s (readonly)\n", p.Name)
				continue
			}
			fmt.Fprintf(&b, "  %s\n", p.Name)
		}
	}
	return b.String()
}

func runTestgen(cmd *cobra.Command, args []string) error {
	if testgenAll && len(testgenSelect) > 0 {
		return nxerrors.New(nxerrors.InvalidArgument, "--all and --select are mutually exclusive", nil)
	}
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	doc, err := infodoc.Parse(string(data))
	if err != nil {
		return err
	}

	obj := testgenName
	if obj == "" {
		obj = testgen.ObjectName(args[0])
	}
	groups := testgen.GroupProperties(doc)
	if testgenList {
		return printResponse(cmd, GroupList{Object: obj, Groups: groups})
	}

	var selected []testgen.Property
	if testgenAll {
		selected = testgen.All(groups)
	} else {
		var unknown []string
		selected, unknown = testgen.Select(groups, testgenSelect)
		if len(unknown) > 0 {
			return nxerrors.Newf(nxerrors.InvalidArgument, "unknown properties: %v", unknown)
		}
	}

	script := testgen.Script(obj, selected)
	return writeOutput(cmd, testgenOut, func(w io.Writer) error {
		_, err := io.WriteString(w, script)
		return err
	})
}
