package main

import (
	"github.com/spf13/cobra"

	"nxmeta/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(cmd, versionResult(version.Current()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionResult version.BuildInfo

func (v versionResult) human() string {
	return version.Full()
}
