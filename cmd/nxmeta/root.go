package main

import (
	"github.com/spf13/cobra"

	"nxmeta/internal/version"
)

var (
	// Persistent flags; empty values defer to config, env and defaults.
	workDir     string
	dataRoot    string
	dataVersion string
	formatFlag  string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "nxmeta",
	Short: "nxmeta - Nexacro component metadata analyzer",
	Long: `nxmeta reads the published component metadata of a Nexacro work version
(inheritance edges, codebase and metainfo property/event bundles) and answers
lineage, grouping and reconciliation questions about it. It also converts
INFO documents to and from spreadsheets, rewrites XFDL sample headers and
scans component JavaScript sources.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("nxmeta version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", ".", "Directory holding .nxmeta/config.json and .env")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "data-root", "", "Bundle root directory or http(s) URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dataVersion, "data-version", "", "Work version to load, e.g. WORK800 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "Output format (human, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}
