// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	wtglog "github.com/davetashner/wtg/internal/log"
)

// Global flag values.
var (
	repoFlag string
	fetch    bool
	verbose  bool
	quiet    bool
	noColor  bool
)

// rootCmd is the base command for wtg. Unlike the teacher's verb-subcommand
// tree, wtg's primary action is the bare positional query, mirroring how
// the teacher's scanCmd takes its path argument directly.
var rootCmd = &cobra.Command{
	Use:   "wtg [identifier]",
	Short: "Resolve a commit, issue, PR, tag, or file into what shipped it",
	Long: `wtg resolves a terse identifier - a commit hash, issue or PR number,
file path, tag, or GitHub URL - into an enriched "what shipped this" report:
the commit, the pull request that introduced it, the issue it closed, and
the release it first shipped in.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		wtglog.Setup(verbose, quiet)
		if noColor || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		}
	},
	RunE: runQuery,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "r", "", "explicit repository coordinates (URL or owner/repo) overriding auto-detection")
	rootCmd.PersistentFlags().BoolVar(&fetch, "fetch", false, "permit fetching into the local repository cache")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
}
