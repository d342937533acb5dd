package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped into the binary.
const Version = "1.0.0"

// RootCmd is the repo-inspector command tree.
var RootCmd = &cobra.Command{
	Use:   "repo-inspector",
	Short: "Score the quality of a source-code repository",
	Long: `Repo-Inspector runs a fixed battery of heuristic checks against a
repository hosted on GitHub and aggregates the results into a weighted
0-100 quality score with a prioritized remediation plan.

Checks cover six categories: docs, ci, security, quality, maintenance,
and governance. Category weights, thresholds, ignored checks, and score
baselines can be tuned per repository via a .repo-inspector.yml policy
file committed to the repository root.`,
	Version:      Version,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "repo-inspector "+Version)
	},
}

func init() {
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(compareCmd)
	RootCmd.AddCommand(versionCmd)
}
