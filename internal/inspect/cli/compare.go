package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/scoring"
)

var compareCmd = &cobra.Command{
	Use:   "compare <previous.json> <current.json>",
	Short: "Diff two report documents",
	Long: `Compares two previously generated report JSON documents and prints
the comparison: total and per-category score deltas plus per-check
status changes weighted by score impact.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	previousData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading previous report: %w", err)
	}
	currentData, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading current report: %w", err)
	}

	var current report.ReportSummary
	if err := json.Unmarshal(currentData, &current); err != nil {
		return fmt.Errorf("parsing current report: %w", err)
	}

	var previousIDs report.ReportSummary
	_ = json.Unmarshal(previousData, &previousIDs)
	previous := scoring.ParsePreviousReport(previousIDs.JobID, previousIDs.CommitSHA, previousData)

	comparison := scoring.BuildComparison(previous, &current, nil, current.CommitSHA)
	out, err := json.MarshalIndent(comparison, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling comparison: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
