package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/github"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/scan"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/store"
)

var (
	scanOwner      string
	scanRepo       string
	scanJSON       bool
	scanStorageDir string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan one repository and print its quality report",
	Long: `Fetches a snapshot of the repository from the GitHub API, runs all
quality checks, and prints the scored report.

Set GITHUB_TOKEN for private repositories and higher rate limits.
With --storage-dir the report is persisted and compared against the
previous scan of the same repository (score deltas, regression guard).
Use --json for the machine-readable report.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOwner, "owner", "o", "", "Repository owner (required)")
	scanCmd.Flags().StringVarP(&scanRepo, "repo", "r", "", "Repository name (required)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output JSON instead of formatted table")
	scanCmd.Flags().StringVar(&scanStorageDir, "storage-dir", "", "Persist reports here and compare against history")
	scanCmd.MarkFlagRequired("owner")
	scanCmd.MarkFlagRequired("repo")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	runner := &scan.Runner{
		Fetcher: github.NewClient(ctx, os.Getenv("GITHUB_TOKEN")),
		Logger:  logger,
	}
	if scanStorageDir != "" {
		reports, err := store.New(scanStorageDir)
		if err != nil {
			return err
		}
		runner.Store = reports
	}

	summary, err := runner.Run(ctx, scanOwner, scanRepo, uuid.New().String())
	if err != nil {
		return fmt.Errorf("scanning %s/%s: %w", scanOwner, scanRepo, err)
	}

	if scanJSON {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	printReport(cmd.OutOrStdout(), summary)
	return nil
}

func printReport(out io.Writer, summary *report.ReportSummary) {
	fmt.Fprintf(out, "REPO QUALITY: %s/%s  %d/100\n", summary.RepoOwner, summary.RepoName, summary.ScoreTotal)
	if len(summary.DetectedStacks) > 0 {
		fmt.Fprintf(out, "Stacks: %s\n", strings.Join(summary.DetectedStacks, ", "))
	}
	fmt.Fprintln(out, strings.Repeat("─", 60))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CATEGORY\tSCORE\tWEIGHT\tCHECKS\n")
	for _, category := range summary.Categories {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", category.Name, category.Score, category.Weight, checkSummary(category.Checks))
	}
	w.Flush()

	if len(summary.PolicyIssues) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Policy issues:")
		for _, issue := range summary.PolicyIssues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
	}

	if len(summary.FixPlan) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "FIX PLAN")
		pw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(pw, "#\tSTATUS\tIMPACT\tCATEGORY\tACTION\n")
		for _, item := range summary.FixPlan {
			fmt.Fprintf(pw, "%d\t%s\t%.2f\t%s\t%s\n",
				item.Priority, item.Status, item.ImpactPoints, item.CategoryName, item.Action)
		}
		pw.Flush()
	}

	if c := summary.Comparison; c != nil && c.PreviousJobID != "" {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Versus previous scan: %+d points, %d categories changed, %d files changed\n",
			c.ScoreDelta, len(c.Categories), c.ChangedFilesTotal)
	}
}

func checkSummary(checks []report.CheckResult) string {
	pass, warn, fail := 0, 0, 0
	for _, check := range checks {
		switch check.Status {
		case report.StatusPass:
			pass++
		case report.StatusWarn:
			warn++
		case report.StatusFail:
			fail++
		}
	}
	return fmt.Sprintf("%d pass / %d warn / %d fail", pass, warn, fail)
}
