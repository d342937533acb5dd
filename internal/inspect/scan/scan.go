// Package scan runs one repository scan end to end: snapshot fetch, policy
// load, checks, two-pass scoring with the regression guard, comparison against
// the previous stored report, and persistence.
package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/checks"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/github"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/policy"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/scoring"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/store"
)

// SnapshotFetcher is the network collaborator a scan needs.
type SnapshotFetcher interface {
	GetRepoSnapshot(ctx context.Context, owner, repo string) (*github.Snapshot, error)
	ChangedFilesBetweenCommits(ctx context.Context, owner, repo, baseSHA, headSHA string) ([]string, error)
}

// Runner executes scans. Store is optional: without it, scans run without
// history comparison and nothing is persisted.
type Runner struct {
	Fetcher SnapshotFetcher
	Store   *store.Store
	Logger  *slog.Logger
}

// Run performs a complete scan of owner/repo under the given job id.
//
// The build is two-pass: a provisional report establishes the current score,
// the regression guard is computed from it and injected into governance, and
// the final report is rebuilt so the guard appears in the check list without
// carrying weight.
func (r *Runner) Run(ctx context.Context, owner, repo, jobID string) (*report.ReportSummary, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snapshot, err := r.Fetcher.GetRepoSnapshot(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	logger.Info("snapshot fetched",
		"repo", owner+"/"+repo,
		"tree_paths", len(snapshot.TreePaths),
		"files_fetched", len(snapshot.FileContents),
	)

	pol := policy.FromFiles(snapshot.FileContents)
	if !pol.IsValid() {
		logger.Warn("policy has validation issues", "repo", owner+"/"+repo, "issues", len(pol.ValidationErrors))
	}

	checksByCategory := checks.RunAll(snapshot, pol)
	stacks := checks.DetectStacks(snapshot)
	metrics := checks.ProjectLineMetrics(snapshot)

	var previous *scoring.PreviousReport
	if r.Store != nil {
		previous, err = r.Store.Latest(owner, repo, jobID)
		if err != nil {
			logger.Warn("previous report unavailable", "error", err)
			previous = nil
		}
	}
	var previousScore *int
	if previous != nil {
		score := previous.ScoreTotal
		previousScore = &score
	}

	input := scoring.Input{
		RepoOwner:        snapshot.Owner,
		RepoName:         snapshot.Name,
		RepoURL:          snapshot.URL,
		ChecksByCategory: checksByCategory,
		ProjectMetrics:   metrics,
		DetectedStacks:   stacks,
		CategoryWeights:  pol.CategoryWeights,
		JobID:            jobID,
		CommitSHA:        snapshot.DefaultBranchSHA,
		PolicyIssues:     pol.ValidationErrors,
	}

	provisional, err := scoring.BuildReport(input)
	if err != nil {
		return nil, fmt.Errorf("building provisional report: %w", err)
	}
	guard := scoring.RegressionCheck(previousScore, provisional.ScoreTotal, pol.BaselineMinScore, pol.MaxScoreDrop)
	input.ChecksByCategory = scoring.InjectGuard(checksByCategory, guard)

	final, err := scoring.BuildReport(input)
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}

	var changedFiles []string
	if previous != nil && previous.CommitSHA != "" && snapshot.DefaultBranchSHA != "" {
		changedFiles, err = r.Fetcher.ChangedFilesBetweenCommits(ctx, owner, repo, previous.CommitSHA, snapshot.DefaultBranchSHA)
		if err != nil {
			logger.Warn("changed files unavailable", "error", err)
			changedFiles = nil
		}
	}
	final.Comparison = scoring.BuildComparison(previous, final, changedFiles, snapshot.DefaultBranchSHA)

	if r.Store != nil {
		if err := r.Store.Save(final); err != nil {
			return nil, fmt.Errorf("persisting report: %w", err)
		}
	}
	logger.Info("scan complete", "repo", owner+"/"+repo, "score", final.ScoreTotal, "job_id", jobID)
	return final, nil
}
