package scoring

import (
	"fmt"
	"math"
	"testing"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

func TestParsePreviousReport(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		payload := []byte(`{
			"score_total": 72,
			"categories": [
				{"id": "docs", "name": "Docs", "weight": 15, "score": 11,
				 "checks": [{"id": "readme_exists", "name": "README file exists", "status": "pass"}]}
			]
		}`)
		previous := ParsePreviousReport("job-1", "abc123", payload)
		if previous == nil {
			t.Fatal("previous = nil, want parsed report")
		}
		if previous.JobID != "job-1" || previous.CommitSHA != "abc123" {
			t.Errorf("identifiers = %s/%s, want job-1/abc123", previous.JobID, previous.CommitSHA)
		}
		if previous.ScoreTotal != 72 {
			t.Errorf("ScoreTotal = %d, want 72", previous.ScoreTotal)
		}
		if len(previous.Categories) != 1 || len(previous.Categories[0].Checks) != 1 {
			t.Fatalf("categories = %+v, want one category with one check", previous.Categories)
		}
		if previous.Categories[0].Checks[0].Status != report.StatusPass {
			t.Errorf("check status = %q, want pass", previous.Categories[0].Checks[0].Status)
		}
	})

	t.Run("malformed payloads yield nil", func(t *testing.T) {
		for _, payload := range []string{"", "not json", `["a list"]`, `"a string"`, "null"} {
			if got := ParsePreviousReport("job", "sha", []byte(payload)); got != nil {
				t.Errorf("ParsePreviousReport(%q) = %+v, want nil", payload, got)
			}
		}
	})

	t.Run("entries missing ids are skipped", func(t *testing.T) {
		payload := []byte(`{
			"score_total": "not a number",
			"categories": [
				{"name": "no id"},
				"not an object",
				{"id": "docs", "weight": 15, "score": 10,
				 "checks": [{"id": "readme_exists"}, {"status": "pass"},
				            {"id": "license_exists", "status": "warn"}]}
			]
		}`)
		previous := ParsePreviousReport("job", "sha", payload)
		if previous == nil {
			t.Fatal("previous = nil, want lenient parse")
		}
		if previous.ScoreTotal != 0 {
			t.Errorf("ScoreTotal = %d, want 0 for non-numeric", previous.ScoreTotal)
		}
		if len(previous.Categories) != 1 {
			t.Fatalf("categories = %d, want 1", len(previous.Categories))
		}
		if len(previous.Categories[0].Checks) != 1 {
			t.Fatalf("checks = %+v, want only the complete entry", previous.Categories[0].Checks)
		}
		if previous.Categories[0].Name != "docs" {
			t.Errorf("missing name must default to id, got %q", previous.Categories[0].Name)
		}
	})
}

func TestBuildComparisonNoPrevious(t *testing.T) {
	current := &report.ReportSummary{ScoreTotal: 80}
	comparison := BuildComparison(nil, current, []string{"a.go"}, "sha-now")
	if comparison.PreviousJobID != "" || comparison.ScoreDelta != 0 {
		t.Errorf("comparison = %+v, want empty previous identifiers and zero delta", comparison)
	}
	if comparison.CurrentCommitSHA != "sha-now" {
		t.Errorf("CurrentCommitSHA = %q, want sha-now", comparison.CurrentCommitSHA)
	}
	if comparison.Categories == nil || comparison.Checks == nil {
		t.Error("delta slices must be non-nil")
	}
	if comparison.ChangedFilesTotal != 1 || len(comparison.ChangedFiles) != 1 {
		t.Errorf("changed files = %v (%d), want the one file", comparison.ChangedFiles, comparison.ChangedFilesTotal)
	}
}

func TestBuildComparisonDeltas(t *testing.T) {
	previous := &PreviousReport{
		JobID:      "job-prev",
		CommitSHA:  "sha-prev",
		ScoreTotal: 70,
		Categories: []PreviousCategory{
			{ID: "security", Name: "Security", Weight: 25, Score: 15, Checks: []PreviousCheck{
				{ID: "secret_patterns", Name: "No exposed secret patterns", Status: report.StatusFail},
				{ID: "actions_pinned", Name: "GitHub Actions are pinned", Status: report.StatusPass},
				{ID: "dependency_hygiene", Name: "Dependency security hygiene", Status: report.StatusPass},
			}},
			{ID: "docs", Name: "Docs", Weight: 15, Score: 15, Checks: []PreviousCheck{
				{ID: "readme_exists", Name: "README file exists", Status: report.StatusPass},
			}},
		},
	}
	current := &report.ReportSummary{
		ScoreTotal: 82,
		Categories: []report.CategoryReport{
			{ID: "security", Name: "Security", Weight: 25, Score: 25, Checks: []report.CheckResult{
				{ID: "secret_patterns", Name: "No exposed secret patterns", Status: report.StatusPass},
				{ID: "actions_pinned", Name: "GitHub Actions are pinned", Status: report.StatusPass},
				{ID: "dependency_hygiene", Name: "Dependency security hygiene", Status: report.StatusPass},
			}},
			{ID: "docs", Name: "Docs", Weight: 15, Score: 15, Checks: []report.CheckResult{
				{ID: "readme_exists", Name: "README file exists", Status: report.StatusPass},
			}},
		},
	}

	comparison := BuildComparison(previous, current, []string{"main.py", "README.md"}, "sha-now")
	if comparison.PreviousJobID != "job-prev" || comparison.PreviousCommitSHA != "sha-prev" {
		t.Errorf("previous identifiers = %s/%s", comparison.PreviousJobID, comparison.PreviousCommitSHA)
	}
	if comparison.ScoreDelta != 12 {
		t.Errorf("ScoreDelta = %d, want 12", comparison.ScoreDelta)
	}

	// Only the changed category appears.
	if len(comparison.Categories) != 1 {
		t.Fatalf("category deltas = %+v, want only security", comparison.Categories)
	}
	if d := comparison.Categories[0]; d.CategoryID != "security" || d.Delta != 10 {
		t.Errorf("security delta = %+v, want +10", d)
	}

	// Only the status-changed check appears, with its recovered weight:
	// 25 * 2.4 / 4.8 = 12.5 points from fail to pass.
	if len(comparison.Checks) != 1 {
		t.Fatalf("check deltas = %+v, want only secret_patterns", comparison.Checks)
	}
	d := comparison.Checks[0]
	if d.CheckID != "secret_patterns" || d.PreviousStatus != report.StatusFail || d.CurrentStatus != report.StatusPass {
		t.Errorf("check delta = %+v", d)
	}
	if d.ScoreDelta != 12.5 {
		t.Errorf("check ScoreDelta = %v, want 12.5", d.ScoreDelta)
	}
	if comparison.ChangedFilesTotal != 2 {
		t.Errorf("ChangedFilesTotal = %d, want 2", comparison.ChangedFilesTotal)
	}
}

func TestBuildComparisonNewCheck(t *testing.T) {
	previous := &PreviousReport{JobID: "job-prev", ScoreTotal: 90}
	current := &report.ReportSummary{
		ScoreTotal: 90,
		Categories: []report.CategoryReport{
			{ID: "quality", Name: "Quality", Weight: 20, Score: 20, Checks: []report.CheckResult{
				{ID: "tests_exist", Name: "Tests exist", Status: report.StatusPass},
				{ID: "lint_config", Name: "Linter/formatter config exists", Status: report.StatusPass},
			}},
		},
	}
	comparison := BuildComparison(previous, current, nil, "sha")
	if len(comparison.Checks) != 2 {
		t.Fatalf("check deltas = %d, want 2 new checks", len(comparison.Checks))
	}
	for _, d := range comparison.Checks {
		if d.PreviousStatus != "" {
			t.Errorf("new check %s previous status = %q, want empty", d.CheckID, d.PreviousStatus)
		}
		if d.ScoreDelta <= 0 {
			t.Errorf("new passing check %s delta = %v, want positive", d.CheckID, d.ScoreDelta)
		}
	}
	// Sorted by absolute delta, largest first.
	if math.Abs(comparison.Checks[0].ScoreDelta) < math.Abs(comparison.Checks[1].ScoreDelta) {
		t.Errorf("check deltas not sorted by magnitude: %v then %v",
			comparison.Checks[0].ScoreDelta, comparison.Checks[1].ScoreDelta)
	}
}

func TestBuildComparisonChangedFilesTruncated(t *testing.T) {
	files := make([]string, 140)
	for i := range files {
		files[i] = fmt.Sprintf("src/file_%03d.py", i)
	}
	comparison := BuildComparison(nil, &report.ReportSummary{}, files, "sha")
	if len(comparison.ChangedFiles) != 100 {
		t.Errorf("ChangedFiles = %d entries, want 100", len(comparison.ChangedFiles))
	}
	if comparison.ChangedFilesTotal != 140 {
		t.Errorf("ChangedFilesTotal = %d, want 140", comparison.ChangedFilesTotal)
	}
}

func TestBuildComparisonCheckDeltaCap(t *testing.T) {
	var checks []report.CheckResult
	for i := 0; i < 60; i++ {
		checks = append(checks, report.CheckResult{
			ID: fmt.Sprintf("check_%02d", i), Name: "synthetic", Status: report.StatusPass,
		})
	}
	current := &report.ReportSummary{
		Categories: []report.CategoryReport{
			{ID: "quality", Name: "Quality", Weight: 20, Score: 20, Checks: checks},
		},
	}
	comparison := BuildComparison(&PreviousReport{JobID: "job-prev"}, current, nil, "sha")
	if len(comparison.Checks) != 50 {
		t.Errorf("check deltas = %d, want capped at 50", len(comparison.Checks))
	}
}
