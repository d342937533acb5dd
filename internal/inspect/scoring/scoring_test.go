package scoring

import (
	"errors"
	"testing"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

func check(id string, status report.Status) report.CheckResult {
	return report.CheckResult{ID: id, Name: id, Status: status, Recommendation: "Fix " + id + "."}
}

func allPassChecks() map[string][]report.CheckResult {
	return map[string][]report.CheckResult{
		"docs": {
			check("readme_exists", report.StatusPass),
			check("readme_length", report.StatusPass),
			check("contributing_exists", report.StatusPass),
			check("license_exists", report.StatusPass),
		},
		"ci": {
			check("workflow_files", report.StatusPass),
			check("workflow_trigger", report.StatusPass),
			check("ci_stage_coverage", report.StatusPass),
		},
		"security": {
			check("actions_pinned", report.StatusPass),
			check("secret_patterns", report.StatusPass),
			check("dependency_hygiene", report.StatusPass),
		},
		"quality": {
			check("lint_config", report.StatusPass),
			check("tests_exist", report.StatusPass),
		},
		"maintenance": {
			check("releases_or_tags", report.StatusPass),
			check("recent_activity", report.StatusPass),
		},
		"governance": {
			check("codeowners_exists", report.StatusPass),
			check("pr_template_exists", report.StatusPass),
			check("issue_template_exists", report.StatusPass),
			check("security_policy_exists", report.StatusPass),
		},
	}
}

func TestBuildReportNilChecks(t *testing.T) {
	_, err := BuildReport(Input{RepoOwner: "acme", RepoName: "widgets"})
	if !errors.Is(err, ErrNilChecks) {
		t.Fatalf("err = %v, want ErrNilChecks", err)
	}
}

func TestBuildReportAllPass(t *testing.T) {
	summary, err := BuildReport(Input{
		RepoOwner:        "acme",
		RepoName:         "widgets",
		ChecksByCategory: allPassChecks(),
		JobID:            "job-1",
	})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if summary.ScoreTotal != 100 {
		t.Errorf("ScoreTotal = %d, want 100", summary.ScoreTotal)
	}
	if len(summary.Categories) != 6 {
		t.Fatalf("categories = %d, want 6", len(summary.Categories))
	}
	for _, category := range summary.Categories {
		if category.Score != category.Weight {
			t.Errorf("category %s score = %d, want full weight %d", category.ID, category.Score, category.Weight)
		}
	}
	if len(summary.FixPlan) != 0 {
		t.Errorf("fix plan = %d items, want 0", len(summary.FixPlan))
	}
	if summary.DetectedStacks == nil || summary.PolicyIssues == nil {
		t.Error("stacks and policy issues must be non-nil empty slices")
	}
}

func TestBuildReportCategoryOrder(t *testing.T) {
	summary, err := BuildReport(Input{ChecksByCategory: map[string][]report.CheckResult{}})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	wantOrder := []string{"docs", "ci", "security", "quality", "maintenance", "governance"}
	for i, category := range summary.Categories {
		if category.ID != wantOrder[i] {
			t.Errorf("category[%d] = %s, want %s", i, category.ID, wantOrder[i])
		}
		if category.Score != 0 {
			t.Errorf("empty category %s score = %d, want 0", category.ID, category.Score)
		}
	}
	if summary.ScoreTotal != 0 {
		t.Errorf("ScoreTotal = %d, want 0", summary.ScoreTotal)
	}
}

func TestBuildReportImportanceWeighting(t *testing.T) {
	// Docs weight 15 split over importances 1.8/1.0/0.7/1.2 = 4.7; warned
	// readme_length earns half its share and failed contributing none:
	// 15 * (1.8 + 0.5 + 0 + 1.2) / 4.7 = 11.17 -> 11.
	checks := allPassChecks()
	checks["docs"] = []report.CheckResult{
		check("readme_exists", report.StatusPass),
		check("readme_length", report.StatusWarn),
		check("contributing_exists", report.StatusFail),
		check("license_exists", report.StatusPass),
	}
	summary, err := BuildReport(Input{ChecksByCategory: checks})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	docs := summary.Categories[0]
	if docs.ID != "docs" {
		t.Fatalf("first category = %s, want docs", docs.ID)
	}
	if docs.Score != 11 {
		t.Errorf("docs score = %d, want 11", docs.Score)
	}
	if summary.ScoreTotal != 96 {
		t.Errorf("ScoreTotal = %d, want 96", summary.ScoreTotal)
	}
}

func TestBuildReportNonScoringChecksDoNotMoveScore(t *testing.T) {
	checks := allPassChecks()
	checks["governance"] = append(checks["governance"],
		report.CheckResult{ID: "policy_config_valid", Name: "Policy configuration file", Status: report.StatusWarn},
		report.CheckResult{ID: "score_regression_guard", Name: "Score regression guard", Status: report.StatusFail},
	)
	summary, err := BuildReport(Input{ChecksByCategory: checks})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if summary.ScoreTotal != 100 {
		t.Errorf("ScoreTotal = %d, want 100 despite advisory warn/fail", summary.ScoreTotal)
	}
}

func TestBuildReportWeightOverrides(t *testing.T) {
	checks := allPassChecks()
	checks["security"] = []report.CheckResult{
		check("actions_pinned", report.StatusFail),
		check("secret_patterns", report.StatusFail),
		check("dependency_hygiene", report.StatusFail),
	}
	summary, err := BuildReport(Input{
		ChecksByCategory: checks,
		CategoryWeights:  map[string]int{"security": 50},
	})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	// Renormalized weights: docs 12, ci 12, security 40, quality 16,
	// maintenance 12, governance 8. Security all-fail drops exactly 40.
	if summary.ScoreTotal != 60 {
		t.Errorf("ScoreTotal = %d, want 60", summary.ScoreTotal)
	}
	for _, category := range summary.Categories {
		if category.ID == "security" && category.Weight != 40 {
			t.Errorf("security weight = %d, want 40", category.Weight)
		}
	}
}

func TestBuildFixPlanOrdering(t *testing.T) {
	checks := allPassChecks()
	checks["security"] = []report.CheckResult{
		check("actions_pinned", report.StatusWarn),
		check("secret_patterns", report.StatusFail),
		check("dependency_hygiene", report.StatusFail),
	}
	checks["docs"] = []report.CheckResult{
		check("readme_exists", report.StatusPass),
		check("readme_length", report.StatusPass),
		check("contributing_exists", report.StatusFail),
		check("license_exists", report.StatusPass),
	}
	summary, err := BuildReport(Input{ChecksByCategory: checks})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	plan := summary.FixPlan
	if len(plan) != 4 {
		t.Fatalf("fix plan = %d items, want 4", len(plan))
	}
	// All fails first (by impact), then warns, even when the warn's
	// recoverable impact exceeds a fail's.
	wantIDs := []string{"secret_patterns", "dependency_hygiene", "contributing_exists", "actions_pinned"}
	for i, want := range wantIDs {
		if plan[i].CheckID != want {
			t.Errorf("plan[%d] = %s, want %s", i, plan[i].CheckID, want)
		}
		if plan[i].Priority != i+1 {
			t.Errorf("plan[%d].Priority = %d, want %d", i, plan[i].Priority, i+1)
		}
	}
	if plan[0].ImpactPoints != 12.5 {
		t.Errorf("secret_patterns impact = %v, want 12.5", plan[0].ImpactPoints)
	}
	if plan[1].ImpactPoints != 5.73 {
		t.Errorf("dependency_hygiene impact = %v, want 5.73", plan[1].ImpactPoints)
	}
	if plan[3].ImpactPoints != 3.39 {
		t.Errorf("actions_pinned warn impact = %v, want 3.39", plan[3].ImpactPoints)
	}
}

func TestBuildFixPlanFallbackAction(t *testing.T) {
	categories := []report.CategoryReport{{
		ID: "quality", Name: "Quality", Weight: 20,
		Checks: []report.CheckResult{
			{ID: "tests_exist", Name: "Tests exist", Status: report.StatusFail},
		},
	}}
	plan := BuildFixPlan(categories)
	if len(plan) != 1 {
		t.Fatalf("fix plan = %d items, want 1", len(plan))
	}
	if plan[0].Action != fallbackAction {
		t.Errorf("Action = %q, want fallback", plan[0].Action)
	}
}

func TestBuildReportSingleCheckPerCategory(t *testing.T) {
	checks := map[string][]report.CheckResult{
		"docs":        {check("readme_exists", report.StatusPass)},
		"ci":          {check("workflow_files", report.StatusPass)},
		"security":    {check("secret_patterns", report.StatusPass)},
		"quality":     {check("tests_exist", report.StatusPass)},
		"maintenance": {check("recent_activity", report.StatusPass)},
		"governance":  {check("codeowners_exists", report.StatusPass)},
	}
	summary, err := BuildReport(Input{ChecksByCategory: checks})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if summary.ScoreTotal != 100 {
		t.Errorf("ScoreTotal = %d, want 100", summary.ScoreTotal)
	}
	if len(summary.FixPlan) != 0 {
		t.Errorf("fix plan = %+v, want empty", summary.FixPlan)
	}

	// Fail the sole security check: only that item appears, ranked first.
	checks["security"] = []report.CheckResult{check("secret_patterns", report.StatusFail)}
	summary, err = BuildReport(Input{ChecksByCategory: checks})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if summary.ScoreTotal >= 100 {
		t.Errorf("ScoreTotal = %d, want < 100", summary.ScoreTotal)
	}
	if len(summary.FixPlan) != 1 {
		t.Fatalf("fix plan = %+v, want exactly one item", summary.FixPlan)
	}
	if summary.FixPlan[0].CheckID != "secret_patterns" || summary.FixPlan[0].Priority != 1 {
		t.Errorf("fix plan item = %+v", summary.FixPlan[0])
	}
}

func TestBuildReportUniformOverridesAllPass(t *testing.T) {
	overrides := map[string]int{
		"docs": 50, "ci": 50, "security": 50,
		"quality": 50, "maintenance": 50, "governance": 50,
	}
	summary, err := BuildReport(Input{
		ChecksByCategory: allPassChecks(),
		CategoryWeights:  overrides,
	})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if summary.ScoreTotal != 100 {
		t.Errorf("ScoreTotal = %d, want 100", summary.ScoreTotal)
	}
	weightSum := 0
	for _, category := range summary.Categories {
		weightSum += category.Weight
	}
	if weightSum != 100 {
		t.Errorf("weights sum = %d, want 100", weightSum)
	}
}

func TestBuildReportDeterministic(t *testing.T) {
	checks := allPassChecks()
	checks["security"] = []report.CheckResult{
		check("actions_pinned", report.StatusWarn),
		check("secret_patterns", report.StatusFail),
		check("dependency_hygiene", report.StatusWarn),
	}
	input := Input{ChecksByCategory: checks, CategoryWeights: map[string]int{"docs": 30}}

	first, err := BuildReport(input)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	second, err := BuildReport(input)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if first.ScoreTotal != second.ScoreTotal {
		t.Errorf("ScoreTotal differs: %d vs %d", first.ScoreTotal, second.ScoreTotal)
	}
	for i := range first.Categories {
		if first.Categories[i].Score != second.Categories[i].Score {
			t.Errorf("category %s score differs", first.Categories[i].ID)
		}
	}
	for i := range first.FixPlan {
		if first.FixPlan[i].CheckID != second.FixPlan[i].CheckID {
			t.Errorf("fix plan order differs at %d", i)
		}
	}
}

func TestCollectRecommendations(t *testing.T) {
	checks := []report.CheckResult{
		{ID: "a", Status: report.StatusWarn, Recommendation: "Do the thing."},
		{ID: "b", Status: report.StatusFail, Recommendation: "Do the thing."},
		{ID: "c", Status: report.StatusFail, Recommendation: "Another fix."},
		{ID: "d", Status: report.StatusPass, Recommendation: "Ignored on pass."},
		{ID: "e", Status: report.StatusWarn},
	}
	got := collectRecommendations(checks)
	want := []string{"Another fix.", "Do the thing."}
	if len(got) != len(want) {
		t.Fatalf("recommendations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recommendations[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
