// Package scoring turns categorized check results into a weighted 0-100
// report: category scores, a total score, a prioritized fix plan, a regression
// guard, and a diff against a previous scan.
//
// The engine is pure, synchronous computation over immutable inputs. It is
// safe to run concurrently for independent scans.
package scoring

import (
	"errors"
	"math"
	"sort"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

// Status factors applied to per-check weights when scoring a category.
var statusFactor = map[report.Status]float64{
	report.StatusPass: 1.0,
	report.StatusWarn: 0.5,
	report.StatusFail: 0.0,
}

// fallbackAction is used when a non-passing check carries no recommendation.
const fallbackAction = "Review this check and apply the suggested best practice."

// Input bundles everything the report builder needs for one scan.
type Input struct {
	RepoOwner        string
	RepoName         string
	RepoURL          string
	ChecksByCategory map[string][]report.CheckResult
	ProjectMetrics   report.ProjectMetrics
	DetectedStacks   []string
	CategoryWeights  map[string]int
	JobID            string
	CommitSHA        string
	PolicyIssues     []string
}

// ErrNilChecks is returned when the caller passes no checks mapping at all.
// An empty map is valid input; nil is a contract violation.
var ErrNilChecks = errors.New("scoring: checks by category must not be nil")

// BuildReport assembles the normalized report from categorized checks.
// Categories missing from the input score zero.
func BuildReport(in Input) (*report.ReportSummary, error) {
	if in.ChecksByCategory == nil {
		return nil, ErrNilChecks
	}

	resolved := ResolveWeights(in.CategoryWeights)
	categories := make([]report.CategoryReport, 0, len(CategoryOrder))
	totalScore := 0.0

	for _, categoryID := range CategoryOrder {
		def := resolved[categoryID]
		checks := in.ChecksByCategory[categoryID]
		categoryScore := scoreCategory(categoryID, def.Weight, checks)
		totalScore += categoryScore
		categories = append(categories, report.CategoryReport{
			ID:              categoryID,
			Name:            def.Name,
			Weight:          def.Weight,
			Score:           roundInt(categoryScore),
			Checks:          checks,
			Recommendations: collectRecommendations(checks),
		})
	}

	stacks := in.DetectedStacks
	if stacks == nil {
		stacks = []string{}
	}
	issues := in.PolicyIssues
	if issues == nil {
		issues = []string{}
	}

	return &report.ReportSummary{
		JobID:          in.JobID,
		RepoOwner:      in.RepoOwner,
		RepoName:       in.RepoName,
		RepoURL:        in.RepoURL,
		GeneratedAt:    report.Now(),
		ScoreTotal:     roundInt(totalScore),
		CommitSHA:      in.CommitSHA,
		DetectedStacks: stacks,
		ProjectMetrics: in.ProjectMetrics,
		Categories:     categories,
		FixPlan:        BuildFixPlan(categories),
		PolicyIssues:   issues,
	}, nil
}

// BuildFixPlan ranks every non-passing check by the score recoverable from
// fixing it. Fail-status items come first, then higher impact, then category
// display name; priorities are dense and 1-based.
func BuildFixPlan(categories []report.CategoryReport) []report.FixPlanItem {
	items := []report.FixPlanItem{}
	for _, category := range categories {
		weights := CheckWeightMap(category.ID, category.Weight, checkIDs(category.Checks))
		for _, check := range category.Checks {
			if check.Status == report.StatusPass {
				continue
			}
			impact := round2(weights[check.ID] * (1.0 - statusFactor[check.Status]))
			action := check.Recommendation
			if action == "" {
				action = fallbackAction
			}
			items = append(items, report.FixPlanItem{
				CategoryID:   category.ID,
				CategoryName: category.Name,
				CheckID:      check.ID,
				CheckName:    check.Name,
				Status:       check.Status,
				ImpactPoints: impact,
				Action:       action,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if (items[i].Status == report.StatusFail) != (items[j].Status == report.StatusFail) {
			return items[i].Status == report.StatusFail
		}
		if items[i].ImpactPoints != items[j].ImpactPoints {
			return items[i].ImpactPoints > items[j].ImpactPoints
		}
		return items[i].CategoryName < items[j].CategoryName
	})
	for i := range items {
		items[i].Priority = i + 1
	}
	return items
}

// scoreCategory sums per-check weight times status factor. Float precision is
// kept here; rounding happens only where scores are displayed.
func scoreCategory(categoryID string, weight int, checks []report.CheckResult) float64 {
	if len(checks) == 0 || weight <= 0 {
		return 0.0
	}
	weights := CheckWeightMap(categoryID, weight, checkIDs(checks))
	score := 0.0
	for _, check := range checks {
		score += weights[check.ID] * statusFactor[check.Status]
	}
	return score
}

func collectRecommendations(checks []report.CheckResult) []string {
	seen := map[string]bool{}
	recommendations := []string{}
	for _, check := range checks {
		if check.Recommendation == "" {
			continue
		}
		if check.Status != report.StatusWarn && check.Status != report.StatusFail {
			continue
		}
		if seen[check.Recommendation] {
			continue
		}
		seen[check.Recommendation] = true
		recommendations = append(recommendations, check.Recommendation)
	}
	sort.Strings(recommendations)
	return recommendations
}

func checkIDs(checks []report.CheckResult) []string {
	ids := make([]string, len(checks))
	for i, check := range checks {
		ids[i] = check.ID
	}
	return ids
}

func roundInt(value float64) int {
	return int(math.Round(value))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
