package scoring

import (
	"fmt"
	"strings"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

// GuardCheckID identifies the synthetic regression guard check. It is one of
// the two globally non-scoring check ids.
const GuardCheckID = "score_regression_guard"

type guardFinding struct {
	status         report.Status
	message        string
	recommendation string
}

// RegressionCheck compares the current score against a configured baseline
// and/or the previous scan's score and folds the findings into one synthetic
// check. It returns nil when neither a baseline nor a previous score is
// available; the caller must not append a check in that case.
func RegressionCheck(previousScore *int, currentScore int, baselineMinScore, maxScoreDrop *int) *report.CheckResult {
	if previousScore == nil && baselineMinScore == nil {
		return nil
	}

	var findings []guardFinding
	if baselineMinScore != nil {
		if currentScore < *baselineMinScore {
			findings = append(findings, guardFinding{
				status:         report.StatusFail,
				message:        fmt.Sprintf("Current score %d is below baseline %d.", currentScore, *baselineMinScore),
				recommendation: "Improve checks to reach baseline score threshold.",
			})
		} else {
			findings = append(findings, guardFinding{
				status:  report.StatusPass,
				message: fmt.Sprintf("Current score %d meets baseline threshold.", currentScore),
			})
		}
	}
	if previousScore != nil && maxScoreDrop != nil {
		drop := *previousScore - currentScore
		switch {
		case drop > *maxScoreDrop:
			findings = append(findings, guardFinding{
				status: report.StatusFail,
				message: fmt.Sprintf("Score dropped by %d points versus previous scan (%d -> %d).",
					drop, *previousScore, currentScore),
				recommendation: "Prevent regressions by fixing failing checks before merge.",
			})
		case drop > 0:
			findings = append(findings, guardFinding{
				status: report.StatusWarn,
				message: fmt.Sprintf("Score dropped by %d points versus previous scan (%d -> %d).",
					drop, *previousScore, currentScore),
				recommendation: "Review changes that reduced quality score.",
			})
		default:
			findings = append(findings, guardFinding{
				status:  report.StatusPass,
				message: "No score regression versus previous scan.",
			})
		}
	}

	status := report.StatusPass
	for _, finding := range findings {
		if finding.status == report.StatusFail {
			status = report.StatusFail
			break
		}
		if finding.status == report.StatusWarn {
			status = report.StatusWarn
		}
	}
	messages := make([]string, len(findings))
	recommendation := ""
	for i, finding := range findings {
		messages[i] = finding.message
		if recommendation == "" && finding.recommendation != "" {
			recommendation = finding.recommendation
		}
	}
	return &report.CheckResult{
		ID:             GuardCheckID,
		Name:           "Score regression guard",
		Status:         status,
		Details:        strings.Join(messages, "; "),
		Recommendation: recommendation,
	}
}

// InjectGuard returns a new checks mapping with the guard check appended to
// the governance category. The input mapping is not mutated, which keeps the
// two-pass report build free of hidden side effects.
func InjectGuard(checksByCategory map[string][]report.CheckResult, guard *report.CheckResult) map[string][]report.CheckResult {
	if guard == nil {
		return checksByCategory
	}
	injected := make(map[string][]report.CheckResult, len(checksByCategory)+1)
	for category, checks := range checksByCategory {
		injected[category] = checks
	}
	governance := make([]report.CheckResult, 0, len(injected["governance"])+1)
	governance = append(governance, injected["governance"]...)
	governance = append(governance, *guard)
	injected["governance"] = governance
	return injected
}
