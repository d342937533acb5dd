// Package report defines the report data model shared by the scoring engine,
// the HTTP API, and the on-disk history store.
//
// The JSON field names are the wire contract consumed by report rendering and
// history/delta endpoints. They must not change.
package report

import "time"

// Status is the outcome of a single check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckResult is the atomic unit produced by each heuristic check.
// Immutable once produced.
type CheckResult struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         Status `json:"status"`
	Details        string `json:"details"`
	Recommendation string `json:"recommendation,omitempty"`
}

// CategoryReport is the scored view of one of the six fixed categories.
// Invariant: Score <= Weight, and weights across a report sum to 100.
type CategoryReport struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Weight          int           `json:"weight"`
	Score           int           `json:"score"`
	Checks          []CheckResult `json:"checks"`
	Recommendations []string      `json:"recommendations"`
}

// FixPlanItem is one ranked remediation action.
type FixPlanItem struct {
	Priority     int     `json:"priority"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	CheckID      string  `json:"check_id"`
	CheckName    string  `json:"check_name"`
	Status       Status  `json:"status"`
	ImpactPoints float64 `json:"impact_points"`
	Action       string  `json:"action"`
}

// CheckDeltaItem records a status change for one check between two scans.
type CheckDeltaItem struct {
	CategoryID     string  `json:"category_id"`
	CheckID        string  `json:"check_id"`
	CheckName      string  `json:"check_name"`
	PreviousStatus Status  `json:"previous_status,omitempty"`
	CurrentStatus  Status  `json:"current_status"`
	ScoreDelta     float64 `json:"score_delta"`
}

// CategoryDeltaItem records a score change for one category between two scans.
type CategoryDeltaItem struct {
	CategoryID    string `json:"category_id"`
	CategoryName  string `json:"category_name"`
	PreviousScore int    `json:"previous_score"`
	CurrentScore  int    `json:"current_score"`
	Delta         int    `json:"delta"`
}

// ReportComparison diffs the current report against the previous stored one.
type ReportComparison struct {
	PreviousJobID     string              `json:"previous_job_id,omitempty"`
	PreviousCommitSHA string              `json:"previous_commit_sha,omitempty"`
	CurrentCommitSHA  string              `json:"current_commit_sha,omitempty"`
	ScoreDelta        int                 `json:"score_delta"`
	Categories        []CategoryDeltaItem `json:"categories"`
	Checks            []CheckDeltaItem    `json:"checks"`
	ChangedFiles      []string            `json:"changed_files"`
	ChangedFilesTotal int                 `json:"changed_files_total"`
}

// ExtensionMetric counts files and lines for one file extension.
type ExtensionMetric struct {
	Extension string `json:"extension"`
	Files     int    `json:"files"`
	Lines     int    `json:"lines"`
}

// ProjectMetrics carries file/line counts. Opaque to the scoring engine.
type ProjectMetrics struct {
	TotalCodeFiles   int               `json:"total_code_files"`
	TotalCodeLines   int               `json:"total_code_lines"`
	ScannedCodeFiles int               `json:"scanned_code_files"`
	Sampled          bool              `json:"sampled"`
	ByExtension      []ExtensionMetric `json:"by_extension"`
}

// ReportSummary is the complete output of one scan.
// Invariant: ScoreTotal == round(sum of category scores) within 1.
type ReportSummary struct {
	JobID          string            `json:"job_id,omitempty"`
	RepoOwner      string            `json:"repo_owner"`
	RepoName       string            `json:"repo_name"`
	RepoURL        string            `json:"repo_url"`
	GeneratedAt    string            `json:"generated_at"`
	ScoreTotal     int               `json:"score_total"`
	CommitSHA      string            `json:"commit_sha,omitempty"`
	DetectedStacks []string          `json:"detected_stacks"`
	ProjectMetrics ProjectMetrics    `json:"project_metrics"`
	Categories     []CategoryReport  `json:"categories"`
	FixPlan        []FixPlanItem     `json:"fix_plan"`
	Comparison     *ReportComparison `json:"comparison,omitempty"`
	PolicyIssues   []string          `json:"policy_issues"`
}

// Now returns the timestamp format used in GeneratedAt.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
