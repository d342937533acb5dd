package scoring

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

const (
	maxCheckDeltas  = 50
	maxChangedFiles = 100
)

// PreviousReport is the typed view of a stored report payload, read only for
// the fields the comparison builder and regression guard need.
type PreviousReport struct {
	JobID      string
	CommitSHA  string
	ScoreTotal int
	Categories []PreviousCategory
}

// PreviousCategory mirrors one stored category entry.
type PreviousCategory struct {
	ID     string
	Name   string
	Weight int
	Score  int
	Checks []PreviousCheck
}

// PreviousCheck mirrors one stored check entry.
type PreviousCheck struct {
	ID     string
	Name   string
	Status report.Status
}

// ParsePreviousReport decodes a stored report payload with defaults on
// malformed input. Malformed JSON or a non-object payload yields nil, which
// downstream code treats as "no previous data".
func ParsePreviousReport(jobID, commitSHA string, payload []byte) *PreviousReport {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil || raw == nil {
		return nil
	}
	previous := &PreviousReport{
		JobID:      jobID,
		CommitSHA:  commitSHA,
		ScoreTotal: asInt(raw["score_total"]),
	}
	for _, item := range asList(raw["categories"]) {
		categoryRaw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		categoryID := asString(categoryRaw["id"])
		if categoryID == "" {
			continue
		}
		category := PreviousCategory{
			ID:     categoryID,
			Name:   asStringDefault(categoryRaw["name"], categoryID),
			Weight: asInt(categoryRaw["weight"]),
			Score:  asInt(categoryRaw["score"]),
		}
		for _, checkItem := range asList(categoryRaw["checks"]) {
			checkRaw, ok := checkItem.(map[string]any)
			if !ok {
				continue
			}
			checkID := asString(checkRaw["id"])
			status := asString(checkRaw["status"])
			if checkID == "" || status == "" {
				continue
			}
			category.Checks = append(category.Checks, PreviousCheck{
				ID:     checkID,
				Name:   asStringDefault(checkRaw["name"], checkID),
				Status: report.Status(status),
			})
		}
		previous.Categories = append(previous.Categories, category)
	}
	return previous
}

// flatCheck carries one check's identity, status, and recomputed weight for
// delta computation, keyed "category_id:check_id".
type flatCheck struct {
	categoryID string
	checkID    string
	checkName  string
	status     report.Status
	weight     float64
}

// BuildComparison diffs the previous stored report against the current one.
// A nil previous yields a zero-filled comparison with no previous identifiers.
func BuildComparison(previous *PreviousReport, current *report.ReportSummary, changedFiles []string, currentCommitSHA string) *report.ReportComparison {
	comparison := &report.ReportComparison{
		CurrentCommitSHA:  currentCommitSHA,
		Categories:        []report.CategoryDeltaItem{},
		Checks:            []report.CheckDeltaItem{},
		ChangedFiles:      truncate(changedFiles, maxChangedFiles),
		ChangedFilesTotal: len(changedFiles),
	}
	if previous == nil {
		return comparison
	}

	comparison.PreviousJobID = previous.JobID
	comparison.PreviousCommitSHA = previous.CommitSHA
	comparison.ScoreDelta = current.ScoreTotal - previous.ScoreTotal

	previousScores := make(map[string]int, len(previous.Categories))
	for _, category := range previous.Categories {
		previousScores[category.ID] = category.Score
	}
	for _, category := range current.Categories {
		previousScore := previousScores[category.ID]
		if category.Score == previousScore {
			continue
		}
		comparison.Categories = append(comparison.Categories, report.CategoryDeltaItem{
			CategoryID:    category.ID,
			CategoryName:  category.Name,
			PreviousScore: previousScore,
			CurrentScore:  category.Score,
			Delta:         category.Score - previousScore,
		})
	}

	previousChecks := map[string]flatCheck{}
	for _, entry := range flattenPrevious(previous.Categories) {
		previousChecks[entry.categoryID+":"+entry.checkID] = entry
	}
	for _, entry := range flattenCurrent(current.Categories) {
		previousEntry, hadPrevious := previousChecks[entry.categoryID+":"+entry.checkID]
		previousStatus := report.Status("")
		previousFactor := 0.0
		if hadPrevious {
			previousStatus = previousEntry.status
			previousFactor = statusFactor[previousEntry.status]
		}
		if previousStatus == entry.status {
			continue
		}
		comparison.Checks = append(comparison.Checks, report.CheckDeltaItem{
			CategoryID:     entry.categoryID,
			CheckID:        entry.checkID,
			CheckName:      entry.checkName,
			PreviousStatus: previousStatus,
			CurrentStatus:  entry.status,
			ScoreDelta:     round2(entry.weight * (statusFactor[entry.status] - previousFactor)),
		})
	}
	sort.SliceStable(comparison.Checks, func(i, j int) bool {
		return math.Abs(comparison.Checks[i].ScoreDelta) > math.Abs(comparison.Checks[j].ScoreDelta)
	})
	if len(comparison.Checks) > maxCheckDeltas {
		comparison.Checks = comparison.Checks[:maxCheckDeltas]
	}
	return comparison
}

func flattenCurrent(categories []report.CategoryReport) []flatCheck {
	var flat []flatCheck
	for _, category := range categories {
		weights := CheckWeightMap(category.ID, category.Weight, checkIDs(category.Checks))
		for _, check := range category.Checks {
			flat = append(flat, flatCheck{
				categoryID: category.ID,
				checkID:    check.ID,
				checkName:  check.Name,
				status:     check.Status,
				weight:     weights[check.ID],
			})
		}
	}
	return flat
}

func flattenPrevious(categories []PreviousCategory) []flatCheck {
	var flat []flatCheck
	for _, category := range categories {
		ids := make([]string, len(category.Checks))
		for i, check := range category.Checks {
			ids[i] = check.ID
		}
		weights := CheckWeightMap(category.ID, category.Weight, ids)
		for _, check := range category.Checks {
			flat = append(flat, flatCheck{
				categoryID: category.ID,
				checkID:    check.ID,
				checkName:  check.Name,
				status:     check.Status,
				weight:     weights[check.ID],
			})
		}
	}
	return flat
}

func truncate(paths []string, limit int) []string {
	if paths == nil {
		return []string{}
	}
	if len(paths) <= limit {
		return paths
	}
	return paths[:limit]
}

func asInt(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}

func asString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func asStringDefault(value any, fallback string) string {
	if s := asString(value); s != "" {
		return s
	}
	return fallback
}

func asList(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return nil
}
