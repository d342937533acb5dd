package scoring

// Per-check importance factors, scoped by category. A check not listed here
// weighs 1.0 relative to its siblings.
var checkImportance = map[string]map[string]float64{
	"docs": {
		"readme_exists":       1.8,
		"readme_length":       1.0,
		"contributing_exists": 0.7,
		"license_exists":      1.2,
	},
	"ci": {
		"workflow_files":    1.6,
		"workflow_trigger":  1.0,
		"ci_stage_coverage": 1.2,
	},
	"security": {
		"secret_patterns":    2.4,
		"actions_pinned":     1.3,
		"dependency_hygiene": 1.1,
	},
	"quality": {
		"tests_exist": 1.4,
		"lint_config": 1.0,
	},
	"maintenance": {
		"recent_activity":  1.2,
		"releases_or_tags": 1.0,
	},
	"governance": {
		"codeowners_exists":      1.2,
		"security_policy_exists": 1.3,
		"pr_template_exists":     0.9,
		"issue_template_exists":  0.9,
	},
}

// Check ids that never carry weight. They surface advisory signals only and
// are excluded from the importance sum entirely.
var nonScoringChecks = map[string]bool{
	"policy_config_valid":    true,
	"score_regression_guard": true,
}

// IsNonScoring reports whether a check id is excluded from scoring.
func IsNonScoring(checkID string) bool {
	return nonScoringChecks[checkID]
}

func importanceOf(categoryID, checkID string) float64 {
	if table, ok := checkImportance[categoryID]; ok {
		if factor, ok := table[checkID]; ok {
			return factor
		}
	}
	return 1.0
}

// CheckWeightMap splits a category's resolved integer weight across its checks
// proportionally to their importance factors. Non-scoring checks get 0. When
// the category has no scoring checks or no weight, every check gets 0.
//
// The scorer, the fix-plan builder, and the comparison builder all rely on
// this exact distribution; per-check impact points reconcile with category
// score deltas only because they share it.
func CheckWeightMap(categoryID string, weight int, checkIDs []string) map[string]float64 {
	weights := make(map[string]float64, len(checkIDs))
	for _, id := range checkIDs {
		weights[id] = 0.0
	}
	if weight <= 0 {
		return weights
	}
	importanceSum := 0.0
	for _, id := range checkIDs {
		if nonScoringChecks[id] {
			continue
		}
		importanceSum += importanceOf(categoryID, id)
	}
	if importanceSum <= 0 {
		return weights
	}
	for _, id := range checkIDs {
		if nonScoringChecks[id] {
			continue
		}
		weights[id] = float64(weight) * importanceOf(categoryID, id) / importanceSum
	}
	return weights
}
