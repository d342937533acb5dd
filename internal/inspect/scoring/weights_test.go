package scoring

import "testing"

func weightTotal(resolved map[string]categoryDef) int {
	total := 0
	for _, def := range resolved {
		total += def.Weight
	}
	return total
}

func TestResolveWeights(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]int
		want      map[string]int
	}{
		{
			name:      "no overrides keeps defaults",
			overrides: nil,
			want: map[string]int{
				"docs": 15, "ci": 15, "security": 25,
				"quality": 20, "maintenance": 15, "governance": 10,
			},
		},
		{
			name:      "override already summing to 100",
			overrides: map[string]int{"security": 30, "quality": 15},
			want: map[string]int{
				"docs": 15, "ci": 15, "security": 30,
				"quality": 15, "maintenance": 15, "governance": 10,
			},
		},
		{
			name:      "single override renormalizes cleanly",
			overrides: map[string]int{"security": 50},
			want: map[string]int{
				"docs": 12, "ci": 12, "security": 40,
				"quality": 16, "maintenance": 12, "governance": 8,
			},
		},
		{
			name:      "remainder goes to largest fractions then lower id",
			overrides: map[string]int{"docs": 10},
			want: map[string]int{
				"docs": 11, "ci": 16, "security": 26,
				"quality": 21, "maintenance": 16, "governance": 10,
			},
		},
		{
			name: "equal overrides tie-break by category id",
			overrides: map[string]int{
				"docs": 50, "ci": 50, "security": 50,
				"quality": 50, "maintenance": 50, "governance": 50,
			},
			want: map[string]int{
				"ci": 17, "docs": 17, "governance": 17,
				"maintenance": 17, "quality": 16, "security": 16,
			},
		},
		{
			name:      "unknown and non-positive overrides ignored",
			overrides: map[string]int{"docs": 0, "security": -5, "bogus": 40},
			want: map[string]int{
				"docs": 15, "ci": 15, "security": 25,
				"quality": 20, "maintenance": 15, "governance": 10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := ResolveWeights(tt.overrides)
			if total := weightTotal(resolved); total != 100 {
				t.Errorf("weights sum = %d, want 100", total)
			}
			for id, want := range tt.want {
				if got := resolved[id].Weight; got != want {
					t.Errorf("weight[%s] = %d, want %d", id, got, want)
				}
			}
		})
	}
}

func TestResolveWeightsAlwaysSums100(t *testing.T) {
	overrideSets := []map[string]int{
		{"docs": 1},
		{"docs": 1, "ci": 1, "security": 1, "quality": 1, "maintenance": 1, "governance": 1},
		{"security": 97},
		{"docs": 33, "quality": 7},
		{"maintenance": 13, "governance": 29, "ci": 3},
	}
	for _, overrides := range overrideSets {
		if total := weightTotal(ResolveWeights(overrides)); total != 100 {
			t.Errorf("ResolveWeights(%v) sum = %d, want 100", overrides, total)
		}
	}
}

func TestCheckWeightMap(t *testing.T) {
	t.Run("splits weight by importance", func(t *testing.T) {
		weights := CheckWeightMap("security", 25, []string{"secret_patterns", "actions_pinned", "dependency_hygiene"})
		if weights["secret_patterns"] <= weights["actions_pinned"] {
			t.Errorf("secret_patterns (%f) should outweigh actions_pinned (%f)",
				weights["secret_patterns"], weights["actions_pinned"])
		}
		if weights["actions_pinned"] <= weights["dependency_hygiene"] {
			t.Errorf("actions_pinned (%f) should outweigh dependency_hygiene (%f)",
				weights["actions_pinned"], weights["dependency_hygiene"])
		}
		sum := weights["secret_patterns"] + weights["actions_pinned"] + weights["dependency_hygiene"]
		if sum < 24.999 || sum > 25.001 {
			t.Errorf("weights sum = %f, want 25", sum)
		}
	})

	t.Run("non-scoring ids get zero", func(t *testing.T) {
		weights := CheckWeightMap("governance", 10, []string{"codeowners_exists", "policy_config_valid", "score_regression_guard"})
		if weights["policy_config_valid"] != 0 {
			t.Errorf("policy_config_valid weight = %f, want 0", weights["policy_config_valid"])
		}
		if weights["score_regression_guard"] != 0 {
			t.Errorf("score_regression_guard weight = %f, want 0", weights["score_regression_guard"])
		}
		if weights["codeowners_exists"] < 9.999 || weights["codeowners_exists"] > 10.001 {
			t.Errorf("codeowners_exists weight = %f, want 10", weights["codeowners_exists"])
		}
	})

	t.Run("only non-scoring checks yields all zero", func(t *testing.T) {
		weights := CheckWeightMap("governance", 10, []string{"policy_config_valid"})
		if weights["policy_config_valid"] != 0 {
			t.Errorf("weight = %f, want 0", weights["policy_config_valid"])
		}
	})

	t.Run("zero weight yields all zero", func(t *testing.T) {
		weights := CheckWeightMap("docs", 0, []string{"readme_exists"})
		if weights["readme_exists"] != 0 {
			t.Errorf("weight = %f, want 0", weights["readme_exists"])
		}
	})

	t.Run("unknown ids weigh equally", func(t *testing.T) {
		weights := CheckWeightMap("docs", 10, []string{"custom_a", "custom_b"})
		if weights["custom_a"] != weights["custom_b"] {
			t.Errorf("custom_a = %f, custom_b = %f, want equal", weights["custom_a"], weights["custom_b"])
		}
	})
}

func TestIsNonScoring(t *testing.T) {
	if !IsNonScoring("policy_config_valid") || !IsNonScoring("score_regression_guard") {
		t.Error("advisory check ids must be non-scoring")
	}
	if IsNonScoring("secret_patterns") {
		t.Error("secret_patterns must be scoring")
	}
}

func TestCategoryName(t *testing.T) {
	if got := CategoryName("security"); got != "Security" {
		t.Errorf("CategoryName(security) = %q, want Security", got)
	}
	if got := CategoryName("bogus"); got != "bogus" {
		t.Errorf("CategoryName(bogus) = %q, want bogus", got)
	}
}
