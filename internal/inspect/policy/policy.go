// Package policy parses the optional per-repository configuration file that
// tunes check thresholds, category weights, ignored checks, score baselines,
// and secret allowlists.
//
// Parsing is best-effort and never fails: malformed fields fall back to
// defaults and problems accumulate in ValidationErrors. Invalidity is
// surfaced to users as an advisory check, not as an aborted scan.
package policy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

// Paths are the conventional policy file names, checked in order.
var Paths = []string{
	".repo-inspector.yml",
	".repo-inspector.yaml",
	"repo-inspector.yml",
	"repo-inspector.yaml",
}

const (
	DefaultReadmeMinLength = 200
	DefaultStaleDays       = 180
)

var knownCategories = map[string]bool{
	"docs": true, "ci": true, "security": true,
	"quality": true, "maintenance": true, "governance": true,
}

// RepoPolicy is the validated policy configuration with defaults substituted
// for anything missing or invalid.
type RepoPolicy struct {
	ReadmeMinLength         int
	StaleDays               int
	CategoryWeights         map[string]int
	IgnoreChecks            map[string]bool
	BaselineMinScore        *int
	MaxScoreDrop            *int
	SecretAllowlistPaths    []string
	SecretAllowlistPatterns []string
	ValidationErrors        []string
	SourcePath              string
}

// Default returns the all-defaults policy used when no policy file exists.
func Default() *RepoPolicy {
	return &RepoPolicy{
		ReadmeMinLength: DefaultReadmeMinLength,
		StaleDays:       DefaultStaleDays,
		CategoryWeights: map[string]int{},
		IgnoreChecks:    map[string]bool{},
	}
}

// IsValid reports whether the policy parsed without validation errors.
func (p *RepoPolicy) IsValid() bool {
	return len(p.ValidationErrors) == 0
}

// IsSecretAllowed reports whether a secret match is allowlisted, either by a
// glob over the (lowercased) file path or by a token value prefix.
func (p *RepoPolicy) IsSecretAllowed(path, tokenValue string) bool {
	normalized := strings.ToLower(path)
	for _, pattern := range p.SecretAllowlistPaths {
		if ok, err := doublestar.Match(strings.ToLower(pattern), normalized); err == nil && ok {
			return true
		}
	}
	for _, prefix := range p.SecretAllowlistPatterns {
		if strings.HasPrefix(tokenValue, prefix) {
			return true
		}
	}
	return false
}

// FromFiles locates the policy file among the given repository file contents
// and parses it. Absent or blank files yield the all-defaults policy.
func FromFiles(fileContents map[string]string) *RepoPolicy {
	for _, path := range Paths {
		if content, ok := fileContents[path]; ok {
			return Parse(content, path)
		}
	}
	return Default()
}

// Parse parses raw policy YAML. It always returns a usable policy.
func Parse(content, sourcePath string) *RepoPolicy {
	p := Default()
	if strings.TrimSpace(content) == "" {
		return p
	}
	p.SourcePath = sourcePath

	var raw any
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		p.addError(fmt.Sprintf("Invalid YAML: %v", err))
		return p
	}
	root, ok := toStringMap(raw)
	if !ok {
		p.addError("Policy must be a YAML mapping/object.")
		return p
	}

	allowed := map[string]bool{"checks": true, "scoring": true, "baseline": true, "ignore": true, "security": true}
	var unknown []string
	for key := range root {
		if !allowed[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		p.addError("Unknown top-level keys: " + strings.Join(unknown, ", "))
	}

	checksCfg := p.section(root, "checks")
	scoringCfg := p.section(root, "scoring")
	baselineCfg := p.section(root, "baseline")
	ignoreCfg := p.section(root, "ignore")
	securityCfg := p.section(root, "security")

	p.ReadmeMinLength = positiveInt(checksCfg["readme_min_length"], DefaultReadmeMinLength)
	p.StaleDays = positiveInt(checksCfg["stale_days"], DefaultStaleDays)
	p.CategoryWeights = p.categoryWeights(scoringCfg["category_weights"])
	p.BaselineMinScore = p.optionalInt(baselineCfg["min_score"], "baseline.min_score")
	p.MaxScoreDrop = p.optionalInt(baselineCfg["max_score_drop"], "baseline.max_score_drop")
	p.IgnoreChecks = p.stringSet(ignoreCfg["checks"], "ignore.checks")
	p.SecretAllowlistPaths = p.stringList(securityCfg["secret_allowlist_paths"], "security.secret_allowlist_paths")
	p.SecretAllowlistPatterns = p.stringList(securityCfg["secret_allowlist_patterns"], "security.secret_allowlist_patterns")
	return p
}

// ApplyIgnoreChecks filters out checks that the policy explicitly ignores.
func ApplyIgnoreChecks(checksByCategory map[string][]report.CheckResult, ignore map[string]bool) map[string][]report.CheckResult {
	if len(ignore) == 0 {
		return checksByCategory
	}
	filtered := make(map[string][]report.CheckResult, len(checksByCategory))
	for category, checks := range checksByCategory {
		kept := make([]report.CheckResult, 0, len(checks))
		for _, check := range checks {
			if !ignore[check.ID] {
				kept = append(kept, check)
			}
		}
		filtered[category] = kept
	}
	return filtered
}

func (p *RepoPolicy) addError(message string) {
	p.ValidationErrors = append(p.ValidationErrors, message)
}

// section coerces a top-level value to a mapping, recording a validation
// error and treating the sub-policy as empty when it is structurally wrong.
func (p *RepoPolicy) section(root map[string]any, name string) map[string]any {
	value, present := root[name]
	if !present || value == nil {
		return map[string]any{}
	}
	if m, ok := toStringMap(value); ok {
		return m
	}
	p.addError(fmt.Sprintf("'%s' must be an object", name))
	return map[string]any{}
}

func (p *RepoPolicy) categoryWeights(value any) map[string]int {
	result := map[string]int{}
	if value == nil {
		return result
	}
	entries, stringKeyed := toStringMap(value)
	if !stringKeyed {
		if generic, ok := value.(map[any]any); ok {
			entries = map[string]any{}
			for key, entryValue := range generic {
				name, isString := key.(string)
				if !isString {
					p.addError("scoring.category_weights keys must be strings")
					continue
				}
				entries[name] = entryValue
			}
		} else {
			p.addError("scoring.category_weights must be an object")
			return result
		}
	}
	for key, entryValue := range entries {
		lowered := strings.ToLower(key)
		if !knownCategories[lowered] {
			p.addError(fmt.Sprintf("Unknown category in weights: %s", key))
			continue
		}
		parsed := positiveInt(entryValue, -1)
		if parsed <= 0 {
			p.addError(fmt.Sprintf("Weight for '%s' must be positive integer", lowered))
			continue
		}
		result[lowered] = parsed
	}
	return result
}

// stringSet keeps every valid string entry even when the list also contains
// invalid ones; the error is still recorded. This is deliberately more
// lenient than category weight parsing.
func (p *RepoPolicy) stringSet(value any, fieldName string) map[string]bool {
	result := map[string]bool{}
	if value == nil {
		return result
	}
	list, ok := value.([]any)
	if !ok {
		p.addError(fmt.Sprintf("'%s' must be a list", fieldName))
		return result
	}
	nonString := 0
	for _, item := range list {
		s, isString := item.(string)
		if !isString {
			nonString++
			continue
		}
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			result[trimmed] = true
		}
	}
	if nonString > 0 {
		p.addError(fmt.Sprintf("'%s' has non-string values", fieldName))
	}
	return result
}

func (p *RepoPolicy) stringList(value any, fieldName string) []string {
	if value == nil {
		return nil
	}
	list, ok := value.([]any)
	if !ok {
		p.addError(fmt.Sprintf("'%s' must be a list", fieldName))
		return nil
	}
	items := make([]string, 0, len(list))
	for _, item := range list {
		s, isString := item.(string)
		if !isString {
			continue
		}
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) != len(list) {
		p.addError(fmt.Sprintf("'%s' must contain only non-empty strings", fieldName))
	}
	return items
}

func (p *RepoPolicy) optionalInt(value any, fieldName string) *int {
	if value == nil {
		return nil
	}
	parsed, ok := coerceInt(value)
	if !ok {
		p.addError(fmt.Sprintf("'%s' must be an integer", fieldName))
		return nil
	}
	if parsed < 0 {
		p.addError(fmt.Sprintf("'%s' must be >= 0", fieldName))
		return nil
	}
	return &parsed
}

// positiveInt parses a positive integer, silently falling back to the default
// on any type or range problem. Numeric leaf fields never record errors.
func positiveInt(value any, fallback int) int {
	parsed, ok := coerceInt(value)
	if !ok || parsed <= 0 {
		return fallback
	}
	return parsed
}

func coerceInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func toStringMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		converted := make(map[string]any, len(m))
		for key, entryValue := range m {
			name, ok := key.(string)
			if !ok {
				return nil, false
			}
			converted[name] = entryValue
		}
		return converted, true
	}
	return nil, false
}
