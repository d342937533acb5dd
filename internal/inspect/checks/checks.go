// Package checks implements the heuristic quality checks executed against a
// repository snapshot. Each check is an independent predicate over snapshot
// metadata or file contents producing a pass/warn/fail result.
package checks

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/github"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/policy"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

var (
	pinnedSHARe = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	usesRe      = regexp.MustCompile(`uses:\s*([A-Za-z0-9_.\-/]+)@([^\s#]+)`)
)

// Secret patterns scanned for in a fixed set of human-edited files.
var secretPatterns = map[string]*regexp.Regexp{
	"AWS Access Key": regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	"GitHub Token":   regexp.MustCompile(`ghp_[A-Za-z0-9]{20,}`),
	"Google API Key": regexp.MustCompile(`AIza[0-9A-Za-z\-_]{20,}`),
}

// RunAll executes every check category and applies the policy ignore set.
// The governance list always ends with the policy validity advisory check.
func RunAll(snapshot *github.Snapshot, pol *policy.RepoPolicy) map[string][]report.CheckResult {
	if pol == nil {
		pol = policy.Default()
	}
	checksByCategory := map[string][]report.CheckResult{
		"docs":        DocsChecks(snapshot, pol.ReadmeMinLength),
		"ci":          CIChecks(snapshot),
		"security":    SecurityChecks(snapshot, pol),
		"quality":     QualityChecks(snapshot),
		"maintenance": MaintenanceChecks(snapshot, pol.StaleDays),
		"governance":  GovernanceChecks(snapshot),
	}
	checksByCategory["governance"] = append(checksByCategory["governance"], PolicyValidityCheck(pol))
	return policy.ApplyIgnoreChecks(checksByCategory, pol.IgnoreChecks)
}

// DocsChecks covers README, CONTRIBUTING, and license presence.
func DocsChecks(snapshot *github.Snapshot, readmeMinLength int) []report.CheckResult {
	readmePath := findFirstPath(snapshot.TreePaths, func(lower string) bool {
		return strings.HasPrefix(baseName(lower), "readme.")
	})
	readmeContent := ""
	if readmePath != "" {
		readmeContent = snapshot.FileContents[readmePath]
	}
	readmeLen := len(strings.TrimSpace(readmeContent))

	checks := []report.CheckResult{{
		ID:      "readme_exists",
		Name:    "README file exists",
		Status:  passUnless(readmePath == "", report.StatusFail),
		Details: pick(readmePath != "", "Found at "+readmePath, "README file not found."),
		Recommendation: pick(readmePath != "", "",
			"Add a README.md with project overview and usage."),
	}}

	checks = append(checks, report.CheckResult{
		ID:      "readme_length",
		Name:    fmt.Sprintf("README length >= %d chars", readmeMinLength),
		Status:  passUnless(readmeLen < readmeMinLength, report.StatusWarn),
		Details: fmt.Sprintf("README length: %d characters.", readmeLen),
		Recommendation: pick(readmeLen >= readmeMinLength, "",
			"Expand README with setup, usage, and contribution notes."),
	})

	contributingPath := findFirstPath(snapshot.TreePaths, func(lower string) bool {
		return baseName(lower) == "contributing.md"
	})
	checks = append(checks, report.CheckResult{
		ID:      "contributing_exists",
		Name:    "CONTRIBUTING file exists",
		Status:  passUnless(contributingPath == "", report.StatusWarn),
		Details: pick(contributingPath != "", "Found at "+contributingPath, "CONTRIBUTING.md not found."),
		Recommendation: pick(contributingPath != "", "",
			"Add CONTRIBUTING.md describing contribution workflow."),
	})

	checks = append(checks, report.CheckResult{
		ID:      "license_exists",
		Name:    "License metadata exists",
		Status:  passUnless(!snapshot.HasLicense, report.StatusWarn),
		Details: pick(snapshot.HasLicense, "License detected.", "No license metadata found via API."),
		Recommendation: pick(snapshot.HasLicense, "",
			"Add a LICENSE file and set repository license."),
	})
	return checks
}

// CIChecks covers workflow presence, triggers, and stage coverage.
func CIChecks(snapshot *github.Snapshot) []report.CheckResult {
	workflows := snapshot.WorkflowPaths
	workflowContents := make([]string, len(workflows))
	for i, path := range workflows {
		workflowContents[i] = snapshot.FileContents[path]
	}
	hasWorkflows := len(workflows) > 0

	checks := []report.CheckResult{{
		ID:     "workflow_files",
		Name:   "Workflow files exist",
		Status: passUnless(!hasWorkflows, report.StatusFail),
		Details: pick(hasWorkflows,
			fmt.Sprintf("Detected %d workflow files.", len(workflows)),
			"No workflow files in .github/workflows."),
		Recommendation: pick(hasWorkflows, "", "Add at least one GitHub Actions workflow."),
	}}

	triggerStatus := report.StatusWarn
	triggerDetails := "No workflow triggers found."
	triggerRec := "Use on: [push, pull_request] in CI workflow."
	if hasWorkflows {
		foundTrigger, parseErrors := workflowsHavePushOrPRTrigger(workflowContents)
		if foundTrigger {
			triggerStatus = report.StatusPass
			triggerDetails = "Found workflow trigger on push or pull_request."
			triggerRec = ""
		} else {
			triggerDetails = "No workflow configured for push or pull_request."
			if parseErrors > 0 {
				triggerDetails += fmt.Sprintf(" (%d workflow files could not be parsed.)", parseErrors)
			}
		}
	}
	checks = append(checks, report.CheckResult{
		ID:             "workflow_trigger",
		Name:           "Workflow runs on push/pull_request",
		Status:         triggerStatus,
		Details:        triggerDetails,
		Recommendation: triggerRec,
	})

	stageKeywords := map[string][]string{
		"lint":    {"lint", "ruff", "flake8", "eslint", "checkstyle", "stylecop", "clang-tidy"},
		"test":    {"test", "pytest", "jest", "vitest", "dotnet test", "mvn test", "gradle test", "ctest"},
		"build":   {"build", "compile", "package", "dotnet build", "mvn package", "cmake"},
		"release": {"release", "publish", "deploy", "upload-artifact", "gh release"},
	}
	combined := strings.ToLower(strings.Join(workflowContents, "\n"))
	covered := 0
	for _, keywords := range stageKeywords {
		for _, keyword := range keywords {
			if strings.Contains(combined, keyword) {
				covered++
				break
			}
		}
	}

	var coverageStatus report.Status
	var coverageDetails string
	switch {
	case !hasWorkflows:
		coverageStatus = report.StatusFail
		coverageDetails = "CI stage coverage unavailable because workflows are missing."
	case covered >= 3:
		coverageStatus = report.StatusPass
		coverageDetails = fmt.Sprintf("Detected CI stage coverage for %d/4 stages.", covered)
	case covered >= 1:
		coverageStatus = report.StatusWarn
		coverageDetails = fmt.Sprintf("Detected CI stage coverage for only %d/4 stages.", covered)
	default:
		coverageStatus = report.StatusFail
		coverageDetails = "No recognizable lint/test/build/release stages in workflows."
	}
	checks = append(checks, report.CheckResult{
		ID:      "ci_stage_coverage",
		Name:    "CI covers key stages (lint/test/build/release)",
		Status:  coverageStatus,
		Details: coverageDetails,
		Recommendation: pick(coverageStatus == report.StatusPass, "",
			"Expand workflows to cover lint, test, build and release stages."),
	})
	return checks
}

// SecurityChecks covers action pinning, secret leakage, and dependency hygiene.
func SecurityChecks(snapshot *github.Snapshot, pol *policy.RepoPolicy) []report.CheckResult {
	if pol == nil {
		pol = policy.Default()
	}

	var unpinned []string
	for _, path := range snapshot.WorkflowPaths {
		for _, match := range usesRe.FindAllStringSubmatch(snapshot.FileContents[path], -1) {
			ref := match[2]
			if strings.HasPrefix(ref, "${{") || !pinnedSHARe.MatchString(ref) {
				unpinned = append(unpinned, ref)
			}
		}
	}
	var actionStatus report.Status
	var actionDetails, actionRec string
	switch {
	case len(snapshot.WorkflowPaths) == 0:
		actionStatus = report.StatusWarn
		actionDetails = "No workflows found, pinning check skipped."
		actionRec = "Use pinned actions with full commit SHA when workflows are added."
	case len(unpinned) > 0:
		actionStatus = report.StatusWarn
		actionDetails = fmt.Sprintf("Found unpinned action refs: %s.", strings.Join(sortedUnique(unpinned), ", "))
		actionRec = "Pin GitHub Actions to commit SHA (40 hex chars)."
	default:
		actionStatus = report.StatusPass
		actionDetails = "All detected actions are pinned to commit SHA."
	}

	var secretsFound []string
	for path, content := range snapshot.FileContents {
		if !isSecretScanCandidate(path) {
			continue
		}
		for label, pattern := range secretPatterns {
			for _, token := range pattern.FindAllString(content, -1) {
				if pol.IsSecretAllowed(path, token) {
					continue
				}
				secretsFound = append(secretsFound, fmt.Sprintf("%s in %s", label, path))
			}
		}
	}
	var secretStatus report.Status
	var secretDetails, secretRec string
	if len(secretsFound) > 0 {
		secretStatus = report.StatusFail
		secretDetails = "Potential secrets found: " + strings.Join(sortedUnique(secretsFound), "; ")
		secretRec = "Remove leaked secrets immediately and rotate affected credentials."
	} else {
		secretStatus = report.StatusPass
		secretDetails = "No predefined secret patterns detected in scanned files."
	}

	lockfileNames := map[string]bool{
		"requirements.txt": true, "poetry.lock": true, "package-lock.json": true,
		"pnpm-lock.yaml": true, "cargo.lock": true,
	}
	hasLockfile := false
	hasDependabot := false
	for _, path := range snapshot.TreePaths {
		lower := strings.ToLower(path)
		if lockfileNames[baseName(lower)] {
			hasLockfile = true
		}
		if lower == ".github/dependabot.yml" {
			hasDependabot = true
		}
	}
	var depStatus report.Status
	var depDetails, depRec string
	switch {
	case hasLockfile && hasDependabot:
		depStatus = report.StatusPass
		depDetails = "Dependency lockfile and dependabot config detected."
	case hasLockfile || hasDependabot:
		depStatus = report.StatusWarn
		depDetails = "Only partial dependency security setup detected."
		depRec = "Use lockfiles and configure .github/dependabot.yml."
	default:
		depStatus = report.StatusWarn
		depDetails = "No dependency lockfile or dependabot config detected."
		depRec = "Add lockfiles and enable dependency update automation."
	}

	return []report.CheckResult{
		{
			ID: "actions_pinned", Name: "GitHub Actions are pinned",
			Status: actionStatus, Details: actionDetails, Recommendation: actionRec,
		},
		{
			ID: "secret_patterns", Name: "No exposed secret patterns",
			Status: secretStatus, Details: secretDetails, Recommendation: secretRec,
		},
		{
			ID: "dependency_hygiene", Name: "Dependency security hygiene",
			Status: depStatus, Details: depDetails, Recommendation: depRec,
		},
	}
}

// QualityChecks covers lint configuration and test presence across ecosystems.
func QualityChecks(snapshot *github.Snapshot) []report.CheckResult {
	lowerPaths := make([]string, len(snapshot.TreePaths))
	for i, path := range snapshot.TreePaths {
		lowerPaths[i] = strings.ToLower(path)
	}

	pyprojectContent := contentBySuffix(snapshot, "pyproject.toml")
	packageJSONContent := strings.ToLower(contentBySuffix(snapshot, "package.json"))
	var javaBuild []string
	for _, path := range snapshot.TreePaths {
		lower := strings.ToLower(path)
		if strings.HasSuffix(lower, "pom.xml") || strings.HasSuffix(lower, "build.gradle") ||
			strings.HasSuffix(lower, "build.gradle.kts") {
			javaBuild = append(javaBuild, snapshot.FileContents[path])
		}
	}
	javaBuildContent := strings.ToLower(strings.Join(javaBuild, "\n"))

	lintConfigFilenames := map[string]bool{
		".pre-commit-config.yaml": true, ".flake8": true, "setup.cfg": true, "tox.ini": true,
		".editorconfig": true, ".clang-format": true, ".clang-tidy": true,
		"checkstyle.xml": true, "stylecop.json": true,
	}
	lintConfigSuffixes := []string{
		".eslintrc", ".eslintrc.js", ".eslintrc.cjs", ".eslintrc.json", ".eslintrc.yml",
		".eslintrc.yaml", ".prettierrc", ".prettierrc.js", ".prettierrc.cjs", ".prettierrc.json",
		".ruleset",
	}

	hasPyLint := strings.Contains(pyprojectContent, "[tool.ruff]") || strings.Contains(pyprojectContent, "[tool.black]")
	hasJSLint := strings.Contains(packageJSONContent, "eslint") || strings.Contains(packageJSONContent, "prettier")
	hasJavaLint := strings.Contains(javaBuildContent, "checkstyle") || strings.Contains(javaBuildContent, "spotless")
	hasCppLint := false
	hasCsLint := false
	hasGenericLintFile := false
	for _, lower := range lowerPaths {
		if !hasJSLint {
			if strings.HasSuffix(lower, "eslint.config.js") || strings.HasSuffix(lower, "eslint.config.cjs") ||
				strings.HasSuffix(lower, "eslint.config.mjs") || hasAnySuffix(lower, lintConfigSuffixes) {
				hasJSLint = true
			}
		}
		if strings.HasSuffix(lower, ".clang-format") || strings.HasSuffix(lower, ".clang-tidy") {
			hasCppLint = true
		}
		if strings.HasSuffix(lower, "stylecop.json") || strings.HasSuffix(lower, ".ruleset") ||
			strings.HasSuffix(lower, "directory.build.props") {
			hasCsLint = true
		}
		if lintConfigFilenames[baseName(lower)] {
			hasGenericLintFile = true
		}
	}
	hasLintConfig := hasPyLint || hasJSLint || hasJavaLint || hasCppLint || hasCsLint || hasGenericLintFile

	testDirMarkers := []string{"tests/", "test/", "__tests__/", "spec/"}
	testFileExts := []string{".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".cs", ".cpp", ".cc", ".cxx", ".go", ".rb"}
	hasTests := false
	for _, lower := range lowerPaths {
		for _, marker := range testDirMarkers {
			if strings.Contains(lower, marker) {
				hasTests = true
			}
		}
		filename := baseName(lower)
		if (strings.Contains(filename, "test") || strings.HasSuffix(filename, ".spec.js") ||
			strings.HasSuffix(filename, ".spec.ts")) && hasAnySuffix(lower, testFileExts) {
			hasTests = true
		}
		if strings.HasSuffix(lower, "jest.config.js") || strings.HasSuffix(lower, "jest.config.ts") ||
			strings.HasSuffix(lower, "vitest.config.ts") || strings.HasSuffix(lower, "pytest.ini") ||
			strings.HasSuffix(lower, "phpunit.xml") {
			hasTests = true
		}
		if hasTests {
			break
		}
	}

	return []report.CheckResult{
		{
			ID:     "lint_config",
			Name:   "Linter/formatter config exists",
			Status: passUnless(!hasLintConfig, report.StatusWarn),
			Details: pick(hasLintConfig, "Found lint/format config.",
				"No lint/format config found for common ecosystems."),
			Recommendation: pick(hasLintConfig, "",
				"Add lint/format config (ruff/eslint/checkstyle/.clang-format/.editorconfig)."),
		},
		{
			ID:     "tests_exist",
			Name:   "Tests exist",
			Status: passUnless(!hasTests, report.StatusWarn),
			Details: pick(hasTests, "Tests detected in repository.",
				"No tests/ folder or test_*.py files found."),
			Recommendation: pick(hasTests, "", "Add automated tests (tests/ or test_*.py)."),
		},
	}
}

// MaintenanceChecks covers release cadence and activity freshness.
func MaintenanceChecks(snapshot *github.Snapshot, staleDays int) []report.CheckResult {
	checks := []report.CheckResult{{
		ID:      "releases_or_tags",
		Name:    "Releases or tags exist",
		Status:  passUnless(!snapshot.HasReleaseOrTag, report.StatusWarn),
		Details: pick(snapshot.HasReleaseOrTag, "Release/tag metadata found.", "No releases or tags found."),
		Recommendation: pick(snapshot.HasReleaseOrTag, "",
			"Create semantic version tags and releases."),
	}}

	lastActivity := snapshot.PushedAt
	if lastActivity == nil {
		lastActivity = snapshot.UpdatedAt
	}
	var activityStatus report.Status
	var details, recommendation string
	if lastActivity == nil {
		activityStatus = report.StatusWarn
		details = "No activity timestamp available."
		recommendation = "Ensure repository metadata is available and updated."
	} else {
		ageDays := int(time.Since(lastActivity.UTC()).Hours() / 24)
		if ageDays > staleDays {
			activityStatus = report.StatusWarn
			details = fmt.Sprintf("Last activity was %d days ago.", ageDays)
			recommendation = "Repository appears stale; plan maintenance or archive status."
		} else {
			activityStatus = report.StatusPass
			details = fmt.Sprintf("Recent activity %d days ago.", ageDays)
		}
	}
	checks = append(checks, report.CheckResult{
		ID:             "recent_activity",
		Name:           fmt.Sprintf("Recent activity (<=%d days)", staleDays),
		Status:         activityStatus,
		Details:        details,
		Recommendation: recommendation,
	})
	return checks
}

// GovernanceChecks covers CODEOWNERS, templates, and the security policy.
func GovernanceChecks(snapshot *github.Snapshot) []report.CheckResult {
	hasCodeowners := false
	hasPRTemplate := false
	hasIssueTemplate := false
	hasSecurityPolicy := false
	for _, path := range snapshot.TreePaths {
		lower := strings.ToLower(path)
		if strings.HasSuffix(lower, "codeowners") {
			hasCodeowners = true
		}
		if strings.HasSuffix(lower, ".github/pull_request_template.md") ||
			strings.HasPrefix(lower, ".github/pull_request_template/") {
			hasPRTemplate = true
		}
		if strings.HasPrefix(lower, ".github/issue_template/") {
			hasIssueTemplate = true
		}
		if strings.HasSuffix(lower, "security.md") {
			hasSecurityPolicy = true
		}
	}

	return []report.CheckResult{
		{
			ID: "codeowners_exists", Name: "CODEOWNERS file exists",
			Status:         passUnless(!hasCodeowners, report.StatusWarn),
			Details:        pick(hasCodeowners, "CODEOWNERS found.", "CODEOWNERS not found."),
			Recommendation: pick(hasCodeowners, "", "Add CODEOWNERS for review ownership."),
		},
		{
			ID: "pr_template_exists", Name: "Pull request template exists",
			Status:         passUnless(!hasPRTemplate, report.StatusWarn),
			Details:        pick(hasPRTemplate, "PR template found.", "PR template not found."),
			Recommendation: pick(hasPRTemplate, "", "Add .github/pull_request_template.md."),
		},
		{
			ID: "issue_template_exists", Name: "Issue template exists",
			Status:         passUnless(!hasIssueTemplate, report.StatusWarn),
			Details:        pick(hasIssueTemplate, "Issue template found.", "Issue template not found."),
			Recommendation: pick(hasIssueTemplate, "", "Add issue templates in .github/ISSUE_TEMPLATE/."),
		},
		{
			ID: "security_policy_exists", Name: "Security policy exists",
			Status:         passUnless(!hasSecurityPolicy, report.StatusWarn),
			Details:        pick(hasSecurityPolicy, "SECURITY.md found.", "SECURITY.md not found."),
			Recommendation: pick(hasSecurityPolicy, "", "Add SECURITY.md with disclosure process."),
		},
	}
}

// PolicyValidityCheck converts policy schema validity into an explicit check.
// The check id is non-scoring; it surfaces misconfiguration without moving
// the score.
func PolicyValidityCheck(pol *policy.RepoPolicy) report.CheckResult {
	if pol.SourcePath == "" {
		return report.CheckResult{
			ID:      "policy_config_valid",
			Name:    "Policy configuration file",
			Status:  report.StatusPass,
			Details: "No policy file found. Using default settings.",
		}
	}
	if pol.IsValid() {
		return report.CheckResult{
			ID:      "policy_config_valid",
			Name:    "Policy configuration file",
			Status:  report.StatusPass,
			Details: fmt.Sprintf("Policy loaded successfully from %s.", pol.SourcePath),
		}
	}
	return report.CheckResult{
		ID:             "policy_config_valid",
		Name:           "Policy configuration file",
		Status:         report.StatusWarn,
		Details:        "Policy has validation issues: " + strings.Join(pol.ValidationErrors, "; "),
		Recommendation: "Fix .repo-inspector.yml schema issues to apply policy reliably.",
	}
}

// workflowsHavePushOrPRTrigger parses workflow YAML documents looking for a
// push or pull_request trigger. Returns the number of unparseable files.
func workflowsHavePushOrPRTrigger(contents []string) (bool, int) {
	parseErrors := 0
	for _, content := range contents {
		if strings.TrimSpace(content) == "" {
			continue
		}
		decoder := yaml.NewDecoder(strings.NewReader(content))
		failed := false
		for {
			var doc map[string]any
			err := decoder.Decode(&doc)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					failed = true
				}
				break
			}
			if hasPushOrPRTrigger(extractWorkflowOnConfig(doc)) {
				return true, parseErrors
			}
		}
		if failed {
			parseErrors++
		}
	}
	return false, parseErrors
}

// extractWorkflowOnConfig pulls the trigger config out of a parsed workflow.
// Some YAML 1.1 parsers read the key `on` as boolean true; GitHub Actions
// treats it as a literal key. Both spellings are handled.
func extractWorkflowOnConfig(doc map[string]any) any {
	if value, ok := doc["on"]; ok {
		return value
	}
	if value, ok := doc["true"]; ok {
		return value
	}
	for key, value := range doc {
		if strings.EqualFold(key, "on") {
			return value
		}
	}
	return nil
}

func hasPushOrPRTrigger(onConfig any) bool {
	switch value := onConfig.(type) {
	case string:
		return value == "push" || value == "pull_request"
	case []any:
		for _, item := range value {
			if s, ok := item.(string); ok && (s == "push" || s == "pull_request") {
				return true
			}
		}
	case map[string]any:
		_, hasPush := value["push"]
		_, hasPR := value["pull_request"]
		return hasPush || hasPR
	}
	return false
}

func isSecretScanCandidate(path string) bool {
	lower := strings.ToLower(path)
	filename := baseName(lower)
	return strings.HasPrefix(filename, "readme.") ||
		strings.HasPrefix(lower, ".github/workflows/") ||
		strings.HasSuffix(lower, "pyproject.toml") ||
		strings.HasSuffix(lower, ".env.example") ||
		strings.HasSuffix(lower, "package.json") ||
		strings.HasSuffix(lower, "pom.xml") ||
		strings.HasSuffix(lower, "build.gradle")
}

func findFirstPath(treePaths []string, predicate func(lower string) bool) string {
	for _, path := range treePaths {
		if predicate(strings.ToLower(path)) {
			return path
		}
	}
	return ""
}

func contentBySuffix(snapshot *github.Snapshot, suffix string) string {
	for _, path := range snapshot.TreePaths {
		if strings.HasSuffix(strings.ToLower(path), suffix) {
			return snapshot.FileContents[path]
		}
	}
	return ""
}

func sortedUnique(values []string) []string {
	seen := map[string]bool{}
	var unique []string
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			unique = append(unique, value)
		}
	}
	sort.Strings(unique)
	return unique
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func baseName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func passUnless(bad bool, downgrade report.Status) report.Status {
	if bad {
		return downgrade
	}
	return report.StatusPass
}

func pick(condition bool, whenTrue, whenFalse string) string {
	if condition {
		return whenTrue
	}
	return whenFalse
}
