package checks

import (
	"sort"
	"strings"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/github"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
)

// Stack detection rules in report order. A path matching any suffix marks
// the stack as present.
var stackRules = []struct {
	stack    string
	suffixes []string
}{
	{"python", []string{".py", "pyproject.toml", "requirements.txt", "poetry.lock"}},
	{"javascript", []string{"package.json", "pnpm-lock.yaml", "yarn.lock", "package-lock.json"}},
	{"java", []string{"pom.xml", "build.gradle", "build.gradle.kts"}},
	{"csharp", []string{".csproj", ".sln", "directory.build.props"}},
	{"cpp", []string{".cpp", ".cc", ".cxx", ".h", ".hpp", "cmakelists.txt"}},
	{"go", []string{"go.mod", ".go"}},
	{"rust", []string{"cargo.toml", "cargo.lock", ".rs"}},
	{"php", []string{"composer.json", "composer.lock", ".php"}},
	{"ruby", []string{"gemfile", "gemfile.lock", ".rb"}},
}

// DetectStacks infers the primary technology stacks from the repository tree.
func DetectStacks(snapshot *github.Snapshot) []string {
	lowerPaths := make([]string, len(snapshot.TreePaths))
	for i, path := range snapshot.TreePaths {
		lowerPaths[i] = strings.ToLower(path)
	}
	var stacks []string
	for _, rule := range stackRules {
		for _, path := range lowerPaths {
			if hasAnySuffix(path, rule.suffixes) {
				stacks = append(stacks, rule.stack)
				break
			}
		}
	}
	if len(stacks) == 0 {
		stacks = append(stacks, "unknown")
	}
	return stacks
}

// ProjectLineMetrics counts scanned lines and files grouped by extension.
func ProjectLineMetrics(snapshot *github.Snapshot) report.ProjectMetrics {
	type bucket struct {
		files int
		lines int
	}
	stats := map[string]*bucket{}
	totalLines := 0
	scannedFiles := 0

	for _, path := range snapshot.LineCountPaths {
		content, ok := snapshot.FileContents[path]
		if !ok {
			continue
		}
		ext := metricExtension(path)
		lines := countLines(content)
		scannedFiles++
		totalLines += lines
		b := stats[ext]
		if b == nil {
			b = &bucket{}
			stats[ext] = b
		}
		b.files++
		b.lines += lines
	}

	byExtension := make([]report.ExtensionMetric, 0, len(stats))
	for ext, b := range stats {
		byExtension = append(byExtension, report.ExtensionMetric{Extension: ext, Files: b.files, Lines: b.lines})
	}
	sort.Slice(byExtension, func(i, j int) bool {
		if byExtension[i].Lines != byExtension[j].Lines {
			return byExtension[i].Lines > byExtension[j].Lines
		}
		return byExtension[i].Extension < byExtension[j].Extension
	})

	return report.ProjectMetrics{
		TotalCodeFiles:   snapshot.LineCountCandidatesTotal,
		TotalCodeLines:   totalLines,
		ScannedCodeFiles: scannedFiles,
		Sampled:          snapshot.LineCountSampled,
		ByExtension:      byExtension,
	}
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	lines := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		lines++
	}
	return lines
}

func metricExtension(path string) string {
	lower := strings.ToLower(path)
	if idx := strings.LastIndex(lower, "."); idx >= 0 {
		return lower[idx:]
	}
	return "no_ext"
}
