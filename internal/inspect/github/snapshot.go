package github

import "time"

// Snapshot is the repository data consumed by the quality checks. It
// enumerates every field the checks read; nothing downstream touches the API
// client directly.
type Snapshot struct {
	Owner            string
	Name             string
	URL              string
	DefaultBranch    string
	DefaultBranchSHA string
	UpdatedAt        *time.Time
	PushedAt         *time.Time

	// TreePaths lists every blob path on the default branch.
	TreePaths []string
	// FileContents holds the fetched contents of the important files.
	FileContents map[string]string

	HasLicense      bool
	HasReleaseOrTag bool
	WorkflowPaths   []string

	// Line-count sampling bookkeeping for project metrics.
	LineCountPaths           []string
	LineCountCandidatesTotal int
	LineCountSampled         bool
}
