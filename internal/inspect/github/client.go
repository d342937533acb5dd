// Package github fetches the repository snapshot that quality checks run
// against: metadata, the file tree, and the contents of the files the checks
// care about.
package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	gogithub "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	maxLineCountFiles        = 450
	maxLineCountFileSize     = 220_000
	maxConcurrentFileFetches = 24
	maxChangedFiles          = 200
)

// Client wraps the GitHub REST API for snapshot fetching.
type Client struct {
	api *gogithub.Client
}

// NewClient creates a client. An empty token means unauthenticated access
// (public repositories only, low rate limits).
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		return &Client{api: gogithub.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{api: gogithub.NewClient(oauth2.NewClient(ctx, ts))}
}

// NewClientWithBase points the client at a custom API base URL (for testing).
func NewClientWithBase(ctx context.Context, token, baseURL string) (*Client, error) {
	c := NewClient(ctx, token)
	api, err := c.api.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("setting base URL: %w", err)
	}
	c.api = api
	return c, nil
}

// GetRepoSnapshot fetches everything the checks need in one pass: repository
// metadata, the recursive tree, release/tag presence, and file contents for
// the important paths (bounded-concurrency fetch).
func (c *Client) GetRepoSnapshot(ctx context.Context, owner, repo string) (*Snapshot, error) {
	repoData, _, err := c.api.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, repo, err)
	}
	defaultBranch := repoData.GetDefaultBranch()
	if defaultBranch == "" {
		return nil, fmt.Errorf("repository %s/%s has no default branch", owner, repo)
	}

	snapshot := &Snapshot{
		Owner:         owner,
		Name:          repo,
		URL:           repoData.GetHTMLURL(),
		DefaultBranch: defaultBranch,
		HasLicense:    repoData.GetLicense() != nil,
	}
	if snapshot.URL == "" {
		snapshot.URL = fmt.Sprintf("https://github.com/%s/%s", owner, repo)
	}
	if t := repoData.GetUpdatedAt(); !t.IsZero() {
		updated := t.Time
		snapshot.UpdatedAt = &updated
	}
	if t := repoData.GetPushedAt(); !t.IsZero() {
		pushed := t.Time
		snapshot.PushedAt = &pushed
	}

	// Head SHA is best-effort; scans proceed without it.
	if branch, _, err := c.api.Repositories.GetBranch(ctx, owner, repo, defaultBranch, 1); err == nil {
		snapshot.DefaultBranchSHA = branch.GetCommit().GetSHA()
	}

	tree, _, err := c.api.Git.GetTree(ctx, owner, repo, defaultBranch, true)
	if err != nil {
		return nil, fmt.Errorf("fetching tree for %s/%s: %w", owner, repo, err)
	}
	pathSizes := map[string]int{}
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" || entry.GetPath() == "" {
			continue
		}
		snapshot.TreePaths = append(snapshot.TreePaths, entry.GetPath())
		pathSizes[entry.GetPath()] = entry.GetSize()
	}
	for _, path := range snapshot.TreePaths {
		lower := strings.ToLower(path)
		if strings.HasPrefix(lower, ".github/workflows/") &&
			(strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")) {
			snapshot.WorkflowPaths = append(snapshot.WorkflowPaths, path)
		}
	}

	snapshot.HasReleaseOrTag, err = c.hasReleaseOrTag(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if !snapshot.HasLicense {
		if _, _, err := c.api.Repositories.License(ctx, owner, repo); err == nil {
			snapshot.HasLicense = true
		}
	}

	lineCountPaths, candidatesTotal := pickLineCountFiles(snapshot.TreePaths, pathSizes)
	snapshot.LineCountPaths = lineCountPaths
	snapshot.LineCountCandidatesTotal = candidatesTotal
	snapshot.LineCountSampled = candidatesTotal > len(lineCountPaths)

	important := pickImportantFiles(snapshot.TreePaths, snapshot.WorkflowPaths, lineCountPaths)
	snapshot.FileContents, err = c.fetchFiles(ctx, owner, repo, important, defaultBranch)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ChangedFilesBetweenCommits lists files changed between two commits, capped
// at 200 paths. Identical or missing SHAs yield an empty list.
func (c *Client) ChangedFilesBetweenCommits(ctx context.Context, owner, repo, baseSHA, headSHA string) ([]string, error) {
	if baseSHA == "" || headSHA == "" || baseSHA == headSHA {
		return nil, nil
	}
	comparison, _, err := c.api.Repositories.CompareCommits(ctx, owner, repo, baseSHA, headSHA,
		&gogithub.ListOptions{PerPage: maxChangedFiles})
	if err != nil {
		return nil, fmt.Errorf("comparing %s...%s: %w", baseSHA, headSHA, err)
	}
	var changed []string
	for _, file := range comparison.Files {
		if name := file.GetFilename(); name != "" {
			changed = append(changed, name)
		}
	}
	if len(changed) > maxChangedFiles {
		changed = changed[:maxChangedFiles]
	}
	return changed, nil
}

func (c *Client) hasReleaseOrTag(ctx context.Context, owner, repo string) (bool, error) {
	releases, _, err := c.api.Repositories.ListReleases(ctx, owner, repo, &gogithub.ListOptions{PerPage: 1})
	if err != nil {
		return false, fmt.Errorf("listing releases: %w", err)
	}
	if len(releases) > 0 {
		return true, nil
	}
	tags, _, err := c.api.Repositories.ListTags(ctx, owner, repo, &gogithub.ListOptions{PerPage: 1})
	if err != nil {
		return false, fmt.Errorf("listing tags: %w", err)
	}
	return len(tags) > 0, nil
}

// fetchFiles downloads file contents with a bounded worker pool. Individual
// file failures are skipped; checks treat missing content as absent.
func (c *Client) fetchFiles(ctx context.Context, owner, repo string, paths []string, ref string) (map[string]string, error) {
	contents := make(map[string]string, len(paths))
	if len(paths) == 0 {
		return contents, nil
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentFileFetches)
	for _, path := range paths {
		group.Go(func() error {
			file, _, _, err := c.api.Repositories.GetContents(groupCtx, owner, repo, path,
				&gogithub.RepositoryContentGetOptions{Ref: ref})
			if err != nil || file == nil {
				return nil
			}
			decoded, err := file.GetContent()
			if err != nil {
				return nil
			}
			mu.Lock()
			contents[path] = decoded
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("fetching file contents: %w", err)
	}
	return contents, nil
}

var lineCountExtensions = map[string]bool{
	".py": true, ".js": true, ".mjs": true, ".cjs": true, ".jsx": true,
	".ts": true, ".mts": true, ".cts": true, ".tsx": true,
	".html": true, ".htm": true, ".css": true, ".scss": true, ".sass": true, ".less": true,
	".java": true, ".kt": true, ".kts": true, ".dart": true, ".cs": true,
	".cpp": true, ".cc": true, ".cxx": true, ".c": true, ".h": true, ".hpp": true,
	".m": true, ".mm": true, ".go": true, ".rs": true, ".php": true, ".rb": true,
	".swift": true, ".scala": true, ".groovy": true, ".gradle": true,
	".fs": true, ".fsi": true, ".fsx": true, ".vb": true, ".vbs": true,
	".r": true, ".rmd": true, ".jl": true, ".lua": true, ".ex": true, ".exs": true,
	".erl": true, ".hrl": true, ".clj": true, ".cljs": true, ".cljc": true,
	".hs": true, ".elm": true, ".ml": true, ".mli": true, ".pl": true, ".pm": true,
	".sbt": true, ".sc": true, ".nim": true, ".zig": true, ".sol": true,
	".proto": true, ".tf": true, ".hcl": true, ".ps1": true, ".psm1": true, ".psd1": true,
	".bat": true, ".cmd": true, ".bash": true, ".zsh": true, ".fish": true,
	".vue": true, ".svelte": true, ".sql": true, ".sh": true, ".pt": true,
}

var lineCountFilenames = map[string]bool{
	"dockerfile": true, "makefile": true, "cmakelists.txt": true,
	"jenkinsfile": true, "justfile": true,
}

func pickLineCountFiles(treePaths []string, pathSizes map[string]int) ([]string, int) {
	var candidates []string
	for _, path := range treePaths {
		lower := strings.ToLower(path)
		filename := baseName(lower)
		if strings.HasPrefix(filename, ".") {
			continue
		}
		if !lineCountExtensions[extension(lower)] && !lineCountFilenames[filename] {
			continue
		}
		if pathSizes[path] > maxLineCountFileSize {
			continue
		}
		candidates = append(candidates, path)
	}
	sort.Strings(candidates)
	total := len(candidates)
	if total > maxLineCountFiles {
		candidates = candidates[:maxLineCountFiles]
	}
	return candidates, total
}

var manifestFilenames = map[string]bool{
	"requirements.txt": true, "requirements-dev.txt": true,
	"poetry.lock": true, "pdm.lock": true,
	"package-lock.json": true, "pnpm-lock.yaml": true, "yarn.lock": true,
	"cargo.toml": true, "cargo.lock": true,
	"go.mod": true, "go.sum": true,
	"gemfile": true, "gemfile.lock": true,
	"composer.json": true, "composer.lock": true,
	"pubspec.yaml": true, "pubspec.lock": true,
	"analysis_options.yaml": true, "dart_test.yaml": true,
}

func pickImportantFiles(treePaths, workflowPaths, lineCountPaths []string) []string {
	important := map[string]bool{}
	for _, path := range workflowPaths {
		important[path] = true
	}
	for _, path := range lineCountPaths {
		important[path] = true
	}
	for _, path := range treePaths {
		lower := strings.ToLower(path)
		filename := baseName(lower)
		switch {
		case strings.HasPrefix(filename, "readme."),
			filename == "contributing.md",
			strings.HasPrefix(filename, "license"),
			filename == "pyproject.toml",
			filename == ".pre-commit-config.yaml",
			filename == ".env.example",
			filename == "package.json",
			filename == "pom.xml", filename == "build.gradle", filename == "build.gradle.kts",
			filename == "directory.build.props", filename == "stylecop.json", filename == ".editorconfig",
			manifestFilenames[filename],
			filename == "security.md", filename == "codeowners":
			important[path] = true
		}
		if strings.HasPrefix(lower, ".github/issue_template/") ||
			strings.HasPrefix(lower, ".github/pull_request_template") ||
			lower == ".github/dependabot.yml" {
			important[path] = true
		}
		switch filename {
		case ".repo-inspector.yml", ".repo-inspector.yaml", "repo-inspector.yml", "repo-inspector.yaml":
			important[path] = true
		}
	}
	paths := make([]string, 0, len(important))
	for path := range important {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func baseName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func extension(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx:]
	}
	return ""
}
