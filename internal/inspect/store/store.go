// Package store persists completed scan reports as JSON documents on disk and
// serves them back for history comparison.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/report"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/scoring"
)

// maxHistoryPerRepo bounds how many reports are kept per repository.
const maxHistoryPerRepo = 20

// Store is a directory-backed report history, one JSON document per scan.
type Store struct {
	dir string
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the report document and prunes old history for the repository.
func (s *Store) Save(summary *report.ReportSummary) error {
	repoDir := s.repoDir(summary.RepoOwner, summary.RepoName)
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		return fmt.Errorf("creating repo dir: %w", err)
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	// Timestamp prefix keeps directory listings in scan order.
	name := fmt.Sprintf("%s_%s.json", time.Now().UTC().Format("20060102T150405.000000000"), summary.JobID)
	if err := os.WriteFile(filepath.Join(repoDir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return s.prune(repoDir)
}

// Latest returns the most recent stored report for the repository, excluding
// the given job id, parsed leniently. Missing or malformed history yields
// (nil, nil): comparison degrades to "no previous data".
func (s *Store) Latest(owner, repo, excludeJobID string) (*scoring.PreviousReport, error) {
	names, err := s.listNewestFirst(owner, repo)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.repoDir(owner, repo), name))
		if err != nil {
			continue
		}
		var summary report.ReportSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			continue
		}
		if excludeJobID != "" && summary.JobID == excludeJobID {
			continue
		}
		return scoring.ParsePreviousReport(summary.JobID, summary.CommitSHA, data), nil
	}
	return nil, nil
}

// LatestSummary returns the newest stored report document for the repository,
// or nil when none exists.
func (s *Store) LatestSummary(owner, repo string) (*report.ReportSummary, error) {
	names, err := s.listNewestFirst(owner, repo)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.repoDir(owner, repo), names[0]))
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var summary report.ReportSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parsing stored report: %w", err)
	}
	return &summary, nil
}

func (s *Store) listNewestFirst(owner, repo string) ([]string, error) {
	entries, err := os.ReadDir(s.repoDir(owner, repo))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Store) prune(repoDir string) error {
	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return fmt.Errorf("listing reports for prune: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	if len(names) <= maxHistoryPerRepo {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-maxHistoryPerRepo] {
		if err := os.Remove(filepath.Join(repoDir, name)); err != nil {
			return fmt.Errorf("pruning report: %w", err)
		}
	}
	return nil
}

func (s *Store) repoDir(owner, repo string) string {
	return filepath.Join(s.dir, sanitize(owner)+"__"+sanitize(repo))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
