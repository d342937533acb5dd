// Package server exposes the scanner over HTTP: scan jobs are started
// asynchronously and completed reports are served from the history store.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/github"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/scan"
	"github.com/Overl1te/Repo-Inspector/internal/inspect/store"
)

// Config holds server configuration.
type Config struct {
	Addr        string
	GitHubToken string
	StorageDir  string
}

// JobStatus is the lifecycle state of one scan job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one asynchronous scan.
type Job struct {
	ID         string     `json:"id"`
	RepoOwner  string     `json:"repo_owner"`
	RepoName   string     `json:"repo_name"`
	Status     JobStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	ScoreTotal *int       `json:"score_total,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Server is the scan API HTTP server.
type Server struct {
	cfg    Config
	runner *scan.Runner
	store  *store.Store
	logger *slog.Logger
	mux    *http.ServeMux

	mu   sync.Mutex
	jobs map[string]*Job

	scansStarted atomic.Int64
}

// NewServer creates a configured server with its report store and scan runner.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	reports, err := store.New(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("opening report store: %w", err)
	}
	s := &Server{
		cfg:    cfg,
		store:  reports,
		logger: logger,
		mux:    http.NewServeMux(),
		jobs:   map[string]*Job{},
	}
	s.runner = &scan.Runner{
		Fetcher: github.NewClient(context.Background(), cfg.GitHubToken),
		Store:   reports,
		Logger:  logger,
	}

	s.mux.HandleFunc("POST /api/scan", s.handleScan)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	s.mux.HandleFunc("GET /api/reports/{owner}/{repo}", s.handleReport)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	return s, nil
}

// Start begins serving. Blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("scan API listening", "addr", s.cfg.Addr, "storage_dir", s.cfg.StorageDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down scan API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler returns the underlying mux (for tests).
func (s *Server) Handler() http.Handler {
	return s.mux
}

type scanRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" || req.Repo == "" {
		writeError(w, http.StatusBadRequest, "body must be JSON with owner and repo")
		return
	}

	job := &Job{
		ID:        uuid.New().String(),
		RepoOwner: req.Owner,
		RepoName:  req.Repo,
		Status:    JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	s.scansStarted.Add(1)

	go s.runJob(job)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"job_id": job.ID})
}

func (s *Server) runJob(job *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.setJobStatus(job.ID, JobRunning, "", nil)
	summary, err := s.runner.Run(ctx, job.RepoOwner, job.RepoName, job.ID)
	if err != nil {
		s.logger.Error("scan failed", "job_id", job.ID, "error", err)
		s.setJobStatus(job.ID, JobFailed, err.Error(), nil)
		return
	}
	s.setJobStatus(job.ID, JobCompleted, "", &summary.ScoreTotal)
}

func (s *Server) setJobStatus(jobID string, status JobStatus, errMessage string, score *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Status = status
	job.Error = errMessage
	job.ScoreTotal = score
	if status == JobCompleted || status == JobFailed {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	job, ok := s.jobs[r.PathValue("id")]
	var snapshot Job
	if ok {
		snapshot = *job
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, snapshot)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.LatestSummary(r.PathValue("owner"), r.PathValue("repo"))
	if err != nil {
		s.logger.Error("report lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not read stored report")
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "no completed scan for repository")
		return
	}
	writeJSON(w, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	jobCount := len(s.jobs)
	s.mu.Unlock()
	writeJSON(w, map[string]any{
		"scans_started": s.scansStarted.Load(),
		"jobs_tracked":  jobCount,
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
