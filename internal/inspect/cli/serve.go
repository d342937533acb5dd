package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Overl1te/Repo-Inspector/internal/inspect/server"
)

var (
	serveAddr       string
	serveStorageDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan API server",
	Long: `Starts an HTTP server exposing asynchronous scan jobs and stored
reports:

  POST /api/scan                     start a scan ({"owner": ..., "repo": ...})
  GET  /api/jobs/{id}                poll job state
  GET  /api/reports/{owner}/{repo}   latest completed report
  GET  /health, /status              liveness and counters`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveStorageDir, "storage-dir", "./reports", "Report storage directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	srv, err := server.NewServer(server.Config{
		Addr:        serveAddr,
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		StorageDir:  serveStorageDir,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}
