package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/promocrawl/internal/api"
	"github.com/jonesrussell/promocrawl/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

// httpdCommand creates the httpd command, which runs the HTTP server
// with the periodic crawl scheduler.
func httpdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Run the HTTP server and the periodic crawl scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHTTPD()
		},
	}
}

func runHTTPD() error {
	deps, err := newCommandDeps()
	if err != nil {
		return err
	}

	svcs, err := buildServices(deps)
	if err != nil {
		return err
	}
	defer svcs.DB.Close()

	router := api.SetupRouter(deps.Logger, api.Handlers{
		Scrape:     api.NewScrapeHandler(deps.Logger, svcs.Crawl, svcs.Repo),
		RAG:        api.NewRAGHandler(deps.Logger, svcs.RAG),
		Embeddings: api.NewEmbeddingsHandler(deps.Logger, svcs.Embed, deps.Config.Embedding.BatchLimit),
	})
	server := api.NewHTTPServer(deps.Config.Server, router)

	sched := scheduler.New(deps.Logger, svcs.Crawl, svcs.Embed, deps.Config.Embedding.BatchLimit)
	if err := sched.Start(deps.Config.Scraper.IntervalHours); err != nil {
		return err
	}

	deps.Logger.Info("Starting HTTP server", "addr", deps.Config.Server.Address)
	errChan := make(chan error, 1)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case serverErr := <-errChan:
		sched.Stop()
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		deps.Logger.Info("Shutdown signal received", "signal", sig.String())
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	deps.Logger.Info("Server stopped")
	return nil
}
