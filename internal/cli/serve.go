package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ragserver/internal/app"
	"ragserver/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the document Q&A HTTP server.

Endpoints:
  POST   /upload                  Upload and index a document
  GET    /ask                     Ask a question about indexed documents
  GET    /documents               List indexed documents
  DELETE /documents/{doc_id}      Remove a document and its chunks
  GET    /index/status/{doc_id}   Check background indexing status
  GET    /llm/models              List available LLM models
  GET    /health                  Liveness check`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := app.New(GetConfig())
	defer a.Close()

	pipeline, err := a.Pipeline()
	if err != nil {
		return fmt.Errorf("failed to start indexing pipeline: %w", err)
	}
	answerer, err := a.Answerer()
	if err != nil {
		return fmt.Errorf("failed to build answerer: %w", err)
	}
	chat, err := a.LLM()
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	limiter, err := a.Limiter()
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	s := server.New(a.Config(), pipeline, answerer, a.Tracker(), a.Extractor(), chat, limiter)

	httpServer := &http.Server{
		Addr:         a.Config().Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Listening on %s\n", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Let queued indexing jobs finish before releasing the store.
	pipeline.Close()
	return nil
}
