package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/anchorsynth/anchorsynth/internal/server"
	"github.com/anchorsynth/anchorsynth/pkg/store"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis"
)

// serveCommand creates the serve command for running the synthesis API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		noCache  bool
		mongoURI string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the synthesis HTTP API",
		Long: `Run the synthesis HTTP API.

Endpoints:
  POST /api/synthesize   run a synthesis over the posted example document
  GET  /api/runs         list recent runs
  GET  /api/runs/{id}    replay a stored run
  GET  /healthz          liveness probe

Run history is kept in memory unless --mongo points at a MongoDB instance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache, mongoURI)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for run history (e.g. mongodb://localhost:27017)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool, mongoURI string) error {
	var st store.Store = store.NewMemoryStore()
	if mongoURI != "" {
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{URI: mongoURI})
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		st = ms
		c.Logger.Info("run history in MongoDB", "uri", mongoURI)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(shutdownCtx)
	}()

	runner := synthesis.NewRunner(newCache(noCache), nil, c.Logger)
	srv := &http.Server{
		Addr:    addr,
		Handler: server.New(runner, st, c.Logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("synthesis API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
