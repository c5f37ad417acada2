// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/internal/exercise"
	"github.com/pdiddy/resource-curator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve starts the HTTP API: curation at /api/v1/resources/search, stored
resource CRUD, favorites, and exercise generation. Prometheus metrics are
exposed at /metrics. The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		e.cfg.Server.Addr = addr
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	gw, err := e.searcher()
	if err != nil {
		return err
	}
	gen := e.generator()

	var ex server.ExerciseGenerator
	if gen != nil {
		ex = exercise.New(gen, st)
	}
	srv := server.New(e.curator(gw, st, gen), ex, st, e.cfg.Store.MaxPageSize, e.log)

	ctx, stop := signal.NotifyContext(e.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.log.Info("resource-curator starting",
		zap.String("version", version),
		zap.String("search_provider", string(e.cfg.Search.Provider)),
		zap.Bool("generation", gen != nil),
		zap.String("db", e.cfg.Store.Path))
	return srv.ListenAndServe(ctx, e.cfg.Server)
}
