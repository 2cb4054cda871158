package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lin-Jiong-HDU/jarvis/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

func getServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve POST /command, POST /chat, GET /health and GET /metrics.

The listen address comes from server.addr unless --addr is given.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{server.WithLogger(a.logger), server.WithMetrics(a.metrics)}
	if a.history != nil {
		opts = append(opts, server.WithHistory(a.history))
	}
	srv := server.New(a.engine, a.responder, opts...)
	a.logger.Infof("writing scripts to %s", a.synth.Dir())
	return srv.ListenAndServe(ctx, addr)
}
