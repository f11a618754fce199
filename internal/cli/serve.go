package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/adapters/file"
	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
	"github.com/aretw0/lattice/pkg/ports"
)

// shutdownGrace bounds how long in-flight requests may take after a
// shutdown signal.
const shutdownGrace = 5 * time.Second

// ServeOptions configures the serve and mcp commands.
type ServeOptions struct {
	Addr        string
	GraphDir    string
	Parallelism int
	NodeTimeout time.Duration
	// Transport is "stdio" or "sse" (mcp only).
	Transport string
	Out       io.Writer
}

func graphLoader(dir string) (ports.GraphLoader, error) {
	if dir == "" {
		return nil, nil
	}
	return file.NewLoader(dir)
}

// Serve runs the HTTP API until SIGINT or SIGTERM.
func Serve(ctx context.Context, cfg Config, opts ServeOptions) error {
	out := writerOr(opts.Out)
	loader, err := graphLoader(opts.GraphDir)
	if err != nil {
		return err
	}
	streams := latticehttp.NewStreamManager()
	rt, err := Build(ctx, cfg, EngineOptions{
		Parallelism: opts.Parallelism,
		NodeTimeout: opts.NodeTimeout,
		Loader:      loader,
		Hooks:       streams.Hooks(),
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	httpOpts := []latticehttp.Option{
		latticehttp.WithStore(rt.Store),
		latticehttp.WithStreams(streams),
		latticehttp.WithGatherer(rt.Registry),
		latticehttp.WithLogger(rt.Logger),
	}
	if loader != nil {
		httpOpts = append(httpOpts, latticehttp.WithLoader(loader))
	}
	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: latticehttp.NewHandler(rt.Engine, httpOpts...),
	}

	serverErrors := make(chan error, 1)
	tui.PrintBanner(out, lattice.Version)
	go func() {
		printSystemMessage(out, "Lattice API listening on %s", srv.Addr)
		if opts.GraphDir != "" {
			printSystemMessage(out, "Serving graphs from: %s", opts.GraphDir)
		}
		serverErrors <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		printSystemMessage(out, "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		printSystemMessage(out, "Lattice API stopped gracefully")
		return nil
	}
}

// ServeMCP runs the engine as an MCP server.
func ServeMCP(ctx context.Context, cfg Config, opts ServeOptions) error {
	loader, err := graphLoader(opts.GraphDir)
	if err != nil {
		return err
	}
	rt, err := Build(ctx, cfg, EngineOptions{
		Parallelism: opts.Parallelism,
		NodeTimeout: opts.NodeTimeout,
		Loader:      loader,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	serverOpts := []mcp.ServerOption{mcp.WithStore(rt.Store)}
	if loader != nil {
		serverOpts = append(serverOpts, mcp.WithLoader(loader))
	}
	srv := mcp.NewServer(rt.Engine, serverOpts...)
	// Logs go to stderr so they never corrupt JSON-RPC on stdout.
	slog.SetDefault(rt.Logger)

	switch opts.Transport {
	case "", "stdio":
		rt.Logger.Info("starting lattice MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := srv.ServeSSE(ctx, opts.Addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
	}
}
