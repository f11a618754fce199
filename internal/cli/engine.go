package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/process"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
)

// EngineOptions are the per-command engine settings.
type EngineOptions struct {
	Parallelism int
	NodeTimeout time.Duration
	Loader      ports.GraphLoader
	Hooks       domain.LifecycleHooks
}

// Runtime is a fully wired engine plus the resources it owns.
type Runtime struct {
	Engine   *lattice.Engine
	Store    ports.RunStore
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Build wires an engine from cfg: logger, run store (Redis when
// configured, memory otherwise) with its middlewares, metrics, and the
// capability invokers.
func Build(ctx context.Context, cfg Config, opts EngineOptions) (*Runtime, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		Logger:   logging.New(level),
		Metrics:  observability.NewMetrics("lattice"),
		Registry: prometheus.NewRegistry(),
	}
	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.Metrics.MustRegister(rt.Registry)

	store, err := rt.openStore(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	rt.Store = store

	engineOpts := []lattice.Option{
		lattice.WithLogger(rt.Logger),
		lattice.WithStore(rt.Store),
		lattice.WithLifecycleHooks(rt.Metrics.Hooks()),
		lattice.WithLifecycleHooks(observability.LoggingHooks(rt.Logger)),
		lattice.WithLifecycleHooks(opts.Hooks),
		lattice.WithParallelism(opts.Parallelism),
		lattice.WithNodeTimeout(opts.NodeTimeout),
		lattice.WithExpressionLanguage(cfg.ExprLanguage),
		lattice.WithLoader(opts.Loader),
	}

	invokers, err := rt.openInvokers(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	if len(invokers) > 0 {
		engineOpts = append(engineOpts, lattice.WithInvoker(registry.Chain(invokers...)))
	}

	rt.Engine, err = lattice.New(engineOpts...)
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context, cfg Config) (ports.RunStore, error) {
	var store ports.RunStore = memory.NewRunStore()
	if cfg.RedisAddr != "" {
		var ropts []redis.Option
		if cfg.RedisPrefix != "" {
			ropts = append(ropts, redis.WithPrefix(cfg.RedisPrefix))
		}
		if cfg.RedisTTL > 0 {
			ropts = append(ropts, redis.WithTTL(cfg.RedisTTL))
		}
		rs := redis.New(cfg.RedisAddr, ropts...)
		rt.closers = append(rt.closers, rs.Close)
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		store = rs
	}

	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PIIPatterns)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvPIIPatterns, err)
		}
		mws = append(mws, pii)
	}
	if len(cfg.EncryptionKey) > 0 {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: cfg.EncryptionKey})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvEncryptionKey, err)
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

// openInvokers returns the capability invokers in lookup order: local
// process tools first, then the MCP server.
func (rt *Runtime) openInvokers(ctx context.Context, cfg Config) ([]ports.CapabilityInvoker, error) {
	var invokers []ports.CapabilityInvoker
	if cfg.ToolsFile != "" {
		tools, err := process.LoadTools(cfg.ToolsFile)
		if err != nil {
			return nil, err
		}
		inv := process.NewInvoker(process.WithTools(tools), process.WithBaseDir(filepath.Dir(cfg.ToolsFile)))
		invokers = append(invokers, inv)
		rt.Logger.Info("process tools enabled", "file", cfg.ToolsFile, "tools", inv.Tools())
	}
	if fields := strings.Fields(cfg.MCPCommand); len(fields) > 0 {
		inv, err := mcp.NewStdioInvoker(ctx, fields[0], os.Environ(), fields[1:]...)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, inv.Close)
		invokers = append(invokers, inv)
		rt.Logger.Info("mcp capabilities enabled", "command", fields[0])
	}
	return invokers, nil
}

// Close releases the store connection and the MCP client.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
