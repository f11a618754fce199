package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/scheduler"
)

// ErrRunNotSucceeded is returned by Run when the run failed or was
// cancelled, so the command can exit non-zero.
var ErrRunNotSucceeded = errors.New("run did not succeed")

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	GraphPath   string
	VarsJSON    string
	Vars        []string
	Parallelism int
	NodeTimeout time.Duration
	// Timeout bounds the whole run; remaining nodes are skipped when it expires.
	Timeout time.Duration
	JSON    bool
	Plain   bool
	Out     io.Writer
}

// Run executes a graph file and prints its report. SIGINT and SIGTERM
// cancel the run at the next node boundary.
func Run(ctx context.Context, cfg Config, opts RunOptions) (*domain.RunRecord, error) {
	out := writerOr(opts.Out)
	g, err := file.LoadFile(opts.GraphPath)
	if err != nil {
		return nil, err
	}
	vars, err := ParseVars(opts.VarsJSON, opts.Vars)
	if err != nil {
		return nil, err
	}

	rt, err := Build(ctx, cfg, EngineOptions{Parallelism: opts.Parallelism, NodeTimeout: opts.NodeTimeout})
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	run, runErr := rt.Engine.Run(ctx, g, vars)
	rec := run.Snapshot()

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return rec, err
		}
	} else {
		plain := opts.Plain || !isTerminal(out)
		rendered, err := tui.NewRenderer(plain, terminalWidth(out))(tui.Report(rec, g))
		if err != nil {
			return rec, err
		}
		fmt.Fprint(out, rendered)
		if !plain {
			fmt.Fprintln(out, tui.StatusLine(rec))
		}
	}

	if runErr != nil {
		return rec, runErr
	}
	if rec.Status != domain.RunSucceeded {
		return rec, fmt.Errorf("%w: %s", ErrRunNotSucceeded, rec.Status)
	}
	return rec, nil
}

// Validate checks a graph file and reports every problem found.
func Validate(cfg Config, path string) error {
	g, err := file.LoadFile(path)
	if err != nil {
		return err
	}
	rt, err := Build(context.Background(), cfg, EngineOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.Engine.Validate(g)
}

// Plan prints the execution order and parallel groups of a graph file.
func Plan(path string, asJSON bool, w io.Writer) error {
	out := writerOr(w)
	g, err := file.LoadFile(path)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	plan, err := scheduler.NewPlan(g)
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(out).Encode(plan)
	}
	for i, group := range plan.Groups {
		fmt.Fprintf(out, "%d: %v\n", i, group)
	}
	return nil
}

// Graph prints the Mermaid diagram of a graph file. With runID, node
// statuses of that run are loaded from the configured store and overlaid.
func Graph(ctx context.Context, cfg Config, path, runID string, w io.Writer) error {
	out := writerOr(w)
	g, err := file.LoadFile(path)
	if err != nil {
		return err
	}
	var overlay *graph.Overlay
	if runID != "" {
		rt, err := Build(ctx, cfg, EngineOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()
		rec, err := rt.Store.Load(ctx, runID)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromRecord(rec)
	}
	fmt.Fprint(out, graph.GenerateMermaid(g, overlay))
	return nil
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
