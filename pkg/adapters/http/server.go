package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// RunRequest is the body of POST /runs and POST /plan. Either Graph or
// GraphID must be set; GraphID requires a loader.
type RunRequest struct {
	Graph     *domain.Graph  `json:"graph,omitempty"`
	GraphID   string         `json:"graphId,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// RunResponse wraps the record of a run. Error is set when the run could
// not start (invalid graph, cycle).
type RunResponse struct {
	Run   *domain.RunRecord `json:"run"`
	Error string            `json:"error,omitempty"`
}

// Server exposes a ports.Runner over JSON/HTTP.
type Server struct {
	Runner   ports.Runner
	Loader   ports.GraphLoader
	Store    ports.RunStore
	Streams  *StreamManager
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLoader enables graphId in requests and the /graphs routes.
func WithLoader(l ports.GraphLoader) Option {
	return func(s *Server) { s.Loader = l }
}

// WithStore enables run history lookups. It should be the store the
// engine saves to.
func WithStore(st ports.RunStore) Option {
	return func(s *Server) { s.Store = st }
}

// WithStreams enables GET /runs/{id}/events. The manager's Hooks must be
// registered on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithGatherer sets the source of GET /metrics. Defaults to the
// Prometheus default gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Gatherer = g }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.Logger = l
		}
	}
}

// NewHandler creates the HTTP handler for runner.
func NewHandler(runner ports.Runner, opts ...Option) http.Handler {
	s := &Server{
		Runner:   runner,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/plan", s.Plan)
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.CreateRun)
		r.Get("/", s.ListRuns)
		r.Get("/{runID}", s.GetRun)
		r.Post("/{runID}/cancel", s.CancelRun)
		r.Get("/{runID}/events", s.SubscribeEvents)
	})
	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", s.ListGraphs)
		r.Get("/{graphID}", s.GetGraph)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateRun handles POST /runs. With ?async=true it answers 202 with the
// run id as soon as the run is registered.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.Logger.Warn("CreateRun: invalid request body", "err", err)
		return
	}
	g, status, err := s.resolveGraph(r.Context(), body)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		run := s.Runner.NewRun(g)
		// The run outlives the request.
		ctx := context.WithoutCancel(r.Context())
		go func() {
			if err := s.Runner.Execute(ctx, g, run, body.Variables); err != nil {
				s.Logger.Warn("async run failed to start", "run_id", run.RunID(), "err", err)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"runId": run.RunID()})
		return
	}

	run, err := s.Runner.Run(r.Context(), g, body.Variables)
	resp := RunResponse{Run: run.Snapshot()}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotImplemented, "run history is not configured")
		return
	}
	ids, err := s.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		s.Logger.Error("ListRuns failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// GetRun handles GET /runs/{runID}. In-flight runs are served live,
// finished ones from the store.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if run, ok := s.Runner.Active(runID); ok {
		writeJSON(w, http.StatusOK, RunResponse{Run: run.Snapshot()})
		return
	}
	if s.Store == nil {
		writeError(w, http.StatusNotFound, domain.ErrRunNotFound.Error())
		return
	}
	rec, err := s.Store.Load(r.Context(), runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		s.Logger.Error("GetRun failed", "run_id", runID, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Run: rec})
}

// CancelRun handles POST /runs/{runID}/cancel.
func (s *Server) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if err := s.Runner.Cancel(runID); err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID, "status": "cancelling"})
}

// Plan handles POST /plan.
func (s *Server) Plan(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g, status, err := s.resolveGraph(r.Context(), body)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	plan, err := s.Runner.Plan(g)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ListGraphs handles GET /graphs.
func (s *Server) ListGraphs(w http.ResponseWriter, r *http.Request) {
	if s.Loader == nil {
		writeError(w, http.StatusNotImplemented, "graph loader is not configured")
		return
	}
	ids, err := s.Loader.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"graphs": ids})
}

// GetGraph handles GET /graphs/{graphID}.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	if s.Loader == nil {
		writeError(w, http.StatusNotImplemented, "graph loader is not configured")
		return
	}
	g, err := s.Loader.Load(r.Context(), chi.URLParam(r, "graphID"))
	if errors.Is(err, domain.ErrGraphNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lattice-http",
		"version": strings.TrimSpace(lattice.Version),
	})
}

// SubscribeEvents handles GET /runs/{runID}/events (SSE). The stream ends
// when the run finishes or the client disconnects.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.Streams == nil {
		writeError(w, http.StatusNotImplemented, "event streaming is not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	runID := chi.URLParam(r, "runID")

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
			if strings.Contains(msg, `"type":"`+string(domain.EventRunFinish)+`"`) {
				return
			}
		}
	}
}

func (s *Server) resolveGraph(ctx context.Context, body RunRequest) (*domain.Graph, int, error) {
	switch {
	case body.Graph != nil:
		return body.Graph, 0, nil
	case body.GraphID == "":
		return nil, http.StatusBadRequest, errors.New("graph or graphId is required")
	case s.Loader == nil:
		return nil, http.StatusBadRequest, errors.New("graphId requires a graph loader")
	}
	g, err := s.Loader.Load(ctx, body.GraphID)
	if errors.Is(err, domain.ErrGraphNotFound) {
		return nil, http.StatusNotFound, err
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return g, 0, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
