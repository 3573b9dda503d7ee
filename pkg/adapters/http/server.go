package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Solver runs one search.
type Solver interface {
	Search(ctx context.Context, task *domain.Task) (*domain.Result, error)
}

// Server exposes a Solver over HTTP.
type Server struct {
	Solver   Solver
	Store    ports.ResultStore
	Gatherer prometheus.Gatherer
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStore persists every solved task and enables the /results endpoints.
func WithStore(store ports.ResultStore) Option {
	return func(s *Server) { s.Store = store }
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Gatherer = g }
}

// WithTimeout bounds each search.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.Timeout = d }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler builds the router. Request bodies are checked against the embedded
// OpenAPI document before they reach a handler.
func NewHandler(solver Solver, opts ...Option) (http.Handler, error) {
	s := &Server{Solver: solver, Logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	validate, err := validateRequests(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Get("/healthz", s.Health)
		r.Post("/solve", s.Solve)
		r.Get("/results", s.ListResults)
		r.Get("/results/{id}", s.GetResult)
		r.Delete("/results/{id}", s.DeleteResult)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <title>recoma API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
        window.ui = SwaggerUIBundle({ url: '/openapi.yaml', dom_id: '#swagger-ui' });
    };
</script>
</body>
</html>
`

// SolveRequest is the body of POST /solve.
type SolveRequest struct {
	ID          string   `json:"id,omitempty"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer,omitempty"`
	Paras       []string `json:"paras,omitempty"`
	IncludeTree bool     `json:"include_tree,omitempty"`
}

// SolveResponse summarizes a search.
type SolveResponse struct {
	ID         string         `json:"id"`
	Answer     string         `json:"answer"`
	Outcome    domain.Outcome `json:"outcome"`
	Iterations int            `json:"iterations"`
	Correct    *bool          `json:"correct,omitempty"`
	Error      string         `json:"error,omitempty"`
	Tree       *domain.Tree   `json:"tree,omitempty"`
}

// Solve handles POST /solve.
func (s *Server) Solve(w http.ResponseWriter, r *http.Request) {
	var body SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("solve: invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	question, err := runner.SanitizeInput(body.Question)
	if err != nil {
		s.Logger.Warn("solve: input rejected", "err", err, "size", len(body.Question))
		writeError(w, http.StatusBadRequest, err)
		return
	}

	task := &domain.Task{ID: body.ID, Question: question, Answer: body.Answer, Paras: body.Paras}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	ctx := r.Context()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	res, searchErr := s.Solver.Search(ctx, task)
	if res == nil {
		res = &domain.Result{Task: task, Outcome: domain.OutcomeFailed, Error: searchErr}
	}
	if s.Store != nil {
		if err := s.Store.Save(context.WithoutCancel(ctx), res); err != nil {
			s.Logger.Error("solve: could not persist result", "task", task.ID, "err", err)
		}
	}

	resp := SolveResponse{
		ID:         task.ID,
		Answer:     res.Answer,
		Outcome:    res.Outcome,
		Iterations: res.Iterations,
	}
	if task.Answer != "" {
		correct := res.Correct()
		resp.Correct = &correct
	}
	if body.IncludeTree {
		resp.Tree = res.FinalTree
	}
	status := http.StatusOK
	if searchErr != nil {
		s.Logger.Error("solve failed", "task", task.ID, "err", searchErr)
		resp.Error = searchErr.Error()
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

// ListResults handles GET /results.
func (s *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	ids, err := s.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// GetResult handles GET /results/{id}.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	res, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrResultNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteResult handles DELETE /results/{id}.
func (s *Server) DeleteResult(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, errors.New("no result store configured"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
