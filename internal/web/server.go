// Package web provides a read-only web view over analysed task graphs.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/plan"
	"github.com/metalagman/orgarhythm/internal/task"
	"github.com/rs/zerolog/log"
)

// Server provides the web UI handlers and state.
type Server struct {
	source   task.Source
	opts     graph.Options
	calendar *plan.Calendar
	index    *template.Template
}

// NewServer creates a new web server. calendar may be nil.
func NewServer(source task.Source, opts graph.Options, calendar *plan.Calendar) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{source: source, opts: opts, calendar: calendar, index: tmpl}, nil
}

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": func(items []string) string { return strings.Join(items, ", ") },
}

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/plan", s.handlePlan)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleTask)
	return mux
}

type indexPage struct {
	Candidates []task.Candidate
	Edges      []graph.EdgeOffset
	Cycles     [][]string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	report, tasks, err := s.analyze(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page := indexPage{
		Candidates: task.Prioritize(report, tasks, task.SelectionPolicy{}),
		Edges:      report.Edges,
		Cycles:     report.Cycles,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, _, err := s.analyze(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	reg, err := s.source.Registry(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := plan.Build(r.Context(), reg, s.opts, s.calendar)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type taskResponse struct {
	Task    task.Task          `json:"task"`
	Metrics graph.TaskMetrics  `json:"metrics"`
	Joins   []graph.EdgeOffset `json:"joins"`
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.source.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	report, _, err := s.analyze(r)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics, ok := report.Task(id)
	if !ok {
		writeError(w, graph.ErrUnknownTask)
		return
	}
	joins := []graph.EdgeOffset{}
	for _, e := range report.Edges {
		if e.ChildID == id {
			joins = append(joins, e)
		}
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: record, Metrics: metrics, Joins: joins})
}

func (s *Server) analyze(r *http.Request) (*graph.Report, []task.Task, error) {
	tasks, err := s.source.List(r.Context())
	if err != nil {
		return nil, nil, err
	}
	reg, err := s.source.Registry(r.Context())
	if err != nil {
		return nil, nil, err
	}
	report, err := graph.Analyze(r.Context(), reg, s.opts)
	if err != nil {
		return nil, nil, err
	}
	return report, tasks, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("web: encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, graph.ErrUnknownTask):
		status = http.StatusNotFound
	case errors.Is(err, graph.ErrCyclicDependency):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("web: request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
