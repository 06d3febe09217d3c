// Package mcp exposes the analysis engine as MCP (Model Context Protocol)
// tools for AI assistants.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/task"
)

// Server wraps a task source and exposes its metrics as MCP tools.
type Server struct {
	server *gomcp.Server
	source task.Source
	opts   graph.Options
}

// NewServer creates an MCP server reading tasks from source.
func NewServer(source task.Source, opts graph.Options, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{source: source, opts: opts}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "orga", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

type analyzeGraphInput struct{}

type analyzeGraphOutput struct {
	Tasks  []graph.TaskMetrics `json:"tasks"`
	Edges  []graph.EdgeOffset  `json:"edges"`
	Cycles [][]string          `json:"cycles,omitempty"`
	Count  int                 `json:"count"`
}

type taskMetricsInput struct {
	TaskID string `json:"task_id" jsonschema:"the task name"`
}

type taskMetricsOutput struct {
	ID                  string             `json:"id"`
	Team                string             `json:"team,omitempty"`
	Total               float64            `json:"total"`
	Loops               int                `json:"loops"`
	Magnitude           float64            `json:"magnitude"`
	MagnitudePercentile float64            `json:"magnitude_percentile"`
	AncestorIDs         []string           `json:"ancestor_ids"`
	Joins               []graph.EdgeOffset `json:"joins"`
}

type joinOffsetInput struct {
	ChildID  string `json:"child_id"  jsonschema:"the dependent task"`
	ParentID string `json:"parent_id" jsonschema:"the direct prerequisite of child_id"`
}

type joinOffsetOutput struct {
	ChildID     string `json:"child_id"`
	ParentID    string `json:"parent_id"`
	JoinOffset  int    `json:"join_offset"`
	ParentLoops int    `json:"parent_loops"`
}

type nextTasksInput struct {
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of tasks to return, 0 for all"`
	Team  string `json:"team,omitempty"  jsonschema:"prefer tasks owned by this team"`
}

type candidateOutput struct {
	TaskID              string  `json:"task_id"`
	Team                string  `json:"team,omitempty"`
	Magnitude           float64 `json:"magnitude"`
	MagnitudePercentile float64 `json:"magnitude_percentile"`
	Loops               int     `json:"loops"`
	Reason              string  `json:"reason"`
}

type nextTasksOutput struct {
	Tasks []candidateOutput `json:"tasks"`
	Count int               `json:"count"`
}

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_graph",
		Description: "Analyse the whole task graph. Returns total, loops, magnitude, magnitude percentile and ancestors per task, the join offset of every dependency, and any cycles.",
	}, s.handleAnalyzeGraph)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task_metrics",
		Description: "Get the metrics of one task by name together with the join offsets of its direct prerequisites.",
	}, s.handleGetTaskMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "join_offset",
		Description: "Compute the attempt of a parent task at which a direct child task joins.",
	}, s.handleJoinOffset)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "next_tasks",
		Description: "Rank tasks by magnitude, then loops, then creation order, optionally scoped to a team.",
	}, s.handleNextTasks)
}

func (s *Server) handleAnalyzeGraph(ctx context.Context, _ *gomcp.CallToolRequest, _ analyzeGraphInput) (*gomcp.CallToolResult, analyzeGraphOutput, error) {
	report, err := s.analyze(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("analysing graph: %s", err)), analyzeGraphOutput{}, nil
	}
	return nil, analyzeGraphOutput{
		Tasks:  report.Tasks,
		Edges:  report.Edges,
		Cycles: report.Cycles,
		Count:  len(report.Tasks),
	}, nil
}

func (s *Server) handleGetTaskMetrics(ctx context.Context, _ *gomcp.CallToolRequest, input taskMetricsInput) (*gomcp.CallToolResult, taskMetricsOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskMetricsOutput{}, nil
	}
	record, err := s.source.Get(ctx, input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskMetricsOutput{}, nil
	}
	report, err := s.analyze(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("analysing graph: %s", err)), taskMetricsOutput{}, nil
	}
	metrics, ok := report.Task(input.TaskID)
	if !ok {
		return errorResult(fmt.Sprintf("task %s is not part of the graph", input.TaskID)), taskMetricsOutput{}, nil
	}
	out := taskMetricsOutput{
		ID:                  metrics.ID,
		Team:                record.Team,
		Total:               metrics.Total,
		Loops:               metrics.Loops,
		Magnitude:           metrics.Magnitude,
		MagnitudePercentile: metrics.MagnitudePercentile,
		AncestorIDs:         metrics.AncestorIDs,
		Joins:               []graph.EdgeOffset{},
	}
	for _, e := range report.Edges {
		if e.ChildID == input.TaskID {
			out.Joins = append(out.Joins, e)
		}
	}
	return nil, out, nil
}

func (s *Server) handleJoinOffset(ctx context.Context, _ *gomcp.CallToolRequest, input joinOffsetInput) (*gomcp.CallToolResult, joinOffsetOutput, error) {
	if input.ChildID == "" || input.ParentID == "" {
		return errorResult("child_id and parent_id are required"), joinOffsetOutput{}, nil
	}
	reg, err := s.source.Registry(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("loading graph: %s", err)), joinOffsetOutput{}, nil
	}
	child, err := reg.Lookup(input.ChildID)
	if err != nil {
		return errorResult(err.Error()), joinOffsetOutput{}, nil
	}
	parent, err := reg.Lookup(input.ParentID)
	if err != nil {
		return errorResult(err.Error()), joinOffsetOutput{}, nil
	}
	offset, err := reg.NewPass(s.opts).JoinOffset(child, parent)
	if err != nil {
		return errorResult(err.Error()), joinOffsetOutput{}, nil
	}
	return nil, joinOffsetOutput{
		ChildID:     input.ChildID,
		ParentID:    input.ParentID,
		JoinOffset:  offset,
		ParentLoops: graph.Loops(parent),
	}, nil
}

func (s *Server) handleNextTasks(ctx context.Context, _ *gomcp.CallToolRequest, input nextTasksInput) (*gomcp.CallToolResult, nextTasksOutput, error) {
	if input.Limit < 0 {
		return errorResult(fmt.Sprintf("limit must be >= 0, got %d", input.Limit)), nextTasksOutput{}, nil
	}
	tasks, err := s.source.List(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), nextTasksOutput{}, nil
	}
	report, err := s.analyze(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("analysing graph: %s", err)), nextTasksOutput{}, nil
	}
	candidates := task.Prioritize(report, tasks, task.SelectionPolicy{Team: input.Team, Limit: input.Limit})
	out := nextTasksOutput{Tasks: make([]candidateOutput, len(candidates)), Count: len(candidates)}
	for i, c := range candidates {
		out.Tasks[i] = candidateOutput{
			TaskID:              c.Metrics.ID,
			Team:                c.Team,
			Magnitude:           c.Metrics.Magnitude,
			MagnitudePercentile: c.Metrics.MagnitudePercentile,
			Loops:               c.Metrics.Loops,
			Reason:              c.Reason,
		}
	}
	return nil, out, nil
}

func (s *Server) analyze(ctx context.Context) (*graph.Report, error) {
	reg, err := s.source.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Analyze(ctx, reg, s.opts)
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
