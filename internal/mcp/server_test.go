package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/task"
)

// --- Fake implementations ---

type fakeSource struct {
	doc *task.Document
	err error
}

func (f *fakeSource) List(context.Context) ([]task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]task.Task, 0, len(f.doc.Tasks))
	for _, t := range f.doc.Tasks {
		out = append(out, task.Task{Name: t.Name, Difficulty: t.Difficulty, Priority: t.Priority, External: t.External, Team: t.Team, DependsOn: t.DependsOn})
	}
	return out, nil
}

func (f *fakeSource) Get(ctx context.Context, name string) (task.Task, error) {
	tasks, err := f.List(ctx)
	if err != nil {
		return task.Task{}, err
	}
	for _, t := range tasks {
		if t.Name == name {
			return t, nil
		}
	}
	return task.Task{}, graph.ErrUnknownTask
}

func (f *fakeSource) Registry(context.Context) (*graph.Registry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc.Registry()
}

func partySource() *fakeSource {
	return &fakeSource{doc: &task.Document{Version: 1, Tasks: []task.DocumentTask{
		{Name: "idea", Difficulty: 5, Priority: 5, External: 5},
		{Name: "konzept", Difficulty: 5, Priority: 5, External: 5, DependsOn: []string{"idea"}},
		{Name: "getraenke", Difficulty: 3, Priority: 3, External: 5, Team: "bar", DependsOn: []string{"konzept"}},
		{Name: "muellkonzept", Difficulty: 2, Priority: 3, External: 1, DependsOn: []string{"getraenke"}},
		{Name: "beerpong", Difficulty: 3, Priority: 1, External: 1, Team: "bar", DependsOn: []string{"muellkonzept", "konzept"}},
	}}}
}

// callTool connects a client to the server over in-memory transports and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

// decodeOutput reads the structured tool output into out.
func decodeOutput(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()

	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractText(result))
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return
	}
	if result.StructuredContent == nil {
		t.Fatalf("no structured content (text was: %s)", text)
	}
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Tests ---

func TestAnalyzeGraph(t *testing.T) {
	srv := NewServer(partySource(), graph.Options{}, "test")

	var out analyzeGraphOutput
	decodeOutput(t, callTool(t, srv, "analyze_graph", map[string]any{}), &out)

	if out.Count != 5 {
		t.Fatalf("count = %d, want 5", out.Count)
	}
	if out.Tasks[0].ID != "idea" || out.Tasks[0].Magnitude != 82 {
		t.Errorf("first task = %+v, want idea with magnitude 82", out.Tasks[0])
	}
	if len(out.Edges) != 5 {
		t.Errorf("edges = %d, want 5", len(out.Edges))
	}
	if len(out.Cycles) != 0 {
		t.Errorf("cycles = %v, want none", out.Cycles)
	}
}

func TestAnalyzeGraph_SourceError(t *testing.T) {
	srv := NewServer(&fakeSource{err: errors.New("db locked")}, graph.Options{}, "test")

	result := callTool(t, srv, "analyze_graph", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result when the source fails")
	}
	if !strings.Contains(extractText(result), "db locked") {
		t.Errorf("error text = %q, want source error", extractText(result))
	}
}

func TestGetTaskMetrics(t *testing.T) {
	srv := NewServer(partySource(), graph.Options{}, "test")

	var out taskMetricsOutput
	decodeOutput(t, callTool(t, srv, "get_task_metrics", map[string]any{"task_id": "beerpong"}), &out)

	if out.Team != "bar" {
		t.Errorf("team = %q, want bar", out.Team)
	}
	if out.Loops != 1 || out.Magnitude != 15 {
		t.Errorf("loops/magnitude = %d/%v, want 1/15", out.Loops, out.Magnitude)
	}
	want := []string{"idea", "konzept", "getraenke", "muellkonzept"}
	if strings.Join(out.AncestorIDs, ",") != strings.Join(want, ",") {
		t.Errorf("ancestors = %v, want %v", out.AncestorIDs, want)
	}
	if len(out.Joins) != 2 {
		t.Errorf("joins = %v, want 2 entries", out.Joins)
	}
}

func TestGetTaskMetrics_NotFound(t *testing.T) {
	srv := NewServer(partySource(), graph.Options{}, "test")

	result := callTool(t, srv, "get_task_metrics", map[string]any{"task_id": "ghost"})
	if !result.IsError {
		t.Fatal("expected error result for unknown task")
	}
}

func TestJoinOffset(t *testing.T) {
	srv := NewServer(partySource(), graph.Options{}, "test")

	var out joinOffsetOutput
	decodeOutput(t, callTool(t, srv, "join_offset", map[string]any{"child_id": "getraenke", "parent_id": "konzept"}), &out)

	if out.JoinOffset != 2 {
		t.Errorf("join offset = %d, want 2", out.JoinOffset)
	}
	if out.ParentLoops != 3 {
		t.Errorf("parent loops = %d, want 3", out.ParentLoops)
	}
}

func TestJoinOffset_IndirectEdge(t *testing.T) {
	srv := NewServer(partySource(), graph.Options{}, "test")

	result := callTool(t, srv, "join_offset", map[string]any{"child_id": "beerpong", "parent_id": "idea"})
	if !result.IsError {
		t.Fatal("expected error result for a non-direct edge")
	}
	if !strings.Contains(extractText(result), graph.ErrInvalidEdge.Error()) {
		t.Errorf("error text = %q, want invalid edge", extractText(result))
	}
}

func TestNextTasks(t *testing.T) {
	srv := NewServer(partySource(), graph.Options{}, "test")

	var out nextTasksOutput
	decodeOutput(t, callTool(t, srv, "next_tasks", map[string]any{"limit": 2}), &out)

	if out.Count != 2 {
		t.Fatalf("count = %d, want 2", out.Count)
	}
	if out.Tasks[0].TaskID != "idea" || out.Tasks[1].TaskID != "konzept" {
		t.Errorf("order = %s, %s; want idea, konzept", out.Tasks[0].TaskID, out.Tasks[1].TaskID)
	}

	var scoped nextTasksOutput
	decodeOutput(t, callTool(t, srv, "next_tasks", map[string]any{"team": "bar"}), &scoped)
	if scoped.Count != 2 || scoped.Tasks[0].TaskID != "getraenke" {
		t.Errorf("team scoped = %+v, want getraenke first of 2", scoped.Tasks)
	}
}
