package task

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is the only supported document version.
const DocumentVersion = 1

//go:embed document.schema.json
var documentSchemaJSON string

var documentSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchemaJSON))
})

// Document is a portable YAML or JSON description of a task graph.
type Document struct {
	Version int            `json:"version" yaml:"version"`
	Tasks   []DocumentTask `json:"tasks"   yaml:"tasks"`
}

// DocumentTask is one task entry of a document.
type DocumentTask struct {
	Name       string   `json:"name"                 yaml:"name"`
	Difficulty float64  `json:"difficulty"           yaml:"difficulty"`
	Priority   float64  `json:"priority"             yaml:"priority"`
	External   float64  `json:"external"             yaml:"external"`
	Team       string   `json:"team,omitempty"       yaml:"team,omitempty"`
	DependsOn  []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// ImportResult summarises the changes applied by Import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Linked  int `json:"linked"`
}

// ParseDocument decodes a YAML or JSON document and validates it against the
// document schema.
func ParseDocument(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.checkReferences(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// checkReferences trims task names and verifies that names are unique and
// every dependency names another task of the document.
func (d *Document) checkReferences() error {
	seen := make(map[string]struct{}, len(d.Tasks))
	for i := range d.Tasks {
		d.Tasks[i].Name = strings.TrimSpace(d.Tasks[i].Name)
		name := d.Tasks[i].Name
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s", graph.ErrDuplicateTask, name)
		}
		seen[name] = struct{}{}
	}
	for _, t := range d.Tasks {
		for _, dep := range t.DependsOn {
			if dep == t.Name {
				return fmt.Errorf("%w: task %s cannot depend on itself", graph.ErrInvalidEdge, t.Name)
			}
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("task %s depends on %w: %s", t.Name, graph.ErrUnknownTask, dep)
			}
		}
	}
	return nil
}

func validateDocument(raw any) error {
	if raw == nil {
		return errors.New("document is empty")
	}
	schema, err := documentSchema()
	if err != nil {
		return fmt.Errorf("load document schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	sort.Strings(problems)
	return fmt.Errorf("document schema validation failed: %s", strings.Join(problems, "; "))
}

// Registry builds a graph registry straight from the document, in document order.
func (d *Document) Registry() (*graph.Registry, error) {
	tasks := make([]Task, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		tasks = append(tasks, t.record())
	}
	return buildRegistry(tasks)
}

// Marshal renders the document as "yaml", "json" or "hcl".
func (d *Document) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		out, err := yaml.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return out, nil
	case "json":
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(out, '\n'), nil
	case "hcl":
		return d.marshalHCL(), nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

func (t DocumentTask) record() Task {
	return Task{
		Name:       t.Name,
		Difficulty: t.Difficulty,
		Priority:   t.Priority,
		External:   t.External,
		Team:       t.Team,
		DependsOn:  t.DependsOn,
	}
}

// Import applies doc to the store. Unknown tasks are created, existing ones
// have their attributes and team replaced, and all listed dependencies are
// added. Dependencies already stored are kept.
func Import(ctx context.Context, store *Store, doc *Document) (ImportResult, error) {
	var res ImportResult
	for _, t := range doc.Tasks {
		in := NewTask{
			Name:       t.Name,
			Attributes: graph.Attributes{Difficulty: t.Difficulty, Priority: t.Priority, External: t.External},
			Team:       t.Team,
		}
		_, err := store.Get(ctx, t.Name)
		switch {
		case errors.Is(err, graph.ErrUnknownTask):
			if _, err := store.Add(ctx, in); err != nil {
				return res, fmt.Errorf("import task %s: %w", t.Name, err)
			}
			res.Created++
		case err != nil:
			return res, fmt.Errorf("import task %s: %w", t.Name, err)
		default:
			if err := store.Update(ctx, in); err != nil {
				return res, fmt.Errorf("import task %s: %w", t.Name, err)
			}
			res.Updated++
		}
	}
	for _, t := range doc.Tasks {
		for _, dep := range t.DependsOn {
			created, err := store.AddDependency(ctx, t.Name, dep)
			if err != nil {
				return res, fmt.Errorf("import dependency %s -> %s: %w", t.Name, dep, err)
			}
			if created {
				res.Linked++
			}
		}
	}
	return res, nil
}

// Export renders every task from src as a document in creation order.
func Export(ctx context.Context, src Source) (*Document, error) {
	tasks, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	doc := &Document{Version: DocumentVersion, Tasks: make([]DocumentTask, 0, len(tasks))}
	for _, t := range tasks {
		doc.Tasks = append(doc.Tasks, DocumentTask{
			Name:       t.Name,
			Difficulty: t.Difficulty,
			Priority:   t.Priority,
			External:   t.External,
			Team:       t.Team,
			DependsOn:  t.DependsOn,
		})
	}
	return doc, nil
}
