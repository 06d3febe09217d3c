package task

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// hclDocument is the HCL form of a document:
//
//	version = 1
//	task "konzept" {
//	  difficulty = 5
//	  priority   = 5
//	  external   = 5
//	  depends_on = ["idea"]
//	}
type hclDocument struct {
	Version int        `hcl:"version"`
	Tasks   []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	Name       string   `hcl:"name,label"`
	Difficulty float64  `hcl:"difficulty"`
	Priority   float64  `hcl:"priority"`
	External   float64  `hcl:"external"`
	Team       string   `hcl:"team,optional"`
	DependsOn  []string `hcl:"depends_on,optional"`
}

// ParseHCLDocument decodes an HCL document and applies the same schema and
// reference checks as ParseDocument. filename is only used in diagnostics.
func ParseHCLDocument(data []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl document %s: %w", filename, diags)
	}
	var parsed hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl document %s: %w", filename, diags)
	}

	doc := &Document{Version: parsed.Version, Tasks: make([]DocumentTask, 0, len(parsed.Tasks))}
	for _, t := range parsed.Tasks {
		doc.Tasks = append(doc.Tasks, DocumentTask{
			Name:       t.Name,
			Difficulty: t.Difficulty,
			Priority:   t.Priority,
			External:   t.External,
			Team:       t.Team,
			DependsOn:  t.DependsOn,
		})
	}

	// the schema is written against the JSON shape
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var raw any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}
	if err := doc.checkReferences(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Document) marshalHCL() []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("version", cty.NumberIntVal(int64(d.Version)))
	for _, t := range d.Tasks {
		body.AppendNewline()
		block := body.AppendNewBlock("task", []string{t.Name}).Body()
		block.SetAttributeValue("difficulty", cty.NumberFloatVal(t.Difficulty))
		block.SetAttributeValue("priority", cty.NumberFloatVal(t.Priority))
		block.SetAttributeValue("external", cty.NumberFloatVal(t.External))
		if t.Team != "" {
			block.SetAttributeValue("team", cty.StringVal(t.Team))
		}
		if len(t.DependsOn) > 0 {
			deps := make([]cty.Value, 0, len(t.DependsOn))
			for _, dep := range t.DependsOn {
				deps = append(deps, cty.StringVal(dep))
			}
			block.SetAttributeValue("depends_on", cty.ListVal(deps))
		}
	}
	return hclwrite.Format(f.Bytes())
}
