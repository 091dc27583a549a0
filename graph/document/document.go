// Package document loads pipelines from YAML or JSON files.
//
// A document lists nodes and edges:
//
//	name: summarize
//	nodes:
//	  - id: question
//	    type: customInput
//	    config: {value: "What is Go?"}
//	  - id: prompt
//	    type: text
//	    config: {text: "Answer briefly: {{question}}"}
//	edges:
//	  - {id: e1, source: question, target: prompt, targetPort: question}
//
// Editor exports are accepted as well: a node's "data" is read as its
// config, and an edge's "sourceHandle" / "targetHandle" as its ports.
// Unknown fields such as positions are ignored.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/pipeline-go/graph"
)

// Document is a parsed pipeline.
type Document struct {
	Name        string       `yaml:"name,omitempty" json:"name,omitempty"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Nodes       []graph.Node `yaml:"nodes" json:"nodes"`
	Edges       []graph.Edge `yaml:"edges" json:"edges"`
}

type rawDocument struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Nodes       yaml.Node `yaml:"nodes"`
	Edges       yaml.Node `yaml:"edges"`
}

type rawNode struct {
	ID     string         `yaml:"id"`
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
	Data   map[string]any `yaml:"data"`
}

type rawEdge struct {
	ID           string `yaml:"id"`
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	SourcePort   string `yaml:"sourcePort"`
	TargetPort   string `yaml:"targetPort"`
	SourceHandle string `yaml:"sourceHandle"`
	TargetHandle string `yaml:"targetHandle"`
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a YAML or JSON document. Structural checks (ids, dangling
// edges, cycles) are left to graph.Validate; Parse only rejects input that
// cannot be read as nodes and edges.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty pipeline document")
	}

	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}

	doc := &Document{
		Name:        raw.Name,
		Description: raw.Description,
		Nodes:       []graph.Node{},
		Edges:       []graph.Edge{},
	}

	var nodes []rawNode
	if err := decodeSequence(&raw.Nodes, "nodes", &nodes); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, n.node())
	}

	var edges []rawEdge
	if err := decodeSequence(&raw.Edges, "edges", &edges); err != nil {
		return nil, err
	}
	for _, e := range edges {
		doc.Edges = append(doc.Edges, e.edge())
	}
	return doc, nil
}

// decodeSequence decodes a list field into out. An absent or null field
// leaves out empty.
func decodeSequence(n *yaml.Node, field string, out any) error {
	switch {
	case n.Kind == 0:
		return nil
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil
	case n.Kind != yaml.SequenceNode:
		return fmt.Errorf("%s must be a sequence (line %d)", field, n.Line)
	}
	if err := n.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

func (n rawNode) node() graph.Node {
	var cfg map[string]any
	if len(n.Data) > 0 || len(n.Config) > 0 {
		cfg = make(map[string]any, len(n.Data)+len(n.Config))
		for k, v := range n.Data {
			cfg[k] = normalize(v)
		}
		for k, v := range n.Config {
			cfg[k] = normalize(v)
		}
	}
	return graph.Node{ID: n.ID, Type: n.Type, Config: cfg}
}

func (e rawEdge) edge() graph.Edge {
	out := graph.Edge{
		ID:         e.ID,
		Source:     e.Source,
		Target:     e.Target,
		SourcePort: e.SourcePort,
		TargetPort: e.TargetPort,
	}
	if out.SourcePort == "" {
		out.SourcePort = e.SourceHandle
	}
	if out.TargetPort == "" {
		out.TargetPort = e.TargetHandle
	}
	return out
}

// normalize makes YAML-decoded values look like JSON-decoded ones: every
// number is a float64 and every mapping has string keys.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	}
	return v
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode pipeline: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode pipeline: %w", err)
	}
	return buf.Bytes(), nil
}
