package executors

import (
	"fmt"

	"github.com/dshills/pipeline-go/graph"
)

// Ports describes the named input and output ports of a built-in node type.
type Ports struct {
	Inputs  []string
	Outputs []string
}

var builtinPorts = map[string]Ports{
	"customInput":  {Outputs: []string{"output"}},
	"input":        {Outputs: []string{"output"}},
	"customOutput": {Inputs: []string{"input"}},
	"output":       {Inputs: []string{"input"}},
	"text":         {Outputs: []string{"output", "processedText"}},
	"llm":          {Inputs: []string{"system", "prompt"}, Outputs: []string{"response", "model", "temperature"}},
	"transform":    {Inputs: []string{"data"}, Outputs: []string{"result", "operation", "error"}},
	"conditional":  {Inputs: []string{"input"}, Outputs: []string{"true", "false", "conditionMet"}},
	"api":          {Inputs: []string{"body"}, Outputs: []string{"response", "error"}},
	"database":     {Inputs: []string{"params"}, Outputs: []string{"result"}},
	"delay":        {Inputs: []string{"input"}, Outputs: []string{"output", "delayApplied"}},
}

// PortsFor returns the ports of node. Text nodes take one input per
// template variable; input and output nodes also expose their configured
// name. ok is false for types that are not built in.
func PortsFor(node graph.Node) (Ports, bool) {
	p, ok := builtinPorts[node.Type]
	if !ok {
		return Ports{}, false
	}
	p = Ports{
		Inputs:  append([]string(nil), p.Inputs...),
		Outputs: append([]string(nil), p.Outputs...),
	}
	switch node.Type {
	case "text":
		p.Inputs = TemplateVariables(configString(node.Config, "text", ""))
	case "customInput", "input":
		if name := configString(node.Config, "inputName", ""); name != "" {
			p.Outputs = append(p.Outputs, name)
		}
	case "customOutput", "output":
		if name := configString(node.Config, "outputName", ""); name != "" {
			p.Outputs = append(p.Outputs, name)
		}
		p.Outputs = append(p.Outputs, "result")
	}
	return p, true
}

// PortWarnings reports edges that name a port the connected built-in node
// does not have. Such edges still bind (the source falls back to "output"
// or the whole result), so these are warnings, not validation errors.
// Default ports are not checked.
func PortWarnings(nodes []graph.Node, edges []graph.Edge) []string {
	byID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	warnings := []string{}
	for _, e := range edges {
		if src, ok := byID[e.Source]; ok && e.SourcePort != "" {
			if p, known := PortsFor(src); known && !contains(p.Outputs, e.SourcePort) {
				warnings = append(warnings, fmt.Sprintf("edge %s: %s node %s has no output port %q", e.ID, src.Type, src.ID, e.SourcePort))
			}
		}
		if dst, ok := byID[e.Target]; ok && e.TargetPort != "" {
			if p, known := PortsFor(dst); known && !contains(p.Inputs, e.TargetPort) {
				warnings = append(warnings, fmt.Sprintf("edge %s: %s node %s has no input port %q", e.ID, dst.Type, dst.ID, e.TargetPort))
			}
		}
	}
	return warnings
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
