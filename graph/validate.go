package graph

import (
	"fmt"
	"strings"
)

// DefaultSourceTypes are the node types treated as pipeline entry points.
var DefaultSourceTypes = []string{"customInput", "input"}

// DefaultSinkTypes are the node types treated as pipeline exit points.
var DefaultSinkTypes = []string{"customOutput", "output"}

// Validate checks the structural integrity of a pipeline with the default
// source and sink types. See Validator.Validate.
func Validate(nodes []Node, edges []Edge) ValidationReport {
	return Validator{}.Validate(nodes, edges)
}

// Validator checks pipeline structure. The zero value uses DefaultSourceTypes
// and DefaultSinkTypes for the connectivity warnings.
type Validator struct {
	SourceTypes []string
	SinkTypes   []string
}

// Validate reports every structural error and connectivity warning found in
// the pipeline. It never fails: problems are collected in the report, and the
// same input always yields an identical report.
//
// Errors cover an empty pipeline, missing or duplicate node and edge ids,
// missing node types, dangling edge endpoints, and cycles. Cycles are
// reported even when other structural errors are present.
// Warnings flag entry nodes with incoming edges, exit nodes with outgoing
// edges, and other nodes lacking inputs or outputs.
func (v Validator) Validate(nodes []Node, edges []Edge) ValidationReport {
	report := ValidationReport{Errors: []string{}, Warnings: []string{}}
	errorf := func(format string, args ...any) {
		report.Errors = append(report.Errors, fmt.Sprintf(format, args...))
	}
	warnf := func(format string, args ...any) {
		report.Warnings = append(report.Warnings, fmt.Sprintf(format, args...))
	}

	if len(nodes) == 0 {
		errorf("pipeline must contain at least one node")
		return report
	}

	nodeIDs := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			errorf("node at index %d is missing an id", i)
			continue
		}
		if nodeIDs[n.ID] {
			errorf("duplicate node id: %s", n.ID)
		}
		nodeIDs[n.ID] = true
		if n.Type == "" {
			errorf("node %s is missing a type", n.ID)
		}
	}

	edgeIDs := make(map[string]bool, len(edges))
	for i, e := range edges {
		if e.ID == "" {
			errorf("edge at index %d is missing an id", i)
		} else {
			if edgeIDs[e.ID] {
				errorf("duplicate edge id: %s", e.ID)
			}
			edgeIDs[e.ID] = true
		}

		label := e.ID
		if label == "" {
			label = fmt.Sprintf("at index %d", i)
		}
		switch {
		case e.Source == "":
			errorf("edge %s is missing source", label)
		case !nodeIDs[e.Source]:
			errorf("edge %s references non-existent source node: %s", label, e.Source)
		}
		switch {
		case e.Target == "":
			errorf("edge %s is missing target", label)
		case !nodeIDs[e.Target]:
			errorf("edge %s references non-existent target node: %s", label, e.Target)
		}
	}

	// Kahn runs over the first node of each distinct id so duplicates do
	// not read as unscheduled. Dangling edges are already ignored there.
	unique := uniqueNodes(nodes)
	if _, err := TopologicalOrder(unique, edges); err != nil {
		msg := "pipeline contains cycles - not a valid DAG"
		if path := findCycle(unique, BuildDependencyGraph(unique, edges)); len(path) > 0 {
			msg += " (" + strings.Join(path, " -> ") + ")"
		}
		errorf("%s", msg)
	}

	v.connectivityWarnings(nodes, edges, warnf)

	report.IsValid = len(report.Errors) == 0
	return report
}

func (v Validator) connectivityWarnings(nodes []Node, edges []Edge, warnf func(string, ...any)) {
	sources := typeSet(v.SourceTypes, DefaultSourceTypes)
	sinks := typeSet(v.SinkTypes, DefaultSinkTypes)

	incoming := make(map[string]int, len(nodes))
	outgoing := make(map[string]int, len(nodes))
	for _, e := range edges {
		if e.Target != "" {
			incoming[e.Target]++
		}
		if e.Source != "" {
			outgoing[e.Source]++
		}
	}

	warned := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" || warned[n.ID] {
			continue
		}
		warned[n.ID] = true

		isSource, isSink := sources[n.Type], sinks[n.Type]
		if isSource && incoming[n.ID] > 0 {
			warnf("input node %s has incoming connections", n.ID)
		}
		if isSink && outgoing[n.ID] > 0 {
			warnf("output node %s has outgoing connections", n.ID)
		}
		if !isSource && incoming[n.ID] == 0 {
			warnf("node %s has no input connections", n.ID)
		}
		if !isSink && outgoing[n.ID] == 0 {
			warnf("node %s has no output connections", n.ID)
		}
	}
}

func typeSet(types, fallback []string) map[string]bool {
	if len(types) == 0 {
		types = fallback
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// uniqueNodes drops nodes without an id and every repeat of an id.
func uniqueNodes(nodes []Node) []Node {
	seen := make(map[string]bool, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}
