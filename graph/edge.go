package graph

// Default port names used when an edge leaves a port unset.
const (
	DefaultSourcePort = "output"
	DefaultTargetPort = "input"
)

// Edge is a directed connection that carries one named output of the
// source node into one named input of the target node.
//
// Edges double as dependency declarations: the target runs only after the
// source has been executed.
type Edge struct {
	// ID uniquely identifies the edge within a pipeline.
	ID string `json:"id" yaml:"id"`

	// Source is the producing node ID.
	Source string `json:"source" yaml:"source"`

	// Target is the consuming node ID.
	Target string `json:"target" yaml:"target"`

	// SourcePort names the output key read from the source result.
	// Empty means DefaultSourcePort.
	SourcePort string `json:"sourcePort,omitempty" yaml:"sourcePort,omitempty"`

	// TargetPort names the input key written on the target.
	// Empty means DefaultTargetPort.
	TargetPort string `json:"targetPort,omitempty" yaml:"targetPort,omitempty"`
}

// SourcePortOrDefault returns SourcePort, or DefaultSourcePort when unset.
func (e Edge) SourcePortOrDefault() string {
	if e.SourcePort == "" {
		return DefaultSourcePort
	}
	return e.SourcePort
}

// TargetPortOrDefault returns TargetPort, or DefaultTargetPort when unset.
func (e Edge) TargetPortOrDefault() string {
	if e.TargetPort == "" {
		return DefaultTargetPort
	}
	return e.TargetPort
}
