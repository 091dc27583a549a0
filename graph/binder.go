package graph

// CollectInputs assembles the inputs of nodeID from the results of its
// predecessors.
//
// Edges targeting nodeID are visited in edge-list order. For each edge whose
// source has a successful result, the value bound under the target port
// (default "input") is, in order of preference: the output named by the
// source port, the source's "output" value, or the whole outputs map. Sources
// that have no result yet, or whose result is an error marker, contribute
// nothing. When two edges bind the same target port the later edge wins.
//
// Presence is tested by key, so falsy values such as 0, "" or false are
// bound as-is.
func CollectInputs(nodeID string, edges []Edge, results map[string]ExecutionResult) Inputs {
	inputs := Inputs{}
	for _, e := range edges {
		if e.Target != nodeID {
			continue
		}
		res, ok := results[e.Source]
		if !ok || res.Failed() {
			continue
		}
		inputs[e.TargetPortOrDefault()] = selectOutput(res.Outputs, e.SourcePortOrDefault())
	}
	return inputs
}

func selectOutput(out Outputs, port string) any {
	if v, ok := out[port]; ok {
		return v
	}
	if v, ok := out[DefaultSourcePort]; ok {
		return v
	}
	return map[string]any(out)
}
