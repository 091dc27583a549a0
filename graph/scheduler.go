package graph

// Arc is one outgoing connection in the dependency graph, carrying the port
// names of the edge it was built from.
type Arc struct {
	Target     string
	SourcePort string
	TargetPort string
}

// DependencyGraph is the adjacency and in-degree view of a pipeline used by
// the scheduler.
type DependencyGraph struct {
	// Adjacency maps a node ID to its outgoing arcs, in edge-list order.
	Adjacency map[string][]Arc

	// InDegree counts incoming edges per node. Every node has an entry.
	InDegree map[string]int
}

// BuildDependencyGraph derives adjacency and in-degree from the node and
// edge lists. Edges whose source is not a known node are ignored.
func BuildDependencyGraph(nodes []Node, edges []Edge) DependencyGraph {
	g := DependencyGraph{
		Adjacency: make(map[string][]Arc, len(nodes)),
		InDegree:  make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		g.Adjacency[n.ID] = nil
		g.InDegree[n.ID] = 0
	}
	for _, e := range edges {
		if _, ok := g.InDegree[e.Source]; !ok {
			continue
		}
		g.Adjacency[e.Source] = append(g.Adjacency[e.Source], Arc{
			Target:     e.Target,
			SourcePort: e.SourcePortOrDefault(),
			TargetPort: e.TargetPortOrDefault(),
		})
		if _, ok := g.InDegree[e.Target]; ok {
			g.InDegree[e.Target]++
		}
	}
	return g
}

// TopologicalOrder computes a dependency-respecting execution order using
// Kahn's algorithm with a FIFO queue seeded in node-list order. Ties are
// therefore broken by the order nodes and edges were supplied in, which makes
// the result deterministic for identical input.
//
// If the graph contains a cycle the returned order is partial and the error
// is a *CycleError (matching ErrCycle) naming the unscheduled nodes.
func TopologicalOrder(nodes []Node, edges []Edge) ([]string, error) {
	g := BuildDependencyGraph(nodes, edges)

	inDegree := make(map[string]int, len(g.InDegree))
	for id, d := range g.InDegree {
		inDegree[id] = d
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]string, 0, len(nodes))
	scheduled := make(map[string]bool, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if scheduled[id] {
			continue
		}
		scheduled[id] = true
		order = append(order, id)

		for _, arc := range g.Adjacency[id] {
			if _, ok := inDegree[arc.Target]; !ok {
				continue
			}
			inDegree[arc.Target]--
			if inDegree[arc.Target] == 0 {
				queue = append(queue, arc.Target)
			}
		}
	}

	if len(order) < len(nodes) {
		var rest []string
		for _, n := range nodes {
			if !scheduled[n.ID] {
				rest = append(rest, n.ID)
			}
		}
		return order, &CycleError{Unscheduled: rest}
	}
	return order, nil
}

// Analysis summarizes a pipeline's shape.
type Analysis struct {
	NumNodes int  `json:"num_nodes"`
	NumEdges int  `json:"num_edges"`
	IsDAG    bool `json:"is_dag"`
}

// Analyze counts nodes and edges and reports whether the graph is acyclic.
func Analyze(nodes []Node, edges []Edge) Analysis {
	_, err := TopologicalOrder(nodes, edges)
	return Analysis{
		NumNodes: len(nodes),
		NumEdges: len(edges),
		IsDAG:    err == nil,
	}
}

// findCycle returns one cycle as a closed path (first element repeated at
// the end), or nil when the graph is acyclic. The DFS visits nodes in
// node-list order and arcs in edge-list order, so the witness is stable.
func findCycle(nodes []Node, g DependencyGraph) []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(nodes))
	parent := make(map[string]string, len(nodes))
	var cycle []string

	var dfs func(u string) bool
	dfs = func(u string) bool {
		color[u] = gray
		for _, arc := range g.Adjacency[u] {
			v := arc.Target
			if _, known := g.InDegree[v]; !known {
				continue
			}
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v closes the cycle v ... u -> v.
				cycle = append(cycle, v)
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, n := range nodes {
		if color[n.ID] == white && dfs(n.ID) {
			break
		}
	}
	if cycle == nil {
		return nil
	}

	out := make([]string, len(cycle))
	for i := range cycle {
		out[i] = cycle[len(cycle)-1-i]
	}
	return out
}
