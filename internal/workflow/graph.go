package workflow

import "ai-workflow-hub/backend/pkg/models"

// Graph is a read-only view over a workflow's nodes and edges. Edges are not
// required to reference existing nodes.
type Graph struct {
	nodes []models.Node
	edges []models.Edge
	index map[string]int
}

// NewGraph indexes nodes by id. When ids repeat, the first declaration wins.
func NewGraph(nodes []models.Node, edges []models.Edge) *Graph {
	g := &Graph{
		nodes: nodes,
		edges: edges,
		index: make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		if _, dup := g.index[n.ID]; !dup {
			g.index[n.ID] = i
		}
	}
	return g
}

// Nodes returns a copy of the nodes in declaration order.
func (g *Graph) Nodes() []models.Node {
	return append([]models.Node(nil), g.nodes...)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (models.Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return models.Node{}, false
	}
	return g.nodes[i], true
}

// StartNodes returns the nodes no edge points at, in declaration order. A
// non-empty graph where every node has an incoming edge starts from its first
// declared node.
func (g *Graph) StartNodes() []models.Node {
	targeted := make(map[string]bool, len(g.edges))
	for _, e := range g.edges {
		targeted[e.Target] = true
	}

	var start []models.Node
	for _, n := range g.nodes {
		if !targeted[n.ID] {
			start = append(start, n)
		}
	}
	if len(start) == 0 && len(g.nodes) > 0 {
		start = []models.Node{g.nodes[0]}
	}
	return start
}

// Predecessors returns the edges ending at id, in declaration order.
func (g *Graph) Predecessors(id string) []models.Edge {
	var out []models.Edge
	for _, e := range g.edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Successors returns the edges leaving id, in declaration order.
func (g *Graph) Successors(id string) []models.Edge {
	var out []models.Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}
