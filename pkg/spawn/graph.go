package spawn

import "github.com/matzehuels/stackscope/pkg/goroutine"

// Node is a signature, a creating function, or both.
type Node struct {
	ID      string
	Count   int // Goroutines whose signature is ID
	Spawned int // Goroutines created by ID
}

// IsCreatorOnly reports whether no goroutine in the dump has ID as its
// signature.
func (n *Node) IsCreatorOnly() bool { return n.Count == 0 }

// Edge links a creating function to the signature of the goroutines it
// started.
type Edge struct {
	From  string
	To    string
	Count int
}

type edgeKey struct{ from, to string }

// Graph is a weighted spawn graph. Nodes and edges keep the order in which
// they first appear in the input.
type Graph struct {
	nodes     []*Node
	nodeIndex map[string]*Node
	edges     []*Edge
	edgeIndex map[edgeKey]*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[edgeKey]*Edge),
	}
}

// Build adds every record to a new graph. Creator names come straight from
// the "created by" line, so only canon's prefixes are applied to them.
func Build(records []goroutine.Record, canon goroutine.Canonicalizer) *Graph {
	g := New()
	for _, r := range records {
		g.Add(r, canon)
	}
	return g
}

// Add records one goroutine.
func (g *Graph) Add(r goroutine.Record, canon goroutine.Canonicalizer) {
	g.node(r.TopFunction).Count++
	if r.CreatedByFunction == "" {
		return
	}

	from := canon.TrimPrefix(r.CreatedByFunction)
	g.node(from).Spawned++

	key := edgeKey{from, r.TopFunction}
	e, ok := g.edgeIndex[key]
	if !ok {
		e = &Edge{From: from, To: r.TopFunction}
		g.edgeIndex[key] = e
		g.edges = append(g.edges, e)
	}
	e.Count++
}

func (g *Graph) node(id string) *Node {
	if n, ok := g.nodeIndex[id]; ok {
		return n
	}
	n := &Node{ID: id}
	g.nodeIndex[id] = n
	g.nodes = append(g.nodes, n)
	return n
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodeIndex[id]
	return n, ok
}

// Nodes returns all nodes in first-appearance order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns all edges in first-appearance order.
func (g *Graph) Edges() []*Edge { return g.edges }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }
