package flowgraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for creating execution graphs.
// Use NewGraph to create a new graph, then chain AddNode, AddEdge,
// and SetEntry calls to define the workflow.
//
// Graph is NOT thread-safe during building. Use a single goroutine
// to construct the graph, then call Compile() to create an immutable
// CompiledGraph that can be safely shared.
//
// Example:
//
//	graph := flowgraph.NewGraph().
//	    AddNode("wake", wakeNode).
//	    AddNode("capture", captureNode).
//	    AddEdge("wake", flowgraph.ActionContinue, "capture").
//	    AddEdge("wake", flowgraph.ActionListen, "wake").
//	    AddEdge("capture", flowgraph.ActionError, "wake").
//	    SetEntry("wake")
//
//	compiled, err := graph.Compile()
type Graph struct {
	mu         sync.RWMutex
	nodes      map[string]Node
	order      []string
	edges      []edge
	entryPoint string
}

// edge is one labeled transition as declared on the builder.
type edge struct {
	from   string
	action Action
	to     string
}

// NewGraph creates a new graph builder.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
	}
}

// AddNode adds a named node to the graph.
// Returns the graph for method chaining.
//
// Panics if:
//   - id is empty
//   - id is the reserved word "END" or "__end__" (case-insensitive)
//   - id contains whitespace (space, tab, newline)
//   - node is nil
//   - id already exists in the graph
func (g *Graph) AddNode(id string, node Node) *Graph {
	if id == "" {
		panic("flowgraph: node ID cannot be empty")
	}

	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == "__end__" {
		panic("flowgraph: node ID cannot be reserved word 'END'")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("flowgraph: node ID cannot contain whitespace")
	}

	if node == nil {
		panic("flowgraph: node cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("flowgraph: duplicate node ID: %s", id))
	}

	g.nodes[id] = node
	g.order = append(g.order, id)
	return g
}

// AddEdge routes action returned by from to the node to.
// The target can be a node ID or flowgraph.END.
// Returns the graph for method chaining.
//
// Panics if action is empty. Everything else (unknown nodes, duplicate
// labels, undeclared actions) is reported by Compile(), so edges can be
// added in any order.
func (g *Graph) AddEdge(from string, action Action, to string) *Graph {
	if action == "" {
		panic("flowgraph: edge action cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = append(g.edges, edge{from: from, action: action, to: to})
	return g
}

// SetEntry designates the entry point node.
// This must be called before Compile().
// Returns the graph for method chaining.
func (g *Graph) SetEntry(id string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}
