package flowgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// terminal marks a transition that ends the run.
const terminal = -1

// Compile validates the graph and creates an executable CompiledGraph.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks:
//  1. Entry point must be set and reference an existing node
//  2. Edge sources must reference existing nodes
//  3. Edge targets must reference existing nodes or END
//  4. A (node, action) pair may only be routed once
//  5. Edges from nodes implementing ActionDeclarer must use declared actions
//  6. Every edge source must be reachable from the entry
//  7. The entry must have a path to termination
//
// Nodes that are never an edge source and are unreachable are logged as
// warnings but do not cause compilation to fail.
func (g *Graph) Compile() (*CompiledGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := g.nodes[g.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	seen := make(map[string]map[Action]bool)
	for _, e := range g.edges {
		src, srcOK := g.nodes[e.from]
		if !srcOK {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, e.from))
		}
		if e.to != END {
			if _, exists := g.nodes[e.to]; !exists {
				errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, e.to))
			}
		}

		if seen[e.from] == nil {
			seen[e.from] = make(map[Action]bool)
		}
		if seen[e.from][e.action] {
			errs = append(errs, fmt.Errorf("%w: %s --%s-->", ErrDuplicateEdge, e.from, e.action))
		}
		seen[e.from][e.action] = true

		if srcOK {
			if d, ok := src.(ActionDeclarer); ok && !slices.Contains(d.Actions(), e.action) {
				errs = append(errs, fmt.Errorf("%w: node '%s' never returns %q", ErrUndeclaredAction, e.from, e.action))
			}
		}
	}

	if _, exists := g.nodes[g.entryPoint]; exists {
		reachable := g.findReachableNodes()
		for _, id := range g.order {
			if reachable[id] {
				continue
			}
			if _, isSource := seen[id]; isSource {
				errs = append(errs, fmt.Errorf("%w: '%s'", ErrUnreachableNode, id))
			} else {
				slog.Warn("node is unreachable from entry", "node_id", id)
			}
		}

		if !g.hasPathToEnd() {
			errs = append(errs, ErrNoPathToEnd)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

// canTerminate reports whether the node itself can end a run: it routes an
// action to END, or it may return an action with no outgoing edge.
// Nodes that do not declare their actions are assumed to be able to.
func (g *Graph) canTerminate(id string) bool {
	routed := make(map[Action]bool)
	for _, e := range g.edges {
		if e.from != id {
			continue
		}
		if e.to == END {
			return true
		}
		routed[e.action] = true
	}

	d, ok := g.nodes[id].(ActionDeclarer)
	if !ok {
		return true
	}
	for _, a := range d.Actions() {
		if !routed[a] {
			return true
		}
	}
	return false
}

// hasPathToEnd checks if the entry can reach a terminating node.
func (g *Graph) hasPathToEnd() bool {
	canReachEnd := make(map[string]bool)
	for id := range g.nodes {
		if g.canTerminate(id) {
			canReachEnd[id] = true
		}
	}

	// Keep propagating until no changes
	changed := true
	for changed {
		changed = false
		for _, e := range g.edges {
			if !canReachEnd[e.from] && canReachEnd[e.to] {
				canReachEnd[e.from] = true
				changed = true
			}
		}
	}

	return canReachEnd[g.entryPoint]
}

// findReachableNodes returns the set of nodes reachable from the entry point.
func (g *Graph) findReachableNodes() map[string]bool {
	reachable := make(map[string]bool)

	if g.entryPoint == "" {
		return reachable
	}

	// BFS from entry
	queue := []string{g.entryPoint}
	reachable[g.entryPoint] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.edges {
			if e.from != current || e.to == END || reachable[e.to] {
				continue
			}
			reachable[e.to] = true
			queue = append(queue, e.to)
		}
	}

	return reachable
}

// buildCompiledGraph creates the immutable CompiledGraph from the builder
// state. Node IDs become indices; edges become a per-node transition table.
func (g *Graph) buildCompiledGraph() *CompiledGraph {
	index := make(map[string]int, len(g.order))
	ids := make([]string, len(g.order))
	nodes := make([]Node, len(g.order))
	for i, id := range g.order {
		index[id] = i
		ids[i] = id
		nodes[i] = g.nodes[id]
	}

	transitions := make([]map[Action]int, len(nodes))
	for i := range transitions {
		transitions[i] = make(map[Action]int)
	}
	for _, e := range g.edges {
		next := terminal
		if e.to != END {
			next = index[e.to]
		}
		transitions[index[e.from]][e.action] = next
	}

	return &CompiledGraph{
		ids:         ids,
		nodes:       nodes,
		index:       index,
		transitions: transitions,
		entry:       index[g.entryPoint],
	}
}
