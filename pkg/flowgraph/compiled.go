package flowgraph

import "sort"

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder.
//
// CompiledGraph holds no run state and can be used for several Run() calls,
// but its nodes are shared between those runs. Nodes that own devices
// must not be driven by two runs at once.
type CompiledGraph struct {
	ids         []string
	nodes       []Node
	index       map[string]int
	transitions []map[Action]int // node index -> action -> successor index or terminal
	entry       int
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph) EntryPoint() string {
	return cg.ids[cg.entry]
}

// NodeIDs returns all node identifiers in insertion order.
func (cg *CompiledGraph) NodeIDs() []string {
	ids := make([]string, len(cg.ids))
	copy(ids, cg.ids)
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph) HasNode(id string) bool {
	_, exists := cg.index[id]
	return exists
}

// Next returns the node that follows id when it returns action.
// The second result is false when the pair is unmapped, which ends a run.
// A mapping to END returns (END, true).
func (cg *CompiledGraph) Next(id string, action Action) (string, bool) {
	i, ok := cg.index[id]
	if !ok {
		return "", false
	}
	next, ok := cg.transitions[i][action]
	if !ok {
		return "", false
	}
	if next == terminal {
		return END, true
	}
	return cg.ids[next], true
}

// Routes returns the actions routed out of id, sorted.
func (cg *CompiledGraph) Routes(id string) []Action {
	i, ok := cg.index[id]
	if !ok {
		return nil
	}
	actions := make([]Action, 0, len(cg.transitions[i]))
	for a := range cg.transitions[i] {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(a, b int) bool { return actions[a] < actions[b] })
	return actions
}

// Successors returns the distinct node IDs reachable from id in one step.
// END is included when a route terminates the run.
func (cg *CompiledGraph) Successors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range cg.Routes(id) {
		next, _ := cg.Next(id, a)
		if !seen[next] {
			seen[next] = true
			out = append(out, next)
		}
	}
	return out
}

// Predecessors returns the node IDs that have an edge into id.
func (cg *CompiledGraph) Predecessors(id string) []string {
	target, ok := cg.index[id]
	if !ok {
		return nil
	}
	var out []string
	for i, routes := range cg.transitions {
		for _, next := range routes {
			if next == target {
				out = append(out, cg.ids[i])
				break
			}
		}
	}
	return out
}

// step returns the successor index for (node, action).
func (cg *CompiledGraph) step(node int, action Action) (int, bool) {
	next, ok := cg.transitions[node][action]
	return next, ok
}
