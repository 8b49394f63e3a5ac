package flowgraph

// END is the terminal node identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// Action is the routing label a node returns from its finalize phase.
// Actions carry no payload; they only select the outgoing edge.
type Action string

// Common action labels.
const (
	ActionContinue Action = "continue"
	ActionListen   Action = "listen"
	ActionError    Action = "error"
	ActionEnd      Action = "end"
)

// Node is a unit of work with a three-phase lifecycle.
//
// The executor calls Prepare, then Execute with the prepare result, then
// Finalize with both results. Finalize returns the Action used to pick the
// next node.
//
//   - Prepare may read or initialize shared state and perform trivial setup
//     (opening a device handle). It must not block.
//   - Execute is the only phase allowed to block. It does not see the shared
//     state; everything it needs comes from the prepare result.
//   - Finalize writes results into shared state and returns the action.
//
// If the prepare result implements io.Closer, the executor closes it once
// Finalize returns, or as soon as an earlier phase fails or panics.
//
// Most nodes are easier to write as a Lifecycle and adapted with Lift.
type Node interface {
	Prepare(ctx Context, shared *Shared) (any, error)
	Execute(ctx Context, prep any) (any, error)
	Finalize(ctx Context, shared *Shared, prep, exec any) (Action, error)
}

// ActionDeclarer is implemented by nodes that know every action they can
// return. Compile rejects edges labeled with an action outside this set.
type ActionDeclarer interface {
	Actions() []Action
}

// Lifecycle is the typed form of Node.
// P is the prepare result and E the execute result.
//
// Example:
//
//	type greet struct{}
//
//	func (greet) Prepare(ctx flowgraph.Context, s *flowgraph.Shared) (string, error) {
//	    name, _ := nameKey.Get(s)
//	    return name, nil
//	}
//
//	func (greet) Execute(ctx flowgraph.Context, name string) (string, error) {
//	    return "hello " + name, nil
//	}
//
//	func (greet) Finalize(ctx flowgraph.Context, s *flowgraph.Shared, _ string, msg string) (flowgraph.Action, error) {
//	    return flowgraph.ActionContinue, greetingKey.Set(s, msg)
//	}
type Lifecycle[P, E any] interface {
	Prepare(ctx Context, shared *Shared) (P, error)
	Execute(ctx Context, prep P) (E, error)
	Finalize(ctx Context, shared *Shared, prep P, exec E) (Action, error)
}

// Lift adapts a typed Lifecycle to the Node interface.
// If l also implements ActionDeclarer, so does the returned Node.
func Lift[P, E any](l Lifecycle[P, E]) Node {
	if l == nil {
		panic("flowgraph: lifecycle cannot be nil")
	}
	if d, ok := l.(ActionDeclarer); ok {
		return &declaredNode[P, E]{lifted: lifted[P, E]{l: l}, d: d}
	}
	return &lifted[P, E]{l: l}
}

type lifted[P, E any] struct {
	l Lifecycle[P, E]
}

func (n *lifted[P, E]) Prepare(ctx Context, shared *Shared) (any, error) {
	return n.l.Prepare(ctx, shared)
}

func (n *lifted[P, E]) Execute(ctx Context, prep any) (any, error) {
	p, _ := prep.(P)
	return n.l.Execute(ctx, p)
}

func (n *lifted[P, E]) Finalize(ctx Context, shared *Shared, prep, exec any) (Action, error) {
	p, _ := prep.(P)
	e, _ := exec.(E)
	return n.l.Finalize(ctx, shared, p, e)
}

type declaredNode[P, E any] struct {
	lifted[P, E]
	d ActionDeclarer
}

func (n *declaredNode[P, E]) Actions() []Action {
	return n.d.Actions()
}

// NodeFuncs builds a Node from plain functions. Nil phases are skipped:
// a nil Prepare yields a nil prepare result, a nil Execute a nil execute
// result, and a nil Finalize returns ActionContinue.
type NodeFuncs struct {
	PrepareFunc  func(ctx Context, shared *Shared) (any, error)
	ExecuteFunc  func(ctx Context, prep any) (any, error)
	FinalizeFunc func(ctx Context, shared *Shared, prep, exec any) (Action, error)
}

// Prepare implements Node.
func (f NodeFuncs) Prepare(ctx Context, shared *Shared) (any, error) {
	if f.PrepareFunc == nil {
		return nil, nil
	}
	return f.PrepareFunc(ctx, shared)
}

// Execute implements Node.
func (f NodeFuncs) Execute(ctx Context, prep any) (any, error) {
	if f.ExecuteFunc == nil {
		return nil, nil
	}
	return f.ExecuteFunc(ctx, prep)
}

// Finalize implements Node.
func (f NodeFuncs) Finalize(ctx Context, shared *Shared, prep, exec any) (Action, error) {
	if f.FinalizeFunc == nil {
		return ActionContinue, nil
	}
	return f.FinalizeFunc(ctx, shared, prep, exec)
}
