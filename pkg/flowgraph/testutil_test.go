package flowgraph

import (
	"context"
	"sync"
)

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}

// eventLog records node events in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (t *eventLog) add(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *eventLog) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.events))
	copy(out, t.events)
	return out
}

// scripted returns a node that records its name on each execution and
// returns actions in order. The last action repeats once the script is
// exhausted.
func scripted(name string, tr *eventLog, actions ...Action) Node {
	calls := 0
	return NodeFuncs{
		ExecuteFunc: func(ctx Context, _ any) (any, error) {
			tr.add(name)
			return nil, nil
		},
		FinalizeFunc: func(ctx Context, _ *Shared, _, _ any) (Action, error) {
			i := calls
			if i >= len(actions) {
				i = len(actions) - 1
			}
			calls++
			return actions[i], nil
		},
	}
}

// declared attaches a declared action set to a node.
type declared struct {
	Node
	actions []Action
}

func (d declared) Actions() []Action {
	return d.actions
}

func withActions(n Node, actions ...Action) Node {
	return declared{Node: n, actions: actions}
}

// trackedCloser counts Close calls.
type trackedCloser struct {
	mu     sync.Mutex
	closed int
	err    error
}

func (c *trackedCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return c.err
}

func (c *trackedCloser) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// closerNode returns a node whose prepare result is c.
func closerNode(c *trackedCloser, exec func(ctx Context, prep any) (any, error)) Node {
	return NodeFuncs{
		PrepareFunc: func(ctx Context, _ *Shared) (any, error) {
			return c, nil
		},
		ExecuteFunc: exec,
	}
}

// noop is a node that does nothing and returns ActionContinue.
var noop Node = NodeFuncs{}
