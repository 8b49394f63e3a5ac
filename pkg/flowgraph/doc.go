/*
Package flowgraph provides graph-based orchestration of stateful nodes.

# Overview

flowgraph executes directed graphs whose nodes perform work and whose edges
are labeled with actions. Each node runs a three-phase lifecycle:

  - Prepare reads or initializes shared state and performs trivial setup
  - Execute does the work; it is the only phase allowed to block
  - Finalize writes results back and returns an Action

The executor follows the edge registered for (node, action). An action with
no edge ends the run normally, as does an edge to END.

# Basic Usage

	type greet struct{}

	func (greet) Prepare(ctx flowgraph.Context, s *flowgraph.Shared) (string, error) {
	    name, _ := nameKey.Get(s)
	    return name, nil
	}

	func (greet) Execute(ctx flowgraph.Context, name string) (string, error) {
	    return "hello " + name, nil
	}

	func (greet) Finalize(ctx flowgraph.Context, s *flowgraph.Shared, _ string, msg string) (flowgraph.Action, error) {
	    return flowgraph.ActionEnd, greetingKey.Set(s, msg)
	}

	graph := flowgraph.NewGraph().
	    AddNode("greet", flowgraph.Lift[string, string](greet{})).
	    SetEntry("greet")

	compiled, err := graph.Compile()
	if err != nil {
	    log.Fatal(err)
	}

	ctx := flowgraph.NewContext(context.Background())
	shared, err := compiled.Run(ctx, flowgraph.NewShared())

# Loops and Retries

Loops are plain edges back to the same or an earlier node. The engine never
retries on its own:

	graph.
	    AddEdge("wake", flowgraph.ActionListen, "wake").     // keep listening
	    AddEdge("wake", flowgraph.ActionContinue, "capture").
	    AddEdge("capture", flowgraph.ActionError, "wake").   // discard and listen again
	    AddEdge("capture", flowgraph.ActionContinue, flowgraph.END)

Runs are unbounded by default. Use WithMaxIterations to cap them.

# Construction-Time Checks

Compile turns the edges into a transition table and rejects graphs with
unknown nodes, duplicate (node, action) routes, edge sources unreachable from
the entry, and entries with no way to terminate. Nodes implementing
ActionDeclarer also have their edge labels checked against the actions they
can return.

# Shared State

Shared maps string keys to values. A key keeps the type it was created with
for the rest of the run. Key[T] gives typed access:

	var audioKey = flowgraph.NewKey[*AudioData]("audio_data")

	data, err := audioKey.GetOrInit(shared, newAudioData)

# Resources

A prepare result that implements io.Closer is closed by the executor after
Finalize, or immediately when a phase fails or panics. Nodes that open
devices in Prepare rely on this for cleanup.

# Observability

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shared, err := compiled.Run(ctx, shared,
	    flowgraph.WithObservabilityLogger(logger),
	    flowgraph.WithMetrics(true),
	    flowgraph.WithTracing(true),
	    flowgraph.WithJournal(journal.NewMemoryStore()))

Logs include structured fields: run_id, node_id, action, next, duration_ms.
OpenTelemetry metrics: flowgraph.node.executions, flowgraph.node.duration,
flowgraph.transitions, etc. Spans: flowgraph.run > flowgraph.node.{id}.

# Error Handling

	_, err := compiled.Run(ctx, shared)
	var nodeErr *flowgraph.NodeError
	if errors.As(err, &nodeErr) {
	    log.Printf("node %s failed in %s: %v", nodeErr.NodeID, nodeErr.Op, nodeErr.Err)
	}

Panics in any phase are recovered and converted to PanicError with a stack
trace.

# Thread Safety

  - Graph is NOT safe for concurrent use during construction
  - CompiledGraph is immutable; its nodes are shared between runs
  - Shared is owned by one run and not synchronized
  - Journal stores are safe for concurrent use

# Subpackages

  - config: typed configuration loaded from YAML or JSON
  - journal: transition journal storage (memory, SQLite)
  - observability: logging, metrics, and tracing helpers
*/
package flowgraph
