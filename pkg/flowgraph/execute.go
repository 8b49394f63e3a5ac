package flowgraph

import (
	"context"
	"io"
	"runtime/debug"
	"slices"
	"time"

	"github.com/randalmurphal/wakeflow/pkg/flowgraph/journal"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/observability"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph against shared and returns it.
// A nil shared starts the run with an empty one.
//
// Execution flow:
//  1. Start at the entry point node
//  2. Check for cancellation
//  3. Prepare, execute and finalize the current node
//  4. Follow the edge for the returned action
//  5. Stop when the action is routed to END or not routed at all
//
// Only a failing phase, a panic, cancellation or the optional iteration
// limit end the run with an error. An unmapped action is a normal end.
//
// Example:
//
//	ctx := flowgraph.NewContext(context.Background())
//	shared, err := compiled.Run(ctx, flowgraph.NewShared())
func (cg *CompiledGraph) Run(ctx Context, shared *Shared, opts ...RunOption) (*Shared, error) {
	if shared == nil {
		shared = NewShared()
	}
	_, err := cg.run(ctx, shared, opts...)
	return shared, err
}

// run executes the graph and returns the last action returned by a node.
func (cg *CompiledGraph) run(ctx Context, shared *Shared, opts ...RunOption) (last Action, runErr error) {
	if ctx == nil {
		return "", ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}

	startTime := time.Now()
	observability.LogRunStart(cfg.logger, runID)

	var execCtx context.Context = ctx
	if cfg.tracingEnabled {
		var runSpan trace.Span
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, cfg.graphName, runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	last, lastNode, nodeCount, runErr := cg.loop(execCtx, ctx, shared, runID, &cfg)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())
	cfg.metrics.RecordGraphRun(ctx, runErr == nil, duration)

	if runErr != nil {
		observability.LogRunError(cfg.logger, runID, runErr, durationMs, lastNode)
	} else {
		observability.LogRunComplete(cfg.logger, runID, durationMs, nodeCount, string(last))
	}

	return last, runErr
}

// loop drives node activations. tracingCtx carries span context; fgCtx is
// the caller's flowgraph Context. Returns the last action, the last node
// visited, the number of completed activations and any error.
func (cg *CompiledGraph) loop(tracingCtx context.Context, fgCtx Context, shared *Shared, runID string, cfg *runConfig) (Action, string, int, error) {
	current := cg.entry
	visits := make([]int, len(cg.nodes))
	var last Action
	nodeCount := 0
	sequence := 0

	for {
		id := cg.ids[current]

		if cfg.maxIterations > 0 && nodeCount >= cfg.maxIterations {
			return last, id, nodeCount, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: id,
			}
		}

		select {
		case <-fgCtx.Done():
			return last, id, nodeCount, &CancellationError{
				NodeID: id,
				Cause:  fgCtx.Err(),
			}
		default:
		}

		visits[current]++
		observability.LogNodeStart(cfg.logger, id)

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.spans.StartNodeSpan(tracingCtx, id, visits[current])
		}

		nodeCtx := forNode(nodeTracingCtx, fgCtx.Logger(), runID, id, visits[current])
		nodeStart := time.Now()
		action, nodeErr := cg.activate(nodeCtx, current, shared)
		nodeDuration := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeTracingCtx, id, nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			observability.LogNodeError(cfg.logger, id, nodeErr)
			sequence++
			cg.record(fgCtx, cfg, journal.Entry{
				RunID:    runID,
				Sequence: sequence,
				NodeID:   id,
				Visit:    visits[current],
				Duration: nodeDuration,
				Error:    nodeErr.Error(),
			})
			return last, id, nodeCount, nodeErr
		}

		observability.LogNodeComplete(cfg.logger, id, float64(nodeDuration.Milliseconds()))
		nodeCount++
		last = action

		if d, ok := cg.nodes[current].(ActionDeclarer); ok && !slices.Contains(d.Actions(), action) {
			nodeCtx.Logger().Warn("node returned undeclared action", "action", string(action))
		}

		next, routed := cg.step(current, action)
		nextID := ""
		switch {
		case !routed:
		case next == terminal:
			nextID = END
		default:
			nextID = cg.ids[next]
		}

		observability.LogTransition(cfg.logger, id, string(action), nextID)
		cfg.metrics.RecordTransition(nodeTracingCtx, id, string(action), nextID == "" || nextID == END)

		sequence++
		cg.record(fgCtx, cfg, journal.Entry{
			RunID:    runID,
			Sequence: sequence,
			NodeID:   id,
			Visit:    visits[current],
			Action:   string(action),
			Next:     nextID,
			Duration: nodeDuration,
		})

		if !routed || next == terminal {
			return last, id, nodeCount, nil
		}
		current = next
	}
}

// activate runs the three phases of one node with panic recovery.
// The prepare result is closed on every path if it is an io.Closer.
func (cg *CompiledGraph) activate(ctx Context, idx int, shared *Shared) (action Action, err error) {
	node := cg.nodes[idx]
	id := cg.ids[idx]
	op := "prepare"
	var prep any

	defer func() {
		if r := recover(); r != nil {
			action = ""
			err = &PanicError{
				NodeID: id,
				Op:     op,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
		if c, ok := prep.(io.Closer); ok && c != nil {
			if cerr := c.Close(); cerr != nil {
				ctx.Logger().Warn("closing prepare result failed", "error", cerr.Error())
			}
		}
	}()

	prep, err = node.Prepare(ctx, shared)
	if err != nil {
		return "", &NodeError{NodeID: id, Op: op, Err: err}
	}

	op = "execute"
	exec, err := node.Execute(ctx, prep)
	if err != nil {
		return "", &NodeError{NodeID: id, Op: op, Err: err}
	}

	op = "finalize"
	action, err = node.Finalize(ctx, shared, prep, exec)
	if err != nil {
		return "", &NodeError{NodeID: id, Op: op, Err: err}
	}

	return action, nil
}

// record appends e to the journal if one is configured.
func (cg *CompiledGraph) record(ctx Context, cfg *runConfig, e journal.Entry) {
	if cfg.journal == nil {
		return
	}
	e.At = time.Now().UTC()
	if err := cfg.journal.Append(context.WithoutCancel(ctx), e); err != nil {
		observability.LogJournalError(cfg.logger, e.NodeID, err)
	}
}
