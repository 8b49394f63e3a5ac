package flowgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Context provides execution context to nodes.
// It extends context.Context with flowgraph-specific services and metadata.
//
// Context is immutable after creation. The executor creates derived contexts
// for each node activation with updated NodeID, Visit and an enriched logger.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty string before execution starts.
	NodeID() string

	// Visit returns how many times the current node has been activated in
	// this run, counting the current activation (1 = first visit).
	Visit() int
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger *slog.Logger
	// base is the logger before run and node attributes were added.
	base   *slog.Logger
	runID  string
	nodeID string
	visit  int
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// Visit returns the activation count of the current node.
func (c *executionContext) Visit() int {
	return c.visit
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id, node_id, and visit during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := flowgraph.NewContext(context.Background(),
//	    flowgraph.WithLogger(myLogger),
//	    flowgraph.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}
	ec.base = ec.logger

	return ec
}

// forNode returns a derived context for one node activation. base carries
// cancellation and any span started for the node.
func forNode(base context.Context, logger *slog.Logger, runID, nodeID string, visit int) *executionContext {
	return &executionContext{
		Context: base,
		logger:  logger.With("run_id", runID, "node_id", nodeID, "visit", visit),
		base:    logger,
		runID:   runID,
		nodeID:  nodeID,
		visit:   visit,
	}
}

// baseLogger returns the logger of ctx without run and node attributes.
func baseLogger(ctx Context) *slog.Logger {
	if ec, ok := ctx.(*executionContext); ok && ec.base != nil {
		return ec.base
	}
	return ctx.Logger()
}

// nestedRunID names a run started by the node activation in ctx, such as
// "run-1/listen#2" for the second visit of node listen.
func nestedRunID(ctx Context) string {
	return fmt.Sprintf("%s/%s#%d", ctx.RunID(), ctx.NodeID(), ctx.Visit())
}
