package flowgraph

import (
	"log/slog"

	"github.com/randalmurphal/wakeflow/pkg/flowgraph/journal"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/observability"
)

// runConfig holds configuration for graph execution.
type runConfig struct {
	maxIterations  int
	runID          string
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	journal        journal.Store
	graphName      string
}

// defaultRunConfig returns the default execution configuration.
// Runs are unbounded: self-loops such as continuous listening are expected
// to run until a node stops routing.
func defaultRunConfig() runConfig {
	return runConfig{
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		graphName: "flowgraph",
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of node activations.
// Default: unbounded.
//
// If a run exceeds this limit, Run returns a *MaxIterationsError.
//
// Example:
//
//	result, err := compiled.Run(ctx, shared, flowgraph.WithMaxIterations(100))
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithRunID overrides the run identifier taken from the Context.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithObservabilityLogger enables run/node/transition logging on logger.
// The logger passed through Context is unaffected.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans for the run and each node.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithJournal records every transition of the run in store.
// Journal failures are logged and never stop the run.
func WithJournal(store journal.Store) RunOption {
	return func(c *runConfig) {
		c.journal = store
	}
}

// WithGraphName names the graph in spans and logs. Default: "flowgraph".
func WithGraphName(name string) RunOption {
	return func(c *runConfig) {
		if name != "" {
			c.graphName = name
		}
	}
}

// WithMetricsRecorder records engine metrics on m instead of the global
// meter provider. A nil m disables metrics.
func WithMetricsRecorder(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m == nil {
			c.metrics = observability.NoopMetrics{}
			return
		}
		c.metrics = m
	}
}

// WithSpanManager enables tracing through sm. A nil sm disables tracing.
func WithSpanManager(sm observability.SpanManager) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = sm != nil
		if sm == nil {
			c.spans = observability.NoopSpanManager{}
			return
		}
		c.spans = sm
	}
}
