package benchmarks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/journal"
)

func quietCtx() flowgraph.Context {
	return flowgraph.NewContext(context.Background(), flowgraph.WithLogger(slog.New(slog.DiscardHandler)))
}

func BenchmarkRun_Linear(b *testing.B) {
	for _, n := range []int{5, 10, 50, 100} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			compiled := mustCompile(buildLinearGraph(n))
			ctx := quietCtx()
			for b.Loop() {
				_, _ = compiled.Run(ctx, nil)
			}
		})
	}
}

// BenchmarkRun_SelfLoop listens n times before continuing.
func BenchmarkRun_SelfLoop(b *testing.B) {
	for _, n := range []int{3, 10, 100} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			compiled := mustCompile(buildAudioShape(listenTimes(n), noopNode))
			ctx := quietCtx()
			for b.Loop() {
				_, _ = compiled.Run(ctx, nil)
			}
		})
	}
}

// BenchmarkRun_WithJournal compares journal stores on the same graph.
func BenchmarkRun_WithJournal(b *testing.B) {
	sqlite, err := journal.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer sqlite.Close()

	stores := []struct {
		name  string
		store journal.Store
	}{
		{"none", nil},
		{"memory", journal.NewMemoryStore()},
		{"sqlite", sqlite},
	}

	compiled := mustCompile(buildAudioShape(listenTimes(5), noopNode))
	ctx := quietCtx()

	for _, s := range stores {
		b.Run(s.name, func(b *testing.B) {
			i := 0
			for b.Loop() {
				i++
				opts := []flowgraph.RunOption{flowgraph.WithRunID(fmt.Sprintf("%s-%d", s.name, i))}
				if s.store != nil {
					opts = append(opts, flowgraph.WithJournal(s.store))
				}
				_, _ = compiled.Run(ctx, nil, opts...)
			}
		})
	}
}

// BenchmarkContextCreation measures context creation overhead.
func BenchmarkContextCreation(b *testing.B) {
	bg := context.Background()
	for b.Loop() {
		flowgraph.NewContext(bg)
	}
}

// listenTimes returns ActionListen until it has been visited n times.
func listenTimes(n int) flowgraph.Node {
	return flowgraph.NodeFuncs{
		FinalizeFunc: func(ctx flowgraph.Context, _ *flowgraph.Shared, _, _ any) (flowgraph.Action, error) {
			if ctx.Visit() < n {
				return flowgraph.ActionListen, nil
			}
			return flowgraph.ActionContinue, nil
		},
	}
}
