package flowgraph

// AsNode wraps the compiled graph so it can be used as a node of another
// graph. The sub-graph runs on the parent's Shared during Execute, and the
// action it terminated with becomes the node's own action.
//
// opts apply to every nested run. Each nested run gets its own run ID
// derived from the parent's, "<parent>/<node>#<visit>", so a journal shared
// with the parent keeps both sets of entries apart. WithRunID overrides it.
// Nested nodes log with the caller's logger, not the parent node's.
//
// Example:
//
//	listen, _ := audioflow.NewAudioInputFlow(opener, settings)
//	chat := flowgraph.NewGraph().
//	    AddNode("listen", listen.AsNode()).
//	    AddNode("reply", replyNode).
//	    AddEdge("listen", flowgraph.ActionContinue, "reply").
//	    SetEntry("listen")
func (cg *CompiledGraph) AsNode(opts ...RunOption) Node {
	return &subflow{graph: cg, opts: opts}
}

type subflow struct {
	graph *CompiledGraph
	opts  []RunOption
}

func (s *subflow) Prepare(_ Context, shared *Shared) (any, error) {
	return shared, nil
}

func (s *subflow) Execute(ctx Context, prep any) (any, error) {
	shared, _ := prep.(*Shared)
	if shared == nil {
		shared = NewShared()
	}
	nested := &executionContext{
		Context: ctx,
		logger:  baseLogger(ctx),
		runID:   nestedRunID(ctx),
	}
	nested.base = nested.logger
	return s.graph.run(nested, shared, s.opts...)
}

func (s *subflow) Finalize(_ Context, _ *Shared, _, exec any) (Action, error) {
	action, _ := exec.(Action)
	return action, nil
}
