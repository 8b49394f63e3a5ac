package audioflow

import (
	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
)

// AudioCaptureNode records for a fixed window and stores the result in
// audio_data. It returns ActionContinue when at least one frame arrived
// and ActionError when the window was empty.
type AudioCaptureNode struct {
	opener   audio.Opener
	format   audio.Format
	settings CaptureSettings
	opts     nodeOptions
}

type captureResult struct {
	Frames []audio.Frame
	Buffer *audio.Buffer
}

// NewAudioCaptureNode creates an AudioCaptureNode reading from opener.
func NewAudioCaptureNode(opener audio.Opener, format audio.Format, settings CaptureSettings, opts ...Option) *AudioCaptureNode {
	return &AudioCaptureNode{opener: opener, format: format, settings: settings, opts: buildOptions(opts)}
}

// Actions implements flowgraph.ActionDeclarer.
func (n *AudioCaptureNode) Actions() []flowgraph.Action {
	return []flowgraph.Action{flowgraph.ActionContinue, flowgraph.ActionError}
}

// Prepare creates audio_data on first use, clears the previous capture's
// chunks and opens a stream for this activation.
func (n *AudioCaptureNode) Prepare(ctx flowgraph.Context, shared *flowgraph.Shared) (*activation, error) {
	data, err := AudioDataKey.GetOrInit(shared, func() *AudioData { return &AudioData{} })
	if err != nil {
		return nil, err
	}
	data.SampleRate = n.format.SampleRate
	data.Channels = n.format.Channels
	data.SampleFormat = n.format.SampleFormat
	data.Chunks = nil
	data.CapturedAt = n.opts.clock.Now()

	act, err := openActivation(n.opener, n.format)
	if err != nil {
		ctx.Logger().Error("capture stream failed to open", "error", err)
		return nil, err
	}
	return act, nil
}

// Execute records for the whole window, then joins what arrived.
func (n *AudioCaptureNode) Execute(ctx flowgraph.Context, act *activation) (captureResult, error) {
	var res captureResult
	clock := n.opts.clock

	if err := act.begin(); err != nil {
		return res, err
	}
	ctx.Logger().Info("recording", "duration", n.settings.RecordDuration)

	deadline := clock.Now().Add(n.settings.RecordDuration)
	for {
		if err := ctx.Err(); err != nil {
			n.stop(ctx, act)
			return res, err
		}
		res.Frames = act.queue.DrainTo(res.Frames)
		if !clock.Now().Before(deadline) {
			break
		}
		if err := clock.Sleep(ctx, n.settings.PollInterval); err != nil {
			n.stop(ctx, act)
			return res, err
		}
	}

	n.stop(ctx, act)
	// Frames queued before the stream stopped belong to the window.
	res.Frames = act.queue.DrainTo(res.Frames)

	if len(res.Frames) > 0 {
		res.Buffer = audio.Concat(res.Frames)
	}
	ctx.Logger().Info("finished audio capture", "chunks", len(res.Frames))
	return res, nil
}

// Finalize stores the recording, or reports an empty window.
func (n *AudioCaptureNode) Finalize(ctx flowgraph.Context, shared *flowgraph.Shared, act *activation, res captureResult) (flowgraph.Action, error) {
	n.opts.metrics.RecordFrames(ctx, ctx.NodeID(), int64(len(res.Frames)), act.queue.Dropped())

	if res.Buffer == nil {
		n.opts.metrics.RecordCapture(ctx, 0)
		ctx.Logger().Warn("no audio data captured")
		return flowgraph.ActionError, nil
	}

	data, err := AudioDataKey.GetOrInit(shared, func() *AudioData { return &AudioData{} })
	if err != nil {
		return "", err
	}
	data.Chunks = res.Frames
	data.Raw = res.Buffer

	n.opts.metrics.RecordCapture(ctx, res.Buffer.Len())
	ctx.Logger().Info("audio captured",
		"samples", res.Buffer.Len(),
		"duration", res.Buffer.Duration(n.format.SampleRate))
	return flowgraph.ActionContinue, nil
}

func (n *AudioCaptureNode) stop(ctx flowgraph.Context, act *activation) {
	if err := act.end(); err != nil {
		ctx.Logger().Warn("stopping capture stream failed", "error", err)
	}
}
