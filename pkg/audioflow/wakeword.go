package audioflow

import (
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/observability"
)

// WakeWordNode listens for the wake word for one window per activation.
// It returns ActionContinue on detection and ActionListen when the window
// elapses without one.
//
// Detection is delegated to an audio.Classifier, by default an
// audio.EnergyDetector at the configured threshold, so any loud frame
// counts as the wake word.
type WakeWordNode struct {
	opener   audio.Opener
	format   audio.Format
	settings WakeWordSettings
	opts     nodeOptions
}

// wakeResult is what one listen window produced.
type wakeResult struct {
	Detected   bool
	DetectedAt time.Time
	Energy     float64
	Frames     int
	Silences   int
}

// NewWakeWordNode creates a WakeWordNode reading from opener.
func NewWakeWordNode(opener audio.Opener, format audio.Format, settings WakeWordSettings, opts ...Option) *WakeWordNode {
	o := buildOptions(opts)
	if o.classifier == nil {
		o.classifier = audio.EnergyDetector{Threshold: settings.EnergyThreshold}
	}
	return &WakeWordNode{opener: opener, format: format, settings: settings, opts: o}
}

// Actions implements flowgraph.ActionDeclarer.
func (n *WakeWordNode) Actions() []flowgraph.Action {
	return []flowgraph.Action{flowgraph.ActionContinue, flowgraph.ActionListen}
}

// Prepare creates the wake_word entry on first use and opens a stream for
// this activation.
func (n *WakeWordNode) Prepare(ctx flowgraph.Context, shared *flowgraph.Shared) (*activation, error) {
	if _, err := WakeWordKey.GetOrInit(shared, func() *WakeWordState {
		return &WakeWordState{Phrase: n.settings.Phrase}
	}); err != nil {
		return nil, err
	}

	act, err := openActivation(n.opener, n.format)
	if err != nil {
		ctx.Logger().Error("wake word stream failed to open", "error", err)
		return nil, err
	}
	ctx.Logger().Debug("wake word stream opened",
		"sample_rate", n.format.SampleRate,
		"channels", n.format.Channels)
	return act, nil
}

// Execute listens until a frame is classified as the wake word, the listen
// window elapses, or ctx is done.
func (n *WakeWordNode) Execute(ctx flowgraph.Context, act *activation) (wakeResult, error) {
	var res wakeResult
	logger := ctx.Logger()
	clock := n.opts.clock

	if err := act.begin(); err != nil {
		return res, err
	}
	logger.Info("listening for wake word", "phrase", n.settings.Phrase)

	deadline := clock.Now().Add(n.settings.ListenDuration)
	var silentFor time.Duration

listen:
	for {
		if err := ctx.Err(); err != nil {
			n.stop(ctx, act)
			return res, err
		}

		for {
			f, ok := act.queue.TryPop()
			if !ok {
				break
			}
			res.Frames++

			energy := audio.Energy(f)
			if n.opts.classifier.Classify(f) {
				res.Detected = true
				res.DetectedAt = clock.Now()
				res.Energy = energy
				logger.Info("high energy detected", "energy", energy)
				break listen
			}

			if energy < n.settings.SilenceThreshold {
				silentFor += n.frameDuration(f)
				if silentFor >= n.settings.MinSilence {
					res.Silences++
					n.opts.metrics.RecordSilence(ctx)
					logger.Debug("no speech detected for a while, still listening", "silent_for", silentFor)
					silentFor = 0
				}
			} else {
				silentFor = 0
			}
		}

		if !clock.Now().Before(deadline) {
			break
		}
		if err := clock.Sleep(ctx, n.settings.PollInterval); err != nil {
			n.stop(ctx, act)
			return res, err
		}
	}

	n.stop(ctx, act)
	return res, nil
}

// Finalize records a detection in wake_word and picks the next action.
func (n *WakeWordNode) Finalize(ctx flowgraph.Context, shared *flowgraph.Shared, act *activation, res wakeResult) (flowgraph.Action, error) {
	n.opts.metrics.RecordFrames(ctx, ctx.NodeID(), int64(res.Frames), act.queue.Dropped())

	if !res.Detected {
		n.opts.metrics.RecordListenTimeout(ctx)
		ctx.Logger().Info("listen window elapsed without wake word",
			"window", n.settings.ListenDuration,
			"frames", res.Frames)
		return flowgraph.ActionListen, nil
	}

	state, err := WakeWordKey.GetOrInit(shared, func() *WakeWordState {
		return &WakeWordState{Phrase: n.settings.Phrase}
	})
	if err != nil {
		return "", err
	}
	state.Detected = true
	state.DetectedAt = res.DetectedAt

	n.opts.metrics.RecordDetection(ctx, res.Energy)
	observability.AddSpanEvent(ctx, "wake_word.detected",
		attribute.String("phrase", n.settings.Phrase),
		attribute.Float64("energy", res.Energy))
	ctx.Logger().Info("wake word detected", "phrase", n.settings.Phrase)
	return flowgraph.ActionContinue, nil
}

func (n *WakeWordNode) stop(ctx flowgraph.Context, act *activation) {
	if err := act.end(); err != nil {
		ctx.Logger().Warn("stopping wake word stream failed", "error", err)
	}
}

func (n *WakeWordNode) frameDuration(f audio.Frame) time.Duration {
	if n.format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.Len()) * time.Second / time.Duration(n.format.SampleRate)
}
