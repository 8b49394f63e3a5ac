package audioflow

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
)

// Node IDs used by NewAudioInputFlow.
const (
	WakeWordNodeID = "wake_word"
	CaptureNodeID  = "audio_capture"
)

// NewAudioInputFlow wires a fresh WakeWordNode and AudioCaptureNode into
// the listen/record graph. Both nodes open streams through opener.
func NewAudioInputFlow(opener audio.Opener, settings Settings, opts ...Option) (*flowgraph.CompiledGraph, error) {
	if opener == nil {
		return nil, errors.New("audio input flow: opener is nil")
	}
	settings = settings.normalized()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("audio input flow: %w", err)
	}

	wake := NewWakeWordNode(opener, settings.Format, settings.WakeWord, opts...)
	capture := NewAudioCaptureNode(opener, settings.Format, settings.Capture, opts...)

	return flowgraph.NewGraph().
		AddNode(WakeWordNodeID, flowgraph.Lift[*activation, wakeResult](wake)).
		AddNode(CaptureNodeID, flowgraph.Lift[*activation, captureResult](capture)).
		AddEdge(WakeWordNodeID, flowgraph.ActionContinue, CaptureNodeID).
		AddEdge(WakeWordNodeID, flowgraph.ActionListen, WakeWordNodeID).
		AddEdge(CaptureNodeID, flowgraph.ActionContinue, flowgraph.END).
		AddEdge(CaptureNodeID, flowgraph.ActionError, WakeWordNodeID).
		SetEntry(WakeWordNodeID).
		Compile()
}
