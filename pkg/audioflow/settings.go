package audioflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/config"
)

// WakeWordSettings configures WakeWordNode.
type WakeWordSettings struct {
	Phrase string
	// EnergyThreshold is the energy a frame must exceed to count as a detection.
	EnergyThreshold float64
	// SilenceThreshold is the energy below which a frame counts as silent.
	SilenceThreshold float64
	// MinSilence is how much consecutive silent audio is reported as one
	// silence run.
	MinSilence     time.Duration
	ListenDuration time.Duration
	PollInterval   time.Duration
}

// CaptureSettings configures AudioCaptureNode.
type CaptureSettings struct {
	RecordDuration time.Duration
	PollInterval   time.Duration
}

// Settings configures the whole input flow.
type Settings struct {
	Format   audio.Format
	WakeWord WakeWordSettings
	Capture  CaptureSettings
}

// DefaultSettings returns the stock configuration: "hey ai", 30s listen
// windows, 5s recordings, 16 kHz mono float32.
func DefaultSettings() Settings {
	return Settings{
		Format: audio.DefaultFormat(),
		WakeWord: WakeWordSettings{
			Phrase:           "hey ai",
			EnergyThreshold:  0.01,
			SilenceThreshold: 0.001,
			MinSilence:       500 * time.Millisecond,
			ListenDuration:   30 * time.Second,
			PollInterval:     10 * time.Millisecond,
		},
		Capture: CaptureSettings{
			RecordDuration: 5 * time.Second,
			PollInterval:   10 * time.Millisecond,
		},
	}
}

// SettingsFromConfig overlays the "audio", "wake_word" and "capture"
// sections of cfg on DefaultSettings and validates the result.
//
//	audio:
//	  sample_rate: 16000
//	  channels: 1
//	  sample_format: float32
//	  block_size: 1024
//	wake_word:
//	  phrase: hey ai
//	  energy_threshold: 0.01
//	  silence_threshold: 0.001
//	  min_silence: 500ms
//	  listen_duration: 30s
//	  poll_interval: 10ms
//	capture:
//	  record_duration: 5s
//	  poll_interval: 10ms
func SettingsFromConfig(cfg config.Config) (Settings, error) {
	s := DefaultSettings()

	a := cfg.Sub("audio")
	s.Format.SampleRate = a.Int("sample_rate", s.Format.SampleRate)
	s.Format.Channels = a.Int("channels", s.Format.Channels)
	s.Format.SampleFormat = audio.SampleFormat(a.String("sample_format", string(s.Format.SampleFormat)))
	s.Format.BlockSize = a.Int("block_size", s.Format.BlockSize)

	w := cfg.Sub("wake_word")
	s.WakeWord.Phrase = w.String("phrase", s.WakeWord.Phrase)
	s.WakeWord.EnergyThreshold = w.Float("energy_threshold", s.WakeWord.EnergyThreshold)
	s.WakeWord.SilenceThreshold = w.Float("silence_threshold", s.WakeWord.SilenceThreshold)
	s.WakeWord.MinSilence = w.Duration("min_silence", s.WakeWord.MinSilence)
	s.WakeWord.ListenDuration = w.Duration("listen_duration", s.WakeWord.ListenDuration)
	s.WakeWord.PollInterval = w.Duration("poll_interval", s.WakeWord.PollInterval)

	c := cfg.Sub("capture")
	s.Capture.RecordDuration = c.Duration("record_duration", s.Capture.RecordDuration)
	s.Capture.PollInterval = c.Duration("poll_interval", s.Capture.PollInterval)

	s = s.normalized()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) normalized() Settings {
	s.WakeWord.Phrase = strings.ToLower(strings.TrimSpace(s.WakeWord.Phrase))
	return s
}

// Validate reports every invalid setting.
func (s Settings) Validate() error {
	var errs []error
	if err := s.Format.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audio: %w", err))
	}

	w := s.WakeWord
	if w.EnergyThreshold < 0 {
		errs = append(errs, fmt.Errorf("wake_word: energy threshold must not be negative, got %g", w.EnergyThreshold))
	}
	if w.SilenceThreshold < 0 {
		errs = append(errs, fmt.Errorf("wake_word: silence threshold must not be negative, got %g", w.SilenceThreshold))
	}
	if w.MinSilence <= 0 {
		errs = append(errs, fmt.Errorf("wake_word: min silence must be positive, got %s", w.MinSilence))
	}
	if w.ListenDuration <= 0 {
		errs = append(errs, fmt.Errorf("wake_word: listen duration must be positive, got %s", w.ListenDuration))
	}
	if w.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("wake_word: poll interval must be positive, got %s", w.PollInterval))
	}

	c := s.Capture
	if c.RecordDuration <= 0 {
		errs = append(errs, fmt.Errorf("capture: record duration must be positive, got %s", c.RecordDuration))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("capture: poll interval must be positive, got %s", c.PollInterval))
	}
	return errors.Join(errs...)
}
