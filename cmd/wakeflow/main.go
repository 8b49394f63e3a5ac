// Command wakeflow listens on the default microphone for the wake word and
// records what follows.
package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/audio/portaudio"
	"github.com/randalmurphal/wakeflow/pkg/audioflow"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/config"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/journal"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/observability"
)

// envPrefix marks environment variables that override config keys, such as
// WAKEFLOW_WAKE_WORD__PHRASE for wake_word.phrase.
const envPrefix = "WAKEFLOW_"

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "", "Config file (YAML or JSON)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	metricsAddr := cli.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	journalPath := cli.String("journal", "", "SQLite file for the transition journal")
	runs := cli.IntP("runs", "n", 1, "Number of recordings to take, 0 for no limit")
	cli.Parse()

	// Missing env files are fine; flags and config still apply.
	_ = godotenv.Load(*envFile)
	if *configPath == "" {
		*configPath = os.Getenv(envPrefix + "CONFIG")
	}
	if v := os.Getenv(envPrefix + "LOG"); v != "" && !cli.CommandLine.Changed("log") {
		*logLevel = v
	}

	level, ok := logLevelMap[*logLevel]
	if !ok {
		level = log.LevelInfo
	}
	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))

	if err := run(*configPath, *metricsAddr, *journalPath, *runs); err != nil {
		log.Error("wakeflow failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, metricsAddr, journalPath string, runs int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := loadSettings(configPath, os.Environ())
	if err != nil {
		return err
	}

	shutdown, err := startTelemetry(ctx, metricsAddr)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("telemetry shutdown failed", "err", err)
		}
	}()

	store, err := openJournal(journalPath)
	if err != nil {
		return err
	}
	defer store.Close()

	host, err := portaudio.Initialize()
	if err != nil {
		return err
	}
	defer host.Close()

	name, channels, err := host.DefaultInput()
	if err != nil {
		return err
	}
	log.Info("using input device", "device", name, "max_channels", channels)

	flow, err := audioflow.NewAudioInputFlow(host, settings,
		audioflow.WithAudioMetrics(observability.NewAudioMetrics()))
	if err != nil {
		return err
	}

	log.Info("ready", "phrase", settings.WakeWord.Phrase,
		"listen", settings.WakeWord.ListenDuration,
		"record", settings.Capture.RecordDuration)

	for i := 0; runs == 0 || i < runs; i++ {
		fctx := flowgraph.NewContext(ctx, flowgraph.WithLogger(log.Default()))
		shared, err := flow.Run(fctx, nil,
			flowgraph.WithGraphName("audio_input"),
			flowgraph.WithObservabilityLogger(log.Default()),
			flowgraph.WithMetrics(true),
			flowgraph.WithTracing(true),
			flowgraph.WithJournal(store))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("stopped")
				return nil
			}
			var initErr *audio.StreamInitError
			if errors.As(err, &initErr) {
				log.Error("audio device unavailable",
					"op", initErr.Op,
					"sample_rate", initErr.Format.SampleRate,
					"channels", initErr.Format.Channels)
			}
			return err
		}
		report(fctx.RunID(), shared)
	}
	return nil
}

// loadSettings reads the optional config file and applies WAKEFLOW_
// environment overrides on top of it.
func loadSettings(path string, environ []string) (audioflow.Settings, error) {
	cfg := config.New(nil)
	if path != "" {
		var err error
		if cfg, err = config.FromFile(path); err != nil {
			return audioflow.Settings{}, err
		}
		log.Debug("loaded config", "path", path, "sections", cfg.Keys())
	}
	return audioflow.SettingsFromConfig(cfg.WithEnv(envPrefix, environ))
}

func openJournal(path string) (journal.Store, error) {
	if path == "" {
		return journal.NewMemoryStore(), nil
	}
	return journal.NewSQLiteStore(path)
}

func report(runID string, shared *flowgraph.Shared) {
	data, ok := audioflow.AudioDataKey.Get(shared)
	if !ok || data.Raw == nil {
		log.Warn("run finished without audio", "run_id", runID)
		return
	}
	log.Info("captured audio",
		"run_id", runID,
		"samples", data.Raw.Len(),
		"duration", data.Raw.Duration(data.SampleRate),
		"sample_rate", data.SampleRate,
		"channels", data.Channels)
}
