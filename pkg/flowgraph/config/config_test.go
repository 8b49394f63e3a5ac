package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/wakeflow/pkg/flowgraph/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilMap(t *testing.T) {
	cfg := config.New(nil)
	assert.NotNil(t, cfg.Raw())
	assert.Empty(t, cfg.Keys())
	assert.Equal(t, "default", cfg.String("missing", "default"))
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"phrase": "hey ai"}, "hey ai"},
		{"empty string", map[string]any{"phrase": ""}, ""},
		{"key missing", map[string]any{"other": "x"}, "default"},
		{"wrong type", map[string]any{"phrase": 123}, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("phrase", "default"))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"string", "30s", 30 * time.Second},
		{"string millis", "500ms", 500 * time.Millisecond},
		{"int seconds", 5, 5 * time.Second},
		{"int64 seconds", int64(2), 2 * time.Second},
		{"float seconds", 0.5, 500 * time.Millisecond},
		{"duration", 3 * time.Minute, 3 * time.Minute},
		{"invalid string", "soon", 10 * time.Second},
		{"wrong type", true, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"d": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("d", 10*time.Second))
		})
	}
}

func TestNumbers(t *testing.T) {
	cfg := config.New(map[string]any{
		"int":      16000,
		"int64":    int64(2),
		"whole":    1024.0,
		"fraction": 0.01,
		"text":     " 12 ",
		"word":     "many",
	})

	assert.Equal(t, 16000, cfg.Int("int", 0))
	assert.Equal(t, 2, cfg.Int("int64", 0))
	assert.Equal(t, 1024, cfg.Int("whole", 0))
	assert.Equal(t, 7, cfg.Int("fraction", 7), "fractional float must not truncate")
	assert.Equal(t, 12, cfg.Int("text", 7))
	assert.Equal(t, 7, cfg.Int("word", 7))

	assert.InDelta(t, 0.01, cfg.Float("fraction", 0), 1e-12)
	assert.InDelta(t, 16000.0, cfg.Float("int", 0), 1e-12)
	assert.InDelta(t, 12.0, cfg.Float("text", 9), 1e-12)
	assert.InDelta(t, 9.0, cfg.Float("word", 9), 1e-12)
}

func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"on": true, "text": "true", "word": "maybe", "num": 1})
	assert.True(t, cfg.Bool("on", false))
	assert.True(t, cfg.Bool("text", false))
	assert.False(t, cfg.Bool("word", false))
	assert.False(t, cfg.Bool("num", false))
	assert.True(t, cfg.Bool("missing", true))
}

func TestStringSlice(t *testing.T) {
	cfg := config.New(map[string]any{
		"typed": []string{"a", "b"},
		"any":   []any{"c", "d"},
		"mixed": []any{"e", 1},
		"csv":   "f, g",
	})
	def := []string{"default"}

	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("typed", def))
	assert.Equal(t, []string{"c", "d"}, cfg.StringSlice("any", def))
	assert.Equal(t, def, cfg.StringSlice("mixed", def))
	assert.Equal(t, []string{"f", "g"}, cfg.StringSlice("csv", def))
	assert.Equal(t, def, cfg.StringSlice("missing", def))
}

func TestDottedKeysAndSub(t *testing.T) {
	cfg := config.New(map[string]any{
		"wake_word": map[string]any{
			"phrase":    "computer",
			"threshold": 0.2,
		},
		"capture": map[any]any{
			"duration": "2s",
		},
		"flat.key": "literal",
		"scalar":   1,
	})

	assert.Equal(t, "computer", cfg.String("wake_word.phrase", ""))
	assert.InDelta(t, 0.2, cfg.Float("wake_word.threshold", 0), 1e-12)
	assert.Equal(t, 2*time.Second, cfg.Duration("capture.duration", 0))
	assert.Equal(t, "literal", cfg.String("flat.key", ""), "literal dotted key wins")
	assert.True(t, cfg.Has("wake_word.phrase"))
	assert.False(t, cfg.Has("wake_word.missing"))
	assert.False(t, cfg.Has("scalar.child"))

	sub := cfg.Sub("wake_word")
	assert.Equal(t, []string{"phrase", "threshold"}, sub.Keys())
	assert.Equal(t, "computer", sub.String("phrase", ""))

	assert.Empty(t, cfg.Sub("missing").Keys())
	assert.Empty(t, cfg.Sub("scalar").Keys())
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
wake_word:
  phrase: hey ai
  energy_threshold: 0.05
  min_silence: 0.5
capture:
  duration: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, "hey ai", cfg.String("wake_word.phrase", ""))
	assert.InDelta(t, 0.05, cfg.Float("wake_word.energy_threshold", 0), 1e-12)
	assert.Equal(t, 500*time.Millisecond, cfg.Duration("wake_word.min_silence", 0))
	assert.Equal(t, 5*time.Second, cfg.Sub("capture").Duration("duration", 0))

	empty, err := config.FromYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Keys())

	_, err = config.FromYAML([]byte("a: [unclosed"))
	assert.ErrorContains(t, err, "parse yaml")
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"audio": {"sample_rate": 44100, "channels": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, 44100, cfg.Int("audio.sample_rate", 0))
	assert.Equal(t, 2, cfg.Sub("audio").Int("channels", 0))

	_, err = config.FromJSON([]byte(`{`))
	assert.ErrorContains(t, err, "parse json")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Run("yaml", func(t *testing.T) {
		cfg, err := config.FromFile(write("c.yaml", "runs: 3\n"))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Int("runs", 0))
	})

	t.Run("yml upper case", func(t *testing.T) {
		cfg, err := config.FromFile(write("c.YML", "runs: 4\n"))
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Int("runs", 0))
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := config.FromFile(write("c.json", `{"runs": 5}`))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Int("runs", 0))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.FromFile(write("c.toml", "runs = 1"))
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestWithEnv(t *testing.T) {
	base := config.New(map[string]any{
		"wake_word": map[string]any{"phrase": "hey ai", "threshold": 0.01},
		"runs":      1,
	})

	tests := []struct {
		name    string
		environ []string
		check   func(t *testing.T, cfg config.Config)
	}{
		{
			name:    "top-level key",
			environ: []string{"WAKEFLOW_RUNS=3"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, 3, cfg.Int("runs", 0))
			},
		},
		{
			name:    "nested key keeps siblings",
			environ: []string{"WAKEFLOW_WAKE_WORD__PHRASE=ok computer"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "ok computer", cfg.String("wake_word.phrase", ""))
				assert.InDelta(t, 0.01, cfg.Float("wake_word.threshold", 0), 1e-12)
			},
		},
		{
			name:    "new section",
			environ: []string{"WAKEFLOW_CAPTURE__RECORD_DURATION=10s"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, 10*time.Second, cfg.Duration("capture.record_duration", 0))
			},
		},
		{
			name:    "value with equals sign",
			environ: []string{"WAKEFLOW_WAKE_WORD__PHRASE=a=b"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "a=b", cfg.String("wake_word.phrase", ""))
			},
		},
		{
			name:    "other prefixes ignored",
			environ: []string{"HOME=/root", "WAKEFLOW_=x", "WAKEFLOWRUNS=9", "BROKEN"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, 1, cfg.Int("runs", 0))
				assert.Equal(t, []string{"runs", "wake_word"}, cfg.Keys())
			},
		},
		{
			name:    "scalar replaced by section",
			environ: []string{"WAKEFLOW_RUNS__MAX=4"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, 4, cfg.Int("runs.max", 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, base.WithEnv("WAKEFLOW_", tt.environ))
		})
	}

	assert.Equal(t, "hey ai", base.String("wake_word.phrase", ""), "base config must not change")
	assert.Equal(t, 1, base.Int("runs", 0))
}
