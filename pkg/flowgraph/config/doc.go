/*
Package config provides typed access to YAML or JSON configuration.

# Basic Usage

	cfg, err := config.FromFile("wakeflow.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	phrase := cfg.String("wake_word.phrase", "hey ai")
	listen := cfg.Duration("wake_word.listen_duration", 30*time.Second)

	audio := cfg.Sub("audio")
	rate := audio.Int("sample_rate", 16000)

# Type Coercion

Duration accepts strings for time.ParseDuration ("500ms", "1m") and bare
numbers as seconds. Int accepts floats without a fractional part, and Float
accepts any number.

Strings are parsed for Int, Float, Bool and Duration, and a single string
read as StringSlice is split on commas.

Every accessor returns the default when the key is missing or the value
cannot be converted, including a float with a fraction read as Int.

# Environment Overrides

WithEnv returns a copy with prefixed environment variables applied. "__"
separates sections:

	cfg = cfg.WithEnv("WAKEFLOW_", os.Environ())
	// WAKEFLOW_WAKE_WORD__PHRASE=ok computer sets wake_word.phrase

# Thread Safety

Config is safe for concurrent reads. It never modifies the map it wraps;
WithEnv copies the sections it changes.
*/
package config
