package config

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config is a read-only view over decoded YAML or JSON.
// Accessors return the caller's default when a key is missing or its value
// has the wrong shape, so settings code can stay free of type assertions.
//
// Keys may be dotted paths ("wake_word.threshold") that descend through
// nested sections.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// lookup resolves a possibly dotted key.
func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	section, ok := asMap(c.data[head])
	if !ok {
		return nil, false
	}
	return Config{data: section}.lookup(rest)
}

// get returns the value for key converted by conv, or defaultVal.
func get[T any](c Config, key string, defaultVal T, conv func(any) (T, bool)) T {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	if out, ok := conv(v); ok {
		return out
	}
	return defaultVal
}

// Sub returns the nested section at key. Missing or non-map values yield an
// empty Config.
func (c Config) Sub(key string) Config {
	v, ok := c.lookup(key)
	if !ok {
		return New(nil)
	}
	section, _ := asMap(v)
	return New(section)
}

// String returns the string at key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	return get(c, key, defaultVal, func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})
}

// Bool returns the boolean at key, or defaultVal. Strings are parsed with
// strconv.ParseBool.
func (c Config) Bool(key string, defaultVal bool) bool {
	return get(c, key, defaultVal, func(v any) (bool, bool) {
		switch val := v.(type) {
		case bool:
			return val, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(val))
			return b, err == nil
		}
		return false, false
	})
}

// Int returns the integer at key, or defaultVal. Floats are accepted only
// when they have no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	return get(c, key, defaultVal, func(v any) (int, bool) {
		switch val := v.(type) {
		case int:
			return val, true
		case int64:
			return int(val), true
		case float64:
			if val == float64(int(val)) {
				return int(val), true
			}
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			return n, err == nil
		}
		return 0, false
	})
}

// Float returns the number at key as float64, or defaultVal.
func (c Config) Float(key string, defaultVal float64) float64 {
	return get(c, key, defaultVal, toFloat)
}

// Duration returns the duration at key, or defaultVal.
//
// Strings are parsed with time.ParseDuration ("500ms", "30s"); bare numbers,
// and numeric strings, are seconds, so "min_silence: 0.5" means half a second.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	return get(c, key, defaultVal, func(v any) (time.Duration, bool) {
		switch val := v.(type) {
		case time.Duration:
			return val, true
		case string:
			if d, err := time.ParseDuration(val); err == nil {
				return d, true
			}
		}
		if f, ok := toFloat(v); ok {
			return time.Duration(f * float64(time.Second)), true
		}
		return 0, false
	})
}

// StringSlice returns the list of strings at key, or defaultVal if any
// element is not a string. A single string is split on commas.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	return get(c, key, defaultVal, func(v any) ([]string, bool) {
		switch val := v.(type) {
		case []string:
			return val, true
		case string:
			out := strings.Split(val, ",")
			for i := range out {
				out[i] = strings.TrimSpace(out[i])
			}
			return out, true
		case []any:
			out := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
			return out, true
		}
		return nil, false
	})
}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Keys returns the top-level keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the underlying map. It must not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
