package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads configuration from a file, choosing the format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %q", ext)
	}
}

// FromYAML parses YAML data into a Config. Empty input yields an empty Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// WithEnv returns a copy of c with values overridden from environ, a list of
// KEY=VALUE pairs as returned by os.Environ. Only variables starting with
// prefix are used. The rest of the name is lowercased and "__" separates
// sections, so with prefix "WAKEFLOW_" the variable
// WAKEFLOW_WAKE_WORD__LISTEN_DURATION=10s sets wake_word.listen_duration.
//
// Values are stored as strings; the typed accessors parse them.
func (c Config) WithEnv(prefix string, environ []string) Config {
	out := New(cloneMap(c.data))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		if key == "" {
			continue
		}
		out.set(strings.Split(key, "__"), value)
	}
	return out
}

// set stores value at path, replacing any non-map value met on the way.
func (c Config) set(path []string, value any) {
	m := c.data
	for _, part := range path[:len(path)-1] {
		next, ok := asMap(m[part])
		if !ok {
			next = make(map[string]any)
		}
		m[part] = next
		m = next
	}
	m[path[len(path)-1]] = value
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		if section, ok := asMap(v); ok {
			out[k] = cloneMap(section)
			continue
		}
		out[k] = v
	}
	return out
}
