package flowgraph

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrKeyTypeChanged indicates a Set that would change the dynamic type
// stored under an existing key.
var ErrKeyTypeChanged = errors.New("shared key type cannot change")

// Shared is the mutable state threaded through every node of one run.
//
// Keys are created lazily by the first node that needs them and keep their
// type for the rest of the run. Shared is not synchronized: the executor
// only runs one node at a time and only the active node touches it.
type Shared struct {
	values map[string]any
}

// NewShared creates an empty Shared.
func NewShared() *Shared {
	return &Shared{values: make(map[string]any)}
}

// Get returns the raw value stored under key.
func (s *Shared) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key. If key already holds a value of a different
// dynamic type, Set leaves it untouched and returns ErrKeyTypeChanged.
func (s *Shared) Set(key string, value any) error {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	if old, ok := s.values[key]; ok && old != nil && value != nil {
		if ot, nt := reflect.TypeOf(old), reflect.TypeOf(value); ot != nt {
			return fmt.Errorf("%w: %q holds %s, got %s", ErrKeyTypeChanged, key, ot, nt)
		}
	}
	s.values[key] = value
	return nil
}

// Has reports whether key has been set.
func (s *Shared) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the keys currently set, sorted.
func (s *Shared) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key is a typed handle to a Shared entry.
//
//	var audioKey = flowgraph.NewKey[*AudioData]("audio_data")
//
//	data, ok := audioKey.Get(shared)
type Key[T any] struct {
	name string
}

// NewKey returns a typed key for name.
func NewKey[T any](name string) Key[T] {
	if name == "" {
		panic("flowgraph: shared key name cannot be empty")
	}
	return Key[T]{name: name}
}

// Name returns the underlying string key.
func (k Key[T]) Name() string {
	return k.name
}

// Get returns the value for k. The second result is false when the key is
// missing or holds a value of another type.
func (k Key[T]) Get(s *Shared) (T, bool) {
	v, ok := s.Get(k.name)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Set stores v under k.
func (k Key[T]) Set(s *Shared, v T) error {
	return s.Set(k.name, v)
}

// GetOrInit returns the value for k, storing init() first if the key is
// missing.
func (k Key[T]) GetOrInit(s *Shared, init func() T) (T, error) {
	if v, ok := k.Get(s); ok {
		return v, nil
	}
	v := init()
	if err := k.Set(s, v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
