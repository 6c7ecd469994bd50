package solstice

import "fmt"

// Setting is one configurable value layered from two sources: the value
// loaded from the persisted config file and an optional in-session override.
// The override always wins while present; clearing it reverts to the
// persisted value. Settings are snapshots — mutation goes through the Store,
// which hands out fresh copies.
type Setting[T any] struct {
	name      string
	persisted *T
	override  *T
	required  bool
}

// NewSetting builds a setting with no value from either source.
func NewSetting[T any](name string, required bool) Setting[T] {
	return Setting[T]{name: name, required: required}
}

// Name returns the config key this setting was loaded from.
func (s Setting[T]) Name() string {
	return s.name
}

// Required reports whether the setting must have a value for the session to
// start.
func (s Setting[T]) Required() bool {
	return s.required
}

// HasValue reports whether either source provides a value.
func (s Setting[T]) HasValue() bool {
	return s.override != nil || s.persisted != nil
}

// HasOverride reports whether an in-session override is in effect.
func (s Setting[T]) HasOverride() bool {
	return s.override != nil
}

// Value returns the effective value: the override if present, else the
// persisted value, else ErrNotConfigured.
func (s Setting[T]) Value() (T, error) {
	if s.override != nil {
		return *s.override, nil
	}
	if s.persisted != nil {
		return *s.persisted, nil
	}
	var zero T
	return zero, fmt.Errorf("%s: %w", s.name, ErrNotConfigured)
}

// Persisted returns the file-backed value, ignoring any override.
func (s Setting[T]) Persisted() (T, bool) {
	if s.persisted == nil {
		var zero T
		return zero, false
	}
	return *s.persisted, true
}

func (s *Setting[T]) setPersisted(value T) {
	s.persisted = &value
}

func (s *Setting[T]) setOverride(value T) {
	s.override = &value
}

func (s *Setting[T]) clearOverride() {
	s.override = nil
}
