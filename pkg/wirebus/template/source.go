package template

import (
	"fmt"
	"os"
)

// Source resolves a variable name to a value. The boolean reports whether
// the variable is defined.
type Source func(name string) (string, bool)

// FromEnv returns a Source backed by the process environment.
func FromEnv() Source {
	return os.LookupEnv
}

// FromMap returns a Source backed by a string map.
func FromMap(m map[string]string) Source {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// FromValues returns a Source backed by a map of arbitrary values.
// Non-string values are formatted with fmt.
func FromValues(m map[string]any) Source {
	return func(name string) (string, bool) {
		v, ok := m[name]
		if !ok {
			return "", false
		}
		if s, isStr := v.(string); isStr {
			return s, true
		}
		return fmt.Sprintf("%v", v), true
	}
}

// Chain returns a Source that consults each source in order and returns
// the first hit.
func Chain(sources ...Source) Source {
	return func(name string) (string, bool) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			if v, ok := src(name); ok {
				return v, true
			}
		}
		return "", false
	}
}
