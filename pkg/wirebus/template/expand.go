package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Regular expressions for variable patterns.
var (
	// bracePattern matches ${varname} - varname can contain alphanumeric and underscore.
	bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

	// dollarPattern matches $varname where varname is followed by a non-word character
	// or end of string. This prevents $port from matching inside $portNumber.
	dollarPattern = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)(?:\b|$)`)
)

// Expander expands variable patterns in strings.
//
// Create with NewExpander() and configure with Option functions.
// Expander is safe for concurrent use after construction.
type Expander struct {
	missingAction MissingAction
	braceStyle    bool
	dollarStyle   bool
}

// NewExpander creates a new Expander with the given options.
//
// Default configuration:
//   - MissingAction: MissingKeep (keep placeholders as-is)
//   - BraceStyle: enabled (${var})
//   - DollarStyle: enabled ($var)
func NewExpander(opts ...Option) *Expander {
	e := &Expander{
		missingAction: MissingKeep,
		braceStyle:    true,
		dollarStyle:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand expands variable patterns in s using the provided source.
//
// Returns the expanded string and any error encountered.
// Errors are only returned when MissingAction is MissingError and
// a variable is not found.
func (e *Expander) Expand(s string, src Source) (string, error) {
	if s == "" {
		return "", nil
	}
	if src == nil {
		src = func(string) (string, bool) { return "", false }
	}

	result := s
	var missingVars []string

	replace := func(match, varName string) string {
		if val, ok := src(varName); ok {
			return val
		}
		switch e.missingAction {
		case MissingEmpty:
			return ""
		case MissingError:
			missingVars = append(missingVars, varName)
			return match // Keep for now, will return error.
		default: // MissingKeep
			return match
		}
	}

	// Expand ${var} patterns first (more specific).
	if e.braceStyle {
		result = bracePattern.ReplaceAllStringFunc(result, func(match string) string {
			return replace(match, match[2:len(match)-1])
		})
	}

	// Expand $var patterns (less specific, after braces).
	if e.dollarStyle {
		result = dollarPattern.ReplaceAllStringFunc(result, func(match string) string {
			return replace(match, match[1:])
		})
	}

	if len(missingVars) > 0 {
		return result, &UndefinedVariableError{Names: missingVars}
	}

	return result, nil
}

// MustExpand expands variable patterns in s and panics on error.
//
// Use this when you're certain all variables are present or when using
// MissingKeep/MissingEmpty which never return errors.
func (e *Expander) MustExpand(s string, src Source) string {
	result, err := e.Expand(s, src)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return result
}

// ExpandAll expands variable patterns in all strings.
//
// Returns a new slice with expanded strings.
// On error (with MissingError), returns nil and the first error.
func (e *Expander) ExpandAll(ss []string, src Source) ([]string, error) {
	if ss == nil {
		return nil, nil
	}

	results := make([]string, len(ss))
	for i, s := range ss {
		expanded, err := e.Expand(s, src)
		if err != nil {
			return nil, err
		}
		results[i] = expanded
	}
	return results, nil
}

// ExpandMap expands variable patterns in all string values of a map recursively.
//
// Returns a new map with expanded values. Non-string values are copied as-is.
// Nested maps (map[string]any) and string slices are expanded recursively.
// On error (with MissingError), returns nil and the first error.
func (e *Expander) ExpandMap(m map[string]any, src Source) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}

	result := make(map[string]any, len(m))
	for k, v := range m {
		expanded, err := e.expandValue(v, src)
		if err != nil {
			return nil, err
		}
		result[k] = expanded
	}
	return result, nil
}

// expandValue expands a single value, handling strings, nested maps, and
// value lists.
func (e *Expander) expandValue(v any, src Source) (any, error) {
	switch val := v.(type) {
	case string:
		return e.Expand(val, src)
	case map[string]any:
		return e.ExpandMap(val, src)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := e.expandValue(item, src)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	case []string:
		return e.ExpandAll(val, src)
	default:
		return v, nil
	}
}

// UndefinedVariableError is returned when MissingError is set and
// one or more variables are not found.
type UndefinedVariableError struct {
	// Names is the list of undefined variable names.
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

// defaultExpander is the package-level expander with default settings.
var defaultExpander = NewExpander()

// Expand expands variable patterns in s using the default expander.
//
// Uses MissingKeep behavior (missing variables stay as-is).
func Expand(s string, src Source) string {
	// Default expander never returns errors (MissingKeep).
	result, _ := defaultExpander.Expand(s, src)
	return result
}

// ExpandEnv expands variable patterns in s from the process environment.
//
// Uses MissingKeep behavior (missing variables stay as-is).
func ExpandEnv(s string) string {
	return Expand(s, FromEnv())
}

// ExpandAll expands variable patterns in all strings using the default expander.
//
// Uses MissingKeep behavior (missing variables stay as-is).
func ExpandAll(ss []string, src Source) []string {
	// Default expander never returns errors (MissingKeep).
	results, _ := defaultExpander.ExpandAll(ss, src)
	return results
}

// ExpandMap expands variable patterns in all string values using the default expander.
//
// Uses MissingKeep behavior (missing variables stay as-is).
// Nested maps are expanded recursively.
func ExpandMap(m map[string]any, src Source) map[string]any {
	// Default expander never returns errors (MissingKeep).
	result, _ := defaultExpander.ExpandMap(m, src)
	return result
}
