package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExpand_BraceStyle tests ${var} pattern expansion.
func TestExpand_BraceStyle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     map[string]any
		expected string
	}{
		{
			name:     "simple variable",
			input:    "http://${host}/status",
			vars:     map[string]any{"host": "peer-a:4000"},
			expected: "http://peer-a:4000/status",
		},
		{
			name:     "multiple variables",
			input:    "${scheme}://${host}",
			vars:     map[string]any{"scheme": "https", "host": "peer-a"},
			expected: "https://peer-a",
		},
		{
			name:     "adjacent variables",
			input:    "${a}${b}${c}",
			vars:     map[string]any{"a": "1", "b": "2", "c": "3"},
			expected: "123",
		},
		{
			name:     "numeric value",
			input:    "port: ${port}",
			vars:     map[string]any{"port": 4000},
			expected: "port: 4000",
		},
		{
			name:     "boolean value",
			input:    "tls: ${tls}",
			vars:     map[string]any{"tls": true},
			expected: "tls: true",
		},
		{
			name:     "underscore in variable name",
			input:    "${BUS_HOST}",
			vars:     map[string]any{"BUS_HOST": "10.0.0.5"},
			expected: "10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Expand(tt.input, FromValues(tt.vars))
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestExpand_DollarStyle tests $var pattern expansion.
func TestExpand_DollarStyle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     map[string]any
		expected string
	}{
		{
			name:     "simple variable",
			input:    "Hello $name",
			vars:     map[string]any{"name": "World"},
			expected: "Hello World",
		},
		{
			name:     "variable followed by punctuation",
			input:    "$host!",
			vars:     map[string]any{"host": "peer-a"},
			expected: "peer-a!",
		},
		{
			name:     "word boundary detection",
			input:    "$port is different from $portNumber",
			vars:     map[string]any{"port": "8080", "portNumber": "9090"},
			expected: "8080 is different from 9090",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Expand(tt.input, FromValues(tt.vars))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExpand_MissingActions(t *testing.T) {
	src := FromMap(map[string]string{"present": "yes"})

	t.Run("keep is the default", func(t *testing.T) {
		result := Expand("${present} ${absent}", src)
		assert.Equal(t, "yes ${absent}", result)
	})

	t.Run("empty replaces with nothing", func(t *testing.T) {
		exp := NewExpander(WithMissingAction(MissingEmpty))
		result, err := exp.Expand("${present}${absent}", src)
		require.NoError(t, err)
		assert.Equal(t, "yes", result)
	})

	t.Run("error reports every missing name", func(t *testing.T) {
		exp := NewExpander(WithMissingAction(MissingError))
		_, err := exp.Expand("${a} ${b}", src)
		require.Error(t, err)

		var undefErr *UndefinedVariableError
		require.ErrorAs(t, err, &undefErr)
		assert.Equal(t, []string{"a", "b"}, undefErr.Names)
		assert.Equal(t, "undefined variables: a, b", err.Error())
	})

	t.Run("error message for a single name", func(t *testing.T) {
		exp := NewExpander(WithMissingAction(MissingError))
		_, err := exp.Expand("${only}", src)
		require.Error(t, err)
		assert.Equal(t, "undefined variable: only", err.Error())
	})
}

func TestExpand_StyleOptions(t *testing.T) {
	src := FromMap(map[string]string{"name": "World"})

	t.Run("brace style disabled", func(t *testing.T) {
		exp := NewExpander(WithBraceStyle(false), WithDollarStyle(false))
		result, err := exp.Expand("${name}", src)
		require.NoError(t, err)
		assert.Equal(t, "${name}", result)
	})

	t.Run("dollar style disabled", func(t *testing.T) {
		exp := NewExpander(WithDollarStyle(false))
		result, err := exp.Expand("$name and ${name}", src)
		require.NoError(t, err)
		assert.Equal(t, "$name and World", result)
	})
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("WIREBUS_TEST_HOST", "10.0.0.5")
	t.Setenv("WIREBUS_TEST_PORT", "4000")

	result := ExpandEnv("http://${WIREBUS_TEST_HOST}:${WIREBUS_TEST_PORT}")
	assert.Equal(t, "http://10.0.0.5:4000", result)
}

func TestSources(t *testing.T) {
	t.Run("chain prefers earlier sources", func(t *testing.T) {
		first := FromMap(map[string]string{"key": "first"})
		second := FromMap(map[string]string{"key": "second", "other": "fallback"})

		src := Chain(first, second)

		v, ok := src("key")
		require.True(t, ok)
		assert.Equal(t, "first", v)

		v, ok = src("other")
		require.True(t, ok)
		assert.Equal(t, "fallback", v)

		_, ok = src("nowhere")
		assert.False(t, ok)
	})

	t.Run("chain skips nil sources", func(t *testing.T) {
		src := Chain(nil, FromMap(map[string]string{"key": "value"}))
		v, ok := src("key")
		require.True(t, ok)
		assert.Equal(t, "value", v)
	})

	t.Run("nil source keeps placeholders", func(t *testing.T) {
		result := Expand("${anything}", nil)
		assert.Equal(t, "${anything}", result)
	})
}

func TestExpandAll(t *testing.T) {
	src := FromMap(map[string]string{"a": "peer-a", "b": "peer-b"})

	results := ExpandAll([]string{"http://${a}:4000", "http://${b}:4000"}, src)
	assert.Equal(t, []string{"http://peer-a:4000", "http://peer-b:4000"}, results)

	assert.Nil(t, ExpandAll(nil, src))
}

func TestExpandMap(t *testing.T) {
	src := FromMap(map[string]string{
		"BUS_HOST":   "10.0.0.5",
		"BUS_SECRET": "swordfish",
		"PEER":       "peer-a",
	})

	result := ExpandMap(map[string]any{
		"baseUrl": "http://${BUS_HOST}:4000",
		"port":    4000,
		"auth": map[string]any{
			"secret": "${BUS_SECRET}",
		},
		"connectTo": []any{"http://${PEER}:4000"},
	}, src)

	assert.Equal(t, "http://10.0.0.5:4000", result["baseUrl"])
	assert.Equal(t, 4000, result["port"])

	auth, ok := result["auth"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "swordfish", auth["secret"])

	peers, ok := result["connectTo"].([]any)
	require.True(t, ok)
	assert.Equal(t, "http://peer-a:4000", peers[0])
}

func TestMustExpand(t *testing.T) {
	t.Run("returns expansion", func(t *testing.T) {
		exp := NewExpander()
		assert.Equal(t, "value", exp.MustExpand("${k}", FromMap(map[string]string{"k": "value"})))
	})

	t.Run("panics on undefined with MissingError", func(t *testing.T) {
		exp := NewExpander(WithMissingAction(MissingError))
		assert.Panics(t, func() {
			exp.MustExpand("${absent}", nil)
		})
	})
}
