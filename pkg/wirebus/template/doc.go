/*
Package template provides variable expansion for configuration strings.

# Overview

template expands ${var} and $var patterns in strings. Values come from a
Source, which can be a map, the process environment, or a chain of both.
Node configuration files use it to keep addresses and secrets out of the
file itself:

	baseUrl: http://${BUS_HOST}:${BUS_PORT}
	secret: ${BUS_SECRET}

# Basic Usage

Expand against the environment with the package-level helper:

	addr := template.ExpandEnv("http://${BUS_HOST}:${BUS_PORT}")

Or against explicit values:

	result := template.Expand("Hello ${name}", template.FromMap(map[string]string{
	    "name": "World",
	}))
	// result: "Hello World"

# Variable Patterns

Two patterns are supported:

  - ${var} - Brace style, recommended for clarity
  - $var - Dollar style, simpler but requires word boundaries

The dollar style uses word boundary detection to avoid partial matches.
For example, $port won't match inside $portNumber.

# Sources

A Source resolves a variable name to a value:

	env := template.FromEnv()                       // process environment
	m := template.FromMap(map[string]string{...})   // explicit values
	chained := template.Chain(m, env)               // first hit wins

# Missing Variables

By default, missing variables are kept as-is:

	result := template.Expand("Hello ${missing}", template.FromEnv())
	// result: "Hello ${missing}"

Configure behavior with options:

	exp := template.NewExpander(template.WithMissingAction(template.MissingError))
	_, err := exp.Expand("Hello ${missing}", template.FromEnv())
	// err: "undefined variable: missing"

# Batch Expansion

Expand multiple strings or whole configuration maps:

	peers := template.ExpandAll([]string{
	    "http://${PEER_A}",
	    "http://${PEER_B}",
	}, template.FromEnv())

	raw := template.ExpandMap(map[string]any{
	    "baseUrl": "http://${BUS_HOST}:4000",
	    "nested": map[string]any{
	        "secret": "${BUS_SECRET}",
	    },
	}, template.FromEnv())

# Thread Safety

Expander is safe for concurrent use after construction.
Package-level functions use a shared default expander.
*/
package template
