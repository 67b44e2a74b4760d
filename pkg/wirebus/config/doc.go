/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
Node configuration is loaded from YAML or JSON files and read through these
accessors without verbose type assertions and nil checks.

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "port":              4000,
	    "keepaliveInterval": "60s",
	    "connectTo":         []any{"http://peer-a:4000"},
	})

	port := cfg.Int("port", 0)                                  // 4000
	interval := cfg.Duration("keepaliveInterval", time.Minute)  // 60s
	peers := cfg.StringSlice("connectTo", nil)                  // [http://peer-a:4000]
	name := cfg.String("name", "")                              // ""

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("30s", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

Int accepts int, int64, and float64 values; a float with a fractional
part is rejected rather than truncated.

All methods return the default value if:
  - The key is missing
  - The value cannot be converted to the requested type
  - The conversion would lose precision (e.g., float to int with fraction)

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("node.yaml")
	if err != nil {
	    log.Fatal(err)
	}

${VAR} and $VAR references in the file are expanded from the process
environment before parsing, so addresses and secrets stay out of the file:

	baseUrl: http://${BUS_HOST}:${BUS_PORT}
	secret: ${BUS_SECRET}

Unknown variables are left as-is.

# Nested Sections

Nested maps are reachable with Sub:

	journal := cfg.Sub("journal")
	backend := journal.String("backend", "memory")

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
