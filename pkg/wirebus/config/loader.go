package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/wirebus/pkg/wirebus/template"
)

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
//
// ${VAR} and $VAR references are expanded from the process environment
// before parsing. Unknown variables are left as-is.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config, expanding environment variable
// references first.
func FromYAML(data []byte) (Config, error) {
	expanded := template.ExpandEnv(string(data))

	var m map[string]any
	if err := yaml.Unmarshal([]byte(expanded), &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config, expanding environment variable
// references first.
func FromJSON(data []byte) (Config, error) {
	expanded := template.ExpandEnv(string(data))

	var m map[string]any
	if err := json.Unmarshal([]byte(expanded), &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}
