package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"reflect"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// boolPtrTransformer stops mergo from dereferencing *bool fields during
// the defaults merge. Merging by value would treat an explicit user
// `false` as empty and clobber it with a `true` default; a pointer set
// by the YAML parser must win regardless of the value it holds.
type boolPtrTransformer struct{}

func (boolPtrTransformer) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t != reflect.TypeOf((*bool)(nil)) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && dst.IsNil() {
			dst.Set(src)
		}
		return nil
	}
}

// Load reads the YAML file at path, expands environment references,
// merges the result over built-in defaults, and validates it. A missing
// file is not an error; the service then runs on defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("No configuration file found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(ExpandEnv(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		slog.Info("Configuration loaded", "path", path)
	}

	if err := mergo.Merge(cfg, defaultConfig(), mergo.WithTransformers(boolPtrTransformer{})); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
