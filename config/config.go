// Package config loads categorizer settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Neumenon/cat32/cat32"
)

// Config represents a cat32.yml file.
//
//	salt: projX
//	namespace: v1
//	normalize: nfkc
//	labels: [...]            # exactly 32 when present
//	overrides:
//	  '"hello"': 3           # pin by index
//	  '"world"': Z           # pin by label
//	cache_size: 1024
//	redis:
//	  url: redis://localhost:6379/0
//	  key: cat32:overrides
type Config struct {
	Salt      string                   `yaml:"salt,omitempty"`
	Namespace *string                  `yaml:"namespace,omitempty"` // set, even to "", changes the salted key
	Normalize string                   `yaml:"normalize,omitempty"`
	Labels    []string                 `yaml:"labels,omitempty"`
	Overrides map[string]OverrideValue `yaml:"overrides,omitempty"`
	CacheSize int                      `yaml:"cache_size,omitempty"`
	Redis     *RedisConfig             `yaml:"redis,omitempty"`
}

// RedisConfig locates the shared override hash.
type RedisConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key,omitempty"`
}

// OverrideValue is an override as written in YAML: an integer or float
// pins by index, a string pins by label.
type OverrideValue struct {
	cat32.Override
	set bool // false for a null value, which never reaches UnmarshalYAML
}

// UnmarshalYAML implements yaml.Unmarshaler. A value that is neither a
// number nor a string is an invalid configuration.
func (o *OverrideValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return overrideError(node, "override must be an index or a label")
	}

	switch node.Tag {
	case "!!int":
		var i int
		if err := node.Decode(&i); err == nil {
			o.Override = cat32.PinIndex(i)
			o.set = true
			return nil
		}
		fallthrough
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return overrideError(node, "override index: %v", err)
		}
		o.Override = cat32.PinNumber(f)
	case "!!str":
		o.Override = cat32.PinLabel(node.Value)
	default:
		return overrideError(node, "override must be an index or a label, got %s", node.Tag)
	}
	o.set = true
	return nil
}

func overrideError(node *yaml.Node, format string, args ...any) error {
	return &cat32.Error{
		Op:   "Parse",
		Kind: cat32.KindInvalidConfiguration,
		Err:  fmt.Errorf("%w: line %d: "+format, append([]any{cat32.ErrInvalidConfig, node.Line}, args...)...),
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings by building a categorizer from them, so a
// file is rejected for exactly the reasons cat32.New would reject it.
func (c *Config) Validate() error {
	if c.Normalize != "" {
		if _, err := cat32.ParseNormalizeMode(c.Normalize); err != nil {
			return err
		}
	}
	for _, k := range slices.Sorted(maps.Keys(c.Overrides)) {
		if !c.Overrides[k].set {
			return &cat32.Error{
				Op:      "Parse",
				Kind:    cat32.KindInvalidConfiguration,
				Err:     fmt.Errorf("%w: override must be an index or a label, got null", cat32.ErrInvalidConfig),
				Context: map[string]any{"key": k},
			}
		}
	}
	if c.Redis != nil && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis is configured")
	}
	if _, err := cat32.New(c.Options()...); err != nil {
		return err
	}
	return nil
}

// Options converts the file into categorizer options.
func (c *Config) Options() []cat32.Option {
	var opts []cat32.Option
	if c.Salt != "" {
		opts = append(opts, cat32.WithSalt(c.Salt))
	}
	if c.Namespace != nil {
		opts = append(opts, cat32.WithNamespace(*c.Namespace))
	}
	if c.Normalize != "" {
		mode, err := cat32.ParseNormalizeMode(c.Normalize)
		if err == nil {
			opts = append(opts, cat32.WithNormalize(mode))
		}
	}
	if len(c.Labels) > 0 {
		opts = append(opts, cat32.WithLabels(c.Labels))
	}
	if len(c.Overrides) > 0 {
		overrides := make(map[string]cat32.Override, len(c.Overrides))
		for k, v := range c.Overrides {
			overrides[k] = v.Override
		}
		opts = append(opts, cat32.WithOverrides(overrides))
	}
	if c.CacheSize != 0 {
		opts = append(opts, cat32.WithCacheSize(c.CacheSize))
	}
	return opts
}
