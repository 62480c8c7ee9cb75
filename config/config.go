// Package config holds the emulator run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/xyproto/env/v2"
)

// Environment variables that override configuration values.
const (
	EnvWindowSize      = "RVEMU_WINDOW_SIZE"
	EnvStackSize       = "RVEMU_STACK_SIZE"
	EnvMaxInstructions = "RVEMU_MAX_INSTRUCTIONS"
	EnvDecodeCacheSets = "RVEMU_DECODE_CACHE_SETS"
	EnvDecodeCacheWays = "RVEMU_DECODE_CACHE_WAYS"
	EnvTrace           = "RVEMU_TRACE"
	EnvLogLevel        = "RVEMU_LOG_LEVEL"
)

// Config holds the tunables of an emulator run.
type Config struct {
	// WindowSize is the size of the reserved guest address window.
	// Default: 4 GiB.
	WindowSize uint64 `json:"window_size"`

	// StackSize is the size of the guest stack. Default: 32 MiB.
	StackSize uint64 `json:"stack_size"`

	// MaxInstructions stops the run after this many instructions.
	// Default: 0 (no limit).
	MaxInstructions uint64 `json:"max_instructions"`

	// DecodeCacheSets is the number of decode cache sets. Zero disables the
	// cache. Default: 1024.
	DecodeCacheSets int `json:"decode_cache_sets"`

	// DecodeCacheWays is the associativity of the decode cache. Default: 4.
	DecodeCacheWays int `json:"decode_cache_ways"`

	// Trace logs every executed instruction.
	Trace bool `json:"trace"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WindowSize:      4 << 30,
		StackSize:       32 << 20,
		DecodeCacheSets: 1024,
		DecodeCacheWays: 4,
		LogLevel:        "info",
	}
}

// Load loads a Config from a JSON file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields with any RVEMU_* environment variables that
// are set. Sizes accept decimal, 0x-prefixed hex and 0o-prefixed octal.
func (c *Config) ApplyEnv() error {
	env.Load()

	sizes := []struct {
		name  string
		field *uint64
	}{
		{EnvWindowSize, &c.WindowSize},
		{EnvStackSize, &c.StackSize},
		{EnvMaxInstructions, &c.MaxInstructions},
	}
	for _, s := range sizes {
		if !env.Has(s.name) {
			continue
		}
		v, err := strconv.ParseUint(env.Str(s.name), 0, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", s.name, err)
		}
		*s.field = v
	}

	counts := []struct {
		name  string
		field *int
	}{
		{EnvDecodeCacheSets, &c.DecodeCacheSets},
		{EnvDecodeCacheWays, &c.DecodeCacheWays},
	}
	for _, n := range counts {
		if !env.Has(n.name) {
			continue
		}
		v, err := strconv.Atoi(env.Str(n.name))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", n.name, err)
		}
		*n.field = v
	}

	if env.Has(EnvTrace) {
		c.Trace = env.Bool(EnvTrace)
	}
	c.LogLevel = env.Str(EnvLogLevel, c.LogLevel)

	return nil
}

// Validate checks that the configuration can drive an emulator.
func (c *Config) Validate() error {
	pageSize := uint64(os.Getpagesize())

	if c.WindowSize == 0 || c.WindowSize%pageSize != 0 {
		return fmt.Errorf("window_size must be a positive multiple of %d", pageSize)
	}
	if c.StackSize == 0 {
		return fmt.Errorf("stack_size must be > 0")
	}
	if c.StackSize >= c.WindowSize {
		return fmt.Errorf("stack_size must be < window_size")
	}
	if c.DecodeCacheSets < 0 || c.DecodeCacheWays < 0 {
		return fmt.Errorf("decode cache geometry must not be negative")
	}
	if c.DecodeCacheSets > 0 && c.DecodeCacheWays == 0 {
		return fmt.Errorf("decode_cache_ways must be > 0 when the cache is enabled")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level. Trace overrides LogLevel.
func (c *Config) Level() logrus.Level {
	if c.Trace {
		return logrus.TraceLevel
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
