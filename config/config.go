// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config loads spvbuild project configuration.
//
// A project may keep a spvbuild.yaml, spvbuild.yml or spvbuild.toml next to
// its shader sources. Values are layered: defaults, then the file, then
// SPVBUILD_* environment variables. Command-line flags are applied on top
// by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/spvbuild"
	"github.com/gogpu/spvbuild/target"
)

// Environment variables that override file values.
const (
	EnvTarget   = "SPVBUILD_TARGET"
	EnvOutput   = "SPVBUILD_OUTPUT"
	EnvCacheDir = "SPVBUILD_CACHE_DIR"
	EnvLogLevel = "SPVBUILD_LOG_LEVEL"
)

// FileNames lists the file names Find looks for, in order.
var FileNames = []string{"spvbuild.yaml", "spvbuild.yml", "spvbuild.toml"}

// Config holds the build settings of a project.
type Config struct {
	Target        string   `yaml:"target" toml:"target"`
	Multimodule   bool     `yaml:"multimodule" toml:"multimodule"`
	Debug         bool     `yaml:"debug" toml:"debug"`
	Capabilities  []string `yaml:"capabilities" toml:"capabilities"`
	Extensions    []string `yaml:"extensions" toml:"extensions"`
	Output        string   `yaml:"output" toml:"output"`
	SpirvMetadata string   `yaml:"spirv-metadata" toml:"spirv-metadata"`

	// CacheDir holds intermediate compiler artifacts.
	CacheDir       string `yaml:"cache-dir" toml:"cache-dir"`
	SkipValidation bool   `yaml:"skip-validation" toml:"skip-validation"`
	LogLevel       string `yaml:"log-level" toml:"log-level"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-" toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Target:        target.Default,
		SpirvMetadata: spvbuild.MetadataNone.String(),
		LogLevel:      "warn",
	}
}

// Load reads the file at path over the defaults and applies environment
// overrides. The file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Path = path

	// Relative paths in a file are relative to the file.
	base := filepath.Dir(path)
	if cfg.Output, err = resolve(base, cfg.Output); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = resolve(base, cfg.CacheDir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Find returns the first of FileNames present in dir, or "" if none is.
func Find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Resolve loads the explicit file if one is named, otherwise the file
// Find locates in dir. Without a file it returns the defaults with
// environment overrides.
func Resolve(explicit, dir string) (*Config, error) {
	path := explicit
	if path == "" {
		path = Find(dir)
	}
	if path == "" {
		cfg := Default()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return Load(path)
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// resolve expands a leading "~" and joins relative paths to base.
func resolve(base, p string) (string, error) {
	p, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if p == "" || filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(base, p), nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvTarget); v != "" {
		c.Target = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = expand(v)
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.CacheDir = expand(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// expand expands a leading "~", leaving p unchanged if it cannot.
func expand(p string) string {
	if e, err := homedir.Expand(p); err == nil {
		return e
	}
	return p
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.WarnLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, &spvbuild.ConfigError{Field: "log-level", Value: c.LogLevel, Err: err}
	}
	return lvl, nil
}

// Options returns the request options for building source.
func (c *Config) Options(source string) spvbuild.Options {
	return spvbuild.Options{
		Source:       source,
		Target:       c.Target,
		Debug:        c.Debug,
		Multimodule:  c.Multimodule,
		Metadata:     c.SpirvMetadata,
		Capabilities: append([]string(nil), c.Capabilities...),
		Extensions:   append([]string(nil), c.Extensions...),
		OutputDir:    c.Output,
	}
}
