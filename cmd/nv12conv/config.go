// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/nv12/gfx"
)

// Config holds conversion settings. Command-line flags override values
// loaded from a YAML file.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Format is the output encoding: png, bmp or tiff.
	Format string `yaml:"format"`

	// Frames is the number of frames submitted. Input holding several
	// frames is cycled through.
	Frames int `yaml:"frames"`

	// Sampler selects plane filtering: linear or point.
	Sampler string `yaml:"sampler"`

	// Label names the compositor in log output.
	Label string `yaml:"label"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Format:  "png",
		Frames:  1,
		Sampler: "linear",
		Label:   "nv12conv",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

var (
	errFrameSize = errors.New("width and height must be positive and even")
	errFrames    = errors.New("frames must be at least 1")
)

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 || c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("%dx%d: %w", c.Width, c.Height, errFrameSize)
	}
	if c.Frames < 1 {
		return errFrames
	}
	if _, err := c.SamplerState(); err != nil {
		return err
	}
	if _, err := encoderFor(c.Format); err != nil {
		return err
	}
	return nil
}

// SamplerState returns the sampler named by Sampler.
func (c Config) SamplerState() (*gfx.SamplerState, error) {
	switch strings.ToLower(c.Sampler) {
	case "", "linear":
		return gfx.SamplerLinearClamp, nil
	case "point", "nearest":
		return gfx.SamplerPointClamp, nil
	}
	return nil, fmt.Errorf("unknown sampler %q", c.Sampler)
}

// outputPath derives the output file name from the input when none is
// given.
func outputPath(input, output, format string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + strings.ToLower(format)
}
