// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/nv12/gfx"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Format != "png" || cfg.Frames != 1 || cfg.Sampler != "linear" {
		t.Errorf("Defaults() = %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nv12conv.yaml")
	data := []byte("width: 1280\nheight: 720\nformat: tiff\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Width != 1280 || cfg.Height != 720 || cfg.Format != "tiff" {
		t.Errorf("loaded %+v", cfg)
	}
	if cfg.Frames != 1 || cfg.Sampler != "linear" {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("width: [1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.Width, valid.Height = 4, 2

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"odd width", func(c *Config) { c.Width = 5 }, true},
		{"zero height", func(c *Config) { c.Height = 0 }, true},
		{"no frames", func(c *Config) { c.Frames = 0 }, true},
		{"bad sampler", func(c *Config) { c.Sampler = "cubic" }, true},
		{"bad format", func(c *Config) { c.Format = "gif" }, true},
		{"upper case format", func(c *Config) { c.Format = "BMP" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSamplerState(t *testing.T) {
	tests := []struct {
		name string
		want *gfx.SamplerState
	}{
		{"", gfx.SamplerLinearClamp},
		{"linear", gfx.SamplerLinearClamp},
		{"Point", gfx.SamplerPointClamp},
		{"nearest", gfx.SamplerPointClamp},
	}
	for _, tt := range tests {
		got, err := Config{Sampler: tt.name}.SamplerState()
		if err != nil || got != tt.want {
			t.Errorf("SamplerState(%q) = %v, %v", tt.name, got, err)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, format, want string
	}{
		{"frame.nv12", "", "png", "frame.png"},
		{"dir/cam.yuv", "", "TIFF", "dir/cam.tiff"},
		{"frame.nv12", "out.bmp", "png", "out.bmp"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.format); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.input, tt.output, tt.format, got, tt.want)
		}
	}
}
