// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import (
	"github.com/gogpu/nv12/gfx"
	"github.com/gogpu/nv12/shader"
)

// Option configures a Compositor during creation.
//
// Example:
//
//	c, err := nv12.New(ctx, target, nv12.WithLabel("camera-0"))
type Option func(*options)

type options struct {
	sampler *gfx.SamplerState
	label   string
	program gfx.ProgramDescriptor
}

func defaultOptions() options {
	return options{
		sampler: gfx.SamplerLinearClamp,
		label:   "nv12",
		program: shader.NV12ToRGBA(),
	}
}

// WithSampler sets the sampler used for both planes.
// The default is linear filtering with clamp-to-edge addressing.
func WithSampler(s *gfx.SamplerState) Option {
	return func(o *options) {
		if s != nil {
			o.sampler = s
		}
	}
}

// WithLabel names the compositor in log records.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithProgram replaces the conversion program. The program reads the luma
// plane from texture slot 0 and the chroma plane from slot 1.
func WithProgram(desc gfx.ProgramDescriptor) Option {
	return func(o *options) {
		o.program = desc
	}
}
