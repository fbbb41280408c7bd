// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"github.com/gogpu/gputypes"
)

// Option configures a Context.
type Option func(*options)

type options struct {
	targetFormat gputypes.TextureFormat
	clearColor   gputypes.Color
}

func defaultOptions() options {
	return options{
		targetFormat: gputypes.TextureFormatRGBA8Unorm,
		clearColor:   gputypes.Color{R: 0, G: 0, B: 0, A: 0},
	}
}

// WithTargetFormat sets the color format of render targets created
// without an explicit format. Undefined is ignored.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		if f != gputypes.TextureFormatUndefined {
			o.targetFormat = f
		}
	}
}

// WithClearColor sets the color non-preserving targets are cleared to
// after a high-level target change.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}
