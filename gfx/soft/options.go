// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import "image/color"

// Option configures a Context during creation.
//
// Example:
//
//	ctx := soft.New(soft.WithTextureBudget(64<<20))
type Option func(*options)

type options struct {
	textureBudget int
	clearColor    color.RGBA
}

func defaultOptions() options {
	return options{
		textureBudget: 0, // unlimited
		clearColor:    color.RGBA{},
	}
}

// WithTextureBudget limits the bytes held by live textures. CreateTexture
// fails with gfx.ErrOutOfMemory once the budget would be exceeded.
// Zero means unlimited.
func WithTextureBudget(bytes int) Option {
	return func(o *options) {
		o.textureBudget = bytes
	}
}

// WithClearColor sets the color render targets are cleared to when bound
// through the high-level Context.SetRenderTargets.
func WithClearColor(c color.RGBA) Option {
	return func(o *options) {
		o.clearColor = c
	}
}
