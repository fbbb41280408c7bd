// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// texturePool owns the luma and chroma planes of the current frame size.
// Both textures are present or both are nil.
type texturePool struct {
	luma   gfx.Texture
	chroma gfx.Texture
	width  int
	height int

	// viewport covers the frame and changes together with the textures.
	viewport gfx.Viewport

	reallocations uint64
}

// ensure makes the pool hold planes for a width x height frame. It is a
// no-op when it already does. Otherwise the old planes are destroyed
// before the new ones are created; on failure the pool is left empty.
// It reports whether it reallocated.
func (p *texturePool) ensure(ctx gfx.Context, width, height int) (bool, error) {
	if p.luma != nil && p.width == width && p.height == height &&
		!p.luma.IsDestroyed() && !p.chroma.IsDestroyed() {
		return false, nil
	}
	p.release()

	luma, err := ctx.CreateTexture(width, height, gputypes.TextureFormatR8Unorm)
	if err != nil {
		return false, fmt.Errorf("allocate luma %dx%d: %w", width, height, err)
	}
	chroma, err := ctx.CreateTexture(width/2, height/2, gputypes.TextureFormatRG8Unorm)
	if err != nil {
		luma.Destroy()
		return false, fmt.Errorf("allocate chroma %dx%d: %w", width/2, height/2, err)
	}

	p.luma, p.chroma = luma, chroma
	p.width, p.height = width, height
	p.viewport = gfx.NewViewport(0, 0, width, height)
	p.reallocations++
	Logger().Debug("nv12: planes allocated",
		slog.Int("width", width), slog.Int("height", height))
	return true, nil
}

// release destroys the planes the pool still owns.
func (p *texturePool) release() {
	for _, t := range []gfx.Texture{p.luma, p.chroma} {
		if t != nil && !t.IsDestroyed() {
			t.Destroy()
		}
	}
	p.luma, p.chroma = nil, nil
	p.width, p.height = 0, 0
	p.viewport = gfx.Viewport{}
}
