// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// Texture is a CPU-backed 2D texture.
//
// Color formats store texels in Pix, depth formats store one float32 per
// texel in depth.
type Texture struct {
	ctx       *Context
	width     int
	height    int
	format    gputypes.TextureFormat
	pix       []byte
	depth     []float32
	destroyed bool
}

var _ gfx.Texture = (*Texture)(nil)

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// IsDestroyed reports whether Destroy has been called.
func (t *Texture) IsDestroyed() bool { return t.destroyed }

// Destroy releases the texel storage. Safe to call multiple times.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.pix = nil
	t.depth = nil
	if t.ctx != nil {
		t.ctx.liveBytes -= textureBytes(t.width, t.height, t.format)
		t.ctx.stats.TexturesDestroyed++
	}
}

// Pix returns the raw texel bytes of a color texture.
// The slice aliases the texture storage.
func (t *Texture) Pix() []byte { return t.pix }

// Depth returns the stored depth at (x, y), or 1 outside the texture or
// for non-depth formats.
func (t *Texture) Depth(x, y int) float32 {
	if t.depth == nil || x < 0 || y < 0 || x >= t.width || y >= t.height {
		return 1
	}
	return t.depth[y*t.width+x]
}

func textureBytes(w, h int, f gputypes.TextureFormat) int {
	if f.HasDepth() {
		return w * h * 4
	}
	return w * h * gfx.BytesPerTexel(f)
}

// texel returns the texel at integer coordinates as RGBA in [0, 1].
func (t *Texture) texel(x, y int) [4]float32 {
	bpp := gfx.BytesPerTexel(t.format)
	off := (y*t.width + x) * bpp
	p := t.pix[off : off+bpp]
	switch t.format {
	case gputypes.TextureFormatR8Unorm:
		return [4]float32{unorm(p[0]), 0, 0, 1}
	case gputypes.TextureFormatRG8Unorm:
		return [4]float32{unorm(p[0]), unorm(p[1]), 0, 1}
	case gputypes.TextureFormatBGRA8Unorm:
		return [4]float32{unorm(p[2]), unorm(p[1]), unorm(p[0]), unorm(p[3])}
	default:
		return [4]float32{unorm(p[0]), unorm(p[1]), unorm(p[2]), unorm(p[3])}
	}
}

func (t *Texture) store(x, y int, c [4]float32) {
	off := (y*t.width + x) * 4
	p := t.pix[off : off+4]
	if t.format == gputypes.TextureFormatBGRA8Unorm {
		p[0], p[1], p[2], p[3] = toUnorm(c[2]), toUnorm(c[1]), toUnorm(c[0]), toUnorm(c[3])
		return
	}
	p[0], p[1], p[2], p[3] = toUnorm(c[0]), toUnorm(c[1]), toUnorm(c[2]), toUnorm(c[3])
}

func (t *Texture) clear(c color.RGBA) {
	if t.depth != nil {
		for i := range t.depth {
			t.depth[i] = 1
		}
		return
	}
	if gfx.BytesPerTexel(t.format) != 4 {
		clear(t.pix)
		return
	}
	fc := [4]float32{unorm(c.R), unorm(c.G), unorm(c.B), unorm(c.A)}
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			t.store(x, y, fc)
		}
	}
}

// sample filters the texture at normalized coordinates.
func (t *Texture) sample(s *gfx.SamplerState, u, v float32) [4]float32 {
	if s == nil {
		s = gfx.SamplerLinearWrap
	}
	if s.MagFilter == gputypes.FilterModeLinear {
		return t.sampleLinear(s, u, v)
	}
	x := address(int(math.Floor(float64(u*float32(t.width)))), t.width, s.AddressModeU)
	y := address(int(math.Floor(float64(v*float32(t.height)))), t.height, s.AddressModeV)
	return t.texel(x, y)
}

func (t *Texture) sampleLinear(s *gfx.SamplerState, u, v float32) [4]float32 {
	fx := float64(u*float32(t.width)) - 0.5
	fy := float64(v*float32(t.height)) - 0.5
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	ax, ay := float32(fx-x0f), float32(fy-y0f)
	x0, y0 := int(x0f), int(y0f)

	xa := address(x0, t.width, s.AddressModeU)
	xb := address(x0+1, t.width, s.AddressModeU)
	ya := address(y0, t.height, s.AddressModeV)
	yb := address(y0+1, t.height, s.AddressModeV)

	c00, c10 := t.texel(xa, ya), t.texel(xb, ya)
	c01, c11 := t.texel(xa, yb), t.texel(xb, yb)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*ax
		bottom := c01[i] + (c11[i]-c01[i])*ax
		out[i] = top + (bottom-top)*ay
	}
	return out
}

func address(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		return min(max(i, 0), n-1)
	}
}

func unorm(b uint8) float32 { return float32(b) / 255 }

func toUnorm(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// boundSampler pairs a bound texture with its sampler state.
type boundSampler struct {
	tex   *Texture
	state *gfx.SamplerState
}

func (b boundSampler) Sample(u, v float32) [4]float32 {
	if b.tex == nil {
		return [4]float32{0, 0, 0, 1}
	}
	return b.tex.sample(b.state, u, v)
}

// RenderTargetDescriptor describes a render target.
type RenderTargetDescriptor struct {
	Width  int
	Height int

	// Format is the color format, RGBA8Unorm when left undefined.
	Format gputypes.TextureFormat

	// DepthFormat adds a depth/stencil attachment when not undefined.
	DepthFormat gputypes.TextureFormat

	// PreserveContents keeps the contents when the target is bound through
	// the high-level Context.SetRenderTargets. Otherwise binding clears it.
	PreserveContents bool
}

// RenderTarget is a CPU-backed render target with an optional
// depth/stencil attachment.
type RenderTarget struct {
	*Texture
	depthStencil *Texture
	preserve     bool
}

var _ gfx.RenderTarget = (*RenderTarget)(nil)

// DepthStencilBuffer returns the depth/stencil attachment, or nil.
func (r *RenderTarget) DepthStencilBuffer() gfx.Texture {
	if r.depthStencil == nil {
		return nil
	}
	return r.depthStencil
}

// DepthStencilFormat returns the depth/stencil format, or undefined.
func (r *RenderTarget) DepthStencilFormat() gputypes.TextureFormat {
	if r.depthStencil == nil {
		return gputypes.TextureFormatUndefined
	}
	return r.depthStencil.format
}

// PreservesContents reports whether high-level binding keeps the contents.
func (r *RenderTarget) PreservesContents() bool { return r.preserve }

// Destroy releases the color texture and the depth/stencil attachment.
func (r *RenderTarget) Destroy() {
	r.Texture.Destroy()
	if r.depthStencil != nil {
		r.depthStencil.Destroy()
	}
}

// Image returns an RGBA image sharing memory with the target.
// It returns nil for BGRA targets and destroyed targets.
func (r *RenderTarget) Image() *image.RGBA {
	if r.destroyed || r.format != gputypes.TextureFormatRGBA8Unorm {
		return nil
	}
	return &image.RGBA{
		Pix:    r.pix,
		Stride: r.width * 4,
		Rect:   image.Rect(0, 0, r.width, r.height),
	}
}

// At returns the color of the pixel at (x, y).
func (r *RenderTarget) At(x, y int) color.RGBA {
	if r.destroyed || x < 0 || y < 0 || x >= r.width || y >= r.height {
		return color.RGBA{}
	}
	c := r.texel(x, y)
	return color.RGBA{R: toUnorm(c[0]), G: toUnorm(c[1]), B: toUnorm(c[2]), A: toUnorm(c[3])}
}
