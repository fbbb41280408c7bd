// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nv12/gfx"
)

// copyPitchAlignment is the required row pitch of texture to buffer copies.
const copyPitchAlignment = 256

// Texture is a HAL texture with a full 2D view.
type Texture struct {
	ctx       *Context
	tex       hal.Texture
	view      hal.TextureView
	width     int
	height    int
	format    gputypes.TextureFormat
	destroyed bool
}

var _ gfx.Texture = (*Texture)(nil)

func (c *Context) newTexture(width, height int, format gputypes.TextureFormat, usage gputypes.TextureUsage, label string) (*Texture, error) {
	if c.destroyed {
		return nil, ErrContextDestroyed
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("create texture %dx%d: %w", width, height, gfx.ErrInvalidSize)
	}
	if gfx.BytesPerTexel(format) == 0 && !format.HasDepth() {
		return nil, fmt.Errorf("create texture: %v: %w", format, gfx.ErrUnsupportedFormat)
	}

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %dx%d %v: %w: %w", width, height, format, gfx.ErrOutOfMemory, err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label,
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %v: %w", format, err)
	}
	return &Texture{
		ctx:    c,
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
		format: format,
	}, nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// IsDestroyed reports whether Destroy has been called.
func (t *Texture) IsDestroyed() bool { return t.destroyed }

// Destroy releases the view and the texture. Safe to call multiple times.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.ctx.device.DestroyTextureView(t.view)
	t.ctx.device.DestroyTexture(t.tex)
	t.view = nil
	t.tex = nil
}

// RenderTargetDescriptor describes a render target.
type RenderTargetDescriptor struct {
	Width, Height int

	// Format defaults to the context target format.
	Format gputypes.TextureFormat

	// DepthFormat attaches a depth/stencil texture when not Undefined.
	DepthFormat gputypes.TextureFormat

	// PreserveContents keeps the contents when the target is bound through
	// Context.SetRenderTargets.
	PreserveContents bool
}

// RenderTarget is a color texture that can be drawn to, with an optional
// depth/stencil attachment.
type RenderTarget struct {
	*Texture
	depthStencil *Texture
	preserve     bool
}

var _ gfx.RenderTarget = (*RenderTarget)(nil)

// DepthStencilBuffer returns the depth/stencil attachment, or nil.
func (rt *RenderTarget) DepthStencilBuffer() gfx.Texture {
	if rt.depthStencil == nil {
		return nil
	}
	return rt.depthStencil
}

// DepthStencilFormat returns the attachment format, or Undefined.
func (rt *RenderTarget) DepthStencilFormat() gputypes.TextureFormat {
	if rt.depthStencil == nil {
		return gputypes.TextureFormatUndefined
	}
	return rt.depthStencil.format
}

// PreservesContents reports whether high-level binding keeps the contents.
func (rt *RenderTarget) PreservesContents() bool { return rt.preserve }

// Destroy releases the color texture and the depth/stencil attachment.
func (rt *RenderTarget) Destroy() {
	if rt.destroyed {
		return
	}
	delete(rt.ctx.pendingClear, rt)
	rt.Texture.Destroy()
	if rt.depthStencil != nil {
		rt.depthStencil.Destroy()
	}
}

// ReadPixels copies the target into host memory.
//
// The copy goes through a staging buffer whose rows are padded to
// copyPitchAlignment bytes. The call blocks until the GPU has finished.
func (rt *RenderTarget) ReadPixels() (*image.RGBA, error) {
	if rt.destroyed {
		return nil, fmt.Errorf("read pixels: %w", gfx.ErrDestroyed)
	}
	c := rt.ctx
	if c.destroyed {
		return nil, ErrContextDestroyed
	}

	rowBytes := rt.width * 4
	pitch := alignUp(rowBytes, copyPitchAlignment)
	size := uint64(pitch * rt.height)

	staging, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "halgfx readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("read pixels: staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(staging)

	enc, err := c.beginEncoder("halgfx readback")
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	whole := hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1}
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: rt.tex,
		Range:   whole,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	enc.CopyTextureToBuffer(rt.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			BytesPerRow:  uint32(pitch),
			RowsPerImage: uint32(rt.height),
		},
		TextureBase: hal.ImageCopyTexture{Texture: rt.tex, Aspect: gputypes.TextureAspectAll},
		Size: hal.Extent3D{
			Width:              uint32(rt.width),
			Height:             uint32(rt.height),
			DepthOrArrayLayers: 1,
		},
	}})
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: rt.tex,
		Range:   whole,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	if err := c.submit(enc); err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}

	mapping, err := c.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("read pixels: map: %w", err)
	}
	data := unsafe.Slice((*byte)(mapping.Ptr), size)
	img := unpackRows(data, rt.width, rt.height, pitch, rt.format)
	if err := c.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("read pixels: unmap: %w", err)
	}
	return img, nil
}

// unpackRows copies padded rows into a tightly packed RGBA image,
// swapping red and blue for BGRA data.
func unpackRows(data []byte, width, height, pitch int, format gputypes.TextureFormat) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowBytes := width * 4
	for y := 0; y < height; y++ {
		dst := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
		copy(dst, data[y*pitch:y*pitch+rowBytes])
		if format == gputypes.TextureFormatBGRA8Unorm {
			for i := 0; i < rowBytes; i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return img
}
