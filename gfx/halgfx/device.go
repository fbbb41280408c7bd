// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nv12/gfx"
)

// Errors returned by the pass-with-restore protocol.
var (
	ErrNilStateChanges = errors.New("halgfx: nil state changes")
	ErrPassMismatch    = errors.New("halgfx: pass ended with a different program")
)

// device is the low-level side of a Context. Target changes made through
// it never schedule a clear and never touch the viewport.
type device struct {
	ctx *Context
}

var _ gfx.Device = (*device)(nil)

func (d *device) SetRenderTargets(targets []gfx.RenderTargetBinding, depthStencil gfx.Texture, depthFormat gputypes.TextureFormat) {
	d.ctx.bindTargets(targets, depthStencil, depthFormat)
}

func (d *device) SetViewport(v gfx.Viewport) {
	d.ctx.viewport = v
}

func (d *device) DepthStencil() (gfx.Texture, gputypes.TextureFormat) {
	return d.ctx.DepthStencil()
}

// BeginPassRestore activates p and applies its pass parameters. Program
// parameters live on the host, so nothing is recorded on the GPU.
func (d *device) BeginPassRestore(p gfx.Program, changes *gfx.StateChanges) error {
	c := d.ctx
	if changes == nil {
		return ErrNilStateChanges
	}
	if c.pass != nil {
		return gfx.ErrPassActive
	}
	prog, err := c.ownProgram(p)
	if err != nil {
		return fmt.Errorf("begin pass: %w", err)
	}

	changes.Reset()
	changes.Program = c.program
	for name, v := range prog.passParams {
		if prev, ok := prog.params[name]; ok {
			if changes.Params == nil {
				changes.Params = make(map[string]float32)
			}
			changes.Params[name] = prev
		} else {
			changes.Unset = append(changes.Unset, name)
		}
		prog.params[name] = v
	}
	changes.Active = true

	c.program = prog
	c.pass = changes
	c.passProgram = prog
	return nil
}

func (d *device) EndPassRestore(p gfx.Program) error {
	c := d.ctx
	if c.pass == nil {
		return gfx.ErrPassNotActive
	}
	prog, ok := p.(*Program)
	if !ok || prog != c.passProgram {
		return ErrPassMismatch
	}

	changes := c.pass
	for name, v := range changes.Params {
		prog.params[name] = v
	}
	for _, name := range changes.Unset {
		delete(prog.params, name)
	}
	c.program = changes.Program
	if c.program != nil && c.program.IsDestroyed() {
		c.program = nil
	}
	changes.Reset()
	c.pass = nil
	c.passProgram = nil
	return nil
}

// UploadNV12 writes the two planes with one queue write each.
func (d *device) UploadNV12(luma, chroma gfx.Texture, data []byte) error {
	c := d.ctx
	y, err := c.ownTexture(luma)
	if err != nil {
		return fmt.Errorf("upload luma: %w", err)
	}
	uv, err := c.ownTexture(chroma)
	if err != nil {
		return fmt.Errorf("upload chroma: %w", err)
	}
	if y.format != gputypes.TextureFormatR8Unorm || uv.format != gputypes.TextureFormatRG8Unorm {
		return fmt.Errorf("upload nv12: planes %v/%v: %w", y.format, uv.format, gfx.ErrUnsupportedFormat)
	}
	if uv.width != y.width/2 || uv.height != y.height/2 {
		return fmt.Errorf("upload nv12: chroma %dx%d for luma %dx%d: %w",
			uv.width, uv.height, y.width, y.height, gfx.ErrInvalidSize)
	}
	lumaSize := y.width * y.height
	need := lumaSize + uv.width*uv.height*2
	if len(data) < need {
		return fmt.Errorf("upload nv12: %d bytes, need %d: %w", len(data), need, gfx.ErrInvalidSize)
	}

	if err := c.writePlane(y, data[:lumaSize], 1); err != nil {
		return fmt.Errorf("upload luma: %w", err)
	}
	if err := c.writePlane(uv, data[lumaSize:need], 2); err != nil {
		return fmt.Errorf("upload chroma: %w", err)
	}
	c.stats.Uploads++
	return nil
}

func (c *Context) writePlane(t *Texture, data []byte, bytesPerTexel int) error {
	return c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{
			BytesPerRow:  uint32(t.width * bytesPerTexel),
			RowsPerImage: uint32(t.height),
		},
		&hal.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: 1,
		},
	)
}

func (c *Context) ownTexture(t gfx.Texture) (*Texture, error) {
	var tex *Texture
	switch v := t.(type) {
	case *Texture:
		tex = v
	case *RenderTarget:
		if v != nil {
			tex = v.Texture
		}
	default:
		return nil, gfx.ErrForeignResource
	}
	if tex == nil || tex.ctx != c {
		return nil, gfx.ErrForeignResource
	}
	if tex.destroyed {
		return nil, gfx.ErrDestroyed
	}
	return tex, nil
}

func (c *Context) ownTarget(t gfx.RenderTarget) (*RenderTarget, error) {
	rt, ok := t.(*RenderTarget)
	if !ok || rt == nil || rt.Texture == nil || rt.ctx != c {
		return nil, gfx.ErrForeignResource
	}
	if rt.destroyed {
		return nil, gfx.ErrDestroyed
	}
	return rt, nil
}

func (c *Context) ownProgram(p gfx.Program) (*Program, error) {
	prog, ok := p.(*Program)
	if !ok || prog == nil || prog.ctx != c {
		return nil, gfx.ErrForeignResource
	}
	if prog.destroyed {
		return nil, gfx.ErrDestroyed
	}
	return prog, nil
}
