// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// planeSlots is the number of texture slots the conversion pass binds.
const planeSlots = 2

// savedState is the pipeline state the conversion pass replaces.
type savedState struct {
	textures      [planeSlots]gfx.Texture
	samplers      [planeSlots]*gfx.SamplerState
	vertexBuffers []gfx.VertexBufferBinding
	targets       []gfx.RenderTargetBinding
	depthStencil  gfx.Texture
	depthFormat   gputypes.TextureFormat
	blend         *gfx.BlendState
	depth         *gfx.DepthStencilState
	rasterizer    *gfx.RasterizerState
	viewport      gfx.Viewport
}

// passConfig is what the conversion pass binds.
type passConfig struct {
	program  gfx.Program
	changes  *gfx.StateChanges
	planes   [planeSlots]gfx.Texture
	sampler  *gfx.SamplerState
	vertices []gfx.VertexBufferBinding
	targets  []gfx.RenderTargetBinding
	viewport gfx.Viewport
}

// stateBracket captures state on begin and puts it back on end.
// At most one capture is live at a time.
type stateBracket struct {
	saved  savedState
	active bool
	label  string
}

// begin starts the conversion pass and binds its configuration,
// retaining everything it replaces. Nothing is retained when starting the
// pass fails.
func (b *stateBracket) begin(ctx gfx.Context, dev gfx.Device, cfg *passConfig) error {
	if b.active {
		return ErrBracketActive
	}
	if err := dev.BeginPassRestore(cfg.program, cfg.changes); err != nil {
		return fmt.Errorf("begin conversion pass: %w", err)
	}
	b.active = true
	s := &b.saved

	for slot := 0; slot < planeSlots; slot++ {
		s.textures[slot] = ctx.Texture(slot)
		s.samplers[slot] = ctx.SamplerState(slot)
		ctx.SetTexture(slot, cfg.planes[slot])
		ctx.SetSamplerState(slot, cfg.sampler)
	}

	s.vertexBuffers = ctx.VertexBuffers()
	ctx.SetVertexBuffers(cfg.vertices...)

	s.targets = ctx.RenderTargets()
	s.depthStencil, s.depthFormat = dev.DepthStencil()
	dev.SetRenderTargets(cfg.targets, nil, gputypes.TextureFormatUndefined)

	s.blend = ctx.BlendState()
	s.depth = ctx.DepthStencilState()
	s.rasterizer = ctx.RasterizerState()
	ctx.SetBlendState(gfx.BlendOpaque)
	ctx.SetDepthStencilState(gfx.DepthStencilNone)
	ctx.SetRasterizerState(gfx.RasterizerCullNone)

	s.viewport = ctx.Viewport()
	dev.SetViewport(cfg.viewport)
	return nil
}

// end ends the conversion pass and restores the retained state. The
// restore runs to completion even when ending the pass fails; that error
// is returned afterwards.
//
// A retained texture destroyed by its owner since begin is not rebound.
// Its slot keeps the plane bound by the pass while its sampler is
// restored.
func (b *stateBracket) end(ctx gfx.Context, dev gfx.Device, program gfx.Program) error {
	if !b.active {
		return ErrBracketNotActive
	}
	var passErr error
	if err := dev.EndPassRestore(program); err != nil {
		passErr = fmt.Errorf("end conversion pass: %w", err)
	}
	s := &b.saved

	ctx.SetBlendState(s.blend)
	ctx.SetDepthStencilState(s.depth)
	ctx.SetRasterizerState(s.rasterizer)

	if len(s.targets) == 0 {
		dev.SetRenderTargets(nil, nil, gputypes.TextureFormatUndefined)
	} else {
		dev.SetRenderTargets(s.targets, s.depthStencil, s.depthFormat)
	}
	dev.SetViewport(s.viewport)

	ctx.SetVertexBuffers(s.vertexBuffers...)

	for slot := 0; slot < planeSlots; slot++ {
		old := s.textures[slot]
		if old == nil || !old.IsDestroyed() {
			ctx.SetTexture(slot, old)
		} else {
			Logger().Warn("nv12: retained texture destroyed, not rebinding",
				slog.String("compositor", b.label), slog.Int("slot", slot))
		}
		ctx.SetSamplerState(slot, s.samplers[slot])
	}

	b.saved = savedState{}
	b.active = false
	return passErr
}
