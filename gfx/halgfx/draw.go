// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nv12/gfx"
)

// DrawPrimitives records one render pass over the bound targets, draws
// from the first bound vertex buffer with the active program, submits it
// and waits for completion.
//
// Targets scheduled for a clear by SetRenderTargets are cleared by this
// pass; every other target is loaded.
func (c *Context) DrawPrimitives(topology gputypes.PrimitiveTopology, startVertex, primitiveCount int) error {
	if c.destroyed {
		return ErrContextDestroyed
	}
	if c.program == nil {
		return gfx.ErrNoProgram
	}
	prog, err := c.ownProgram(c.program)
	if err != nil {
		return fmt.Errorf("draw: program: %w", err)
	}
	if len(c.targets) == 0 {
		return gfx.ErrNoRenderTarget
	}
	if len(c.vertexBuffers) == 0 || c.vertexBuffers[0].Buffer == nil {
		return gfx.ErrNoVertexBuffer
	}
	binding := c.vertexBuffers[0]
	vb, ok := binding.Buffer.(*VertexBuffer)
	if !ok || vb.ctx != c {
		return fmt.Errorf("draw: vertex buffer: %w", gfx.ErrForeignResource)
	}
	if vb.destroyed {
		return fmt.Errorf("draw: vertex buffer: %w", gfx.ErrDestroyed)
	}

	n := gfx.VertexCount(topology, primitiveCount)
	if n < 0 {
		return fmt.Errorf("draw: %v: %w", topology, gfx.ErrTopology)
	}
	if binding.VertexOffset < 0 || startVertex < 0 || binding.VertexOffset+startVertex+n > vb.count {
		return fmt.Errorf("draw: vertices [%d, %d) of %d: %w",
			binding.VertexOffset+startVertex, binding.VertexOffset+startVertex+n, vb.count, gfx.ErrVertexRange)
	}

	targets := make([]*RenderTarget, 0, len(c.targets))
	formats := make([]gputypes.TextureFormat, 0, len(c.targets))
	for i, b := range c.targets {
		rt, err := c.ownTarget(b.Target)
		if err != nil {
			return fmt.Errorf("draw: render target %d: %w", i, err)
		}
		targets = append(targets, rt)
		formats = append(formats, rt.format)
	}

	var depth *Texture
	depthFormat := gputypes.TextureFormatUndefined
	if c.depthStencil != nil && c.depthFormat.HasDepth() {
		if tex, err := c.ownTexture(c.depthStencil); err == nil {
			depth = tex
			depthFormat = c.depthFormat
		}
	}

	entries, err := c.bindGroupEntries(prog)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	key := pipelineKey{
		program:      prog.id,
		topology:     topology,
		cullMode:     cullMode(c.rasterizer),
		blend:        derefBlend(c.blend),
		depth:        derefDepth(c.depth),
		depthFormat:  depthFormat,
		colorFormats: formats,
		layout:       vb.layout,
	}
	pipeline, err := c.pipelines.getOrCreate(&key, func() (hal.RenderPipeline, error) {
		return c.createPipeline(prog, &key)
	})
	if err != nil {
		return fmt.Errorf("draw: create pipeline: %w", err)
	}

	vp := c.viewport
	if vp.Width <= 0 || vp.Height <= 0 || n == 0 {
		return nil
	}

	bindGroup, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   prog.label,
		Layout:  prog.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("draw: bind group: %w", err)
	}
	defer c.device.DestroyBindGroup(bindGroup)

	enc, err := c.beginEncoder(prog.label)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	pass := enc.BeginRenderPass(c.renderPassDescriptor(prog.label, targets, depth))
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.SetVertexBuffer(0, vb.buf, uint64(binding.VertexOffset*vb.layout.Stride))
	pass.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), vp.MinDepth, vp.MaxDepth)
	pass.Draw(uint32(n), 1, uint32(startVertex), 0)
	pass.End()

	if err := c.submit(enc); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	for _, rt := range targets {
		if _, ok := c.pendingClear[rt]; ok {
			delete(c.pendingClear, rt)
			c.stats.Clears++
		}
	}
	c.stats.Draws++
	return nil
}

// bindGroupEntries binds every program slot. Empty slots read the blank
// texture.
func (c *Context) bindGroupEntries(prog *Program) ([]gputypes.BindGroupEntry, error) {
	entries := make([]gputypes.BindGroupEntry, 0, 2*prog.slots)
	for i := 0; i < prog.slots; i++ {
		tex := c.blank
		if c.textures[i] != nil {
			t, err := c.ownTexture(c.textures[i])
			if err != nil {
				return nil, fmt.Errorf("texture slot %d: %w", i, err)
			}
			tex = t
		}
		smp, err := c.sampler(c.samplers[i])
		if err != nil {
			return nil, fmt.Errorf("texture slot %d: %w", i, err)
		}
		entries = append(entries,
			gputypes.BindGroupEntry{
				Binding:  uint32(2 * i),
				Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()},
			},
			gputypes.BindGroupEntry{
				Binding:  uint32(2*i + 1),
				Resource: gputypes.SamplerBinding{Sampler: smp.NativeHandle()},
			},
		)
	}
	return entries, nil
}

func (c *Context) renderPassDescriptor(label string, targets []*RenderTarget, depth *Texture) *hal.RenderPassDescriptor {
	desc := &hal.RenderPassDescriptor{
		Label:            label,
		ColorAttachments: make([]hal.RenderPassColorAttachment, len(targets)),
	}
	for i, rt := range targets {
		desc.ColorAttachments[i] = hal.RenderPassColorAttachment{
			View:       rt.view,
			LoadOp:     c.loadOp(rt),
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c.opts.clearColor,
		}
	}
	if depth != nil {
		// The depth attachment belongs to the first target.
		load := c.loadOp(targets[0])
		att := &hal.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     load,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1,
		}
		if depth.format.HasStencil() {
			att.StencilLoadOp = load
			att.StencilStoreOp = gputypes.StoreOpStore
		}
		desc.DepthStencilAttachment = att
	}
	return desc
}

func (c *Context) loadOp(rt *RenderTarget) gputypes.LoadOp {
	if _, ok := c.pendingClear[rt]; ok {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

func (c *Context) beginEncoder(label string) (hal.CommandEncoder, error) {
	enc, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return enc, nil
}

// submit ends enc, submits it and blocks until the GPU has completed it.
func (c *Context) submit(enc hal.CommandEncoder) error {
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmd)

	index, err := c.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	c.stats.Submissions++
	if c.queue.PollCompleted() >= index {
		return nil
	}
	if err := c.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for submission %d: %w", index, err)
	}
	return nil
}

func cullMode(r *gfx.RasterizerState) gputypes.CullMode {
	if r == nil {
		return gputypes.CullModeNone
	}
	return r.CullMode
}

func derefBlend(s *gfx.BlendState) gfx.BlendState {
	if s == nil {
		return *gfx.BlendOpaque
	}
	return *s
}

func derefDepth(s *gfx.DepthStencilState) gfx.DepthStencilState {
	if s == nil {
		return *gfx.DepthStencilNone
	}
	return *s
}
