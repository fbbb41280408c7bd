// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgfx implements gfx.Context on a wgpu HAL device.
//
// Programs are WGSL compiled to SPIR-V with naga. Texture slot i of a
// program is bound at @binding(2i) of group 0 and its sampler at
// @binding(2i+1). Render pipelines are built on first use for each
// combination of program, blend, depth-stencil, cull mode, topology,
// vertex layout and target formats, and cached for the life of the
// program.
//
// Each DrawPrimitives call records and submits one render pass and waits
// for it, which keeps the host-side binding model of gfx.Context exact at
// the cost of throughput. Binding targets through Context.SetRenderTargets
// schedules a clear that the next pass over the target performs; binding
// through the low-level Device loads the existing contents.
//
// Usage with a gogpu provider:
//
//	ctx, err := halgfx.NewFromProvider(app.DeviceProvider())
//	if err != nil {
//		return err
//	}
//	defer ctx.Destroy()
//
//	target, err := ctx.CreateRenderTarget(halgfx.RenderTargetDescriptor{Width: 1280, Height: 720})
package halgfx
