// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package nv12 draws raw NV12 video frames into a render target.
//
// # Overview
//
// An NV12 frame is a full-resolution 8-bit luma plane followed by an
// interleaved CbCr plane at half resolution in both directions. A
// Compositor uploads each frame into a luma (R8) and a chroma (RG8)
// texture and runs a conversion program over a full-screen quad, writing
// RGBA into its output target.
//
// # Pipeline state
//
// The compositor draws in the middle of the host's own frame. Every piece
// of state it touches (texture and sampler slots 0 and 1, vertex buffers,
// render targets and their depth/stencil attachment, blend, depth-stencil
// and rasterizer state, viewport, active program) is retained before the
// conversion pass and restored after it. Render targets are restored
// through the low-level gfx.Device so contents are never cleared.
//
// One exception: a texture the host destroyed after binding it at slot 0
// or 1 is not rebound, since binding a destroyed texture is undefined.
//
// # Quick Start
//
//	ctx := soft.New()
//	target, _ := ctx.CreateRenderTarget(soft.RenderTargetDescriptor{Width: 1280, Height: 720})
//
//	c, err := nv12.New(ctx, target)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	if err := c.SubmitFrame(frame, 1280, 720); err != nil {
//		return err
//	}
//
// # Threading
//
// A Compositor is used from the goroutine that owns its graphics context.
// It holds no locks.
package nv12
