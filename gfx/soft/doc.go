// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft implements gfx.Context in host memory.
//
// It is the reference context: every draw is rasterized synchronously on
// the CPU with programs given as gfx.FragmentFunc, and the full binding
// state can be captured with Context.Snapshot. This makes it suitable for
// tests and for headless tools that convert frames without a GPU.
//
// Like a hardware context, binding render targets through the high-level
// Context.SetRenderTargets clears those that do not preserve their
// contents; the low-level Device does not.
//
// Example:
//
//	ctx := soft.New()
//	rt, err := ctx.CreateRenderTarget(soft.RenderTargetDescriptor{Width: 640, Height: 480})
//	if err != nil {
//		return err
//	}
//	defer rt.Destroy()
package soft
