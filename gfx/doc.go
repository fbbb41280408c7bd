// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gfx defines the graphics context contract consumed by the NV12
// compositor.
//
// The host application owns the graphics context. The compositor borrows it
// for the duration of a single frame submission, mutates a well-defined
// subset of its state and puts everything back before returning. This
// package names that subset and the operations needed to read and write it.
//
// # Two levels
//
// A graphics context is exposed at two levels:
//
//   - Context is the high-level API an application normally uses. Setting
//     render targets through it may have side effects, most importantly an
//     implicit clear of targets that do not preserve their contents.
//   - Device is the low-level API underneath. Its render target and viewport
//     setters bind exactly what they are given and nothing else. It also
//     owns the pass-with-restore protocol of shader programs and the NV12
//     bulk upload fast path.
//
// Restoring a caller's render targets must go through Device so that the
// restore itself is invisible. This is a required primitive of every
// implementation, not an optimization.
//
// # State objects
//
// Sampler, blend, depth-stencil and rasterizer states are immutable values
// passed by pointer. Snapshots compare them by identity, so a restored
// state is the very object that was bound before. The package-level
// presets (SamplerLinearClamp, BlendOpaque, ...) are shared by all
// implementations and must not be modified.
//
// # Implementations
//
//   - gfx/soft: CPU reference implementation used by tests and tools.
//   - gfx/halgfx: GPU implementation on top of gogpu/wgpu/hal.
package gfx
