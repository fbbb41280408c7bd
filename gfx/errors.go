// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import "errors"

// Errors shared by Context implementations.
var (
	// ErrOutOfMemory is returned when a resource cannot be allocated.
	ErrOutOfMemory = errors.New("gfx: out of memory")

	// ErrInvalidSize is returned for non-positive or mismatched dimensions.
	ErrInvalidSize = errors.New("gfx: invalid size")

	// ErrUnsupportedFormat is returned for texture formats the
	// implementation cannot create or sample.
	ErrUnsupportedFormat = errors.New("gfx: unsupported format")

	// ErrDestroyed is returned when a destroyed resource is used.
	ErrDestroyed = errors.New("gfx: resource destroyed")

	// ErrForeignResource is returned when a resource created by another
	// implementation is passed in.
	ErrForeignResource = errors.New("gfx: resource belongs to another context")

	// ErrNoProgram is returned when drawing with no active program.
	ErrNoProgram = errors.New("gfx: no active program")

	// ErrNoRenderTarget is returned when drawing with no bound target.
	ErrNoRenderTarget = errors.New("gfx: no render target bound")

	// ErrNoVertexBuffer is returned when drawing with no bound vertex buffer.
	ErrNoVertexBuffer = errors.New("gfx: no vertex buffer bound")

	// ErrVertexRange is returned when a draw reads past the vertex buffer.
	ErrVertexRange = errors.New("gfx: draw exceeds vertex buffer")

	// ErrPassActive is returned when a pass begins while another is active.
	ErrPassActive = errors.New("gfx: pass already active")

	// ErrPassNotActive is returned when ending a pass that was not begun.
	ErrPassNotActive = errors.New("gfx: no pass active")

	// ErrTopology is returned for primitive topologies the implementation
	// cannot draw.
	ErrTopology = errors.New("gfx: unsupported primitive topology")
)
