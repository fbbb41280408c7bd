// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/nv12/gfx"
)

// Compositor draws NV12 frames into one output render target.
//
// A Compositor is bound to the goroutine that owns its graphics context
// and must not be used concurrently.
type Compositor struct {
	ctx    gfx.Context
	dev    gfx.Device
	target gfx.RenderTarget
	opts   options

	program gfx.Program
	changes *gfx.StateChanges
	quad    gfx.VertexBuffer

	// Bindings of the conversion pass, computed once.
	vertices []gfx.VertexBufferBinding
	targets  []gfx.RenderTargetBinding

	pool    texturePool
	bracket stateBracket

	frames     uint64
	submitting bool
}

// Stats reports compositor activity.
type Stats struct {
	// Frames is the number of frames drawn.
	Frames uint64

	// Reallocations is the number of times the planes were (re)allocated.
	Reallocations uint64
}

// New creates a compositor drawing into target through ctx.
//
// The compositor creates its conversion program and quad geometry up
// front; frame textures are allocated by the first SubmitFrame. The target
// is borrowed and never destroyed by the compositor.
func New(ctx gfx.Context, target gfx.RenderTarget, opts ...Option) (*Compositor, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if target == nil {
		return nil, ErrNilTarget
	}
	if target.IsDestroyed() {
		return nil, fmt.Errorf("output target: %w", gfx.ErrDestroyed)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Compositor{
		ctx:     ctx,
		dev:     ctx.Device(),
		target:  target,
		opts:    o,
		changes: &gfx.StateChanges{},
		targets: []gfx.RenderTargetBinding{{Target: target}},
		bracket: stateBracket{label: o.label},
	}
	registerBackend(ctx)

	program, err := ctx.CreateProgram(o.program)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create conversion program: %w", err)
	}
	c.program = program

	quad, err := newQuad(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.quad = quad
	c.vertices = []gfx.VertexBufferBinding{{Buffer: quad}}

	Logger().Info("nv12: compositor created",
		slog.String("compositor", o.label),
		slog.Int("target_width", target.Width()),
		slog.Int("target_height", target.Height()))
	return c, nil
}

// FrameSize returns the number of bytes of an NV12 frame of the given
// size: the full-resolution luma plane followed by the interleaved
// half-resolution chroma plane.
func FrameSize(width, height int) int {
	return width*height + (width/2)*(height/2)*2
}

// SubmitFrame uploads one NV12 frame and draws it into the output target.
//
// data holds the luma plane (width x height bytes) immediately followed by
// the interleaved CbCr plane. Width and height must be positive and even.
//
// The pipeline state of the context is left as it was found, except that
// a texture bound at slot 0 or 1 which its owner destroyed is not rebound.
func (c *Compositor) SubmitFrame(data []byte, width, height int) error {
	if c == nil || c.ctx == nil {
		return ErrClosed
	}
	if c.submitting {
		return ErrReentrantSubmit
	}
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, width, height)
	}
	if need := FrameSize(width, height); len(data) < need {
		return fmt.Errorf("%w: %d bytes, need %d for %dx%d", ErrShortFrame, len(data), need, width, height)
	}
	c.submitting = true
	defer func() { c.submitting = false }()

	reallocated, err := c.pool.ensure(c.ctx, width, height)
	if err != nil {
		return err
	}
	if reallocated && (width != c.target.Width() || height != c.target.Height()) {
		Logger().Warn("nv12: frame size differs from output target",
			slog.String("compositor", c.opts.label),
			slog.Int("width", width), slog.Int("height", height),
			slog.Int("target_width", c.target.Width()),
			slog.Int("target_height", c.target.Height()))
	}

	if err := c.dev.UploadNV12(c.pool.luma, c.pool.chroma, data); err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}

	cfg := passConfig{
		program:  c.program,
		changes:  c.changes,
		planes:   [planeSlots]gfx.Texture{c.pool.luma, c.pool.chroma},
		sampler:  c.opts.sampler,
		vertices: c.vertices,
		targets:  c.targets,
		viewport: c.pool.viewport,
	}
	if err := c.drawBracketed(&cfg); err != nil {
		return err
	}

	c.frames++
	Logger().Debug("nv12: frame drawn",
		slog.String("compositor", c.opts.label),
		slog.Int("width", width), slog.Int("height", height))
	return nil
}

// drawBracketed draws the quad inside the state bracket. The bracket ends
// on every way out of the draw, panics included.
func (c *Compositor) drawBracketed(cfg *passConfig) (err error) {
	if err := c.bracket.begin(c.ctx, c.dev, cfg); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.bracket.end(c.ctx, c.dev, c.program))
	}()

	if err := c.ctx.DrawPrimitives(quadTopology, 0, quadPrimitives); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	return nil
}

// Stats returns the activity counters.
func (c *Compositor) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{Frames: c.frames, Reallocations: c.pool.reallocations}
}

// Close releases the frame textures, the quad geometry and the conversion
// program. It is safe to call on a nil Compositor and more than once.
// Resources already destroyed by someone else are skipped.
func (c *Compositor) Close() error {
	if c == nil || c.ctx == nil {
		return nil
	}
	ctx := c.ctx
	c.ctx, c.dev = nil, nil

	c.pool.release()
	if c.quad != nil && !c.quad.IsDestroyed() {
		c.quad.Destroy()
	}
	if c.program != nil && !c.program.IsDestroyed() {
		c.program.Destroy()
	}
	c.quad, c.program = nil, nil
	c.vertices, c.targets = nil, nil
	c.changes = nil
	c.target = nil

	unregisterBackend(ctx)
	Logger().Info("nv12: compositor closed",
		slog.String("compositor", c.opts.label),
		slog.Uint64("frames", c.frames))
	return nil
}
