// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"maps"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// State is a comparable copy of everything a Context has bound.
type State struct {
	Textures      [gfx.MaxTextureSlots]gfx.Texture
	Samplers      [gfx.MaxTextureSlots]*gfx.SamplerState
	VertexBuffers []gfx.VertexBufferBinding
	RenderTargets []gfx.RenderTargetBinding
	DepthStencil  gfx.Texture
	DepthFormat   gputypes.TextureFormat
	Blend         *gfx.BlendState
	Depth         *gfx.DepthStencilState
	Rasterizer    *gfx.RasterizerState
	Viewport      gfx.Viewport
	Program       gfx.Program
	ProgramParams map[string]float32
}

// Snapshot captures the bound state. Bindings are compared by identity.
func (c *Context) Snapshot() State {
	s := State{
		Textures:      c.textures,
		Samplers:      c.samplers,
		VertexBuffers: c.VertexBuffers(),
		RenderTargets: c.RenderTargets(),
		DepthStencil:  c.depthStencil,
		DepthFormat:   c.depthFormat,
		Blend:         c.blend,
		Depth:         c.depth,
		Rasterizer:    c.rasterizer,
		Viewport:      c.viewport,
		Program:       c.program,
	}
	if p, ok := c.program.(*Program); ok {
		s.ProgramParams = p.Params()
	}
	return s
}

// Equal reports whether two snapshots bind the same objects.
func (s State) Equal(o State) bool {
	return len(s.Diff(o)) == 0
}

// Diff describes every binding that differs between two snapshots.
func (s State) Diff(o State) []string {
	var diffs []string
	add := func(format string, args ...any) {
		diffs = append(diffs, fmt.Sprintf(format, args...))
	}
	for i := range s.Textures {
		if s.Textures[i] != o.Textures[i] {
			add("texture slot %d", i)
		}
		if s.Samplers[i] != o.Samplers[i] {
			add("sampler slot %d", i)
		}
	}
	if !gfx.SameVertexBuffers(s.VertexBuffers, o.VertexBuffers) {
		add("vertex buffers")
	}
	if !gfx.SameRenderTargets(s.RenderTargets, o.RenderTargets) {
		add("render targets")
	}
	if s.DepthStencil != o.DepthStencil || s.DepthFormat != o.DepthFormat {
		add("depth/stencil attachment")
	}
	if s.Blend != o.Blend {
		add("blend state")
	}
	if s.Depth != o.Depth {
		add("depth-stencil state")
	}
	if s.Rasterizer != o.Rasterizer {
		add("rasterizer state")
	}
	if s.Viewport != o.Viewport {
		add("viewport %+v != %+v", s.Viewport, o.Viewport)
	}
	if s.Program != o.Program {
		add("program")
	}
	if !maps.Equal(s.ProgramParams, o.ProgramParams) {
		add("program params %v != %v", s.ProgramParams, o.ProgramParams)
	}
	return diffs
}

// Stats counts resources and work done by a Context.
type Stats struct {
	TexturesCreated   int
	TexturesDestroyed int
	BuffersCreated    int
	BuffersDestroyed  int
	ProgramsCreated   int
	ProgramsDestroyed int

	// Clears counts render targets cleared by high-level binding.
	Clears int

	Draws   int
	Uploads int
}

// LiveTextures returns the number of textures not yet destroyed.
func (s Stats) LiveTextures() int { return s.TexturesCreated - s.TexturesDestroyed }

// Stats returns the counters accumulated so far.
func (c *Context) Stats() Stats { return c.stats }

// LiveTextureBytes returns the bytes held by live textures.
func (c *Context) LiveTextureBytes() int { return c.liveBytes }
