// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgfx

import (
	"maps"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nv12/gfx"
)

// VertexBuffer is a HAL vertex buffer.
type VertexBuffer struct {
	ctx       *Context
	buf       hal.Buffer
	layout    gfx.VertexLayout
	count     int
	destroyed bool
}

var _ gfx.VertexBuffer = (*VertexBuffer)(nil)

// Layout returns the vertex layout.
func (b *VertexBuffer) Layout() gfx.VertexLayout { return b.layout }

// VertexCount returns the number of vertices.
func (b *VertexBuffer) VertexCount() int { return b.count }

// IsDestroyed reports whether Destroy has been called.
func (b *VertexBuffer) IsDestroyed() bool { return b.destroyed }

// Destroy releases the buffer. Safe to call multiple times.
func (b *VertexBuffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.ctx.device.DestroyBuffer(b.buf)
	b.buf = nil
}

// Program is a compiled shader module with its bind group and pipeline
// layouts. Render pipelines built from it are cached by the context and
// released with it.
type Program struct {
	ctx           *Context
	id            uint64
	label         string
	slots         int
	vertexEntry   string
	fragmentEntry string

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	layout     hal.PipelineLayout

	params     map[string]float32
	passParams map[string]float32
	destroyed  bool
}

var _ gfx.Program = (*Program)(nil)

// Label returns the debug label.
func (p *Program) Label() string { return p.label }

// Param returns a program parameter.
func (p *Program) Param(name string) (float32, bool) {
	v, ok := p.params[name]
	return v, ok
}

// SetParam assigns a program parameter.
func (p *Program) SetParam(name string, value float32) {
	p.params[name] = value
}

// Params returns a copy of all parameters.
func (p *Program) Params() map[string]float32 {
	return maps.Clone(p.params)
}

// IsDestroyed reports whether Destroy has been called.
func (p *Program) IsDestroyed() bool { return p.destroyed }

// Destroy releases the program and every pipeline built from it. Safe to
// call multiple times.
func (p *Program) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	d := p.ctx.device
	p.ctx.pipelines.evictProgram(d, p.id)
	if p.layout != nil {
		d.DestroyPipelineLayout(p.layout)
	}
	if p.bindLayout != nil {
		d.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		d.DestroyShaderModule(p.module)
	}
	p.layout, p.bindLayout, p.module = nil, nil, nil
}
