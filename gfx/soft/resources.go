// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"encoding/binary"
	"math"
	"maps"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// VertexBuffer holds interleaved vertex data in host memory.
type VertexBuffer struct {
	ctx       *Context
	layout    gfx.VertexLayout
	data      []byte
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

// Destroy releases the vertex data. Safe to call multiple times.
func (b *VertexBuffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.data = nil
	b.ctx.stats.BuffersDestroyed++
}

// vertex is a decoded vertex: clip position and texture coordinate.
type vertex struct {
	x, y, z float32
	u, v    float32
}

// decode reads vertex i. Location 0 is the position, location 1 the
// texture coordinate. Missing components read as zero.
func (b *VertexBuffer) decode(i int) vertex {
	base := i * b.layout.Stride
	var vx vertex
	for _, a := range b.layout.Attributes {
		comps := components(a.Format)
		var f [4]float32
		for c := 0; c < comps; c++ {
			off := base + a.Offset + c*4
			f[c] = math.Float32frombits(binary.LittleEndian.Uint32(b.data[off:]))
		}
		switch a.Location {
		case 0:
			vx.x, vx.y, vx.z = f[0], f[1], f[2]
		case 1:
			vx.u, vx.v = f[0], f[1]
		}
	}
	return vx
}

func components(f gputypes.VertexFormat) int {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1
	case gputypes.VertexFormatFloat32x2:
		return 2
	case gputypes.VertexFormatFloat32x3:
		return 3
	case gputypes.VertexFormatFloat32x4:
		return 4
	default:
		return 0
	}
}

// Program runs a CPU fragment function.
type Program struct {
	ctx        *Context
	label      string
	fragment   gfx.FragmentFunc
	slots      int
	params     map[string]float32
	passParams map[string]float32
	destroyed  bool
}

var _ gfx.Program = (*Program)(nil)

// Label returns the debug label.
func (p *Program) Label() string { return p.label }

// Param returns the current value of a named parameter.
func (p *Program) Param(name string) (float32, bool) {
	v, ok := p.params[name]
	return v, ok
}

// SetParam assigns a named parameter.
func (p *Program) SetParam(name string, value float32) {
	p.params[name] = value
}

// Params returns a copy of the current parameters.
func (p *Program) Params() map[string]float32 {
	return maps.Clone(p.params)
}

// IsDestroyed reports whether Destroy has been called.
func (p *Program) IsDestroyed() bool { return p.destroyed }

// Destroy releases the program. Safe to call multiple times.
func (p *Program) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.ctx.stats.ProgramsDestroyed++
}
