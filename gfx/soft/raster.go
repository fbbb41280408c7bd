// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// DrawPrimitives rasterizes triangles from the first bound vertex buffer
// into every bound render target using the active program.
//
// Pixel centers are sampled at half-integer coordinates with a top-left
// fill rule, so adjacent triangles never cover a pixel twice.
func (c *Context) DrawPrimitives(topology gputypes.PrimitiveTopology, startVertex, primitiveCount int) error {
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
	first := startVertex + binding.VertexOffset
	if first < 0 || first+n > vb.count {
		return fmt.Errorf("draw: vertices [%d, %d) of %d: %w", first, first+n, vb.count, gfx.ErrVertexRange)
	}

	targets := make([]*Texture, 0, len(c.targets))
	for i, b := range c.targets {
		tex, err := c.ownTexture(b.Target)
		if err != nil {
			return fmt.Errorf("draw: render target %d: %w", i, err)
		}
		targets = append(targets, tex)
	}

	samplers := make([]gfx.TextureSampler, prog.slots)
	for i := range samplers {
		s := boundSampler{state: c.samplers[i]}
		if c.textures[i] != nil {
			tex, err := c.ownTexture(c.textures[i])
			if err != nil {
				return fmt.Errorf("draw: texture slot %d: %w", i, err)
			}
			s.tex = tex
		}
		samplers[i] = s
	}

	var depth *Texture
	if ds := c.depth; ds != nil && ds.DepthEnabled && c.depthStencil != nil {
		if tex, err := c.ownTexture(c.depthStencil); err == nil && tex.depth != nil {
			depth = tex
		}
	}

	r := rasterizer{
		ctx:      c,
		prog:     prog,
		samplers: samplers,
		targets:  targets,
		depth:    depth,
	}
	for _, tri := range gfx.Triangles(topology, first, primitiveCount) {
		r.triangle(vb.decode(tri[0]), vb.decode(tri[1]), vb.decode(tri[2]))
	}
	c.stats.Draws++
	return nil
}

type rasterizer struct {
	ctx      *Context
	prog     *Program
	samplers []gfx.TextureSampler
	targets  []*Texture
	depth    *Texture
}

type point struct{ x, y float64 }

func edge(a, b, p point) float64 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

// topLeft reports whether edge a->b of a triangle with positive area is a
// top or left edge in y-down screen space.
func topLeft(a, b point) bool {
	dy := b.y - a.y
	return (dy == 0 && b.x > a.x) || dy < 0
}

func (r *rasterizer) culled(v0, v1, v2 vertex) bool {
	area := (v1.x-v0.x)*(v2.y-v0.y) - (v2.x-v0.x)*(v1.y-v0.y)
	if area == 0 {
		return true
	}
	mode := gputypes.CullModeNone
	if r.ctx.rasterizer != nil {
		mode = r.ctx.rasterizer.CullMode
	}
	front := area > 0
	switch mode {
	case gputypes.CullModeBack:
		return !front
	case gputypes.CullModeFront:
		return front
	default:
		return false
	}
}

func (r *rasterizer) triangle(v0, v1, v2 vertex) {
	if r.culled(v0, v1, v2) {
		return
	}
	vp := r.ctx.viewport
	toScreen := func(v vertex) point {
		return point{
			x: float64(vp.X) + (float64(v.x)+1)*0.5*float64(vp.Width),
			y: float64(vp.Y) + (1-float64(v.y))*0.5*float64(vp.Height),
		}
	}
	verts := [3]vertex{v0, v1, v2}
	p := [3]point{toScreen(v0), toScreen(v1), toScreen(v2)}
	area := edge(p[0], p[1], p[2])
	if area == 0 {
		return
	}
	if area < 0 {
		p[1], p[2] = p[2], p[1]
		verts[1], verts[2] = verts[2], verts[1]
		area = -area
	}

	// Clip to the viewport and to the smallest bound target.
	minX, minY := max(vp.X, 0), max(vp.Y, 0)
	maxX, maxY := vp.X+vp.Width, vp.Y+vp.Height
	for _, t := range r.targets {
		maxX = min(maxX, t.width)
		maxY = min(maxY, t.height)
	}
	x0 := max(minX, int(math.Floor(min(p[0].x, p[1].x, p[2].x))))
	y0 := max(minY, int(math.Floor(min(p[0].y, p[1].y, p[2].y))))
	x1 := min(maxX, int(math.Ceil(max(p[0].x, p[1].x, p[2].x))))
	y1 := min(maxY, int(math.Ceil(max(p[0].y, p[1].y, p[2].y))))

	tl := [3]bool{topLeft(p[1], p[2]), topLeft(p[2], p[0]), topLeft(p[0], p[1])}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c := point{float64(x) + 0.5, float64(y) + 0.5}
			w := [3]float64{edge(p[1], p[2], c), edge(p[2], p[0], c), edge(p[0], p[1], c)}
			if !inside(w, tl) {
				continue
			}
			l0, l1, l2 := float32(w[0]/area), float32(w[1]/area), float32(w[2]/area)
			u := l0*verts[0].u + l1*verts[1].u + l2*verts[2].u
			v := l0*verts[0].v + l1*verts[1].v + l2*verts[2].v
			z := l0*verts[0].z + l1*verts[1].z + l2*verts[2].z
			if !r.depthTest(x, y, vp.MinDepth+z*(vp.MaxDepth-vp.MinDepth)) {
				continue
			}
			src := r.prog.fragment(r.samplers, u, v, r.prog)
			for _, t := range r.targets {
				t.store(x, y, blend(r.ctx.blend, src, t.texel(x, y)))
			}
		}
	}
}

func inside(w [3]float64, tl [3]bool) bool {
	for i := range w {
		if w[i] < 0 || (w[i] == 0 && !tl[i]) {
			return false
		}
	}
	return true
}

func (r *rasterizer) depthTest(x, y int, z float32) bool {
	if r.depth == nil {
		return true
	}
	ds := r.ctx.depth
	stored := r.depth.Depth(x, y)
	if !compare(ds.DepthCompare, z, stored) {
		return false
	}
	if ds.DepthWriteEnabled && x < r.depth.width && y < r.depth.height {
		r.depth.depth[y*r.depth.width+x] = z
	}
	return true
}

func compare(f gputypes.CompareFunction, a, b float32) bool {
	switch f {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return a < b
	case gputypes.CompareFunctionEqual:
		return a == b
	case gputypes.CompareFunctionLessEqual:
		return a <= b
	case gputypes.CompareFunctionGreater:
		return a > b
	case gputypes.CompareFunctionNotEqual:
		return a != b
	case gputypes.CompareFunctionGreaterEqual:
		return a >= b
	default:
		return true
	}
}

func blend(s *gfx.BlendState, src, dst [4]float32) [4]float32 {
	if s == nil || !s.Enabled {
		return src
	}
	var out [4]float32
	for i := 0; i < 3; i++ {
		out[i] = combine(s.Color,
			src[i]*factor(s.Color.SrcFactor, i, src, dst),
			dst[i]*factor(s.Color.DstFactor, i, src, dst))
	}
	out[3] = combine(s.Alpha,
		src[3]*factor(s.Alpha.SrcFactor, 3, src, dst),
		dst[3]*factor(s.Alpha.DstFactor, 3, src, dst))
	return out
}

func combine(c gfx.BlendComponent, s, d float32) float32 {
	switch c.Operation {
	case gputypes.BlendOperationSubtract:
		return s - d
	case gputypes.BlendOperationReverseSubtract:
		return d - s
	case gputypes.BlendOperationMin:
		return min(s, d)
	case gputypes.BlendOperationMax:
		return max(s, d)
	default:
		return s + d
	}
}

func factor(f gputypes.BlendFactor, ch int, src, dst [4]float32) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorSrc:
		return src[ch]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[ch]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[ch]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[ch]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 1
		}
		return min(src[3], 1-dst[3])
	default:
		return 1
	}
}
