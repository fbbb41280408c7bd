// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nv12/gfx"
)

// ErrNoFragment is returned by CreateProgram when the descriptor has no
// CPU fragment function.
var ErrNoFragment = errors.New("soft: program has no fragment function")

// Context is a software gfx.Context.
//
// All state lives in host memory and every draw is rasterized
// synchronously, so the effect of a call is observable as soon as it
// returns. Like every gfx.Context it is not safe for concurrent use.
type Context struct {
	opts options
	dev  *device

	textures [gfx.MaxTextureSlots]gfx.Texture
	samplers [gfx.MaxTextureSlots]*gfx.SamplerState

	vertexBuffers []gfx.VertexBufferBinding
	targets       []gfx.RenderTargetBinding
	depthStencil  gfx.Texture
	depthFormat   gputypes.TextureFormat

	blend      *gfx.BlendState
	depth      *gfx.DepthStencilState
	rasterizer *gfx.RasterizerState
	viewport   gfx.Viewport

	program     gfx.Program
	pass        *gfx.StateChanges
	passProgram *Program

	liveBytes int
	stats     Stats
}

var _ gfx.Context = (*Context)(nil)

// New creates a software context with default state: linear wrap
// sampling, alpha blending, depth testing and back-face culling, no bound
// targets.
func New(opts ...Option) *Context {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{
		opts:       o,
		blend:      gfx.BlendAlpha,
		depth:      gfx.DepthStencilDefault,
		rasterizer: gfx.RasterizerCullBack,
	}
	for i := range c.samplers {
		c.samplers[i] = gfx.SamplerLinearWrap
	}
	c.dev = &device{ctx: c}
	return c
}

// Device returns the low-level device of the context.
func (c *Context) Device() gfx.Device { return c.dev }

// CreateTexture allocates a zeroed texture. Color formats R8, RG8, RGBA8
// and BGRA8 plus the depth formats are supported.
func (c *Context) CreateTexture(width, height int, format gputypes.TextureFormat) (gfx.Texture, error) {
	t, err := c.newTexture(width, height, format)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Context) newTexture(width, height int, format gputypes.TextureFormat) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("create texture %dx%d: %w", width, height, gfx.ErrInvalidSize)
	}
	size := textureBytes(width, height, format)
	if size == 0 {
		return nil, fmt.Errorf("create texture: %v: %w", format, gfx.ErrUnsupportedFormat)
	}
	if c.opts.textureBudget > 0 && c.liveBytes+size > c.opts.textureBudget {
		return nil, fmt.Errorf("create texture %dx%d %v: %w", width, height, format, gfx.ErrOutOfMemory)
	}

	t := &Texture{ctx: c, width: width, height: height, format: format}
	if format.HasDepth() {
		t.depth = make([]float32, width*height)
		for i := range t.depth {
			t.depth[i] = 1
		}
	} else {
		t.pix = make([]byte, size)
	}
	c.liveBytes += size
	c.stats.TexturesCreated++
	return t, nil
}

// CreateRenderTarget allocates a render target and, when requested, its
// depth/stencil attachment.
func (c *Context) CreateRenderTarget(desc RenderTargetDescriptor) (*RenderTarget, error) {
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	if gfx.BytesPerTexel(format) != 4 {
		return nil, fmt.Errorf("create render target: %v: %w", format, gfx.ErrUnsupportedFormat)
	}
	color, err := c.newTexture(desc.Width, desc.Height, format)
	if err != nil {
		return nil, fmt.Errorf("create render target: %w", err)
	}
	rt := &RenderTarget{Texture: color, preserve: desc.PreserveContents}
	if desc.DepthFormat != gputypes.TextureFormatUndefined {
		if !desc.DepthFormat.HasDepth() {
			color.Destroy()
			return nil, fmt.Errorf("create render target depth: %v: %w", desc.DepthFormat, gfx.ErrUnsupportedFormat)
		}
		ds, err := c.newTexture(desc.Width, desc.Height, desc.DepthFormat)
		if err != nil {
			color.Destroy()
			return nil, fmt.Errorf("create render target depth: %w", err)
		}
		rt.depthStencil = ds
	}
	return rt, nil
}

// CreateVertexBuffer copies data into a new vertex buffer.
func (c *Context) CreateVertexBuffer(layout gfx.VertexLayout, data []byte) (gfx.VertexBuffer, error) {
	if layout.Stride <= 0 || len(data) == 0 || len(data)%layout.Stride != 0 {
		return nil, fmt.Errorf("create vertex buffer: stride %d, %d bytes: %w",
			layout.Stride, len(data), gfx.ErrInvalidSize)
	}
	for _, a := range layout.Attributes {
		n := components(a.Format)
		if n == 0 {
			return nil, fmt.Errorf("create vertex buffer: attribute %d format %v: %w",
				a.Location, a.Format, gfx.ErrUnsupportedFormat)
		}
		if a.Offset < 0 || a.Offset+n*4 > layout.Stride {
			return nil, fmt.Errorf("create vertex buffer: attribute %d exceeds stride: %w",
				a.Location, gfx.ErrInvalidSize)
		}
	}
	b := &VertexBuffer{
		ctx:    c,
		layout: gfx.VertexLayout{Stride: layout.Stride, Attributes: slices.Clone(layout.Attributes)},
		data:   slices.Clone(data),
		count:  len(data) / layout.Stride,
	}
	c.stats.BuffersCreated++
	return b, nil
}

// CreateProgram creates a program running desc.Fragment. The WGSL form is
// ignored.
func (c *Context) CreateProgram(desc gfx.ProgramDescriptor) (gfx.Program, error) {
	if desc.Fragment == nil {
		return nil, fmt.Errorf("create program %q: %w", desc.Label, ErrNoFragment)
	}
	if desc.TextureSlots < 0 || desc.TextureSlots > gfx.MaxTextureSlots {
		return nil, fmt.Errorf("create program %q: %d texture slots: %w",
			desc.Label, desc.TextureSlots, gfx.ErrInvalidSize)
	}
	p := &Program{
		ctx:        c,
		label:      desc.Label,
		fragment:   desc.Fragment,
		slots:      desc.TextureSlots,
		params:     maps.Clone(desc.Params),
		passParams: maps.Clone(desc.PassParams),
	}
	if p.params == nil {
		p.params = make(map[string]float32)
	}
	c.stats.ProgramsCreated++
	return p, nil
}

func checkSlot(slot int) {
	if slot < 0 || slot >= gfx.MaxTextureSlots {
		panic(fmt.Sprintf("soft: texture slot %d out of range [0, %d)", slot, gfx.MaxTextureSlots))
	}
}

// Texture returns the texture bound at slot, or nil.
func (c *Context) Texture(slot int) gfx.Texture {
	checkSlot(slot)
	return c.textures[slot]
}

// SetTexture binds t at slot.
//
// Binding a destroyed texture panics with an error wrapping
// gfx.ErrDestroyed.
func (c *Context) SetTexture(slot int, t gfx.Texture) {
	checkSlot(slot)
	if t != nil && t.IsDestroyed() {
		panic(fmt.Errorf("soft: bind texture at slot %d: %w", slot, gfx.ErrDestroyed))
	}
	c.textures[slot] = t
}

// SamplerState returns the sampler state at slot.
func (c *Context) SamplerState(slot int) *gfx.SamplerState {
	checkSlot(slot)
	return c.samplers[slot]
}

// SetSamplerState sets the sampler state at slot.
func (c *Context) SetSamplerState(slot int, s *gfx.SamplerState) {
	checkSlot(slot)
	c.samplers[slot] = s
}

// VertexBuffers returns a copy of the bound vertex buffers.
func (c *Context) VertexBuffers() []gfx.VertexBufferBinding {
	return slices.Clone(c.vertexBuffers)
}

// SetVertexBuffers replaces the bound vertex buffers.
func (c *Context) SetVertexBuffers(bindings ...gfx.VertexBufferBinding) {
	c.vertexBuffers = slices.Clone(bindings)
}

// RenderTargets returns a copy of the bound render targets.
func (c *Context) RenderTargets() []gfx.RenderTargetBinding {
	return slices.Clone(c.targets)
}

// SetRenderTargets binds targets together with the depth/stencil
// attachment of the first one. Targets that do not preserve their
// contents are cleared, and the viewport is reset to cover the first
// target, or to empty when nothing is bound.
func (c *Context) SetRenderTargets(targets ...gfx.RenderTargetBinding) {
	var ds gfx.Texture
	dsFormat := gputypes.TextureFormatUndefined
	if len(targets) > 0 && targets[0].Target != nil {
		ds = targets[0].Target.DepthStencilBuffer()
		dsFormat = targets[0].Target.DepthStencilFormat()
	}
	c.bindTargets(targets, ds, dsFormat)

	for _, b := range targets {
		rt, ok := b.Target.(*RenderTarget)
		if !ok || rt.destroyed || rt.preserve {
			continue
		}
		rt.clear(c.opts.clearColor)
		if rt.depthStencil != nil {
			rt.depthStencil.clear(c.opts.clearColor)
		}
		c.stats.Clears++
	}

	c.viewport = gfx.Viewport{}
	if len(targets) > 0 && targets[0].Target != nil {
		c.viewport = gfx.NewViewport(0, 0, targets[0].Target.Width(), targets[0].Target.Height())
	}
}

func (c *Context) bindTargets(targets []gfx.RenderTargetBinding, ds gfx.Texture, format gputypes.TextureFormat) {
	if len(targets) == 0 {
		c.targets = nil
	} else {
		c.targets = slices.Clone(targets)
	}
	c.depthStencil = ds
	c.depthFormat = format
}

// BlendState returns the bound blend state.
func (c *Context) BlendState() *gfx.BlendState { return c.blend }

// SetBlendState binds a blend state.
func (c *Context) SetBlendState(s *gfx.BlendState) { c.blend = s }

// DepthStencilState returns the bound depth-stencil state.
func (c *Context) DepthStencilState() *gfx.DepthStencilState { return c.depth }

// SetDepthStencilState binds a depth-stencil state.
func (c *Context) SetDepthStencilState(s *gfx.DepthStencilState) { c.depth = s }

// RasterizerState returns the bound rasterizer state.
func (c *Context) RasterizerState() *gfx.RasterizerState { return c.rasterizer }

// SetRasterizerState binds a rasterizer state.
func (c *Context) SetRasterizerState(s *gfx.RasterizerState) { c.rasterizer = s }

// Viewport returns the current viewport.
func (c *Context) Viewport() gfx.Viewport { return c.viewport }

// Program returns the active program, or nil.
func (c *Context) Program() gfx.Program { return c.program }

// ApplyProgram makes p the active program without starting a pass. A nil
// p leaves no program active. An active pass restores the program it
// replaced when it ends, whatever was applied meanwhile.
func (c *Context) ApplyProgram(p gfx.Program) error {
	if p == nil {
		c.program = nil
		return nil
	}
	prog, err := c.ownProgram(p)
	if err != nil {
		return fmt.Errorf("apply program: %w", err)
	}
	c.program = prog
	return nil
}

// DepthStencil returns the bound depth/stencil attachment and its format.
func (c *Context) DepthStencil() (gfx.Texture, gputypes.TextureFormat) {
	return c.depthStencil, c.depthFormat
}
